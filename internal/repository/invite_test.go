package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightsgate/chess-backend/internal/apperror"
	"github.com/knightsgate/chess-backend/internal/entity"
)

func TestInviteRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	inviteRepo := NewInviteRepository(newTestClient(t))

	// When: an invite is created
	invite, err := inviteRepo.Create(ctx, alice, bob)

	// Then: it is stored pending with both parties recorded
	require.NoError(t, err)
	require.NotEmpty(t, invite.ID)
	assert.True(t, invite.IsPending())

	stored, err := inviteRepo.GetByID(ctx, invite.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, stored.SenderID)
	assert.Equal(t, alice.Username, stored.SenderName)
	assert.Equal(t, bob.ID, stored.ReceiverID)
	assert.Equal(t, bob.Username, stored.ReceiverName)
}

func TestInviteRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	inviteRepo := NewInviteRepository(newTestClient(t))

	_, err := inviteRepo.GetByID(ctx, "missing")

	require.ErrorIs(t, err, apperror.ErrInviteNotFound)
}

func TestInviteRepository_Update(t *testing.T) {
	ctx := context.Background()
	inviteRepo := NewInviteRepository(newTestClient(t))

	invite, err := inviteRepo.Create(ctx, alice, bob)
	require.NoError(t, err)

	// When: the invite is resolved and written back
	require.NoError(t, invite.Accept("game-1"))
	require.NoError(t, inviteRepo.Update(ctx, invite))

	// Then: the stored record reflects the resolution
	stored, err := inviteRepo.GetByID(ctx, invite.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InviteStatusAccepted, stored.Status)
	assert.Equal(t, "game-1", stored.GameID)
	assert.False(t, stored.IsPending())
}
