package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightsgate/chess-backend/internal/apperror"
)

func TestInvite_Accept(t *testing.T) {
	t.Run("PendingInvite", func(t *testing.T) {
		invite := &Invite{ID: "i1", Status: InviteStatusPending}

		err := invite.Accept("g1")

		require.NoError(t, err)
		assert.Equal(t, InviteStatusAccepted, invite.Status)
		assert.Equal(t, "g1", invite.GameID)
	})

	t.Run("ResolvesExactlyOnce", func(t *testing.T) {
		invite := &Invite{ID: "i1", Status: InviteStatusPending}
		require.NoError(t, invite.Accept("g1"))

		// When: the invite is resolved a second time, either way
		errAccept := invite.Accept("g2")
		errDecline := invite.Decline()

		// Then: both transitions are rejected and the link is unchanged
		require.ErrorIs(t, errAccept, apperror.ErrInviteResolved)
		require.ErrorIs(t, errDecline, apperror.ErrInviteResolved)
		assert.Equal(t, InviteStatusAccepted, invite.Status)
		assert.Equal(t, "g1", invite.GameID)
	})
}

func TestInvite_Decline(t *testing.T) {
	invite := &Invite{ID: "i1", Status: InviteStatusPending}

	err := invite.Decline()

	require.NoError(t, err)
	assert.Equal(t, InviteStatusDeclined, invite.Status)
	assert.Empty(t, invite.GameID)

	require.ErrorIs(t, invite.Accept("g1"), apperror.ErrInviteResolved)
}
