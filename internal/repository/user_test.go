package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightsgate/chess-backend/internal/apperror"
	"github.com/knightsgate/chess-backend/internal/entity"
	"github.com/knightsgate/chess-backend/internal/repository/storage"
)

func newTestUserRepo(t *testing.T) UserRepository {
	t.Helper()

	db, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Init(context.Background()))

	return NewUserRepository(db.Connection)
}

func TestUserRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	userRepo := newTestUserRepo(t)

	require.NoError(t, userRepo.Save(ctx, alice))

	user, err := userRepo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Username, user.Username)
}

func TestUserRepository_SaveTwiceUpdates(t *testing.T) {
	ctx := context.Background()
	userRepo := newTestUserRepo(t)

	require.NoError(t, userRepo.Save(ctx, alice))
	require.NoError(t, userRepo.Save(ctx, &entity.User{ID: alice.ID, Username: "alicia"}))

	user, err := userRepo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", user.Username)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	userRepo := newTestUserRepo(t)

	_, err := userRepo.GetByID(ctx, "missing")

	require.ErrorIs(t, err, apperror.ErrUserNotFound)
}
