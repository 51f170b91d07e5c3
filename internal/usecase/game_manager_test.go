package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightsgate/chess-backend/internal/apperror"
	"github.com/knightsgate/chess-backend/internal/chess"
	"github.com/knightsgate/chess-backend/internal/entity"
	"github.com/knightsgate/chess-backend/internal/repository"
)

var (
	alice = &entity.User{ID: "u1", Username: "alice"}
	bob   = &entity.User{ID: "u2", Username: "bob"}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGameRepo(t *testing.T) repository.GameRepository {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return repository.NewGameRepository(client)
}

func TestGameManager_Move(t *testing.T) {
	t.Run("OpeningMove", func(t *testing.T) {
		ctx := context.Background()
		gameRepo := newTestGameRepo(t)
		manager := NewGameManager(discardLogger(), gameRepo)

		game, err := gameRepo.Create(ctx, alice, bob)
		require.NoError(t, err)

		// When: player1 plays a legal opening move
		updated, err := manager.Move(ctx, game.ID, alice.ID, "e2e4")

		// Then: the position advances and the turn passes to player2
		require.NoError(t, err)
		assert.NotEqual(t, chess.StartingFEN, updated.FEN)
		assert.Equal(t, bob.ID, updated.CurrentTurnID)
		assert.Equal(t, 1, updated.MoveCount)
		assert.Equal(t, 1, updated.Player1MoveCount)
		assert.True(t, updated.IsActive)

		stored, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.FEN, stored.FEN)
	})

	t.Run("IllegalMoveLeavesGameUntouched", func(t *testing.T) {
		ctx := context.Background()
		gameRepo := newTestGameRepo(t)
		manager := NewGameManager(discardLogger(), gameRepo)

		game, err := gameRepo.Create(ctx, alice, bob)
		require.NoError(t, err)

		// When: a move no piece can make is submitted
		_, err = manager.Move(ctx, game.ID, alice.ID, "e2e5")

		// Then: it is rejected and the stored record is unchanged
		require.ErrorIs(t, err, apperror.ErrIllegalMove)

		stored, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, chess.StartingFEN, stored.FEN)
		assert.Equal(t, 0, stored.MoveCount)
	})

	t.Run("NotParticipant", func(t *testing.T) {
		ctx := context.Background()
		gameRepo := newTestGameRepo(t)
		manager := NewGameManager(discardLogger(), gameRepo)

		game, err := gameRepo.Create(ctx, alice, bob)
		require.NoError(t, err)

		_, err = manager.Move(ctx, game.ID, "stranger", "e2e4")

		require.ErrorIs(t, err, apperror.ErrNotParticipant)
	})

	t.Run("FinishedGame", func(t *testing.T) {
		ctx := context.Background()
		gameRepo := newTestGameRepo(t)
		manager := NewGameManager(discardLogger(), gameRepo)

		game, err := gameRepo.Create(ctx, alice, bob)
		require.NoError(t, err)

		game.Finish("done")
		require.NoError(t, gameRepo.Update(ctx, game))

		_, err = manager.Move(ctx, game.ID, alice.ID, "e2e4")

		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("UnknownGame", func(t *testing.T) {
		ctx := context.Background()
		manager := NewGameManager(discardLogger(), newTestGameRepo(t))

		_, err := manager.Move(ctx, "missing", alice.ID, "e2e4")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("CheckmateEndsGame", func(t *testing.T) {
		ctx := context.Background()
		gameRepo := newTestGameRepo(t)
		manager := NewGameManager(discardLogger(), gameRepo)

		game, err := gameRepo.Create(ctx, alice, bob)
		require.NoError(t, err)

		// Given: the fool's mate sequence, with the queen strike last
		for _, step := range []struct {
			userID string
			move   string
		}{
			{alice.ID, "f2f3"},
			{bob.ID, "e7e5"},
			{alice.ID, "g2g4"},
		} {
			_, err = manager.Move(ctx, game.ID, step.userID, step.move)
			require.NoError(t, err)
		}

		// When: black delivers mate
		updated, err := manager.Move(ctx, game.ID, bob.ID, "d8h4")

		// Then: the game ends, names black as winner and releases the turn
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
		assert.Equal(t, "bob won by checkmate", updated.Status)
		assert.Empty(t, updated.CurrentTurnID)
		assert.Equal(t, "unknown", updated.CurrentTurnName())
	})
}

func TestGameManager_Exit(t *testing.T) {
	t.Run("ResignationNamesOpponentWinner", func(t *testing.T) {
		ctx := context.Background()
		gameRepo := newTestGameRepo(t)
		manager := NewGameManager(discardLogger(), gameRepo)

		game, err := gameRepo.Create(ctx, alice, bob)
		require.NoError(t, err)

		updated, err := manager.Exit(ctx, game.ID, alice.ID)

		require.NoError(t, err)
		assert.False(t, updated.IsActive)
		assert.Equal(t, "alice has resigned. bob wins!", updated.Status)

		stored, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
	})

	t.Run("NotParticipant", func(t *testing.T) {
		ctx := context.Background()
		gameRepo := newTestGameRepo(t)
		manager := NewGameManager(discardLogger(), gameRepo)

		game, err := gameRepo.Create(ctx, alice, bob)
		require.NoError(t, err)

		_, err = manager.Exit(ctx, game.ID, "stranger")

		require.ErrorIs(t, err, apperror.ErrNotParticipant)
	})

	t.Run("AlreadyFinished", func(t *testing.T) {
		ctx := context.Background()
		gameRepo := newTestGameRepo(t)
		manager := NewGameManager(discardLogger(), gameRepo)

		game, err := gameRepo.Create(ctx, alice, bob)
		require.NoError(t, err)

		_, err = manager.Exit(ctx, game.ID, alice.ID)
		require.NoError(t, err)

		_, err = manager.Exit(ctx, game.ID, bob.ID)

		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}
