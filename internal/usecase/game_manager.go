package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/knightsgate/chess-backend/internal/apperror"
	"github.com/knightsgate/chess-backend/internal/chess"
	"github.com/knightsgate/chess-backend/internal/entity"
)

// maxMoveRetries bounds how often a move is reapplied after losing an
// optimistic-concurrency race before the conflict is surfaced.
const maxMoveRetries = 3

type gameRepo interface {
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	Update(ctx context.Context, game *entity.Game) error
}

// GameManager owns the live-game flows: applying validated moves and
// handling resignations. Every mutation is a full read-validate-apply
// cycle so a conflicting concurrent write can be retried from scratch.
type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo) *GameManager {
	return &GameManager{
		logger:   logger,
		gameRepo: gameRepo,
	}
}

// Move applies a move by the given user to the game. It fails without
// touching stored state when the user is not a participant, the game has
// ended, or the move is illegal in the current position. On success the
// returned game carries the new position and either the flipped turn or a
// terminal outcome.
func (that *GameManager) Move(ctx context.Context, gameID, userID, move string) (*entity.Game, error) {
	log := that.logger.With("method", "Move", "gameID", gameID)

	for attempt := 0; attempt < maxMoveRetries; attempt++ {
		game, err := that.gameRepo.GetByID(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("failed to get game: %w", err)
		}

		if !game.IsParticipant(userID) {
			return nil, apperror.ErrNotParticipant
		}

		if !game.IsActive {
			return nil, apperror.ErrGameFinished
		}

		newFEN, err := chess.Apply(game.FEN, move)
		if err != nil {
			return nil, err
		}

		game.FEN = newFEN
		game.RecordMove(userID)

		status, sideToMove, err := chess.Terminal(newFEN)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate position: %w", err)
		}

		that.settle(game, status, sideToMove)

		err = that.gameRepo.Update(ctx, game)
		if errors.Is(err, apperror.ErrConflict) {
			log.Warn("move lost an update race, retrying", "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update game: %w", err)
		}

		return game, nil
	}

	return nil, apperror.ErrConflict
}

// Exit resigns the user from the game, naming the opponent as winner.
func (that *GameManager) Exit(ctx context.Context, gameID, userID string) (*entity.Game, error) {
	log := that.logger.With("method", "Exit", "gameID", gameID)

	for attempt := 0; attempt < maxMoveRetries; attempt++ {
		game, err := that.gameRepo.GetByID(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("failed to get game: %w", err)
		}

		if err = game.Resign(userID); err != nil {
			return nil, err
		}

		err = that.gameRepo.Update(ctx, game)
		if errors.Is(err, apperror.ErrConflict) {
			log.Warn("resignation lost an update race, retrying", "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update game: %w", err)
		}

		return game, nil
	}

	return nil, apperror.ErrConflict
}

// settle folds the terminal evaluation into the record: checkmate names
// the winner by side-to-move parity, every draw condition ends the game
// with its description, and otherwise the turn passes to the player whose
// side the position says is to move.
func (that *GameManager) settle(game *entity.Game, status chess.Status, sideToMove chess.Color) {
	switch status {
	case chess.StatusCheckmate:
		winnerName := game.Player1Name
		if sideToMove == chess.White {
			winnerName = game.Player2Name
		}
		game.Finish(fmt.Sprintf("%s won by checkmate", winnerName))
	case chess.StatusStalemate:
		game.Finish(fmt.Sprintf("Game drawn by stalemate between %s and %s", game.Player1Name, game.Player2Name))
	case chess.StatusInsufficientMaterial:
		game.Finish("Draw by insufficient material")
	case chess.StatusFivefoldRepetition:
		game.Finish("Draw by repetition")
	default:
		if sideToMove == chess.White {
			game.CurrentTurnID = game.Player1ID
		} else {
			game.CurrentTurnID = game.Player2ID
		}
	}
}
