package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/knightsgate/chess-backend/internal/apperror"
	"github.com/knightsgate/chess-backend/internal/router"
)

func (that *Server) handleMove(ctx context.Context, client *Client, gameID string, req *request) error {
	log := that.logger.With("method", "handleMove", "gameID", gameID)

	game, err := that.games.Move(ctx, gameID, client.UserID(), req.Move)
	switch {
	case errors.Is(err, apperror.ErrNotParticipant):
		client.Enqueue(gameErrorEvent("You are not a player in this game."))
		return nil
	case errors.Is(err, apperror.ErrIllegalMove):
		client.Enqueue(gameErrorEvent("Invalid move"))
		return nil
	case errors.Is(err, apperror.ErrGameFinished):
		client.Enqueue(gameErrorEvent("Game is already finished"))
		return nil
	case errors.Is(err, apperror.ErrGameNotFound):
		client.Enqueue(gameErrorEvent("Game not found"))
		return nil
	case errors.Is(err, apperror.ErrConflict):
		client.Enqueue(gameErrorEvent("Move was not applied, please try again"))
		return nil
	case err != nil:
		client.Enqueue(gameErrorEvent("Failed to apply move"))
		return fmt.Errorf("failed to apply move: %w", err)
	}

	that.groups.Send(router.GameGroup(gameID), moveEvent(game))

	log.Info("move applied", "userID", client.UserID(), "fen", game.FEN, "status", game.Status)

	return nil
}

func (that *Server) handleExit(ctx context.Context, client *Client, gameID string, _ *request) error {
	log := that.logger.With("method", "handleExit", "gameID", gameID)

	if client.UserID() == "" {
		client.Enqueue(gameErrorEvent("User not authenticated"))
		return nil
	}

	game, err := that.games.Exit(ctx, gameID, client.UserID())
	switch {
	case errors.Is(err, apperror.ErrNotParticipant):
		client.Enqueue(gameErrorEvent("You are not a player in this game"))
		return nil
	case errors.Is(err, apperror.ErrGameFinished):
		client.Enqueue(gameErrorEvent("Game is already finished"))
		return nil
	case errors.Is(err, apperror.ErrGameNotFound):
		client.Enqueue(gameErrorEvent("Game not found"))
		return nil
	case errors.Is(err, apperror.ErrConflict):
		client.Enqueue(gameErrorEvent("Resignation was not applied, please try again"))
		return nil
	case err != nil:
		client.Enqueue(gameErrorEvent("Failed to resign"))
		return fmt.Errorf("failed to resign: %w", err)
	}

	that.groups.Send(router.GameGroup(gameID), gameStatusEvent(game.Status))

	log.Info("player resigned", "userID", client.UserID(), "status", game.Status)

	return nil
}
