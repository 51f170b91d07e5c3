package entity

import (
	"fmt"
	"time"

	"github.com/knightsgate/chess-backend/internal/apperror"
)

// StatusActive is the free-text status a game carries while it is being
// played. Terminal statuses are human-readable outcome descriptions set
// by the move and resignation flows.
const StatusActive = "active"

// Game is the persisted record of a chess match between two users.
// The board position is kept as a FEN string; CurrentTurnID references
// the user whose move the position encodes and is empty once the game
// has ended. Version backs optimistic concurrency in the repository.
type Game struct {
	ID               string    `json:"id"`
	Player1ID        string    `json:"player1_id"`
	Player1Name      string    `json:"player1_name"`
	Player2ID        string    `json:"player2_id,omitempty"`
	Player2Name      string    `json:"player2_name,omitempty"`
	FEN              string    `json:"fen"`
	CurrentTurnID    string    `json:"current_turn_id,omitempty"`
	IsActive         bool      `json:"is_active"`
	Status           string    `json:"status"`
	MoveCount        int       `json:"move_count"`
	Player1MoveCount int       `json:"player1_move_count"`
	Player2MoveCount int       `json:"player2_move_count"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (that *Game) IsParticipant(userID string) bool {
	if userID == "" {
		return false
	}
	return userID == that.Player1ID || userID == that.Player2ID
}

// RecordMove increments the mover's counter and the total move counter.
func (that *Game) RecordMove(userID string) {
	switch userID {
	case that.Player1ID:
		that.Player1MoveCount++
	case that.Player2ID:
		that.Player2MoveCount++
	}
	that.MoveCount++
}

// Finish ends the game with the given outcome description.
// Invariant: an inactive game never has a current turn.
func (that *Game) Finish(status string) {
	that.Status = status
	that.IsActive = false
	that.CurrentTurnID = ""
}

func (that *Game) PlayerName(userID string) string {
	switch userID {
	case that.Player1ID:
		return that.Player1Name
	case that.Player2ID:
		return that.Player2Name
	default:
		return ""
	}
}

func (that *Game) Opponent(userID string) (string, string) {
	if userID == that.Player1ID {
		return that.Player2ID, that.Player2Name
	}
	return that.Player1ID, that.Player1Name
}

// CurrentTurnName resolves the current-turn user to a display name.
// "unknown" is what clients expect for finished games.
func (that *Game) CurrentTurnName() string {
	if that.CurrentTurnID == "" {
		return "unknown"
	}
	return that.PlayerName(that.CurrentTurnID)
}

// Resign ends the game with a resignation status naming the winner.
func (that *Game) Resign(userID string) error {
	if !that.IsParticipant(userID) {
		return apperror.ErrNotParticipant
	}

	if !that.IsActive {
		return apperror.ErrGameFinished
	}

	_, winnerName := that.Opponent(userID)
	that.Finish(fmt.Sprintf("%s has resigned. %s wins!", that.PlayerName(userID), winnerName))

	return nil
}
