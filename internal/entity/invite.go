package entity

import (
	"time"

	"github.com/knightsgate/chess-backend/internal/apperror"
)

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

// Invite is a pending request from one user to another to start a game.
// It resolves exactly once: pending -> accepted or pending -> declined.
type Invite struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	ReceiverID   string    `json:"receiver_id"`
	ReceiverName string    `json:"receiver_name"`
	GameID       string    `json:"game_id,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func (that *Invite) IsPending() bool {
	return that.Status == InviteStatusPending
}

// Accept resolves the invite and links it to the game it produced.
func (that *Invite) Accept(gameID string) error {
	if !that.IsPending() {
		return apperror.ErrInviteResolved
	}

	that.Status = InviteStatusAccepted
	that.GameID = gameID

	return nil
}

func (that *Invite) Decline() error {
	if !that.IsPending() {
		return apperror.ErrInviteResolved
	}

	that.Status = InviteStatusDeclined

	return nil
}
