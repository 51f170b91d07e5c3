package apperror

import "errors"

var (
	ErrIllegalMove      = errors.New("illegal move")
	ErrGameFinished     = errors.New("game is already finished")
	ErrNotParticipant   = errors.New("not a participant")
	ErrNotAuthenticated = errors.New("not authenticated")

	ErrGameNotFound    = errors.New("game not found")
	ErrInviteNotFound  = errors.New("invite not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")

	ErrAlreadyPlaying    = errors.New("already playing a game with this user")
	ErrInviteResolved    = errors.New("invite is already resolved")
	ErrNotInviteReceiver = errors.New("responder is not the invite receiver")

	ErrConflict = errors.New("concurrent update conflict")
)
