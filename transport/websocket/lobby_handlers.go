package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/knightsgate/chess-backend/internal/apperror"
	"github.com/knightsgate/chess-backend/internal/router"
)

func (that *Server) handleFetchActiveUsers(ctx context.Context, client *Client, _ *request) error {
	users, err := that.lobby.ActiveUsers(ctx, client.UserID())
	if err != nil {
		client.Enqueue(lobbyErrorEvent("Failed to fetch active users"))
		return fmt.Errorf("failed to fetch active users: %w", err)
	}

	client.Enqueue(activeUsersEvent(users))

	return nil
}

func (that *Server) handleSendInvite(ctx context.Context, client *Client, req *request) error {
	log := that.logger.With("method", "handleSendInvite")

	if req.UserID == "" {
		client.Enqueue(lobbyErrorEvent("User ID is required"))
		return nil
	}

	invite, err := that.lobby.SendInvite(ctx, client.user, req.UserID)
	switch {
	case errors.Is(err, apperror.ErrUserNotFound):
		client.Enqueue(lobbyErrorEvent("User does not exist"))
		return nil
	case errors.Is(err, apperror.ErrAlreadyPlaying):
		client.Enqueue(lobbyErrorEvent("You are already playing a game with this user."))
		return nil
	case err != nil:
		client.Enqueue(lobbyErrorEvent("Failed to send invite"))
		return fmt.Errorf("failed to send invite: %w", err)
	}

	that.groups.Send(router.UserGroup(invite.ReceiverID), receiveInviteEvent(invite.ID, invite.SenderName))
	client.Enqueue(inviteSentEvent(fmt.Sprintf("Invite sent to %s.", invite.ReceiverName)))

	log.Info("invite sent", "inviteID", invite.ID, "sender", invite.SenderID, "receiver", invite.ReceiverID)

	return nil
}

func (that *Server) handleRespondInvite(ctx context.Context, client *Client, req *request) error {
	log := that.logger.With("method", "handleRespondInvite")

	if req.InviteID == "" || req.Response == "" {
		client.Enqueue(lobbyErrorEvent("Invite ID and response are required"))
		return nil
	}

	switch req.Response {
	case "accept":
		invite, game, err := that.lobby.AcceptInvite(ctx, client.UserID(), req.InviteID)
		if handled := that.replyInviteError(client, err); handled {
			return nil
		}
		if err != nil {
			client.Enqueue(lobbyErrorEvent("Failed to respond to invite"))
			return fmt.Errorf("failed to accept invite: %w", err)
		}

		// both participants learn the game id through their private groups
		that.groups.Send(router.UserGroup(invite.SenderID), startGameEvent(game.ID))
		that.groups.Send(router.UserGroup(invite.ReceiverID), startGameEvent(game.ID))

		log.Info("invite accepted", "inviteID", invite.ID, "gameID", game.ID)
	case "decline":
		invite, err := that.lobby.DeclineInvite(ctx, client.UserID(), req.InviteID)
		if handled := that.replyInviteError(client, err); handled {
			return nil
		}
		if err != nil {
			client.Enqueue(lobbyErrorEvent("Failed to respond to invite"))
			return fmt.Errorf("failed to decline invite: %w", err)
		}

		that.groups.Send(router.UserGroup(invite.SenderID), inviteDeclinedEvent(invite.ReceiverName))

		log.Info("invite declined", "inviteID", invite.ID)
	default:
		client.Enqueue(lobbyErrorEvent("Invalid response"))
	}

	return nil
}

func (that *Server) handleCheckGameStatus(ctx context.Context, client *Client, _ *request) error {
	game, err := that.lobby.ActiveGameFor(ctx, client.UserID())
	if err != nil {
		client.Enqueue(lobbyErrorEvent("Failed to check game status"))
		return fmt.Errorf("failed to check game status: %w", err)
	}

	client.Enqueue(lobbyGameStatusEvent(game))

	return nil
}

// replyInviteError maps invite resolution failures to their sender-only
// messages. It reports whether the error was handled.
func (that *Server) replyInviteError(client *Client, err error) bool {
	switch {
	case errors.Is(err, apperror.ErrInviteNotFound):
		client.Enqueue(lobbyErrorEvent("Invite does not exist"))
		return true
	case errors.Is(err, apperror.ErrNotInviteReceiver), errors.Is(err, apperror.ErrInviteResolved):
		client.Enqueue(lobbyErrorEvent("Invalid invite"))
		return true
	default:
		return false
	}
}
