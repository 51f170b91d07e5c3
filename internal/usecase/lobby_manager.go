package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/knightsgate/chess-backend/internal/apperror"
	"github.com/knightsgate/chess-backend/internal/entity"
)

type userRepo interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

type lobbyGameRepo interface {
	Create(ctx context.Context, player1, player2 *entity.User) (*entity.Game, error)
	FindActiveBetween(ctx context.Context, userA, userB string) (*entity.Game, error)
	FindActiveFor(ctx context.Context, userID string) (*entity.Game, error)
	ListActiveUserIDs(ctx context.Context) (map[string]struct{}, error)
}

type inviteRepo interface {
	Create(ctx context.Context, sender, receiver *entity.User) (*entity.Invite, error)
	GetByID(ctx context.Context, id string) (*entity.Invite, error)
	Update(ctx context.Context, invite *entity.Invite) error
}

type sessionRepo interface {
	ListOpenUserIDs(ctx context.Context) ([]string, error)
}

// LobbyManager owns the lobby flows: presence queries, invite creation
// and resolution, and the active-game status check.
type LobbyManager struct {
	logger      *slog.Logger
	userRepo    userRepo
	gameRepo    lobbyGameRepo
	inviteRepo  inviteRepo
	sessionRepo sessionRepo
}

func NewLobbyManager(logger *slog.Logger, userRepo userRepo, gameRepo lobbyGameRepo, inviteRepo inviteRepo, sessionRepo sessionRepo) *LobbyManager {
	return &LobbyManager{
		logger:      logger,
		userRepo:    userRepo,
		gameRepo:    gameRepo,
		inviteRepo:  inviteRepo,
		sessionRepo: sessionRepo,
	}
}

// ActiveUsers computes presence for one requester: every user with an
// open session, minus participants of active games, minus the requester.
// Sessions whose user record is gone are skipped rather than failing the
// whole list.
func (that *LobbyManager) ActiveUsers(ctx context.Context, requesterID string) ([]*entity.User, error) {
	log := that.logger.With("method", "ActiveUsers")

	openUserIDs, err := that.sessionRepo.ListOpenUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}

	busy, err := that.gameRepo.ListActiveUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active game users: %w", err)
	}

	var users []*entity.User
	for _, userID := range openUserIDs {
		if userID == requesterID {
			continue
		}
		if _, inGame := busy[userID]; inGame {
			continue
		}

		user, err := that.userRepo.GetByID(ctx, userID)
		if err != nil {
			log.Warn("skipping unresolvable session user", "userID", userID, "error", err)
			continue
		}

		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	return users, nil
}

// SendInvite creates a pending invite from sender to the given user, who
// must exist and not already be in an active game with the sender.
func (that *LobbyManager) SendInvite(ctx context.Context, sender *entity.User, receiverID string) (*entity.Invite, error) {
	receiver, err := that.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve receiver: %w", err)
	}

	existing, err := that.gameRepo.FindActiveBetween(ctx, sender.ID, receiver.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing games: %w", err)
	}
	if existing != nil {
		return nil, apperror.ErrAlreadyPlaying
	}

	invite, err := that.inviteRepo.Create(ctx, sender, receiver)
	if err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	return invite, nil
}

// AcceptInvite resolves a pending invite addressed to the responder and
// creates the game it asked for: sender as player1, receiver as player2,
// player1 to move.
func (that *LobbyManager) AcceptInvite(ctx context.Context, responderID, inviteID string) (*entity.Invite, *entity.Game, error) {
	invite, err := that.pendingInviteFor(ctx, responderID, inviteID)
	if err != nil {
		return nil, nil, err
	}

	sender := &entity.User{ID: invite.SenderID, Username: invite.SenderName}
	receiver := &entity.User{ID: invite.ReceiverID, Username: invite.ReceiverName}

	game, err := that.gameRepo.Create(ctx, sender, receiver)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = invite.Accept(game.ID); err != nil {
		return nil, nil, err
	}

	if err = that.inviteRepo.Update(ctx, invite); err != nil {
		return nil, nil, fmt.Errorf("failed to update invite: %w", err)
	}

	return invite, game, nil
}

// DeclineInvite resolves a pending invite addressed to the responder.
func (that *LobbyManager) DeclineInvite(ctx context.Context, responderID, inviteID string) (*entity.Invite, error) {
	invite, err := that.pendingInviteFor(ctx, responderID, inviteID)
	if err != nil {
		return nil, err
	}

	if err = invite.Decline(); err != nil {
		return nil, err
	}

	if err = that.inviteRepo.Update(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to update invite: %w", err)
	}

	return invite, nil
}

// ActiveGameFor returns the user's active game, or nil when there is none.
func (that *LobbyManager) ActiveGameFor(ctx context.Context, userID string) (*entity.Game, error) {
	game, err := that.gameRepo.FindActiveFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find active game: %w", err)
	}

	return game, nil
}

func (that *LobbyManager) pendingInviteFor(ctx context.Context, responderID, inviteID string) (*entity.Invite, error) {
	invite, err := that.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}

	if invite.ReceiverID != responderID {
		return nil, apperror.ErrNotInviteReceiver
	}

	if !invite.IsPending() {
		return nil, apperror.ErrInviteResolved
	}

	return invite, nil
}
