package usecase

import (
	"context"
	"fmt"

	"github.com/knightsgate/chess-backend/internal/apperror"
	"github.com/knightsgate/chess-backend/internal/entity"
)

type userSessionRepo interface {
	UserIDBySession(ctx context.Context, sessionID string) (string, error)
}

// UserService resolves session cookies to authenticated users.
type UserService struct {
	sessionRepo userSessionRepo
	userRepo    userRepo
}

func NewUserService(sessionRepo userSessionRepo, userRepo userRepo) *UserService {
	return &UserService{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
	}
}

func (that *UserService) UserBySession(ctx context.Context, sessionID string) (*entity.User, error) {
	if sessionID == "" {
		return nil, apperror.ErrNotAuthenticated
	}

	userID, err := that.sessionRepo.UserIDBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotAuthenticated, err)
	}

	user, err := that.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotAuthenticated, err)
	}

	return user, nil
}
