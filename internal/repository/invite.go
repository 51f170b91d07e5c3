package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/knightsgate/chess-backend/internal/apperror"
	"github.com/knightsgate/chess-backend/internal/entity"
)

type InviteRepository interface {
	Create(ctx context.Context, sender, receiver *entity.User) (*entity.Invite, error)
	GetByID(ctx context.Context, id string) (*entity.Invite, error)
	Update(ctx context.Context, invite *entity.Invite) error
}

type dbInvite struct {
	client *redis.Client
}

func NewInviteRepository(client *redis.Client) InviteRepository {
	return &dbInvite{
		client: client,
	}
}

func (that *dbInvite) Create(ctx context.Context, sender, receiver *entity.User) (*entity.Invite, error) {
	invite := &entity.Invite{
		ID:           uuid.NewString(),
		SenderID:     sender.ID,
		SenderName:   sender.Username,
		ReceiverID:   receiver.ID,
		ReceiverName: receiver.Username,
		Status:       entity.InviteStatusPending,
		CreatedAt:    time.Now(),
	}

	if err := that.set(ctx, invite); err != nil {
		return nil, err
	}

	return invite, nil
}

func (that *dbInvite) GetByID(ctx context.Context, id string) (*entity.Invite, error) {
	response, err := that.client.Get(ctx, inviteKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrInviteNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get invite by ID: %w", err)
	}

	var existingInvite entity.Invite
	if err = json.Unmarshal([]byte(response), &existingInvite); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invite: %w", err)
	}

	return &existingInvite, nil
}

func (that *dbInvite) Update(ctx context.Context, invite *entity.Invite) error {
	return that.set(ctx, invite)
}

func (that *dbInvite) set(ctx context.Context, invite *entity.Invite) error {
	inviteJSON, err := json.Marshal(invite)
	if err != nil {
		return fmt.Errorf("could not marshal invite: %w", err)
	}

	err = that.client.Set(ctx, inviteKey(invite.ID), inviteJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set invite: %w", err)
	}

	return nil
}

func inviteKey(id string) string { return "invite:" + id }
