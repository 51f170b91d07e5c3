package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/knightsgate/chess-backend/internal/apperror"
)

// SessionRepository bridges to the session records the auth subsystem
// writes. Each open session is a "session:<id>" key holding the user id;
// expiry is handled by the key's TTL.
type SessionRepository interface {
	Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	UserIDBySession(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	ListOpenUserIDs(ctx context.Context) ([]string, error)
}

type dbSession struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) SessionRepository {
	return &dbSession{
		client: client,
	}
}

func (that *dbSession) Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	err := that.client.Set(ctx, sessionKey(sessionID), userID, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (that *dbSession) UserIDBySession(ctx context.Context, sessionID string) (string, error) {
	userID, err := that.client.Get(ctx, sessionKey(sessionID)).Result()

	if errors.Is(err, redis.Nil) {
		return "", apperror.ErrSessionNotFound
	}

	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}

	return userID, nil
}

func (that *dbSession) Delete(ctx context.Context, sessionID string) error {
	err := that.client.Del(ctx, sessionKey(sessionID)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// ListOpenUserIDs returns the deduplicated user ids behind every open
// session.
func (that *dbSession) ListOpenUserIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var userIDs []string

	var cursor uint64
	for {
		keys, next, err := that.client.Scan(ctx, cursor, sessionKey("*"), scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan sessions: %w", err)
		}

		for _, key := range keys {
			userID, err := that.client.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to get session: %w", err)
			}

			if _, ok := seen[userID]; ok {
				continue
			}
			seen[userID] = struct{}{}
			userIDs = append(userIDs, userID)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return userIDs, nil
}

func sessionKey(id string) string { return "session:" + id }
