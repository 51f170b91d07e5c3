package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/knightsgate/chess-backend/internal/apperror"
	"github.com/knightsgate/chess-backend/internal/chess"
	"github.com/knightsgate/chess-backend/internal/entity"
)

type GameRepository interface {
	Create(ctx context.Context, player1, player2 *entity.User) (*entity.Game, error)
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	Update(ctx context.Context, game *entity.Game) error
	FindActiveBetween(ctx context.Context, userA, userB string) (*entity.Game, error)
	FindActiveFor(ctx context.Context, userID string) (*entity.Game, error)
	ListActiveUserIDs(ctx context.Context) (map[string]struct{}, error)
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

// Create stores a new active game with player1 to move from the starting
// position and indexes it for both participants.
func (that *dbGame) Create(ctx context.Context, player1, player2 *entity.User) (*entity.Game, error) {
	now := time.Now()
	game := &entity.Game{
		ID:            uuid.NewString(),
		Player1ID:     player1.ID,
		Player1Name:   player1.Username,
		Player2ID:     player2.ID,
		Player2Name:   player2.Username,
		FEN:           chess.StartingFEN,
		CurrentTurnID: player1.ID,
		IsActive:      true,
		Status:        entity.StatusActive,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return nil, fmt.Errorf("could not marshal game: %w", err)
	}

	pipe := that.client.TxPipeline()
	pipe.Set(ctx, gameKey(game.ID), gameJSON, 0)
	pipe.SAdd(ctx, userGamesKey(game.Player1ID), game.ID)
	pipe.SAdd(ctx, userGamesKey(game.Player2ID), game.ID)
	if _, err = pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to set game: %w", err)
	}

	return game, nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

// Update persists the game only if no other writer has updated it since it
// was read. A version mismatch or an interleaved write fails with
// ErrConflict and leaves the stored record untouched; callers re-read and
// reapply. On success the caller's copy carries the new version.
func (that *dbGame) Update(ctx context.Context, game *entity.Game) error {
	key := gameKey(game.ID)

	next := *game
	next.Version++
	next.UpdatedAt = time.Now()

	err := that.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return apperror.ErrGameNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get game by ID: %w", err)
		}

		var stored entity.Game
		if err = json.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("failed to unmarshal game: %w", err)
		}

		if stored.Version != game.Version {
			return apperror.ErrConflict
		}

		gameJSON, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("could not marshal game: %w", err)
		}

		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, gameJSON, 0)
		_, err = pipe.Exec(ctx)
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return apperror.ErrConflict
	}
	if err != nil {
		return err
	}

	*game = next

	return nil
}

// FindActiveBetween returns the most recently updated active game with
// both users as participants, in either player slot. Nil when none exists.
func (that *dbGame) FindActiveBetween(ctx context.Context, userA, userB string) (*entity.Game, error) {
	games, err := that.activeGamesFor(ctx, userA)
	if err != nil {
		return nil, err
	}

	for _, game := range games {
		if game.IsParticipant(userB) {
			return game, nil
		}
	}

	return nil, nil
}

// FindActiveFor returns the most recently updated active game the user is
// a participant in, or nil.
func (that *dbGame) FindActiveFor(ctx context.Context, userID string) (*entity.Game, error) {
	games, err := that.activeGamesFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(games) == 0 {
		return nil, nil
	}

	return games[0], nil
}

// ListActiveUserIDs collects the participants of every active game, used
// to exclude busy users from lobby presence.
func (that *dbGame) ListActiveUserIDs(ctx context.Context) (map[string]struct{}, error) {
	busy := make(map[string]struct{})

	var cursor uint64
	for {
		keys, next, err := that.client.Scan(ctx, cursor, userGamesKey("*"), scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan game indexes: %w", err)
		}

		for _, key := range keys {
			ids, err := that.client.SMembers(ctx, key).Result()
			if err != nil {
				return nil, fmt.Errorf("failed to read game index: %w", err)
			}

			for _, id := range ids {
				game, err := that.GetByID(ctx, id)
				if errors.Is(err, apperror.ErrGameNotFound) {
					continue
				}
				if err != nil {
					return nil, err
				}

				if !game.IsActive {
					continue
				}

				busy[game.Player1ID] = struct{}{}
				busy[game.Player2ID] = struct{}{}
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return busy, nil
}

func (that *dbGame) activeGamesFor(ctx context.Context, userID string) ([]*entity.Game, error) {
	ids, err := that.client.SMembers(ctx, userGamesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read game index: %w", err)
	}

	var games []*entity.Game
	for _, id := range ids {
		game, err := that.GetByID(ctx, id)
		if errors.Is(err, apperror.ErrGameNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if game.IsActive {
			games = append(games, game)
		}
	}

	sort.Slice(games, func(i, j int) bool { return games[i].UpdatedAt.After(games[j].UpdatedAt) })

	return games, nil
}

const scanBatchSize = 100

func gameKey(id string) string { return "game:" + id }

func userGamesKey(userID string) string { return "games:user:" + userID }
