package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/storage"
)

// Storage is a Redis-backed implementation of both stores.
// Conditional game writes use WATCH/MULTI so a concurrent writer aborts the transaction.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

var (
	_ storage.GameStore    = (*Storage)(nil)
	_ storage.ProfileStore = (*Storage)(nil)
)

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	stored := game.Clone()
	stored.Version = 1
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	claimKey := activeGameKey(game.Player1ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, claimKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return model.ErrActiveGameExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameKey(game.ID), data, s.cfg.GameTTL)
			pipe.Set(ctx, claimKey, string(game.ID), s.cfg.GameTTL)
			return nil
		})
		return err
	}, claimKey)
	if errors.Is(err, redis.TxFailedErr) {
		// Someone else wrote the claim between our check and EXEC
		return model.ErrActiveGameExists
	}
	if err != nil {
		return err
	}

	game.Version = 1
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return readGame(ctx, s.client, id)
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.Game, expectedVersion int64) error {
	stored := game.Clone()
	stored.Version = expectedVersion + 1
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	ttl := s.cfg.GameTTL
	if !game.Active() {
		ttl = s.cfg.FinishedGameTTL
	}

	key := gameKey(game.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGame(ctx, tx, game.ID)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return model.ErrVersionConflict
		}

		claimKeys := make([]string, 0, 4)
		for _, pid := range storage.ClaimedPlayers(current, game) {
			claimKeys = append(claimKeys, activeGameKey(pid))
		}
		if err := tx.Watch(ctx, claimKeys...).Err(); err != nil {
			return err
		}

		diff := storage.DiffClaims(current, game)
		for _, pid := range diff.Acquire {
			owner, err := claimOwner(ctx, tx, pid)
			if err != nil {
				return err
			}
			if owner != "" && owner != game.ID {
				return model.ErrActiveGameExists
			}
		}
		var release []string
		for _, pid := range diff.Release {
			owner, err := claimOwner(ctx, tx, pid)
			if err != nil {
				return err
			}
			if owner == game.ID {
				release = append(release, activeGameKey(pid))
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			if len(release) > 0 {
				pipe.Del(ctx, release...)
			}
			for _, pid := range diff.Acquire {
				pipe.Set(ctx, activeGameKey(pid), string(game.ID), s.cfg.GameTTL)
			}
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrVersionConflict
	}
	if err != nil {
		return err
	}

	game.Version = expectedVersion + 1
	return nil
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID, expectedVersion int64) error {
	key := gameKey(id)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGame(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return model.ErrVersionConflict
		}

		keys := []string{key}
		for _, pid := range current.Players() {
			owner, err := claimOwner(ctx, tx, pid)
			if err != nil {
				return err
			}
			if owner == id {
				keys = append(keys, activeGameKey(pid))
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrVersionConflict
	}
	return err
}

func (s *Storage) ActiveGameForPlayer(ctx context.Context, playerID model.PlayerID) (model.GameID, error) {
	owner, err := claimOwner(ctx, s.client, playerID)
	if err != nil {
		return "", err
	}
	if owner == "" {
		return "", model.ErrGameNotFound
	}
	return owner, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGame(ctx context.Context, c getter, id model.GameID) (*model.Game, error) {
	data, err := c.Get(ctx, gameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var game model.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func claimOwner(ctx context.Context, c getter, playerID model.PlayerID) (model.GameID, error) {
	owner, err := c.Get(ctx, activeGameKey(playerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return model.GameID(owner), nil
}

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	// Claim the username first so two registrations cannot both win
	ok, err := s.client.SetNX(ctx, usernameIndexKey(profile.Username), string(profile.ID), s.cfg.ProfileTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrUsernameExists
	}

	if err := s.client.Set(ctx, profileKey(profile.ID), data, s.cfg.ProfileTTL).Err(); err != nil {
		_ = s.client.Del(ctx, usernameIndexKey(profile.Username)).Err()
		return err
	}
	return nil
}

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	ok, err := s.client.SetXX(ctx, profileKey(profile.ID), data, s.cfg.ProfileTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrProfileNotFound
	}
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error) {
	data, err := s.client.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var p model.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	// Look up player ID from username index
	id, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	return s.GetProfile(ctx, model.PlayerID(id))
}
