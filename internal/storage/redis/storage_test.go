package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/storage"
	"github.com/mcoot/battleship-go/internal/storage/storagetest"
)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	cfg := DefaultConfig()
	cfg.GameTTL = time.Hour
	cfg.FinishedGameTTL = 10 * time.Minute

	s := NewWithClient(client, cfg)
	t.Cleanup(func() { _ = s.Close() })
	return s, mini
}

func TestGameStore(t *testing.T) {
	suite.Run(t, &storagetest.GameStoreSuite{
		NewStore: func() storage.GameStore {
			s, _ := newTestStorage(t)
			return s
		},
	})
}

func TestProfileStore(t *testing.T) {
	suite.Run(t, &storagetest.ProfileStoreSuite{
		NewStore: func() storage.ProfileStore {
			s, _ := newTestStorage(t)
			return s
		},
	})
}

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage, s.mini = newTestStorage(s.T())
	s.ctx = context.Background()
}

func (s *StorageSuite) TestGameKeysUsePrefix() {
	g := &model.Game{ID: "game-1", Player1ID: "alice", Status: model.StatusWaiting}
	s.Require().NoError(s.storage.CreateGame(s.ctx, g))

	s.True(s.mini.Exists("bship:game:game-1"))
	owner, err := s.mini.Get("bship:active:alice")
	s.Require().NoError(err)
	s.Equal("game-1", owner)
}

func (s *StorageSuite) TestFinishedGameGetsShorterTTL() {
	g := &model.Game{ID: "game-1", Player1ID: "alice", Status: model.StatusWaiting}
	s.Require().NoError(s.storage.CreateGame(s.ctx, g))
	s.Equal(time.Hour, s.mini.TTL(gameKey("game-1")))

	g.Status = model.StatusFinished
	s.Require().NoError(s.storage.UpdateGame(s.ctx, g, g.Version))
	s.Equal(10*time.Minute, s.mini.TTL(gameKey("game-1")))
	s.False(s.mini.Exists(activeGameKey("alice")))
}

func (s *StorageSuite) TestExpiredClaimFreesPlayer() {
	g := &model.Game{ID: "game-1", Player1ID: "alice", Status: model.StatusWaiting}
	s.Require().NoError(s.storage.CreateGame(s.ctx, g))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.ActiveGameForPlayer(s.ctx, "alice")
	s.ErrorIs(err, model.ErrGameNotFound)
	s.Require().NoError(s.storage.CreateGame(s.ctx, &model.Game{ID: "game-2", Player1ID: "alice", Status: model.StatusWaiting}))
}

func (s *StorageSuite) TestProfilesHaveNoTTLByDefault() {
	p := &model.Profile{ID: "p-1", Username: "alice"}
	s.Require().NoError(s.storage.CreateProfile(s.ctx, p))
	s.Equal(time.Duration(0), s.mini.TTL(profileKey("p-1")))
	s.Equal(time.Duration(0), s.mini.TTL(usernameIndexKey("alice")))
}
