// Package storagetest holds behaviour tests shared by every store implementation.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/storage"
)

// GameStoreSuite runs the GameStore contract against the store returned by NewStore
type GameStoreSuite struct {
	suite.Suite
	NewStore func() storage.GameStore

	store storage.GameStore
	ctx   context.Context
}

func (s *GameStoreSuite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
}

func newGame(id model.GameID, creator model.PlayerID) *model.Game {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return &model.Game{
		ID:          id,
		Player1ID:   creator,
		Player1Grid: []model.ShipCell{{X: 0, Y: 0, Ship: "Destroyer", Orientation: model.Horizontal}},
		Status:      model.StatusWaiting,
		GridSize:    model.DefaultGridSize,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *GameStoreSuite) TestCreateAndGetGame() {
	g := newGame("game-1", "alice")
	s.Require().NoError(s.store.CreateGame(s.ctx, g))
	s.Equal(int64(1), g.Version)

	got, err := s.store.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(g.Player1ID, got.Player1ID)
	s.Equal(g.Player1Grid, got.Player1Grid)
	s.Equal(model.StatusWaiting, got.Status)
	s.Equal(int64(1), got.Version)
}

func (s *GameStoreSuite) TestGetGameNotFound() {
	_, err := s.store.GetGame(s.ctx, "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *GameStoreSuite) TestCreateGameClaimsCreator() {
	s.Require().NoError(s.store.CreateGame(s.ctx, newGame("game-1", "alice")))

	id, err := s.store.ActiveGameForPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.GameID("game-1"), id)

	err = s.store.CreateGame(s.ctx, newGame("game-2", "alice"))
	s.ErrorIs(err, model.ErrActiveGameExists)

	_, err = s.store.GetGame(s.ctx, "game-2")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *GameStoreSuite) TestActiveGameForPlayerWithoutClaim() {
	_, err := s.store.ActiveGameForPlayer(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *GameStoreSuite) TestUpdateGameAdvancesVersionAndClaimsJoiner() {
	g := newGame("game-1", "alice")
	s.Require().NoError(s.store.CreateGame(s.ctx, g))

	g.Player2ID = "bob"
	g.Status = model.StatusInProgress
	s.Require().NoError(s.store.UpdateGame(s.ctx, g, 1))
	s.Equal(int64(2), g.Version)

	id, err := s.store.ActiveGameForPlayer(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(model.GameID("game-1"), id)

	got, err := s.store.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("bob"), got.Player2ID)
	s.Equal(int64(2), got.Version)
}

func (s *GameStoreSuite) TestUpdateGameRejectsStaleVersion() {
	g := newGame("game-1", "alice")
	s.Require().NoError(s.store.CreateGame(s.ctx, g))

	g.Status = model.StatusInProgress
	err := s.store.UpdateGame(s.ctx, g, 7)
	s.ErrorIs(err, model.ErrVersionConflict)

	got, err := s.store.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.StatusWaiting, got.Status)
}

func (s *GameStoreSuite) TestUpdateGameMissing() {
	err := s.store.UpdateGame(s.ctx, newGame("missing", "alice"), 1)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *GameStoreSuite) TestUpdateGameRejectsJoinerClaimedElsewhere() {
	s.Require().NoError(s.store.CreateGame(s.ctx, newGame("game-1", "alice")))
	s.Require().NoError(s.store.CreateGame(s.ctx, newGame("game-2", "bob")))

	g, err := s.store.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	g.Player2ID = "bob"
	g.Status = model.StatusInProgress

	err = s.store.UpdateGame(s.ctx, g, g.Version)
	s.ErrorIs(err, model.ErrActiveGameExists)
}

func (s *GameStoreSuite) TestUpdateGameReleasesClaimsWhenFinished() {
	g := newGame("game-1", "alice")
	s.Require().NoError(s.store.CreateGame(s.ctx, g))
	g.Player2ID = "bob"
	g.Status = model.StatusInProgress
	s.Require().NoError(s.store.UpdateGame(s.ctx, g, g.Version))

	g.Status = model.StatusFinished
	s.Require().NoError(s.store.UpdateGame(s.ctx, g, g.Version))

	_, err := s.store.ActiveGameForPlayer(s.ctx, "alice")
	s.ErrorIs(err, model.ErrGameNotFound)
	_, err = s.store.ActiveGameForPlayer(s.ctx, "bob")
	s.ErrorIs(err, model.ErrGameNotFound)

	// The finished game stays readable
	got, err := s.store.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.StatusFinished, got.Status)
}

func (s *GameStoreSuite) TestUpdateGameReleasesRemovedOpponent() {
	g := newGame("game-1", "alice")
	s.Require().NoError(s.store.CreateGame(s.ctx, g))
	g.Player2ID = "bob"
	g.Status = model.StatusInProgress
	s.Require().NoError(s.store.UpdateGame(s.ctx, g, g.Version))

	g.Player2ID = ""
	g.Status = model.StatusWaiting
	s.Require().NoError(s.store.UpdateGame(s.ctx, g, g.Version))

	_, err := s.store.ActiveGameForPlayer(s.ctx, "bob")
	s.ErrorIs(err, model.ErrGameNotFound)
	id, err := s.store.ActiveGameForPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.GameID("game-1"), id)
}

func (s *GameStoreSuite) TestDeleteGame() {
	g := newGame("game-1", "alice")
	s.Require().NoError(s.store.CreateGame(s.ctx, g))

	s.ErrorIs(s.store.DeleteGame(s.ctx, "game-1", 99), model.ErrVersionConflict)
	s.Require().NoError(s.store.DeleteGame(s.ctx, "game-1", g.Version))

	_, err := s.store.GetGame(s.ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)
	_, err = s.store.ActiveGameForPlayer(s.ctx, "alice")
	s.ErrorIs(err, model.ErrGameNotFound)

	s.ErrorIs(s.store.DeleteGame(s.ctx, "game-1", g.Version), model.ErrGameNotFound)
}

func (s *GameStoreSuite) TestStoredGameIsNotAliased() {
	g := newGame("game-1", "alice")
	s.Require().NoError(s.store.CreateGame(s.ctx, g))
	g.Player1Grid[0].X = 9

	got, err := s.store.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(0, got.Player1Grid[0].X)
}

func (s *GameStoreSuite) TestConcurrentConditionalUpdatesHaveOneWinner() {
	g := newGame("game-1", "alice")
	s.Require().NoError(s.store.CreateGame(s.ctx, g))

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := g.Clone()
			next.Player2ID = model.PlayerID("joiner-" + string(rune('a'+i)))
			next.Status = model.StatusInProgress
			err := s.store.UpdateGame(s.ctx, next, 1)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, model.ErrVersionConflict):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(writers-1, conflicts)
}

// ProfileStoreSuite runs the ProfileStore contract against the store returned by NewStore
type ProfileStoreSuite struct {
	suite.Suite
	NewStore func() storage.ProfileStore

	store storage.ProfileStore
	ctx   context.Context
}

func (s *ProfileStoreSuite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
}

func newProfile(id model.PlayerID, username string) *model.Profile {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return &model.Profile{
		ID:           id,
		Username:     username,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *ProfileStoreSuite) TestCreateAndGetProfile() {
	s.Require().NoError(s.store.CreateProfile(s.ctx, newProfile("p-1", "alice")))

	byID, err := s.store.GetProfile(s.ctx, "p-1")
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)
	s.Equal("hash", byID.PasswordHash)

	byName, err := s.store.GetProfileByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p-1"), byName.ID)
}

func (s *ProfileStoreSuite) TestCreateProfileRejectsDuplicateUsername() {
	s.Require().NoError(s.store.CreateProfile(s.ctx, newProfile("p-1", "alice")))
	err := s.store.CreateProfile(s.ctx, newProfile("p-2", "alice"))
	s.ErrorIs(err, model.ErrUsernameExists)
}

func (s *ProfileStoreSuite) TestGetProfileNotFound() {
	_, err := s.store.GetProfile(s.ctx, "missing")
	s.ErrorIs(err, model.ErrProfileNotFound)
	_, err = s.store.GetProfileByUsername(s.ctx, "missing")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *ProfileStoreSuite) TestSaveProfile() {
	p := newProfile("p-1", "alice")
	s.Require().NoError(s.store.CreateProfile(s.ctx, p))

	p.Wins, p.TotalGames = 3, 3
	s.Require().NoError(s.store.SaveProfile(s.ctx, p))

	got, err := s.store.GetProfile(s.ctx, "p-1")
	s.Require().NoError(err)
	s.Equal(3, got.Wins)
	s.Equal(3, got.TotalGames)
}

func (s *ProfileStoreSuite) TestSaveProfileMissing() {
	err := s.store.SaveProfile(s.ctx, newProfile("missing", "ghost"))
	s.ErrorIs(err, model.ErrProfileNotFound)
}
