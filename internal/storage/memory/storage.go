package memory

import (
	"context"
	"sync"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/storage"
)

// Storage is an in-memory implementation of both stores.
// Values are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	games         map[model.GameID]*model.Game
	activeGames   map[model.PlayerID]model.GameID
	profiles      map[model.PlayerID]*model.Profile
	usernameIndex map[string]model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		games:         make(map[model.GameID]*model.Game),
		activeGames:   make(map[model.PlayerID]model.GameID),
		profiles:      make(map[model.PlayerID]*model.Profile),
		usernameIndex: make(map[string]model.PlayerID),
	}
}

var (
	_ storage.GameStore    = (*Storage)(nil)
	_ storage.ProfileStore = (*Storage)(nil)
)

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, claimed := s.activeGames[game.Player1ID]; claimed {
		return model.ErrActiveGameExists
	}

	game.Version = 1
	s.games[game.ID] = game.Clone()
	s.activeGames[game.Player1ID] = game.ID
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.Game, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.games[game.ID]
	if !ok {
		return model.ErrGameNotFound
	}
	if current.Version != expectedVersion {
		return model.ErrVersionConflict
	}

	claims := storage.DiffClaims(current, game)
	for _, pid := range claims.Acquire {
		if owner, held := s.activeGames[pid]; held && owner != game.ID {
			return model.ErrActiveGameExists
		}
	}
	for _, pid := range claims.Release {
		if s.activeGames[pid] == game.ID {
			delete(s.activeGames, pid)
		}
	}
	for _, pid := range claims.Acquire {
		s.activeGames[pid] = game.ID
	}

	game.Version = expectedVersion + 1
	s.games[game.ID] = game.Clone()
	return nil
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.games[id]
	if !ok {
		return model.ErrGameNotFound
	}
	if current.Version != expectedVersion {
		return model.ErrVersionConflict
	}

	for _, pid := range current.Players() {
		if s.activeGames[pid] == id {
			delete(s.activeGames, pid)
		}
	}
	delete(s.games, id)
	return nil
}

func (s *Storage) ActiveGameForPlayer(ctx context.Context, playerID model.PlayerID) (model.GameID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.activeGames[playerID]
	if !ok {
		return "", model.ErrGameNotFound
	}
	return id, nil
}

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernameIndex[profile.Username]; taken {
		return model.ErrUsernameExists
	}
	p := *profile
	s.profiles[profile.ID] = &p
	s.usernameIndex[profile.Username] = profile.ID
	return nil
}

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; !ok {
		return model.ErrProfileNotFound
	}
	p := *profile
	s.profiles[profile.ID] = &p
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Storage) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	s.mu.RLock()
	id, ok := s.usernameIndex[username]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return s.GetProfile(ctx, id)
}
