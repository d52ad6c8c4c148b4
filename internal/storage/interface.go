package storage

import (
	"context"

	"github.com/mcoot/battleship-go/internal/model"
)

// GameStore persists games for the game service.
//
// Writes are conditional on the version the caller read, and every write keeps
// the per-player active-game claims in step with the game: a player seated in a
// non-finished game holds a claim on it, and no player may hold two claims.
type GameStore interface {
	// CreateGame stores a new game and claims it for Player1.
	// Returns model.ErrActiveGameExists if Player1 already holds a claim.
	CreateGame(ctx context.Context, game *model.Game) error

	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)

	// UpdateGame replaces the game if its stored version equals expectedVersion.
	// On success game.Version is advanced. Returns model.ErrVersionConflict on a
	// stale version and model.ErrActiveGameExists if a newly seated player is
	// already claimed by another game.
	UpdateGame(ctx context.Context, game *model.Game, expectedVersion int64) error

	// DeleteGame removes the game and its claims if its version still matches
	DeleteGame(ctx context.Context, id model.GameID, expectedVersion int64) error

	// ActiveGameForPlayer returns the game the player is claimed by.
	// Returns model.ErrGameNotFound if there is none.
	ActiveGameForPlayer(ctx context.Context, playerID model.PlayerID) (model.GameID, error)
}

// ProfileStore persists player profiles for the profile service
type ProfileStore interface {
	// CreateProfile stores a new profile. Returns model.ErrUsernameExists if taken.
	CreateProfile(ctx context.Context, profile *model.Profile) error

	// SaveProfile overwrites an existing profile. Returns model.ErrProfileNotFound if absent.
	SaveProfile(ctx context.Context, profile *model.Profile) error

	GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error)
}
