package model

import "errors"

// Common errors used across both services
var (
	// Game errors
	ErrGameNotFound       = errors.New("game not found")
	ErrActiveGameExists   = errors.New("player is already in an active game")
	ErrGameNotJoinable    = errors.New("game is not open for joining")
	ErrSelfJoin           = errors.New("cannot join your own game")
	ErrNotAParticipant    = errors.New("player is not part of this game")
	ErrGameNotInProgress  = errors.New("game is not in progress")
	ErrGameFinished       = errors.New("game has already finished")
	ErrNotYourTurn        = errors.New("not this player's turn")
	ErrInvalidCoordinate  = errors.New("coordinate is outside the grid")
	ErrAlreadyTargeted    = errors.New("coordinate has already been targeted")
	ErrVersionConflict    = errors.New("game was modified concurrently")
	ErrConcurrentUpdate   = errors.New("too many concurrent updates, try again")
	ErrFleetDoesNotFit    = errors.New("fleet does not fit on the grid")
	ErrStatsUnavailable   = errors.New("statistics update could not be completed")
	ErrPlayerIDMismatch   = errors.New("player id does not match the authenticated player")
	ErrMissingPlayerID    = errors.New("player id is required")

	// Profile errors
	ErrProfileNotFound = errors.New("user not found")
	ErrUsernameExists  = errors.New("username already exists")
	ErrInvalidResult   = errors.New("invalid result type")

	// Transaction errors
	ErrUnknownTransaction  = errors.New("unknown transaction")
	ErrTransactionExists   = errors.New("transaction already prepared")
	ErrEntityLocked        = errors.New("profile is locked by another transaction")
	ErrTransactionMismatch = errors.New("commit does not match the prepared change")
)
