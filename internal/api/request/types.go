package request

import "github.com/mcoot/battleship-go/internal/model"

// CreateGameRequest is the request body for opening a game
type CreateGameRequest struct {
	PlayerID string `json:"player_id"`
}

// JoinGameRequest is the request body for taking the opponent's seat
type JoinGameRequest struct {
	PlayerID string `json:"player_id"`
	GameID   string `json:"game_id"`
}

// AttackRequest is the request body for firing a shot.
// Coordinates is a pointer so a missing target can be told apart from (0,0).
type AttackRequest struct {
	GameID      string            `json:"game_id"`
	AttackerID  string            `json:"attacker_id"`
	Coordinates *model.Coordinate `json:"coordinates"`
}

// LeaveGameRequest is the request body for leaving a game
type LeaveGameRequest struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateStatsRequest is the request body for a one-phase statistics update
type UpdateStatsRequest struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Result   string `json:"result"`
}
