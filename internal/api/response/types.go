package response

import (
	"time"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/auth"
	"github.com/mcoot/battleship-go/internal/services/game"
)

// Game is the answer to create and join: the caller's own seat
type Game struct {
	GameID     string           `json:"game_id"`
	PlayerGrid []model.ShipCell `json:"player_grid"`
	GridSize   int              `json:"grid_size"`
	Status     string           `json:"status"`
	OpponentID string           `json:"opponent_id,omitempty"`
	Turn       string           `json:"turn,omitempty"`
}

// GameForPlayer shows the game from playerID's seat
func GameForPlayer(g *model.Game, playerID model.PlayerID) Game {
	return Game{
		GameID:     string(g.ID),
		PlayerGrid: g.GridOf(playerID),
		GridSize:   g.GridSize,
		Status:     string(g.Status),
		OpponentID: string(g.Opponent(playerID)),
		Turn:       string(g.Turn),
	}
}

// GameView is the public state of a game. Ship positions are never shown.
type GameView struct {
	GameID       string             `json:"game_id"`
	Status       string             `json:"status"`
	GridSize     int                `json:"grid_size"`
	Player1ID    string             `json:"player1_id"`
	Player2ID    string             `json:"player2_id,omitempty"`
	Player1Shots []model.Coordinate `json:"player1_shots"`
	Player2Shots []model.Coordinate `json:"player2_shots"`
	Turn         string             `json:"turn,omitempty"`
	Winner       string             `json:"winner,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// GameViewFromModel converts model.Game
func GameViewFromModel(g *model.Game) GameView {
	return GameView{
		GameID:       string(g.ID),
		Status:       string(g.Status),
		GridSize:     g.GridSize,
		Player1ID:    string(g.Player1ID),
		Player2ID:    string(g.Player2ID),
		Player1Shots: nonNil(g.Player1Shots),
		Player2Shots: nonNil(g.Player2Shots),
		Turn:         string(g.Turn),
		Winner:       string(g.Winner),
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func nonNil(shots []model.Coordinate) []model.Coordinate {
	if shots == nil {
		return []model.Coordinate{}
	}
	return shots
}

// Attack is the answer to a shot
type Attack struct {
	Message     string           `json:"message"`
	GameID      string           `json:"game_id"`
	Coordinates model.Coordinate `json:"coordinates"`
	Result      string           `json:"result"`
	Ship        string           `json:"ship,omitempty"`
	Status      string           `json:"status"`
	NextTurn    string           `json:"next_turn,omitempty"`
	Winner      string           `json:"winner,omitempty"`
}

// AttackFromOutcome converts a game.AttackOutcome
func AttackFromOutcome(o *game.AttackOutcome) Attack {
	msg := "Miss"
	switch o.Result {
	case model.ShotHit:
		msg = "Hit " + o.Ship
	case model.ShotSunk:
		msg = "Sunk " + o.Ship
	}
	if o.Game.Status == model.StatusFinished {
		msg = "All ships sunk, you win"
	}
	return Attack{
		Message:     msg,
		GameID:      string(o.Game.ID),
		Coordinates: o.Target,
		Result:      string(o.Result),
		Ship:        o.Ship,
		Status:      string(o.Game.Status),
		NextTurn:    string(o.Game.Turn),
		Winner:      string(o.Game.Winner),
	}
}

// Leave is the answer to leaving a game
type Leave struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// LeaveStatus is the status reported after a successful leave
const LeaveStatus = "player_left"

// Profile is a player's public profile and statistics
type Profile struct {
	PlayerID   string `json:"player_id"`
	Username   string `json:"username"`
	TotalGames int    `json:"total_games"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
}

// ProfileFromModel converts model.Profile, dropping the password hash
func ProfileFromModel(p *model.Profile) Profile {
	return Profile{
		PlayerID:   string(p.ID),
		Username:   p.Username,
		TotalGames: p.TotalGames,
		Wins:       p.Wins,
		Losses:     p.Losses,
	}
}

// AuthResponse is the response for login
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Player    Profile   `json:"player"`
}

// AuthResponseFromSession creates an AuthResponse from a session and the stored profile
func AuthResponseFromSession(s *auth.Session, p *model.Profile) AuthResponse {
	return AuthResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		Player:    ProfileFromModel(p),
	}
}

// Status is the liveness answer
type Status struct {
	Status   string `json:"status"`
	Sessions *int   `json:"sessions,omitempty"`
	Pending  *int   `json:"pending_transactions,omitempty"`
}
