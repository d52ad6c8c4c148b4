package model

import "time"

// GameID uniquely identifies a game
type GameID string

// GameStatus is the lifecycle state of a game
type GameStatus string

const (
	StatusWaiting    GameStatus = "waiting_for_opponent"
	StatusInProgress GameStatus = "in_progress"
	StatusFinished   GameStatus = "finished"
)

// Orientation is the direction a ship extends from its origin
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Coordinate is a grid position. X is the column, Y is the row.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ShipCell is one occupied cell of a player's grid
type ShipCell struct {
	X           int         `json:"x"`
	Y           int         `json:"y"`
	Ship        string      `json:"ship"`
	Orientation Orientation `json:"orientation"`
}

// Coordinate returns the cell's position
func (c ShipCell) Coordinate() Coordinate {
	return Coordinate{X: c.X, Y: c.Y}
}

// ShotResult is the outcome of a single attack
type ShotResult string

const (
	ShotMiss ShotResult = "miss"
	ShotHit  ShotResult = "hit"
	ShotSunk ShotResult = "sunk"
)

// Game is one battleship match between a creator (player 1) and an opponent (player 2).
// Version is bumped by the store on every successful write.
type Game struct {
	ID           GameID       `json:"id"`
	Player1ID    PlayerID     `json:"player1_id"`
	Player2ID    PlayerID     `json:"player2_id,omitempty"`
	Player1Grid  []ShipCell   `json:"player1_grid,omitempty"`
	Player2Grid  []ShipCell   `json:"player2_grid,omitempty"`
	Player1Shots []Coordinate `json:"player1_shots,omitempty"`
	Player2Shots []Coordinate `json:"player2_shots,omitempty"`
	Status       GameStatus   `json:"status"`
	GridSize     int          `json:"grid_size"`
	Turn         PlayerID     `json:"turn,omitempty"`
	Winner       PlayerID     `json:"winner,omitempty"`
	Version      int64        `json:"version"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsParticipant reports whether the player occupies either seat
func (g *Game) IsParticipant(id PlayerID) bool {
	return id != "" && (g.Player1ID == id || g.Player2ID == id)
}

// Players returns the ids of the occupied seats
func (g *Game) Players() []PlayerID {
	players := []PlayerID{g.Player1ID}
	if g.Player2ID != "" {
		players = append(players, g.Player2ID)
	}
	return players
}

// Opponent returns the other seated player, or "" if there is none
func (g *Game) Opponent(id PlayerID) PlayerID {
	switch id {
	case g.Player1ID:
		return g.Player2ID
	case g.Player2ID:
		return g.Player1ID
	}
	return ""
}

// GridOf returns the ship cells owned by the player
func (g *Game) GridOf(id PlayerID) []ShipCell {
	switch id {
	case g.Player1ID:
		return g.Player1Grid
	case g.Player2ID:
		return g.Player2Grid
	}
	return nil
}

// ShotsBy returns the coordinates the player has fired at
func (g *Game) ShotsBy(id PlayerID) []Coordinate {
	switch id {
	case g.Player1ID:
		return g.Player1Shots
	case g.Player2ID:
		return g.Player2Shots
	}
	return nil
}

// RecordShot appends a shot to the player's history
func (g *Game) RecordShot(id PlayerID, c Coordinate) {
	switch id {
	case g.Player1ID:
		g.Player1Shots = append(g.Player1Shots, c)
	case g.Player2ID:
		g.Player2Shots = append(g.Player2Shots, c)
	}
}

// Active reports whether the game still holds its players' active-game claims
func (g *Game) Active() bool {
	return g.Status != StatusFinished
}

// Clone returns a deep copy so callers can mutate without aliasing stored state
func (g *Game) Clone() *Game {
	c := *g
	c.Player1Grid = append([]ShipCell(nil), g.Player1Grid...)
	c.Player2Grid = append([]ShipCell(nil), g.Player2Grid...)
	c.Player1Shots = append([]Coordinate(nil), g.Player1Shots...)
	c.Player2Shots = append([]Coordinate(nil), g.Player2Shots...)
	return &c
}
