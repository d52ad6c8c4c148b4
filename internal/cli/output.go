package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": err.Error()},
		})
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Profile:
		o.printProfile(v)
	case AuthResult:
		o.printAuthResult(v)
	case Game:
		o.printGame(v)
	case GameView:
		o.printGameView(v)
	case Attack:
		o.printAttack(v)
	case Leave:
		fmt.Fprintln(o.w, v.Message)
	case Vote:
		o.printVote(v)
	case Frame:
		o.printFrame(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Coordinate is a grid position. X is the column, Y is the row.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ShipCell is one occupied cell of the caller's grid
type ShipCell struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Ship string `json:"ship"`
}

// Profile response type
type Profile struct {
	PlayerID   string `json:"player_id"`
	Username   string `json:"username"`
	TotalGames int    `json:"total_games"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
}

// AuthResult is the login response
type AuthResult struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	Player    Profile `json:"player"`
}

// Game is the create and join response
type Game struct {
	GameID     string     `json:"game_id"`
	PlayerGrid []ShipCell `json:"player_grid"`
	GridSize   int        `json:"grid_size"`
	Status     string     `json:"status"`
	OpponentID string     `json:"opponent_id,omitempty"`
	Turn       string     `json:"turn,omitempty"`
}

// GameView is the public state of a game
type GameView struct {
	GameID       string       `json:"game_id"`
	Status       string       `json:"status"`
	GridSize     int          `json:"grid_size"`
	Player1ID    string       `json:"player1_id"`
	Player2ID    string       `json:"player2_id,omitempty"`
	Player1Shots []Coordinate `json:"player1_shots"`
	Player2Shots []Coordinate `json:"player2_shots"`
	Turn         string       `json:"turn,omitempty"`
	Winner       string       `json:"winner,omitempty"`
}

// Attack is the shot response
type Attack struct {
	Message     string     `json:"message"`
	GameID      string     `json:"game_id"`
	Coordinates Coordinate `json:"coordinates"`
	Result      string     `json:"result"`
	Ship        string     `json:"ship,omitempty"`
	Status      string     `json:"status"`
	NextTurn    string     `json:"next_turn,omitempty"`
	Winner      string     `json:"winner,omitempty"`
}

// Leave is the leave response
type Leave struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Vote is a participant endpoint reply
type Vote struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Service  string `json:"service,omitempty"`
	Status   string `json:"status"`
	Sessions *int   `json:"sessions,omitempty"`
	Pending  *int   `json:"pending_transactions,omitempty"`
}

func (o *Output) printProfile(p Profile) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.Username, p.PlayerID)
	fmt.Fprintf(o.w, "Games: %d  Wins: %d  Losses: %d\n", p.TotalGames, p.Wins, p.Losses)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printProfile(a.Player)
	fmt.Fprintf(o.w, "Token: %s\n", a.Token)
	fmt.Fprintf(o.w, "Expires: %s\n", a.ExpiresAt)
}

func (o *Output) printGame(g Game) {
	fmt.Fprintf(o.w, "Game: %s\n", g.GameID)
	fmt.Fprintf(o.w, "Status: %s\n", g.Status)
	if g.OpponentID != "" {
		fmt.Fprintf(o.w, "Opponent: %s\n", g.OpponentID)
	}
	if g.Turn != "" {
		fmt.Fprintf(o.w, "Turn: %s\n", g.Turn)
	}
	fmt.Fprintln(o.w, "\nYour Fleet:")
	o.printGrid(g.GridSize, g.PlayerGrid)
}

func (o *Output) printGameView(g GameView) {
	fmt.Fprintf(o.w, "Game: %s\n", g.GameID)
	fmt.Fprintf(o.w, "Status: %s\n", g.Status)
	fmt.Fprintf(o.w, "Grid Size: %d\n", g.GridSize)
	fmt.Fprintf(o.w, "Creator: %s (%d shots)\n", g.Player1ID, len(g.Player1Shots))
	if g.Player2ID != "" {
		fmt.Fprintf(o.w, "Opponent: %s (%d shots)\n", g.Player2ID, len(g.Player2Shots))
	}
	if g.Turn != "" {
		fmt.Fprintf(o.w, "Turn: %s\n", g.Turn)
	}
	if g.Winner != "" {
		fmt.Fprintf(o.w, "\nWinner: %s\n", g.Winner)
	}
}

// printGrid draws the ship cells, marking each with its ship's initial
func (o *Output) printGrid(size int, cells []ShipCell) {
	if size <= 0 {
		return
	}
	marks := make(map[Coordinate]string, len(cells))
	for _, c := range cells {
		mark := "#"
		if c.Ship != "" {
			mark = strings.ToUpper(c.Ship[:1])
		}
		marks[Coordinate{X: c.X, Y: c.Y}] = mark
	}

	fmt.Fprint(o.w, "    ")
	for x := 0; x < size; x++ {
		fmt.Fprintf(o.w, " %d ", x)
	}
	fmt.Fprintln(o.w)

	border := "   +" + strings.Repeat("---", size) + "+"
	fmt.Fprintln(o.w, border)
	for y := 0; y < size; y++ {
		fmt.Fprintf(o.w, " %d |", y)
		for x := 0; x < size; x++ {
			if mark, ok := marks[Coordinate{X: x, Y: y}]; ok {
				fmt.Fprintf(o.w, " %s ", mark)
			} else {
				fmt.Fprint(o.w, " . ")
			}
		}
		fmt.Fprintln(o.w, "|")
	}
	fmt.Fprintln(o.w, border)
}

func (o *Output) printAttack(a Attack) {
	fmt.Fprintf(o.w, "(%d,%d): %s\n", a.Coordinates.X, a.Coordinates.Y, a.Message)
	if a.Winner != "" {
		fmt.Fprintf(o.w, "Winner: %s\n", a.Winner)
	} else if a.NextTurn != "" {
		fmt.Fprintf(o.w, "Next turn: %s\n", a.NextTurn)
	}
}

func (o *Output) printVote(v Vote) {
	if v.Reason != "" {
		fmt.Fprintf(o.w, "Vote: %s (%s)\n", v.Status, v.Reason)
		return
	}
	fmt.Fprintf(o.w, "Vote: %s\n", v.Status)
}

func (o *Output) printHealthResult(h HealthResult) {
	line := h.Status
	if h.Sessions != nil {
		line += fmt.Sprintf(", %d sessions", *h.Sessions)
	}
	if h.Pending != nil {
		line += fmt.Sprintf(", %d pending transactions", *h.Pending)
	}
	if h.Service != "" {
		fmt.Fprintf(o.w, "%s: %s\n", h.Service, line)
		return
	}
	fmt.Fprintf(o.w, "Status: %s\n", line)
}
