package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Frame is any message the game service sends on the duplex channel
type Frame struct {
	Type      string          `json:"type"`
	Action    string          `json:"action,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Code      string          `json:"code,omitempty"`
	Error     string          `json:"error,omitempty"`

	// Notification fields
	Event       string      `json:"event,omitempty"`
	GameID      string      `json:"game_id,omitempty"`
	Message     string      `json:"message,omitempty"`
	Status      string      `json:"status,omitempty"`
	PlayerID    string      `json:"player_id,omitempty"`
	Coordinates *Coordinate `json:"coordinates,omitempty"`
	Result      string      `json:"result,omitempty"`
	Ship        string      `json:"ship,omitempty"`
	Winner      string      `json:"winner,omitempty"`
}

// outbound is a request sent on the duplex channel
type outbound struct {
	Action      string      `json:"action"`
	RequestID   string      `json:"request_id,omitempty"`
	PlayerID    string      `json:"player_id,omitempty"`
	GameID      string      `json:"game_id,omitempty"`
	Coordinates *Coordinate `json:"coordinates,omitempty"`
}

const playHelp = `Commands:
  create                 create a game
  join <game-id>         join a waiting game
  attack [game-id] x y   fire a shot (game-id defaults to the current game)
  leave [game-id]        leave a game
  quit                   close the session`

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Open an interactive WebSocket session",
		Long: `play connects to the game service's duplex channel. Commands are read
from stdin one per line, and responses and notifications are printed as they
arrive.

` + playHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), os.Stdin, NewOutput(cfg.Output))
		},
	}
}

// playSession tracks the game the interactive session is playing
type playSession struct {
	conn *websocket.Conn
	out  *Output

	mu      sync.Mutex
	gameID  string
	counter int
}

func runPlay(ctx context.Context, in io.Reader, out *Output) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, cfg.WebSocketURL(), &websocket.DialOptions{HTTPHeader: header})
	dialCancel()
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.WebSocketURL(), err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	s := &playSession{conn: conn, out: out}
	out.PrintMessage("Connected. Type 'help' for commands.")

	readErr := make(chan error, 1)
	go func() {
		readErr <- s.listen(ctx)
		cancel()
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return closedError(<-readErr)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := s.handle(ctx, line)
			if err != nil {
				out.PrintError(err)
			}
			if quit {
				return nil
			}
		}
	}
}

// closedError hides the error a normal close produces
func closedError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		return nil
	}
	return err
}

// listen prints frames until the connection closes
func (s *playSession) listen(ctx context.Context) error {
	for {
		var frame Frame
		if err := wsjson.Read(ctx, s.conn, &frame); err != nil {
			return err
		}
		s.track(frame)
		s.out.Print(frame)
	}
}

// track follows the game id of create and join responses
func (s *playSession) track(f Frame) {
	if f.Type != "response" {
		return
	}
	switch f.Action {
	case "createGame", "joinGame":
		var g Game
		if err := json.Unmarshal(f.Data, &g); err == nil && g.GameID != "" {
			s.mu.Lock()
			s.gameID = g.GameID
			s.mu.Unlock()
		}
	case "leaveGame":
		s.mu.Lock()
		s.gameID = ""
		s.mu.Unlock()
	}
}

// handle runs one input line. It reports whether the session should end.
func (s *playSession) handle(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	msg := outbound{PlayerID: cfg.PlayerID}
	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return true, nil
	case "help":
		s.out.PrintMessage(playHelp)
		return false, nil
	case "create":
		msg.Action = "createGame"
	case "join":
		if len(fields) != 2 {
			return false, errors.New("usage: join <game-id>")
		}
		msg.Action = "joinGame"
		msg.GameID = fields[1]
	case "attack":
		args := fields[1:]
		if len(args) == 3 {
			msg.GameID, args = args[0], args[1:]
		}
		if len(args) != 2 {
			return false, errors.New("usage: attack [game-id] x y")
		}
		target, err := parseCoordinate(args[0], args[1])
		if err != nil {
			return false, err
		}
		msg.Action = "attack"
		msg.Coordinates = &target
	case "leave":
		if len(fields) == 2 {
			msg.GameID = fields[1]
		}
		msg.Action = "leaveGame"
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", fields[0])
	}

	s.mu.Lock()
	if msg.GameID == "" {
		msg.GameID = s.gameID
	}
	s.counter++
	msg.RequestID = strconv.Itoa(s.counter)
	s.mu.Unlock()

	if msg.GameID == "" && msg.Action != "createGame" {
		return false, errors.New("no current game, pass a game id")
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return false, wsjson.Write(writeCtx, s.conn, msg)
}

func (o *Output) printFrame(f Frame) {
	switch f.Type {
	case "error":
		fmt.Fprintf(o.w, "[%s] error: %s (%s)\n", f.Action, f.Error, f.Code)
	case "notification":
		fmt.Fprintf(o.w, "* %s: %s\n", f.Event, f.Message)
		if f.Coordinates != nil {
			fmt.Fprintf(o.w, "  shot at (%d,%d): %s %s\n", f.Coordinates.X, f.Coordinates.Y, f.Result, f.Ship)
		}
		if f.Winner != "" {
			fmt.Fprintf(o.w, "  winner: %s\n", f.Winner)
		}
	case "response":
		switch f.Action {
		case "createGame", "joinGame":
			var g Game
			if json.Unmarshal(f.Data, &g) == nil {
				o.printGame(g)
				return
			}
		case "attack":
			var a Attack
			if json.Unmarshal(f.Data, &a) == nil {
				o.printAttack(a)
				return
			}
		case "leaveGame":
			var l Leave
			if json.Unmarshal(f.Data, &l) == nil {
				fmt.Fprintln(o.w, l.Message)
				return
			}
		}
		o.printJSON(f)
	default:
		o.printJSON(f)
	}
}
