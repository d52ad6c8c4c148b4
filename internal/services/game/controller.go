package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/battleship-go/internal/dependencies/clock"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/board"
	"github.com/mcoot/battleship-go/internal/services/twopc"
	"github.com/mcoot/battleship-go/internal/storage"
)

// Notifier delivers out-of-band messages to connected players
type Notifier interface {
	Notify(playerID model.PlayerID, n model.Notification) bool
	Remove(playerID model.PlayerID)
}

// Config holds game settings
type Config struct {
	GridSize int
	Fleet    model.Fleet
	// MaxWriteAttempts bounds how often an operation is re-run after losing a
	// conditional write to a concurrent writer
	MaxWriteAttempts int
}

// DefaultConfig returns the standard 10x10 board with the five-ship fleet
func DefaultConfig() Config {
	return Config{
		GridSize:         model.DefaultGridSize,
		Fleet:            model.DefaultFleet(),
		MaxWriteAttempts: 5,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.GridSize <= 0 {
		c.GridSize = def.GridSize
	}
	if len(c.Fleet) == 0 {
		c.Fleet = def.Fleet
	}
	if c.MaxWriteAttempts <= 0 {
		c.MaxWriteAttempts = def.MaxWriteAttempts
	}
	return c
}

// Validate reports model.ErrFleetDoesNotFit when the fleet, after defaults,
// cannot be placed on the grid
func (c Config) Validate() error {
	c = c.withDefaults()
	return c.Fleet.Fits(c.GridSize)
}

// AttackOutcome is the result of a single shot
type AttackOutcome struct {
	Game   *model.Game
	Target model.Coordinate
	Result model.ShotResult
	// Ship is set when the shot hit
	Ship string
}

// Controller manages the game state machine
type Controller struct {
	storage      storage.GameStore
	generator    *board.Generator
	notifier     Notifier
	orchestrator *twopc.Orchestrator
	stats        twopc.Participant
	clock        clock.Clock
	cfg          Config
	logger       *slog.Logger
}

// NewController creates a new game Controller. stats may be nil, in which case
// finished games are recorded without a statistics update.
func NewController(
	storage storage.GameStore,
	generator *board.Generator,
	notifier Notifier,
	orchestrator *twopc.Orchestrator,
	stats twopc.Participant,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	cfg = cfg.withDefaults()
	return &Controller{
		storage:      storage,
		generator:    generator,
		notifier:     notifier,
		orchestrator: orchestrator,
		stats:        stats,
		clock:        clock,
		cfg:          cfg,
		logger:       logger,
	}
}

// CreateGame opens a new game with the player in the creator's seat
func (c *Controller) CreateGame(ctx context.Context, playerID model.PlayerID) (*model.Game, error) {
	if playerID == "" {
		return nil, model.ErrMissingPlayerID
	}
	if err := c.checkNotSeated(ctx, playerID, ""); err != nil {
		return nil, err
	}

	grid, err := c.generator.Generate(c.cfg.GridSize, c.cfg.Fleet)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	game := &model.Game{
		ID:          model.GameID(uuid.NewString()),
		Player1ID:   playerID,
		Player1Grid: grid,
		Status:      model.StatusWaiting,
		GridSize:    c.cfg.GridSize,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// The store claims the creator atomically, so a concurrent create still fails here
	if err := c.storage.CreateGame(ctx, game); err != nil {
		if !errors.Is(err, model.ErrActiveGameExists) {
			c.logger.Error("failed to save game",
				slog.String("game_id", string(game.ID)),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	c.logger.Info("game created",
		slog.String("game_id", string(game.ID)),
		slog.String("player_id", string(playerID)),
	)
	return game, nil
}

// GetGame retrieves a game by ID
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	return c.storage.GetGame(ctx, gameID)
}

// JoinGame seats the player as the opponent and starts the game
func (c *Controller) JoinGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Game, error) {
	if playerID == "" {
		return nil, model.ErrMissingPlayerID
	}

	var joined *model.Game
	err := c.withRetry(ctx, gameID, func(game *model.Game) error {
		if game.Status != model.StatusWaiting || game.Player2ID != "" {
			return model.ErrGameNotJoinable
		}
		if game.Player1ID == playerID {
			return model.ErrSelfJoin
		}
		if err := c.checkNotSeated(ctx, playerID, gameID); err != nil {
			return err
		}

		grid, err := c.generator.Generate(game.GridSize, c.cfg.Fleet)
		if err != nil {
			return err
		}

		expected := game.Version
		game.Player2ID = playerID
		game.Player2Grid = grid
		game.Status = model.StatusInProgress
		game.Turn = game.Player1ID
		game.UpdatedAt = c.clock.Now()
		if err := c.storage.UpdateGame(ctx, game, expected); err != nil {
			return err
		}
		joined = game
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player joined game",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
	)
	c.notifier.Notify(joined.Player1ID, model.Notification{
		Event:    model.EventPlayerJoined,
		GameID:   joined.ID,
		Message:  "A player has joined your game",
		Status:   joined.Status,
		PlayerID: playerID,
	})
	return joined, nil
}

// Attack fires one shot at the opponent's grid.
//
// The creator shoots first and turns alternate after every accepted shot. A
// shot that sinks the last ship finishes the game; that write is only made
// once the statistics participants have voted to apply the result.
func (c *Controller) Attack(ctx context.Context, gameID model.GameID, attackerID model.PlayerID, target model.Coordinate) (*AttackOutcome, error) {
	var outcome *AttackOutcome
	err := c.withRetry(ctx, gameID, func(game *model.Game) error {
		if game.Status != model.StatusInProgress {
			return model.ErrGameNotInProgress
		}
		if !game.IsParticipant(attackerID) {
			return model.ErrNotAParticipant
		}
		if game.Turn != attackerID {
			return model.ErrNotYourTurn
		}
		if target.X < 0 || target.Y < 0 || target.X >= game.GridSize || target.Y >= game.GridSize {
			return fmt.Errorf("%w: (%d,%d)", model.ErrInvalidCoordinate, target.X, target.Y)
		}
		for _, shot := range game.ShotsBy(attackerID) {
			if shot == target {
				return model.ErrAlreadyTargeted
			}
		}

		expected := game.Version
		defender := game.Opponent(attackerID)
		game.RecordShot(attackerID, target)
		result, ship := resolveShot(game.GridOf(defender), game.ShotsBy(attackerID), target)
		game.Turn = defender
		game.UpdatedAt = c.clock.Now()

		if allSunk(game.GridOf(defender), game.ShotsBy(attackerID)) {
			game.Status = model.StatusFinished
			game.Winner = attackerID
			game.Turn = ""
			if err := c.finish(ctx, game, expected); err != nil {
				return err
			}
		} else if err := c.storage.UpdateGame(ctx, game, expected); err != nil {
			return err
		}

		outcome = &AttackOutcome{Game: game, Target: target, Result: result, Ship: ship}
		return nil
	})
	if err != nil {
		return nil, err
	}

	game := outcome.Game
	defender := game.Opponent(attackerID)
	c.notifier.Notify(defender, model.Notification{
		Event:    model.EventAttackResult,
		GameID:   game.ID,
		Message:  "Your opponent fired a shot",
		Status:   game.Status,
		PlayerID: attackerID,
		Shot:     &outcome.Target,
		Result:   outcome.Result,
		Ship:     outcome.Ship,
	})

	if game.Status == model.StatusFinished {
		c.logger.Info("game finished",
			slog.String("game_id", string(game.ID)),
			slog.String("winner", string(game.Winner)),
		)
		for _, pid := range game.Players() {
			c.notifier.Notify(pid, model.Notification{
				Event:   model.EventGameOver,
				GameID:  game.ID,
				Message: "The game is over",
				Status:  game.Status,
				Winner:  game.Winner,
			})
		}
	}
	return outcome, nil
}

// finish records the finished game together with both players' results. The
// game write is the local step of the transaction, so a losing vote leaves
// the game exactly as it was.
func (c *Controller) finish(ctx context.Context, game *model.Game, expected int64) error {
	write := func(ctx context.Context) error {
		return c.storage.UpdateGame(ctx, game, expected)
	}
	if c.stats == nil {
		return write(ctx)
	}

	loser := game.Opponent(game.Winner)
	tx := twopc.NewTransaction(
		twopc.Branch{Participant: c.stats, PlayerID: game.Winner, Result: model.ResultWin},
		twopc.Branch{Participant: c.stats, PlayerID: loser, Result: model.ResultLoss},
	)

	err := c.orchestrator.Execute(ctx, tx, write)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, twopc.ErrCommitIncomplete):
		// The game is finished; the stragglers' snapshots expire on their side
		c.logger.Error("statistics commit incomplete",
			slog.String("game_id", string(game.ID)),
			slog.String("tx_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return nil
	case errors.Is(err, twopc.ErrAborted), errors.Is(err, twopc.ErrUnavailable):
		return fmt.Errorf("%w: %w", model.ErrStatsUnavailable, err)
	default:
		return err
	}
}

// LeaveGame removes the player from the game.
//
// When the creator leaves, the game is deleted and any opponent is told the
// game has ended. When the opponent leaves, the game goes back to waiting for
// a new opponent and the creator is told.
func (c *Controller) LeaveGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Game, error) {
	var (
		left  *model.Game
		event model.EventType
	)
	err := c.withRetry(ctx, gameID, func(game *model.Game) error {
		if !game.IsParticipant(playerID) {
			return model.ErrNotAParticipant
		}
		if game.Status == model.StatusFinished {
			return model.ErrGameFinished
		}

		if playerID == game.Player1ID {
			if err := c.storage.DeleteGame(ctx, game.ID, game.Version); err != nil {
				return err
			}
			game.Status = model.StatusFinished
			game.Player1Grid = nil
			game.Player2Grid = nil
			left, event = game, model.EventGameEnded
			return nil
		}

		expected := game.Version
		game.Player2ID = ""
		game.Player2Grid = nil
		game.Player1Shots = nil
		game.Player2Shots = nil
		game.Turn = ""
		game.Status = model.StatusWaiting
		game.UpdatedAt = c.clock.Now()
		if err := c.storage.UpdateGame(ctx, game, expected); err != nil {
			return err
		}
		left, event = game, model.EventOpponentLeft
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player left game",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.String("event", string(event)),
	)

	c.notifier.Remove(playerID)

	other := left.Player1ID
	message := "Your opponent has left the game"
	if event == model.EventGameEnded {
		other = left.Player2ID
		message = "The game creator has left. The game has ended"
	}
	if other != "" {
		c.notifier.Notify(other, model.Notification{
			Event:    event,
			GameID:   left.ID,
			Message:  message,
			Status:   left.Status,
			PlayerID: playerID,
		})
	}
	return left, nil
}

// ActiveGame returns the game the player is currently seated in
func (c *Controller) ActiveGame(ctx context.Context, playerID model.PlayerID) (*model.Game, error) {
	id, err := c.storage.ActiveGameForPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return c.storage.GetGame(ctx, id)
}

// checkNotSeated fails if the player already holds a seat in a game other than except
func (c *Controller) checkNotSeated(ctx context.Context, playerID model.PlayerID, except model.GameID) error {
	current, err := c.storage.ActiveGameForPlayer(ctx, playerID)
	if errors.Is(err, model.ErrGameNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if current == except {
		return nil
	}
	return fmt.Errorf("%w (game %s): leave it before starting another", model.ErrActiveGameExists, current)
}

// withRetry reads the game and runs fn on it, re-reading and re-running when
// fn loses a conditional write to a concurrent writer
func (c *Controller) withRetry(ctx context.Context, gameID model.GameID, fn func(game *model.Game) error) error {
	for attempt := 1; attempt <= c.cfg.MaxWriteAttempts; attempt++ {
		game, err := c.storage.GetGame(ctx, gameID)
		if err != nil {
			return err
		}

		err = fn(game)
		if !errors.Is(err, model.ErrVersionConflict) {
			return err
		}
		c.logger.Debug("conditional write lost, retrying",
			slog.String("game_id", string(gameID)),
			slog.Int("attempt", attempt),
		)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return model.ErrConcurrentUpdate
}

// resolveShot classifies a shot that has already been appended to shots
func resolveShot(grid []model.ShipCell, shots []model.Coordinate, target model.Coordinate) (model.ShotResult, string) {
	var ship string
	for _, cell := range grid {
		if cell.Coordinate() == target {
			ship = cell.Ship
			break
		}
	}
	if ship == "" {
		return model.ShotMiss, ""
	}

	hit := make(map[model.Coordinate]bool, len(shots))
	for _, s := range shots {
		hit[s] = true
	}
	for _, cell := range grid {
		if cell.Ship == ship && !hit[cell.Coordinate()] {
			return model.ShotHit, ship
		}
	}
	return model.ShotSunk, ship
}

// allSunk reports whether every cell of the grid has been shot
func allSunk(grid []model.ShipCell, shots []model.Coordinate) bool {
	if len(grid) == 0 {
		return false
	}
	hit := make(map[model.Coordinate]bool, len(shots))
	for _, s := range shots {
		hit[s] = true
	}
	for _, cell := range grid {
		if !hit[cell.Coordinate()] {
			return false
		}
	}
	return true
}

// ControllerInterface is the game surface used by the transport layers
type ControllerInterface interface {
	CreateGame(ctx context.Context, playerID model.PlayerID) (*model.Game, error)
	GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error)
	JoinGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Game, error)
	Attack(ctx context.Context, gameID model.GameID, attackerID model.PlayerID, target model.Coordinate) (*AttackOutcome, error)
	LeaveGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Game, error)
	ActiveGame(ctx context.Context, playerID model.PlayerID) (*model.Game, error)
}

var _ ControllerInterface = (*Controller)(nil)
