package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/battleship-go/internal/config"
	"github.com/mcoot/battleship-go/internal/dependencies/clock"
	"github.com/mcoot/battleship-go/internal/dependencies/random"
	"github.com/mcoot/battleship-go/internal/services/auth"
	"github.com/mcoot/battleship-go/internal/services/board"
	"github.com/mcoot/battleship-go/internal/services/game"
	"github.com/mcoot/battleship-go/internal/services/stats"
	"github.com/mcoot/battleship-go/internal/services/twopc"
	"github.com/mcoot/battleship-go/internal/session"
	"github.com/mcoot/battleship-go/internal/storage"
	"github.com/mcoot/battleship-go/internal/storage/memory"
	"github.com/mcoot/battleship-go/internal/storage/postgres"
	redisstorage "github.com/mcoot/battleship-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = config.StorageMemory
	StorageTypeRedis    = config.StorageRedis
	StorageTypePostgres = config.StoragePostgres
)

// participantName labels the profile service in transaction logs
const participantName = "profile"

// GameApp contains the wired components of the game service
type GameApp struct {
	// Storage
	Games storage.GameStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Sessions       *session.Registry
	Generator      *board.Generator
	Orchestrator   *twopc.Orchestrator
	GameController *game.Controller

	// Stats is the statistics participant, nil when running standalone
	Stats twopc.Participant
	// Authenticator is nil when player ids are trusted
	Authenticator auth.Authenticator

	closers []io.Closer
}

// GameConfig holds configuration for the game service factory
type GameConfig struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Game holds board and retry settings. Zero values take the defaults.
	Game game.Config
	// TwoPC holds the statistics transaction timeouts. Zero takes the defaults.
	TwoPC twopc.Config
	// ProfileURL is the profile service base URL. Empty disables statistics
	// and token checks.
	ProfileURL string
	// RequireAuth resolves bearer tokens through ProfileURL
	RequireAuth bool
}

// NewGameApp creates the game service with all dependencies wired
func NewGameApp(cfg GameConfig) (*GameApp, error) {
	logger := orNop(cfg.Logger)

	if err := cfg.Game.Validate(); err != nil {
		return nil, fmt.Errorf("game settings: %w", err)
	}

	var (
		games   storage.GameStore
		closers []io.Closer
	)
	switch orDefault(cfg.StorageType) {
	case StorageTypeMemory:
		games = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		games = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, fmt.Errorf("invalid StorageType %q for the game service: must be 'memory' or 'redis'", cfg.StorageType)
	}

	var (
		participant   twopc.Participant
		authenticator auth.Authenticator
	)
	if cfg.ProfileURL != "" {
		participant = twopc.NewHTTPParticipant(participantName, cfg.ProfileURL)
		if cfg.RequireAuth {
			authenticator = auth.NewClient(cfg.ProfileURL, 5*time.Second)
		}
	} else {
		logger.Warn("no profile service configured: statistics are not recorded and player ids are trusted")
	}

	app := newGameWithDependencies(games, clock.New(), random.New(), participant, cfg.Game, cfg.TwoPC, logger)
	app.Authenticator = authenticator
	app.closers = closers
	return app, nil
}

// newGameWithDependencies creates a GameApp with the given dependencies (useful for testing)
func newGameWithDependencies(
	games storage.GameStore,
	clk clock.Clock,
	rnd random.Random,
	participant twopc.Participant,
	gameCfg game.Config,
	txCfg twopc.Config,
	logger *slog.Logger,
) *GameApp {
	if txCfg.ParticipantTimeout == 0 {
		txCfg = twopc.DefaultConfig()
	}

	sessions := session.NewRegistry(logger)
	generator := board.New(rnd, logger)
	orchestrator := twopc.New(txCfg, logger)
	controller := game.NewController(games, generator, sessions, orchestrator, participant, clk, gameCfg, logger)

	return &GameApp{
		Games:          games,
		Clock:          clk,
		Random:         rnd,
		Sessions:       sessions,
		Generator:      generator,
		Orchestrator:   orchestrator,
		GameController: controller,
		Stats:          participant,
	}
}

// Close releases storage connections
func (a *GameApp) Close() error {
	return closeAll(a.closers)
}

// ProfileApp contains the wired components of the profile service
type ProfileApp struct {
	// Storage
	Profiles storage.ProfileStore

	// External dependencies
	Clock clock.Clock

	// Services
	AuthService *auth.Service
	Stats       *stats.Coordinator

	closers []io.Closer
}

// ProfileConfig holds configuration for the profile service factory
type ProfileConfig struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the Postgres DSN (required if StorageType is "postgres")
	DatabaseURL string
	// AuthConfig holds configuration for the auth service (optional)
	// Zero fields take the auth.DefaultConfig() values
	AuthConfig auth.Config
	// StatsConfig holds the snapshot TTL (optional)
	StatsConfig stats.Config
}

// NewProfileApp creates the profile service with all dependencies wired
func NewProfileApp(ctx context.Context, cfg ProfileConfig) (*ProfileApp, error) {
	logger := orNop(cfg.Logger)

	var (
		profiles storage.ProfileStore
		closers  []io.Closer
	)
	switch orDefault(cfg.StorageType) {
	case StorageTypeMemory:
		profiles = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		profiles = redisStore
		closers = append(closers, redisStore)
	case StorageTypePostgres:
		pgStore, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		profiles = pgStore
		closers = append(closers, pgStore)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'postgres'", cfg.StorageType)
	}

	app := newProfileWithDependencies(profiles, clock.New(), cfg.AuthConfig, cfg.StatsConfig, logger)
	app.closers = closers
	return app, nil
}

// newProfileWithDependencies creates a ProfileApp with the given dependencies (useful for testing)
func newProfileWithDependencies(profiles storage.ProfileStore, clk clock.Clock, authCfg auth.Config, statsCfg stats.Config, logger *slog.Logger) *ProfileApp {
	return &ProfileApp{
		Profiles:    profiles,
		Clock:       clk,
		AuthService: auth.New(profiles, clk, authCfg, logger),
		Stats:       stats.New(profiles, clk, statsCfg, logger),
	}
}

// Run starts the background sweepers and blocks until ctx is done
func (a *ProfileApp) Run(ctx context.Context, sweepInterval time.Duration) {
	go a.AuthService.Run(ctx, sweepInterval)
	a.Stats.Run(ctx, sweepInterval)
}

// Close releases storage connections
func (a *ProfileApp) Close() error {
	return closeAll(a.closers)
}

// GameConfigFrom maps loaded settings onto the game service factory config
func GameConfigFrom(c *config.Config, logger *slog.Logger) GameConfig {
	gameCfg := game.DefaultConfig()
	gameCfg.GridSize = c.Game.GridSize

	cfg := GameConfig{
		Logger:      logger,
		StorageType: c.Storage.Type,
		Game:        gameCfg,
		TwoPC: twopc.Config{
			ParticipantTimeout: c.Game.ParticipantTimeout,
			CommitAttempts:     c.Game.CommitAttempts,
			RetryDelay:         c.Game.CommitRetryDelay,
		},
		ProfileURL:  c.Game.ProfileURL,
		RequireAuth: c.Game.RequireAuth,
	}
	if c.Storage.Type == StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.Storage.RedisURL
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

// ProfileConfigFrom maps loaded settings onto the profile service factory config
func ProfileConfigFrom(c *config.Config, logger *slog.Logger) ProfileConfig {
	cfg := ProfileConfig{
		Logger:      logger,
		StorageType: c.Storage.Type,
		DatabaseURL: c.Storage.DatabaseURL,
		AuthConfig: auth.Config{
			SessionDuration: c.Profile.SessionDuration,
			BcryptCost:      c.Profile.BcryptCost,
		},
		StatsConfig: stats.Config{SnapshotTTL: c.Profile.SnapshotTTL},
	}
	if c.Storage.Type == StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.Storage.RedisURL
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

func orNop(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return logger
}

func orDefault(storageType string) string {
	if storageType == "" {
		return StorageTypeMemory
	}
	return storageType
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
