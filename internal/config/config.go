// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file; the file wins over
// the defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/battleship-go/internal/model"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config is the settings of either service. Each binary reads the sections it needs.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Game    GameConfig    `yaml:"game"`
	Profile ProfileConfig `yaml:"profile"`
}

// ServerConfig is the HTTP listener
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig selects the log level and output format
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig selects the backend. Postgres only backs profiles.
type StorageConfig struct {
	Type        string `yaml:"type"`
	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`
}

// GameConfig is specific to the game service
type GameConfig struct {
	GridSize int `yaml:"grid_size"`
	// ProfileURL is the profile service base URL. Empty runs the game
	// service standalone: no token checks and no statistics.
	ProfileURL string `yaml:"profile_url"`
	// RequireAuth resolves bearer tokens through the profile service
	RequireAuth        bool          `yaml:"require_auth"`
	ParticipantTimeout time.Duration `yaml:"participant_timeout"`
	CommitAttempts     int           `yaml:"commit_attempts"`
	CommitRetryDelay   time.Duration `yaml:"commit_retry_delay"`
}

// ProfileConfig is specific to the profile service
type ProfileConfig struct {
	SessionDuration time.Duration `yaml:"session_duration"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	SnapshotTTL     time.Duration `yaml:"snapshot_ttl"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
}

// Default returns the settings used when nothing is configured
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Type: StorageMemory,
		},
		Game: GameConfig{
			GridSize:           10,
			RequireAuth:        true,
			ParticipantTimeout: 5 * time.Second,
			CommitAttempts:     3,
			CommitRetryDelay:   200 * time.Millisecond,
		},
		Profile: ProfileConfig{
			SessionDuration: 24 * time.Hour,
			BcryptCost:      10,
			SnapshotTTL:     5 * time.Minute,
			SweepInterval:   30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// not empty) and the environment
func Load(path string) (*Config, error) {
	return LoadFrom(Default(), path)
}

// LoadFrom is Load starting from base instead of the defaults. base is modified.
func LoadFrom(base *Config, path string) (*Config, error) {
	cfg := base
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from the environment
func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("LISTEN_HOST", &c.Server.Host)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("STORAGE_TYPE", &c.Storage.Type)
	str("REDIS_URL", &c.Storage.RedisURL)
	str("DATABASE_URL", &c.Storage.DatabaseURL)
	str("PROFILE_URL", &c.Game.ProfileURL)

	if v := strings.TrimSpace(getenv("LISTEN_PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LISTEN_PORT: %w", err)
		}
		c.Server.Port = n
	}
	if v := strings.TrimSpace(getenv("REQUIRE_AUTH")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REQUIRE_AUTH: %w", err)
		}
		c.Game.RequireAuth = b
	}
	if v := strings.TrimSpace(getenv("SNAPSHOT_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SNAPSHOT_TTL: %w", err)
		}
		c.Profile.SnapshotTTL = d
	}
	return nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("storage.redis_url (REDIS_URL) is required for redis storage"))
		}
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("storage.database_url (DATABASE_URL) is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be memory, redis or postgres, got %q", c.Storage.Type))
	}
	if c.Game.GridSize <= 0 {
		errs = append(errs, fmt.Errorf("game.grid_size must be positive, got %d", c.Game.GridSize))
	} else if err := model.DefaultFleet().Fits(c.Game.GridSize); err != nil {
		errs = append(errs, fmt.Errorf("game.grid_size: %w", err))
	}
	if c.Profile.SnapshotTTL <= 0 {
		errs = append(errs, errors.New("profile.snapshot_ttl must be positive"))
	}
	if c.Profile.SweepInterval <= 0 {
		errs = append(errs, errors.New("profile.sweep_interval must be positive"))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger creates the service logger described by c.Log
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
