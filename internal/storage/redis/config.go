package redis

import "time"

// Config holds Redis connection and retention settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// GameTTL applies to games still being played and to active-game claims.
	// FinishedGameTTL applies once a game has finished.
	GameTTL         time.Duration
	FinishedGameTTL time.Duration

	// ProfileTTL of zero keeps profiles forever
	ProfileTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:             "redis://localhost:6379",
		PoolSize:        10,
		MinIdleConns:    2,
		GameTTL:         24 * time.Hour,
		FinishedGameTTL: time.Hour,
	}
}
