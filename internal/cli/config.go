package cli

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	GameURL    string
	ProfileURL string
	Token      string
	TokenFile  string
	// PlayerID is sent in request bodies. Servers that check tokens take the
	// id from the token instead and only accept a matching one.
	PlayerID string
	Output   string
	Verbose  bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		GameURL:    getEnvOrDefault("BSCTL_GAME_SERVER", "http://localhost:8080"),
		ProfileURL: getEnvOrDefault("BSCTL_PROFILE_SERVER", "http://localhost:8081"),
		Token:      os.Getenv("BSCTL_TOKEN"),
		TokenFile:  getEnvOrDefault("BSCTL_TOKEN_FILE", defaultTokenFile()),
		PlayerID:   os.Getenv("BSCTL_PLAYER"),
		Output:     "text",
	}
}

// LoadToken loads the token from file if not already set
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken saves the token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token

	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.TokenFile, []byte(token), 0o600)
}

// ClearToken forgets the saved token
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// WebSocketURL derives the duplex channel address from the game server URL
func (c *Config) WebSocketURL() string {
	u := strings.TrimSuffix(c.GameURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bsctl/token"
	}
	return filepath.Join(home, ".bsctl", "token")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
