package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg           *Config
	gameClient    *Client
	profileClient *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "bsctl",
		Short: "CLI tool for the battleship services",
		Long: `bsctl talks to the battleship game and profile services.

It covers accounts and statistics on the profile service, game actions on the
game service, the statistics participant endpoints, and an interactive
WebSocket session that prints notifications as they arrive.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			gameClient = NewClient(cfg.GameURL, cfg.Token)
			profileClient = NewClient(cfg.ProfileURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.GameURL, "game-server", cfg.GameURL, "Game service URL (env: BSCTL_GAME_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.ProfileURL, "profile-server", cfg.ProfileURL, "Profile service URL (env: BSCTL_PROFILE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token (env: BSCTL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: BSCTL_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVar(&cfg.PlayerID, "player", cfg.PlayerID, "Player id sent in request bodies (env: BSCTL_PLAYER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newTxCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
