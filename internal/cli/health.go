package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check both services",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)

			var gameStatus HealthResult
			if err := gameClient.Get(cmd.Context(), "/status", &gameStatus); err != nil {
				return err
			}
			gameStatus.Service = "game"
			out.Print(gameStatus)

			var profileStatus HealthResult
			if err := profileClient.Get(cmd.Context(), "/status", &profileStatus); err != nil {
				return err
			}
			profileStatus.Service = "profile"
			out.Print(profileStatus)
			return nil
		},
	}
}
