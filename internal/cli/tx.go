package cli

import (
	"github.com/spf13/cobra"
)

// newTxCmd drives the profile service's participant endpoints by hand, for
// inspecting or unsticking a statistics transaction
func newTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Statistics transaction commands",
	}

	cmd.AddCommand(newTxVoteCmd("prepare", "Prepare a statistics change"))
	cmd.AddCommand(newTxVoteCmd("commit", "Commit a prepared change"))
	cmd.AddCommand(newTxRollbackCmd())
	cmd.AddCommand(newTxUpdateStatsCmd())

	return cmd
}

// target selects a profile by id or by username
type target struct {
	playerID string
	username string
	result   string
}

func (t *target) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.playerID, "player-id", "", "Player id")
	cmd.Flags().StringVar(&t.username, "user", "", "Username, used when --player-id is not set")
	cmd.Flags().StringVar(&t.result, "result", "", "win or loss (required)")
	cmd.MarkFlagsOneRequired("player-id", "user")
	_ = cmd.MarkFlagRequired("result")
}

func newTxVoteCmd(phase, short string) *cobra.Command {
	var t target

	cmd := &cobra.Command{
		Use:   phase + " <transaction-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"transactionId": args[0],
				"player_id":     t.playerID,
				"username":      t.username,
				"result":        t.result,
			}
			var result Vote

			if err := profileClient.Post(cmd.Context(), "/"+phase, req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
	t.bind(cmd)

	return cmd
}

func newTxRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <transaction-id>",
		Short: "Roll back a prepared change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"transactionId": args[0]}
			var result Vote

			if err := profileClient.Post(cmd.Context(), "/rollback", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newTxUpdateStatsCmd() *cobra.Command {
	var t target

	cmd := &cobra.Command{
		Use:   "update-stats",
		Short: "Apply a result immediately, outside any transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"player_id": t.playerID,
				"username":  t.username,
				"result":    t.result,
			}
			var result Profile

			if err := profileClient.Post(cmd.Context(), "/update-stats", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
	t.bind(cmd)

	return cmd
}
