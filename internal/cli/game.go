package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameJoinCmd())
	cmd.AddCommand(newGameAttackCmd())
	cmd.AddCommand(newGameLeaveCmd())
	cmd.AddCommand(newGameGetCmd())

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a game and wait for an opponent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"player_id": cfg.PlayerID}
			var result Game

			if err := gameClient.Post(cmd.Context(), "/game/create", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <game-id>",
		Short: "Join a waiting game as the opponent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"player_id": cfg.PlayerID, "game_id": args[0]}
			var result Game

			if err := gameClient.Post(cmd.Context(), "/game/join", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameAttackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attack <game-id> <x> <y>",
		Short: "Fire a shot at the opponent's grid",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseCoordinate(args[1], args[2])
			if err != nil {
				return err
			}

			req := map[string]any{
				"game_id":     args[0],
				"attacker_id": cfg.PlayerID,
				"coordinates": target,
			}
			var result Attack

			if err := gameClient.Post(cmd.Context(), "/game/attack", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <game-id>",
		Short: "Leave a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"player_id": cfg.PlayerID, "game_id": args[0]}
			var result Leave

			if err := gameClient.Post(cmd.Context(), "/game/leave", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Show the public state of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameView

			if err := gameClient.Get(cmd.Context(), "/game/"+args[0], &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func parseCoordinate(xs, ys string) (Coordinate, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid y: %w", err)
	}
	return Coordinate{X: x, Y: y}, nil
}
