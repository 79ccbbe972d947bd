package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"game"},
		Short:   "Game session commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionJoinCmd())
	cmd.AddCommand(newSessionReadyCmd())
	cmd.AddCommand(newSessionScoreCmd())
	cmd.AddCommand(newSessionStartCmd())
	cmd.AddCommand(newSessionDeleteCmd())

	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create <host-name>",
		Short: "Create a new game session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"host_name": args[0],
				"name":      name,
			}

			var result SessionWithPlayer
			if err := client.Post("/api/v1/sessions", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the game")

	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known game sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SessionList
			if err := client.Get("/api/v1/sessions", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a session snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session
			if err := client.Get(fmt.Sprintf("/api/v1/sessions/%s", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <id> <player-name>",
		Short: "Join an existing session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"player_name": args[1]}

			var result SessionWithPlayer
			if err := client.Post(fmt.Sprintf("/api/v1/sessions/%s/join", args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionReadyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready <id> <player-id>",
		Short: "Mark a player as ready for the next phase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"player_id": args[1]}

			var result Session
			if err := client.Post(fmt.Sprintf("/api/v1/sessions/%s/ready", args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionScoreCmd() *cobra.Command {
	var score int

	cmd := &cobra.Command{
		Use:   "score <id> <player-id>",
		Short: "Report a player's round score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"player_id": args[1],
				"score":     score,
			}

			var result Session
			if err := client.Post(fmt.Sprintf("/api/v1/sessions/%s/score", args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&score, "points", 0, "Points earned this round (required)")
	_ = cmd.MarkFlagRequired("points")

	return cmd
}

func newSessionStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <id> <player-id>",
		Short: "Start the game loop (host only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"player_id": args[1]}

			if err := client.Post(fmt.Sprintf("/api/v1/sessions/%s/start", args[0]), req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Game %s started", args[0]))
			return nil
		},
	}
}

func newSessionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(fmt.Sprintf("/api/v1/sessions/%s", args[0])); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Deleted game %s", args[0]))
			return nil
		},
	}
}
