package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClashCmd() *cobra.Command {
	var goldenEgg bool
	var teamID string

	cmd := &cobra.Command{
		Use:   "clash <room-id> <role>",
		Short: "Signal an impact and print the authoritative outcome",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"role":       args[1],
				"golden_egg": goldenEgg,
			}
			if cfg.Token != "" {
				req["profile_token"] = cfg.Token
			}
			if teamID != "" {
				req["team_id"] = teamID
			}

			var result ClashResult
			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/clash", args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&goldenEgg, "golden", false, "Claim a held golden egg")
	cmd.Flags().StringVar(&teamID, "team", "", "Attribute the win to this team's ranking")

	return cmd
}

func newCounterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counter",
		Short: "Show the global resolved-rounds counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Counter
			if err := client.Get("/api/v1/counter", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newDuelCmd() *cobra.Command {
	var teamID string

	cmd := &cobra.Command{
		Use:   "duel <from> <to> <room-id>",
		Short: "Invite a named user to a duel room",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"from":    args[0],
				"to":      args[1],
				"room_id": args[2],
			}
			if teamID != "" {
				req["team_id"] = teamID
			}

			if err := client.Post("/api/v1/duels/invite", req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Invitation sent to %s", args[1]))
			return nil
		},
	}

	cmd.Flags().StringVar(&teamID, "team", "", "Team to attribute wins to")

	return cmd
}
