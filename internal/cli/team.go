package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTeamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Team management commands",
	}

	cmd.AddCommand(newTeamCreateCmd())
	cmd.AddCommand(newTeamJoinCmd())
	cmd.AddCommand(newTeamGetCmd())
	cmd.AddCommand(newTeamPostCmd())

	return cmd
}

func newTeamCreateCmd() *cobra.Command {
	var teamName string

	cmd := &cobra.Command{
		Use:   "create <creator-name>",
		Short: "Create a new team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"creator_name": args[0]}
			if teamName != "" {
				req["team_name"] = teamName
			}

			var result Team
			if err := client.Post("/api/v1/teams", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&teamName, "name", "", "Team display name (default: derived from creator)")

	return cmd
}

func newTeamJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <team-id> <display-name>",
		Short: "Join a team using its id as the invite token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"display_name": args[1]}

			var result Team
			if err := client.Post(fmt.Sprintf("/api/v1/teams/%s/join", args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newTeamGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <team-id>",
		Short: "Get the team snapshot: members, ranking and chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result TeamDetails
			if err := client.Get(fmt.Sprintf("/api/v1/teams/%s", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newTeamPostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <team-id> <author> <text>",
		Short: "Post a message to the team chat",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"author": args[1], "text": args[2]}

			var result TeamMessage
			if err := client.Post(fmt.Sprintf("/api/v1/teams/%s/messages", args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
