package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile management commands",
	}

	cmd.AddCommand(newProfileCreateCmd())
	cmd.AddCommand(newProfileGetCmd())

	return cmd
}

func newProfileCreateCmd() *cobra.Command {
	var skin, pattern string

	cmd := &cobra.Command{
		Use:   "create <display-name>",
		Short: "Bootstrap a new profile and store its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"display_name": args[0],
				"appearance":   Appearance{Skin: skin, Pattern: pattern},
			}

			var result Profile
			if err := client.Post("/api/v1/profiles", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("profile created but token not saved: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&skin, "skin", "red", "Egg skin")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Egg pattern")

	return cmd
}

func newProfileGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [token]",
		Short: "Rehydrate a profile (runs the hourly golden egg roll)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := cfg.Token
			if len(args) > 0 {
				token = args[0]
			}
			if token == "" {
				return fmt.Errorf("no profile token; run 'arenactl profile create' first")
			}

			var result Profile
			if err := client.Get(fmt.Sprintf("/api/v1/profiles/%s", token), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
