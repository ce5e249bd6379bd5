package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "arenactl",
		Short: "CLI tool for the egg clash arena API",
		Long: `arenactl is a CLI tool for interacting with the arena JSON API.

It supports profile bootstrap, team management, duel invitations,
clash resolution against a room, and live event streaming.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadToken(); err != nil {
				return err
			}
			client = NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: ARENACTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Profile token (env: ARENACTL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: ARENACTL_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newTeamCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newClashCmd())
	rootCmd.AddCommand(newDuelCmd())
	rootCmd.AddCommand(newCounterCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
