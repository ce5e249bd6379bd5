package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ciocnim/arena/internal/api"
	"github.com/ciocnim/arena/internal/config"
	"github.com/ciocnim/arena/internal/factory"
)

func main() {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:           "arena-server",
		Short:         "Coordination server for real-time egg clash duels",
		Args:          cobra.ExactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	config.Bind(cmd, cfg)

	if err := cmd.Execute(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	app, err := factory.New(cfg, logger)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Broker:         app.Broker,
		Engine:         app.Engine,
		CounterService: app.CounterService,
		TeamService:    app.TeamService,
		ProfileService: app.ProfileService,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Bind
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Info("shutdown signal received")
		case <-ctx.Done():
		}
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown failed", slog.String("error", err.Error()))
		}
	}()

	return server.Start()
}
