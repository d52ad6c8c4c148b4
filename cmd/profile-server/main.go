package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/battleship-go/internal/api"
	"github.com/mcoot/battleship-go/internal/config"
	"github.com/mcoot/battleship-go/internal/factory"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file (env: CONFIG_PATH)")
	flag.Parse()

	// Listen next to a game service running with the defaults
	base := config.Default()
	base.Server.Port = 8081

	cfg, err := config.LoadFrom(base, *configPath)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout).With(slog.String("service", "profile"))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := factory.NewProfileApp(ctx, factory.ProfileConfigFrom(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// Expired sessions and abandoned transaction snapshots
	go app.Run(ctx, cfg.Profile.SweepInterval)

	router := api.NewProfileRouter(api.ProfileRouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Stats:       app.Stats,
		Profiles:    app.Profiles,
	})

	server := api.NewServer(router, api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
