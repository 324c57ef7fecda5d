package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/crosswordgame-daily/internal/api"
	"github.com/mcoot/crosswordgame-daily/internal/config"
	"github.com/mcoot/crosswordgame-daily/internal/factory"
	"github.com/mcoot/crosswordgame-daily/internal/services/auth"
	"github.com/mcoot/crosswordgame-daily/internal/services/leaderboard"
	"github.com/mcoot/crosswordgame-daily/internal/services/reconcile"
	"github.com/mcoot/crosswordgame-daily/internal/storage/postgres"
	redisstorage "github.com/mcoot/crosswordgame-daily/internal/storage/redis"
)

// sessionSweepInterval is how often expired sessions are dropped
const sessionSweepInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// Validate has already checked the zone
	location, _ := cfg.Location()

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.Storage.Type,
		SQLitePath:  cfg.Storage.SQLitePath,
		AuthConfig:  auth.Config{SessionDuration: cfg.Auth.SessionDuration},
		ReconcileConfig: reconcile.Config{
			MaxRetries: cfg.Reconcile.MaxRetries,
			RetryDelay: cfg.Reconcile.RetryDelay,
			Location:   location,
		},
		LeaderboardConfig: leaderboard.Config{MaxPageSize: cfg.Leaderboard.MaxPageSize},
	}

	switch cfg.Storage.Type {
	case factory.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	case factory.StorageTypePostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.Storage.DatabaseURL
		factoryCfg.PostgresConfig = &pgCfg
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("storage close failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("application ready",
		slog.String("storage", cfg.Storage.Type),
		slog.String("puzzle_timezone", location.String()),
		slog.String("today", string(app.Reconciler.Today())),
	)

	go app.Auth.RunSessionJanitor(ctx, sessionSweepInterval)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.HTTP.Port
	server := api.NewServer(api.NewRouter(app.RouterConfig()), serverConfig, logger)

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}
