package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mcoot/crosswordgame-daily/internal/api"
	"github.com/mcoot/crosswordgame-daily/internal/dependencies/clock"
	"github.com/mcoot/crosswordgame-daily/internal/dependencies/ids"
	"github.com/mcoot/crosswordgame-daily/internal/metrics"
	"github.com/mcoot/crosswordgame-daily/internal/services/auth"
	"github.com/mcoot/crosswordgame-daily/internal/services/claim"
	"github.com/mcoot/crosswordgame-daily/internal/services/leaderboard"
	"github.com/mcoot/crosswordgame-daily/internal/services/ranking"
	"github.com/mcoot/crosswordgame-daily/internal/services/reconcile"
	"github.com/mcoot/crosswordgame-daily/internal/services/scores"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
	"github.com/mcoot/crosswordgame-daily/internal/storage/memory"
	"github.com/mcoot/crosswordgame-daily/internal/storage/postgres"
	redisstorage "github.com/mcoot/crosswordgame-daily/internal/storage/redis"
	"github.com/mcoot/crosswordgame-daily/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	IDs   ids.Generator

	// Observability
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	// Services
	Pending     *scores.PendingSubmissions
	Scores      *scores.Service
	Ranking     *ranking.Service
	Leaderboard *leaderboard.Service
	Claims      *claim.Service
	Reconciler  *reconcile.Coordinator
	Auth        *auth.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds PostgreSQL settings (required if StorageType is "postgres")
	PostgresConfig *postgres.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string

	// Zero values fall back to each service's defaults
	AuthConfig        auth.Config
	ReconcileConfig   reconcile.Config
	LeaderboardConfig leaderboard.Config
	PendingTTL        time.Duration
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := dependencies{
		store:    store,
		clock:    clock.New(),
		ids:      ids.New(),
		registry: reg,
		logger:   logger,
	}
	return newWithDependencies(deps, cfg), nil
}

func openStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		return postgres.New(ctx, *cfg.PostgresConfig)
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		return sqlite.Open(cfg.SQLitePath)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis', 'postgres' or 'sqlite'")
	}
}

type dependencies struct {
	store    storage.Storage
	clock    clock.Clock
	ids      ids.Generator
	registry *prometheus.Registry
	logger   *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies, cfg Config) *App {
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	reconcileCfg := cfg.ReconcileConfig
	if reconcileCfg == (reconcile.Config{}) {
		reconcileCfg = reconcile.DefaultConfig()
	}
	leaderboardCfg := cfg.LeaderboardConfig
	if leaderboardCfg.MaxPageSize == 0 {
		leaderboardCfg = leaderboard.DefaultConfig()
	}
	pendingTTL := cfg.PendingTTL
	if pendingTTL == 0 {
		pendingTTL = scores.DefaultPendingTTL
	}

	logger := deps.logger
	m := metrics.New(deps.registry)

	pending := scores.NewPendingSubmissions(deps.clock, pendingTTL)
	scoreService := scores.New(deps.store, deps.ids, pending, m, logger.With("component", "scores"))
	rankingService := ranking.New(deps.store, m, logger.With("component", "ranking"))
	leaderboardService := leaderboard.New(deps.store, rankingService, logger.With("component", "leaderboard"), leaderboardCfg)
	claimService := claim.New(deps.store, m, logger.With("component", "claim"))
	reconciler := reconcile.New(scoreService, claimService, rankingService, pending, deps.clock, m, logger.With("component", "reconcile"), reconcileCfg)
	authService := auth.New(deps.store, deps.clock, deps.ids, logger.With("component", "auth"), authCfg)

	return &App{
		Storage:     deps.store,
		Clock:       deps.clock,
		IDs:         deps.ids,
		Registry:    deps.registry,
		Metrics:     m,
		Logger:      logger,
		Pending:     pending,
		Scores:      scoreService,
		Ranking:     rankingService,
		Leaderboard: leaderboardService,
		Claims:      claimService,
		Reconciler:  reconciler,
		Auth:        authService,
	}
}

// RouterConfig returns the API router configuration for the wired services
func (a *App) RouterConfig() api.RouterConfig {
	return api.RouterConfig{
		Logger:      a.Logger,
		AuthService: a.Auth,
		Scores:      a.Scores,
		Ranking:     a.Ranking,
		Leaderboard: a.Leaderboard,
		Claims:      a.Claims,
		Reconciler:  a.Reconciler,
		Metrics:     a.Metrics,
		Gatherer:    a.Registry,
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
