package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/crosswordgame-daily/internal/api/handler"
	"github.com/mcoot/crosswordgame-daily/internal/api/middleware"
	"github.com/mcoot/crosswordgame-daily/internal/metrics"
	"github.com/mcoot/crosswordgame-daily/internal/services/auth"
	"github.com/mcoot/crosswordgame-daily/internal/services/claim"
	"github.com/mcoot/crosswordgame-daily/internal/services/leaderboard"
	"github.com/mcoot/crosswordgame-daily/internal/services/ranking"
	"github.com/mcoot/crosswordgame-daily/internal/services/reconcile"
	"github.com/mcoot/crosswordgame-daily/internal/services/scores"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Scores      *scores.Service
	Ranking     *ranking.Service
	Leaderboard *leaderboard.Service
	Claims      *claim.Service
	Reconciler  *reconcile.Coordinator

	// Metrics and Gatherer are optional; without a Gatherer /metrics is not served
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService, cfg.Reconciler)
	scoreHandler := handler.NewScoreHandler(cfg.Scores, cfg.Ranking, cfg.Claims, cfg.Reconciler)
	puzzleHandler := handler.NewPuzzleHandler(cfg.Ranking, cfg.Leaderboard, cfg.Reconciler, cfg.Logger)
	reconcileHandler := handler.NewReconcileHandler(cfg.Reconciler)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)
	protected := func(h http.HandlerFunc) http.Handler { return authMiddleware(h) }
	optional := func(h http.HandlerFunc) http.Handler { return optionalAuthMiddleware(h) }

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Metrics(cfg.Metrics))

	// Player routes (no auth required for registering/logging in)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)
	api.Handle("/players/logout", protected(playerHandler.Logout)).Methods(http.MethodPost)
	api.Handle("/players/me", protected(playerHandler.GetMe)).Methods(http.MethodGet)

	// Score routes. Anonymous submission is allowed.
	api.Handle("/scores", optional(scoreHandler.Submit)).Methods(http.MethodPost)
	api.Handle("/scores/me", protected(scoreHandler.GetMine)).Methods(http.MethodGet)
	api.Handle("/scores/{id}/claim", protected(scoreHandler.Claim)).Methods(http.MethodPost)

	// Per-day views. {date} is YYYY-MM-DD or "today".
	api.HandleFunc("/puzzles/{date}/rank", puzzleHandler.Rank).Methods(http.MethodGet)
	api.HandleFunc("/puzzles/{date}/percentile", puzzleHandler.Percentile).Methods(http.MethodGet)
	api.Handle("/puzzles/{date}/leaderboard", optional(puzzleHandler.Leaderboard)).Methods(http.MethodGet)

	api.Handle("/reconcile", protected(reconcileHandler.Reconcile)).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
