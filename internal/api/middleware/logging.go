package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/crosswordgame-daily/internal/metrics"
	"github.com/mcoot/crosswordgame-daily/internal/middleware"
)

// Logging logs each API request with its route template
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}

// Metrics records per-route request metrics for the API
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return middleware.Metrics(m)
}
