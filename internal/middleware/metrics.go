package middleware

import (
	"net/http"

	"github.com/mcoot/crosswordgame-daily/internal/metrics"
)

// Metrics records request counts, durations and in-flight requests.
// It must run inside a mux router so the route template is known.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done := m.RequestStarted(r.Method, RouteTemplate(r))
			wrapped := NewResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			done(wrapped.Status())
		})
	}
}
