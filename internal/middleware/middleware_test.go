package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/crosswordgame-daily/internal/metrics"
)

func newRouter(mw ...mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	r.Use(mw...)
	r.HandleFunc("/puzzles/{date}/rank", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	})
	r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	return r
}

func TestLoggingUsesRouteTemplate(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	rec := httptest.NewRecorder()
	newRouter(Logging(logger)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/puzzles/2024-01-01/rank", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	out := buf.String()
	assert.Contains(t, out, `"route":"/puzzles/{date}/rank"`)
	assert.Contains(t, out, `"path":"/puzzles/2024-01-01/rank"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"size":5`)
}

func TestMetricsCountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	router := newRouter(Metrics(m))

	for _, date := range []string{"2024-01-01", "2024-01-02"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/puzzles/"+date+"/rank", nil))
	}

	count, err := testutil.GatherAndCount(reg, "crossword_daily_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "both dates share one series")
}

func TestRecoveryWritesResponse(t *testing.T) {
	router := newRouter(Recovery(slog.New(slog.DiscardHandler), DefaultPanicHandler))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecoveryRepanicsOnAbort(t *testing.T) {
	h := Recovery(slog.New(slog.DiscardHandler), DefaultPanicHandler)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
