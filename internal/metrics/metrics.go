// Package metrics defines the Prometheus instruments exported by the score
// service. All recording methods are safe on a nil *Metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/crosswordgame-daily/internal/model"
)

const namespace = "crossword_daily"

// Submission results
const (
	SubmissionCreated  = "created"
	SubmissionExisting = "existing"
	SubmissionInvalid  = "invalid"
	SubmissionFailed   = "failed"
)

// Metrics holds the service's counters and histograms
type Metrics struct {
	submissions     *prometheus.CounterVec
	claims          *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	retries         prometheus.Counter
	rankFallbacks   prometheus.Counter

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge
}

// New creates the instruments and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "submissions_total", Help: "Score submissions by result"},
			[]string{"result"},
		),
		claims: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "claims_total", Help: "Claim attempts by outcome"},
			[]string{"outcome"},
		),
		reconciliations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "reconciliations_total", Help: "Login reconciliations by action"},
			[]string{"action"},
		),
		retries: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "reconciliation_retries_total", Help: "Pending submission lookups retried during reconciliation"},
		),
		rankFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "rank_fallbacks_total", Help: "Rank or percentile answers replaced by a fallback because the store failed"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests"},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "http_requests_in_flight", Help: "Current in-flight requests"},
		),
	}

	reg.MustRegister(
		m.submissions, m.claims, m.reconciliations, m.retries, m.rankFallbacks,
		m.httpRequests, m.httpRequestDuration, m.httpInFlight,
	)
	return m
}

// Submission counts one submission with the given result
func (m *Metrics) Submission(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

// Claim counts one claim attempt
func (m *Metrics) Claim(outcome model.ClaimOutcome) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(outcome.String()).Inc()
}

// Reconciliation counts one finished reconciliation
func (m *Metrics) Reconciliation(action string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(action).Inc()
}

// ReconciliationRetry counts one delayed pending-submission lookup
func (m *Metrics) ReconciliationRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// RankFallback counts one rank or percentile answered with its fallback value
func (m *Metrics) RankFallback() {
	if m == nil {
		return
	}
	m.rankFallbacks.Inc()
}

// RequestStarted marks an HTTP request in flight; call the returned func when it completes
func (m *Metrics) RequestStarted(method, route string) func(status int) {
	if m == nil {
		return func(int) {}
	}
	start := time.Now()
	m.httpInFlight.Inc()
	return func(status int) {
		m.httpInFlight.Dec()
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
