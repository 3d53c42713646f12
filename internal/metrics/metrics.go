// Package metrics exposes Prometheus collectors for plan acquisition, provider
// calls, batch runs and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dietplan"

// Metrics holds the collectors. A nil *Metrics discards all observations.
type Metrics struct {
	gatherer prometheus.Gatherer

	acquisitionAttempts *prometheus.CounterVec
	acquisitionOutcomes *prometheus.CounterVec
	backoff             prometheus.Histogram
	aiCalls             *prometheus.CounterVec
	batchRows           *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg gets a private registry so
// that several instances can coexist in one process.
func New(reg prometheus.Registerer) *Metrics {
	var gatherer prometheus.Gatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	} else {
		gatherer = prometheus.DefaultGatherer
	}
	f := promauto.With(reg)

	return &Metrics{
		gatherer: gatherer,
		acquisitionAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "attempts_total",
			Help:      "Plan acquisition attempts by result.",
		}, []string{"result"}),
		acquisitionOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "outcomes_total",
			Help:      "Finished acquisitions by terminal state.",
		}, []string{"state"}),
		backoff: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "backoff_seconds",
			Help:      "Backoff waits before retrying a failed call.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
		aiCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "Generative service calls by provider and status.",
		}, []string{"provider", "status"}),
		batchRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "rows_total",
			Help:      "Processed survey rows by status.",
		}, []string{"status"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (m *Metrics) ObserveAttempt(result string) {
	if m == nil {
		return
	}
	m.acquisitionAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveOutcome(state string) {
	if m == nil {
		return
	}
	m.acquisitionOutcomes.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveBackoff(d time.Duration) {
	if m == nil {
		return
	}
	m.backoff.Observe(d.Seconds())
}

func (m *Metrics) ObserveAICall(provider, status string) {
	if m == nil {
		return
	}
	m.aiCalls.WithLabelValues(provider, status).Inc()
}

func (m *Metrics) ObserveBatchRow(status string) {
	if m == nil {
		return
	}
	m.batchRows.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTP(method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
