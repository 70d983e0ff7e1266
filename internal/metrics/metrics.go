// Package metrics exposes Prometheus collectors for the query service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "ledger"
	subsystem = "api"
)

// QueryMetrics tracks served queries by endpoint and outcome.
type QueryMetrics struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewQueryMetrics registers the collectors with reg. Pass a fresh registry
// in tests to keep registrations isolated.
func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	factory := promauto.With(reg)
	return &QueryMetrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queries_total",
			Help:      "queries served, labeled by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "query_duration_seconds",
			Help:      "query latency in seconds, labeled by endpoint",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// Observe records one served query.
func (m *QueryMetrics) Observe(endpoint, outcome string, elapsed time.Duration) {
	m.queries.WithLabelValues(endpoint, outcome).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
