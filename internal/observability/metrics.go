package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records data layer latency by backend, operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobtracker_database_query_latency_seconds",
		Help:    "Data layer call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation", "table"})

	// DatabaseErrors counts failed data layer calls by backend, operation and error code.
	DatabaseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_database_errors_total",
		Help: "Total number of failed data layer calls",
	}, []string{"backend", "operation", "code"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheRequests counts stats cache lookups by result (hit, miss).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_cache_requests_total",
		Help: "Stats cache lookups by result",
	}, []string{"result"})

	// PreferenceBatches counts preferred-resume batches by outcome.
	PreferenceBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_preference_batches_total",
		Help: "Preferred resume batch submissions by outcome",
	}, []string{"outcome"})
)

// DatabaseMetrics records query latency for one backend.
type DatabaseMetrics struct {
	backend string
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(backend string) *DatabaseMetrics {
	return &DatabaseMetrics{backend: backend}
}

// ObserveQuery records the latency of a data layer call.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(m.backend, operation, table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}

// RecordError counts a failed call.
func (m *DatabaseMetrics) RecordError(operation, code string) {
	DatabaseErrors.WithLabelValues(m.backend, operation, code).Inc()
}
