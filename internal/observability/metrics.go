package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniblog_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "miniblog_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthEvents counts register/login/verify outcomes.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniblog_auth_events_total",
		Help: "Authentication events by type and outcome",
	}, []string{"event", "outcome"})

	// PostMutations counts successful post mutations by operation.
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniblog_post_mutations_total",
		Help: "Post mutations by operation",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by outcome (hit, miss, bypass).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniblog_cache_lookups_total",
		Help: "Cache-aside lookups by outcome",
	}, []string{"outcome"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordAuth increments the auth event counter.
func RecordAuth(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}
