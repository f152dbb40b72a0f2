package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Core request/hit/miss counters, labeled by key namespace.
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cache lookups",
		},
		[]string{"namespace"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits, by freshness at serve time",
		},
		[]string{"namespace", "freshness"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"namespace"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Total number of cache tier errors",
		},
		[]string{"level", "kind"},
	)

	// Refresh coordinator outcomes.
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_refresh_total",
			Help: "Total number of refresh attempts, by outcome",
		},
		[]string{"namespace", "outcome"}, // succeeded, failed, not_found, shared
	)

	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_refresh_duration_seconds",
			Help:    "Duration of cache refresh computations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"namespace"},
	)

	// Rate limiting and notifier health.
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	NotifierFailOpen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_fail_open_total",
			Help: "Times the change notifier fell back to 'assume updated' on backend failure",
		},
	)

	// L1 capacity gauges.
	CacheCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_capacity_entries",
			Help: "L1 cache capacity",
		},
		[]string{"level"},
	)

	CacheUsed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_used_entries",
			Help: "L1 cache resident entries",
		},
		[]string{"level"},
	)
)

// RecordCacheRequest records a cache lookup.
func RecordCacheRequest(namespace string) {
	CacheRequests.WithLabelValues(namespace).Inc()
}

// RecordCacheHit records a cache hit with the freshness it was served at.
func RecordCacheHit(namespace, freshness string) {
	CacheHits.WithLabelValues(namespace, freshness).Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss(namespace string) {
	CacheMisses.WithLabelValues(namespace).Inc()
}

// RecordCacheError records a tier-level error.
func RecordCacheError(level, kind string) {
	CacheErrors.WithLabelValues(level, kind).Inc()
}

// RecordRefresh records a refresh outcome.
func RecordRefresh(namespace, outcome string) {
	RefreshTotal.WithLabelValues(namespace, outcome).Inc()
}

// TimeRefresh returns a timer function for measuring refresh duration.
func TimeRefresh(namespace string) func() {
	timer := prometheus.NewTimer(RefreshDuration.WithLabelValues(namespace))
	return func() {
		timer.ObserveDuration()
	}
}

// UpdateL1Capacity updates the L1 capacity gauges.
func UpdateL1Capacity(capacity, used int64) {
	CacheCapacity.WithLabelValues("l1").Set(float64(capacity))
	CacheUsed.WithLabelValues("l1").Set(float64(used))
}
