package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and index-sync Prometheus metrics.
var (
	IndexRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saurcours",
			Name:      "index_requests_total",
			Help:      "Total number of document store requests",
		},
		[]string{"op", "status"},
	)

	IndexRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "saurcours",
			Name:      "index_request_duration_seconds",
			Help:      "Document store request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	IndexPushFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "saurcours",
			Name:      "index_push_failures_total",
			Help:      "Best-effort index pushes dropped after a committed write",
		},
	)

	SearchDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "saurcours",
			Name:      "search_degraded_total",
			Help:      "Searches answered with empty hits because the store was unavailable",
		},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saurcours",
			Name:      "search_cache_total",
			Help:      "Search result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexRequestsTotal)
	prometheus.MustRegister(IndexRequestDuration)
	prometheus.MustRegister(IndexPushFailuresTotal)
	prometheus.MustRegister(SearchDegradedTotal)
	prometheus.MustRegister(SearchCacheTotal)
	searchMetricsRegistered = true
}
