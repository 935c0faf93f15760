package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BlockRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "storefront", Name: "block_renders_total", Help: "Number of rendered blocks by kind."},
		[]string{"kind"},
	)
	BlockFetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "storefront", Name: "block_fetch_failures_total", Help: "Data queries of blocks that failed and degraded to the empty state."},
		[]string{"kind"},
	)
	BlockFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "storefront", Name: "block_fetch_duration_seconds", Help: "Time spent loading data for data-bound blocks.", Buckets: prometheus.DefBuckets},
		[]string{"kind"},
	)
	CourierRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "storefront", Name: "courier_requests_total", Help: "Courier proxy calls by action and downstream status class."},
		[]string{"action", "status"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "storefront", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter."},
		[]string{"limiter"},
	)
)

// RegisterCollectors registers every collector with reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(BlockRenders)
	reg.MustRegister(BlockFetchFailures)
	reg.MustRegister(BlockFetchDuration)
	reg.MustRegister(CourierRequests)
	reg.MustRegister(RateLimitRejected)
}

// StatusClass buckets an HTTP status code as "2xx", "4xx", and so on. Zero means the call never completed.
func StatusClass(code int) string {
	switch {
	case code <= 0:
		return "error"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
