package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	OptimizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_optimizer_optimizations_total",
			Help: "Optimization runs by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	SolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "route_optimizer_solve_duration_seconds",
			Help:    "Time spent inside a solver",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"strategy"},
	)

	// Distance cells that had to be estimated with haversine because the
	// provider did not answer for them.
	DistanceFallbackCells = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "route_optimizer_distance_fallback_cells_total",
			Help: "Distance matrix cells filled by the haversine fallback",
		},
	)

	DegradedBuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "route_optimizer_degraded_matrix_builds_total",
			Help: "Distance matrix builds that used the haversine fallback for at least one cell",
		},
	)

	SinkDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "route_optimizer_result_sink_dropped_total",
			Help: "Optimization results dropped because the sink queue was full",
		},
	)
)
