// internal/metrics/metrics.go

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backend client
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomglobe_backend_request_duration_seconds",
			Help:    "Duration of backend REST requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// Fallbacks to empty data when a globe fetch fails
	FetchFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomglobe_fetch_fallbacks_total",
			Help: "Globe data fetches that failed and were replaced with empty data",
		},
		[]string{"source"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roomglobe_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomglobe_circuit_breaker_requests_total",
			Help: "Requests passed through the circuit breaker by result",
		},
		[]string{"name", "result"},
	)

	// Globe sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomglobe_active_sessions",
			Help: "Globe websocket sessions currently open",
		},
	)

	FramesPushed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomglobe_frames_pushed_total",
			Help: "Globe frames written to websocket sessions",
		},
	)

	Selections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomglobe_selections_total",
			Help: "Point selections by whether a live room was assigned",
		},
		[]string{"outcome"},
	)
)
