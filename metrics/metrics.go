package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoutedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_router_requests_total",
			Help: "Total number of routed prompts",
		},
		[]string{"model", "category", "preset", "outcome"},
	)

	FallbackAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "model_router_fallback_attempts_total",
			Help: "Total number of static fallback invocations",
		},
	)

	BackendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_router_backend_latency_seconds",
			Help:    "Backend generation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"model"},
	)

	ClassificationMethod = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_router_classifications_total",
			Help: "Classification outcomes by final method",
		},
		[]string{"method", "category"},
	)

	ModelsUnavailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_router_models_unavailable",
			Help: "Number of models currently marked unavailable",
		},
	)
)
