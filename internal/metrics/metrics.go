package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Metadata provider
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wolfflix_provider_requests_total",
			Help: "Total number of metadata provider requests",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok, error, cached, breaker_open
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wolfflix_provider_request_duration_seconds",
			Help:    "Metadata provider request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// Outstanding provider calls; backs the busy indicator.
	InFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wolfflix_inflight_lookups",
			Help: "Number of metadata lookups currently outstanding",
		},
	)

	ChatOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wolfflix_chat_outcomes_total",
			Help: "Chat recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wolfflix_cache_hits_total",
			Help: "Redis cache hits by key family",
		},
		[]string{"family"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wolfflix_cache_misses_total",
			Help: "Redis cache misses by key family",
		},
		[]string{"family"},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wolfflix_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wolfflix_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	EmbeddingJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wolfflix_embedding_jobs_total",
			Help: "Catalog embedding jobs processed by outcome",
		},
		[]string{"outcome"},
	)
)
