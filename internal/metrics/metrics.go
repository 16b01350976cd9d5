package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_gateway_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	FastPathHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_gateway_fastpath_hits_total",
			Help: "Questions answered without a provider call, by stage",
		},
		[]string{"stage"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_gateway_provider_calls_total",
			Help: "Completion calls issued per provider",
		},
		[]string{"provider"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_gateway_provider_failures_total",
			Help: "Failed completion calls per provider and failure kind",
		},
		[]string{"provider", "kind"},
	)

	AnswerLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "quorum_gateway_answer_latency_seconds",
			Help: "End-to-end latency of the ask pipeline",
		},
	)

	EnsembleSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quorum_gateway_ensemble_size",
			Help:    "Number of candidates reconciled per ensemble answer",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	CreativeSamples = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quorum_gateway_creative_samples_total",
			Help: "High-temperature samples collected by the creative pipeline",
		},
	)

	ActiveProviders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quorum_gateway_active_providers",
			Help: "Providers with a credential configured",
		},
	)
)
