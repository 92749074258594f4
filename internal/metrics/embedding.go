package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding provider and query cache metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Embedding provider calls by outcome",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "request_duration_seconds",
			Help:      "Embedding provider call latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "tokens_total",
			Help:      "Tokens billed by the embedding provider",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "errors_total",
			Help:      "Failed embedding calls by error class",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "cache_total",
			Help:      "Query embedding cache lookups by outcome",
		},
		[]string{"result"}, // hit_memory / hit_redis / miss
	)
)

var embeddingGroup = newGroup(
	EmbeddingRequestsTotal,
	EmbeddingRequestDuration,
	EmbeddingTokensTotal,
	EmbeddingErrorsTotal,
	EmbeddingCacheTotal,
)

// RegisterEmbeddingMetrics registers the embedding collectors. Safe to call
// more than once.
func RegisterEmbeddingMetrics() { embeddingGroup.register() }
