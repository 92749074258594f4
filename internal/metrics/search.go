package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	SearchDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_degraded_total",
			Help:      "Sub-queries that failed and contributed an empty result",
		},
		[]string{"source"}, // structured / keyword / vector / content / answer
	)

	SearchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results_returned",
			Help:      "Number of ranked documents returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50},
		},
	)
)

var searchGroup = newGroup(SearchDuration, SearchDegradedTotal, SearchResultsReturned)

// RegisterSearchMetrics registers the search collectors.
func RegisterSearchMetrics() { searchGroup.register() }
