package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backfill Prometheus metrics.
var (
	BackfillDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_documents_total",
			Help:      "Documents handled by the vector backfill worker",
		},
		[]string{"status"}, // written / failed
	)

	BackfillRoundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_rounds_total",
			Help:      "Backfill rounds by outcome",
		},
		[]string{"outcome"}, // empty / success / failed / error
	)

	BackfillState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backfill_state",
			Help:      "1 for the state the backfill worker is currently in",
		},
		[]string{"state"},
	)

	BackfillConsecutiveFailures = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backfill_consecutive_failures",
			Help:      "Consecutive rounds in which every write failed",
		},
	)

	BackfillEmptyRounds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backfill_empty_rounds",
			Help:      "Consecutive discovery rounds that found nothing",
		},
	)
)

var backfillGroup = newGroup(
	BackfillDocumentsTotal,
	BackfillRoundsTotal,
	BackfillState,
	BackfillConsecutiveFailures,
	BackfillEmptyRounds,
)

// RegisterBackfillMetrics registers the backfill worker collectors.
func RegisterBackfillMetrics() { backfillGroup.register() }
