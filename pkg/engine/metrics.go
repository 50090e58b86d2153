package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// generationsTotal counts evolved generations.
	//
	// Labels:
	//   - strategy: strategy name
	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "typed_gp",
			Subsystem: "engine",
			Name:      "generations_total",
			Help:      "Total generations evolved by strategy",
		},
		[]string{"strategy"},
	)

	// evaluationsTotal counts program scorings by outcome.
	//
	// Labels:
	//   - status: "ok" or "failed"
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "typed_gp",
			Subsystem: "engine",
			Name:      "evaluations_total",
			Help:      "Total program evaluations by status",
		},
		[]string{"status"},
	)

	evaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "typed_gp",
			Subsystem: "engine",
			Name:      "population_evaluation_seconds",
			Help:      "Time to score one whole population",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
	)

	restartsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "typed_gp",
			Subsystem: "engine",
			Name:      "restarts_total",
			Help:      "Total attempts started after stagnation",
		},
	)

	bestScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "typed_gp",
			Subsystem: "engine",
			Name:      "best_score",
			Help:      "Best score of the most recent generation",
		},
	)
)
