package selection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SelectionsTotal counts served selections by policy and provider
	SelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askpair",
			Subsystem: "selection",
			Name:      "total",
			Help:      "Total number of served selections by policy and provider",
		},
		[]string{"policy", "provider"},
	)

	// RankerFallbacks counts learned-ranker no-opinion outcomes by reason
	RankerFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askpair",
			Subsystem: "selection",
			Name:      "ranker_fallback_total",
			Help:      "Learned ranker fallbacks to the rule selector by reason",
		},
		[]string{"reason"},
	)

	// ModelReloads counts artifact loads by model version
	ModelReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askpair",
			Subsystem: "selection",
			Name:      "model_reloads_total",
			Help:      "Model artifact cache reloads by model version",
		},
		[]string{"model_version"},
	)

	// GenerationLatency tracks end-to-end candidate generation latency
	GenerationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "askpair",
			Subsystem: "selection",
			Name:      "generation_latency_seconds",
			Help:      "Latency of candidate generation per ask request",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// FeedbackTotal counts recorded pairwise feedback by choice
	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askpair",
			Subsystem: "selection",
			Name:      "feedback_total",
			Help:      "Total pairwise feedback events by user choice",
		},
		[]string{"choice"},
	)
)
