package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riftwatch_poll_cycles_total",
		Help: "Total number of poll cycles run",
	})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "riftwatch_poll_cycle_duration_seconds",
		Help:    "Duration of a full fetch, aggregate and infer cycle",
		Buckets: prometheus.DefBuckets,
	})

	fetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riftwatch_fetch_failures_total",
		Help: "Live client fetch failures by resource",
	}, []string{"resource"})

	inferenceRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riftwatch_inference_runs_total",
		Help: "Win probability inferences by mode (model, degraded)",
	}, []string{"mode"})

	viewTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riftwatch_view_transitions_total",
		Help: "Total number of view changes",
	})

	goldDifference = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riftwatch_gold_difference",
		Help: "Estimated ORDER gold minus CHAOS gold",
	})

	matchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riftwatch_matches_started_total",
		Help: "Number of matches detected",
	})
)
