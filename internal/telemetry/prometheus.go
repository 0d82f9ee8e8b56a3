package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlansBuilt counts plan requests by kind and outcome.
	PlansBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "windrose_plans_built_total",
			Help: "Total number of window/metric plans built",
		},
		[]string{"kind", "status"},
	)

	// PlanDuration observes how long building a plan takes.
	PlanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "windrose_plan_build_duration_seconds",
			Help:    "Plan build duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"kind"},
	)

	// DefinitionsLoaded reports how many definitions are currently registered.
	DefinitionsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "windrose_definitions_loaded",
			Help: "Number of metric definitions currently registered",
		},
	)

	// DefinitionsCreated counts definitions registered through the API.
	DefinitionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "windrose_definitions_created_total",
			Help: "Total number of metric definitions created via the API",
		},
	)
)
