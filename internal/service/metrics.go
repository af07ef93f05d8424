package service

import "github.com/prometheus/client_golang/prometheus"

var (
	stageTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ats_stage_transitions_total", Help: "Stage move attempts by rule and outcome"},
		[]string{"rule", "outcome"},
	)
	bestEffortFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ats_best_effort_failures_total", Help: "Swallowed side-effect failures"},
		[]string{"component"},
	)
)

func init() {
	prometheus.MustRegister(stageTransitions, bestEffortFailures)
}
