package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Processing metrics, labelled sparingly: rule ids are bounded by the loaded
// rule set, outcomes by a small enum.
var (
	TicketsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faultline",
		Name:      "tickets_processed_total",
		Help:      "Tickets seen per processing outcome.",
	}, []string{"outcome"})

	RulesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faultline",
		Name:      "rules_matched_total",
		Help:      "Winning rule selections by rule id.",
	}, []string{"rule_id"})

	CommandStepsRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faultline",
		Name:      "command_steps_total",
		Help:      "Command step executions by pass/fail.",
	}, []string{"passed"})

	TimersStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faultline",
		Name:      "timers_started_total",
		Help:      "Suppression timers started.",
	})

	TimersExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faultline",
		Name:      "timers_expired_total",
		Help:      "Suppression timers reported as expired.",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "faultline",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of one polling cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// Processing outcome labels for TicketsProcessed.
const (
	OutcomeDecided    = "decided"
	OutcomeNoMatch    = "no_match"
	OutcomeSkipped    = "skipped"
	OutcomeSuppressed = "suppressed"
	OutcomeFailed     = "failed"
)
