// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_sessions_started_total",
			Help: "Total number of onboarding wizard sessions started",
		},
	)

	StepsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_steps_completed_total",
			Help: "Total number of wizard steps completed",
		},
		[]string{"step"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_validation_failures_total",
			Help: "Total number of step-local validation failures",
		},
		[]string{"step"},
	)

	Finalizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_finalizations_total",
			Help: "Total number of finalization attempts by outcome",
		},
		[]string{"status"},
	)

	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_persistence_failures_total",
			Help: "Total number of swallowed wizard state storage failures",
		},
		[]string{"op"},
	)

	CollaboratorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "collaborator_request_duration_seconds",
			Help: "Duration of external collaborator calls in seconds",
		},
		[]string{"service", "operation"},
	)
)
