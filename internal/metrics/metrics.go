package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts committed operations by type.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cowrite_operations_total",
			Help: "Total number of operations committed, by operation type",
		},
		[]string{"type"},
	)

	// OperationsRejected counts rejected operations by reason code.
	OperationsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cowrite_operations_rejected_total",
			Help: "Total number of rejected operations, by error code",
		},
		[]string{"reason"},
	)

	// ConflictsResolved counts conflict resolutions by strategy.
	ConflictsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cowrite_conflicts_resolved_total",
			Help: "Total number of conflicts resolved, by strategy",
		},
		[]string{"strategy"},
	)

	// EventsDropped counts audit events lost to the ring cap.
	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cowrite_events_dropped_total",
			Help: "Total number of audit events dropped by the capped log",
		},
	)

	// RoomsActive tracks the number of rooms in the registry.
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cowrite_rooms_active",
			Help: "Number of rooms currently registered",
		},
	)

	// AIGenerations counts AI-assisted generations by provider and status.
	AIGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cowrite_ai_generations_total",
			Help: "Total number of AI generation attempts, by provider and status",
		},
		[]string{"provider", "status"},
	)

	// AIGenerationDuration observes AI generation latency in seconds.
	AIGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cowrite_ai_generation_duration_seconds",
			Help:    "AI generation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)
)

func RecordOperation(opType string) {
	OperationsTotal.WithLabelValues(opType).Inc()
}

func RecordRejection(reason string) {
	OperationsRejected.WithLabelValues(reason).Inc()
}

func RecordConflict(strategy string) {
	ConflictsResolved.WithLabelValues(strategy).Inc()
}

func RecordGeneration(provider string, success bool, seconds float64) {
	status := "success"
	if !success {
		status = "error"
	}
	AIGenerations.WithLabelValues(provider, status).Inc()
	AIGenerationDuration.Observe(seconds)
}
