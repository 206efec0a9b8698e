package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	startTime = time.Now()

	// UptimeSeconds tracks the service uptime in seconds
	UptimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poi",
		Subsystem: "orchestrator",
		Name:      "uptime_seconds",
		Help:      "Time passed since the orchestrator started in seconds",
	})

	// Memory usage metrics
	MemoryUsageBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poi",
		Subsystem: "orchestrator",
		Name:      "memory_usage_bytes",
		Help:      "Memory consumption",
	})

	// Goroutines active metrics
	GoroutinesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poi",
		Subsystem: "orchestrator",
		Name:      "goroutines_active",
		Help:      "Number of active goroutines",
	})

	// Garbage collection duration metrics
	GCDurationSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poi",
		Subsystem: "orchestrator",
		Name:      "gc_duration_seconds",
		Help:      "Garbage collection time",
	})

	// TasksInFlight tracks tasks currently inside the pipeline
	TasksInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poi",
		Subsystem: "orchestrator",
		Name:      "tasks_in_flight",
		Help:      "Tasks currently being processed",
	})

	// TasksReceivedTotal counts tasks accepted by the gateway
	TasksReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poi",
		Subsystem: "orchestrator",
		Name:      "tasks_received_total",
		Help:      "Total verification tasks received",
	})

	// TasksByTerminalStateTotal counts tasks per terminal pipeline state
	TasksByTerminalStateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poi",
		Subsystem: "orchestrator",
		Name:      "tasks_by_terminal_state_total",
		Help:      "Total tasks per terminal state",
	}, []string{"state"})

	// RejectionsByReasonTotal counts eligibility rejections per rule
	RejectionsByReasonTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poi",
		Subsystem: "orchestrator",
		Name:      "rejections_by_reason_total",
		Help:      "Total eligibility rejections per reason",
	}, []string{"reason"})

	// StageFailuresTotal counts non-fatal downstream stage failures
	StageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poi",
		Subsystem: "orchestrator",
		Name:      "stage_failures_total",
		Help:      "Total recoverable stage failures (settlement, receipt, attestation)",
	}, []string{"stage"})

	// DegradedVerificationsTotal counts placeholder outcomes from degraded mode
	DegradedVerificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poi",
		Subsystem: "orchestrator",
		Name:      "degraded_verifications_total",
		Help:      "Total verifications substituted by the degraded-mode fallback",
	})

	// TaskDurationSeconds tracks end-to-end task processing time
	TaskDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "poi",
		Subsystem: "orchestrator",
		Name:      "task_duration_seconds",
		Help:      "End-to-end task processing duration",
		Buckets:   prometheus.DefBuckets,
	})
)
