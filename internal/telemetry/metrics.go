package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── Poller ──────────────────────────────────────────────────────────────────

	PollerTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routined",
		Subsystem: "poller",
		Name:      "ticks_total",
		Help:      "Total match ticks evaluated.",
	})

	PollerSourceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routined",
		Subsystem: "poller",
		Name:      "source_errors_total",
		Help:      "Ticks skipped because the task list could not be read.",
	})

	PollerDroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routined",
		Subsystem: "poller",
		Name:      "dropped_events_total",
		Help:      "Firings not delivered to a subscriber because its buffer was full.",
	})

	// ─── Alarms ──────────────────────────────────────────────────────────────────

	AlarmsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routined",
		Subsystem: "alarm",
		Name:      "fired_total",
		Help:      "Alarms that became the active firing, labelled by task category.",
	}, []string{"category"})

	AlarmsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routined",
		Subsystem: "alarm",
		Name:      "resolved_total",
		Help:      "Active alarms resolved, labelled by outcome (dismissed|completed).",
	}, []string{"outcome"})

	CompletionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routined",
		Subsystem: "alarm",
		Name:      "completion_failures_total",
		Help:      "Completion requests the task store rejected.",
	})

	DedupKeys = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "routined",
		Subsystem: "alarm",
		Name:      "dedup_keys",
		Help:      "Occurrence keys currently tracked by the deduplicator.",
	})

	// ─── Notifications ───────────────────────────────────────────────────────────

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routined",
		Subsystem: "notify",
		Name:      "failures_total",
		Help:      "Notification sink errors, swallowed after logging.",
	}, []string{"sink"})
)
