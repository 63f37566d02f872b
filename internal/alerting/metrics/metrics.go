package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadingsProcessed counts sensor readings accepted into the pipeline,
	// labeled by outcome (processed, orphan, error).
	ReadingsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plotwatch",
		Subsystem: "engine",
		Name:      "readings_processed_total",
		Help:      "Sensor readings processed by the alert engine.",
	}, []string{"outcome"})

	// FactsEmitted counts threshold violations produced by evaluation.
	FactsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plotwatch",
		Subsystem: "engine",
		Name:      "facts_emitted_total",
		Help:      "Threshold violation facts emitted by the evaluator.",
	}, []string{"metric", "severity"})

	// AlertsCreated counts alerts that survived deduplication.
	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plotwatch",
		Subsystem: "engine",
		Name:      "alerts_created_total",
		Help:      "Alerts created after deduplication.",
	}, []string{"metric", "severity"})

	// AlertsSuppressed counts facts suppressed as duplicates.
	AlertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plotwatch",
		Subsystem: "engine",
		Name:      "alerts_suppressed_total",
		Help:      "Facts suppressed by the deduplicator.",
	})

	// DeliveryAttempts counts per-channel delivery outcomes.
	DeliveryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plotwatch",
		Subsystem: "delivery",
		Name:      "attempts_total",
		Help:      "Per-channel alert delivery attempts.",
	}, []string{"channel", "outcome"})

	// ProcessDuration observes end-to-end ProcessReading latency.
	ProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "plotwatch",
		Subsystem: "engine",
		Name:      "process_reading_seconds",
		Help:      "Latency of the reading-processing pipeline.",
		Buckets:   prometheus.DefBuckets,
	})
)
