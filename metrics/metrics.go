// Package metrics exposes Prometheus instrumentation for the
// normalization pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PathFieldsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "talos_path_fields_resolved_total",
			Help: "Total number of path-based fields that resolved against raw data",
		},
	)

	PathFieldsBroken = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "talos_path_fields_broken_total",
			Help: "Total number of path-based fields substituted with sentinels",
		},
	)

	ScriptExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talos_script_executions_total",
			Help: "Total number of script field invocations by outcome",
		},
		[]string{"outcome"},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talos_alerts_generated_total",
			Help: "Total number of alerts generated",
		},
		[]string{"severity"},
	)

	NormalizationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "talos_normalization_duration_seconds",
			Help:    "Time taken to normalize one host bundle",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReportsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "talos_reports_persisted_total",
			Help: "Total number of normalized reports written to storage",
		},
	)
)
