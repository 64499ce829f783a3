// Package normalize is the schema-driven normalization core: it executes a
// declarative schema against one host's raw audit bundle and produces the
// typed field map, structured alerts and rolled-up health that the
// rendering and persistence layers consume.
//
// The engine performs no I/O beyond invoking schema-declared helper
// scripts. Each call to Normalize is a pure function of (schema, bundle)
// with no shared mutable state, so hosts are trivially parallelizable by
// the calling layer.
package normalize

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talos/core"
	"talos/metrics"
)

// EngineConfig holds construction options for the normalization engine.
type EngineConfig struct {
	// ScriptsDir is the built-in scripts directory, the last stop in
	// script resolution order.
	ScriptsDir string

	// Executor runs script fields. Nil selects the subprocess-backed
	// ProcessExecutor.
	Executor Executor

	// EnableMetrics controls whether Prometheus metrics are recorded.
	EnableMetrics bool
}

// Engine evaluates schemas against raw bundles. Construct once and share;
// all methods are safe for concurrent use because per-call state lives in
// the field map owned by each invocation.
type Engine struct {
	cfg        EngineConfig
	transforms *TransformRegistry
	expr       *Evaluator
	exec       Executor
	logger     *zap.SugaredLogger

	// now is injectable for deterministic date-threshold tests.
	now func() time.Time
}

// NewEngine creates an engine with the built-in transform registry and a
// fresh expression cache.
func NewEngine(cfg EngineConfig, logger *zap.SugaredLogger) *Engine {
	exec := cfg.Executor
	if exec == nil {
		exec = NewProcessExecutor(logger)
	}
	return &Engine{
		cfg:        cfg,
		transforms: NewTransformRegistry(logger),
		expr:       NewEvaluator(),
		exec:       exec,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Transforms exposes the registry so callers can add site-specific
// transforms before the first run.
func (e *Engine) Transforms() *TransformRegistry {
	return e.transforms
}

// Normalize executes the schema against one host's raw bundle:
// extraction, alert building, rollup. Alert statistics are injected back
// into the field map as virtual fields (underscore-prefixed) so
// schema-declared widgets can reference them.
func (e *Engine) Normalize(ctx context.Context, schema *core.Schema, raw map[string]interface{}) *core.Report {
	start := time.Now()

	fields, coverage := e.Extract(ctx, schema, raw)
	alerts := e.BuildAlerts(schema, fields)
	summary := core.SummarizeAlerts(alerts)
	health := core.HealthRollup(alerts)

	fields["_critical_count"] = summary.CriticalCount
	fields["_warning_count"] = summary.WarningCount
	fields["_total_alerts"] = summary.CriticalCount + summary.WarningCount

	widgetsMeta := make(map[string]core.WidgetMeta, len(schema.Widgets))
	for _, w := range schema.Widgets {
		widgetsMeta[w.ID] = core.WidgetMeta{ID: w.ID, Title: w.Title, Type: w.Type}
	}

	if e.cfg.EnableMetrics {
		metrics.NormalizationDuration.Observe(time.Since(start).Seconds())
		for _, a := range alerts {
			metrics.AlertsGenerated.WithLabelValues(string(a.Severity)).Inc()
		}
	}

	return &core.Report{
		Metadata: core.Metadata{
			RunID:         uuid.New().String(),
			AuditType:     "schema_" + schema.Name,
			SchemaName:    schema.Name,
			Platform:      schema.Platform,
			DisplayName:   schema.DisplayName,
			GeneratedAt:   e.now(),
			FieldCoverage: coverage,
		},
		Health:      health,
		Summary:     summary,
		Alerts:      alerts,
		Fields:      fields,
		WidgetsMeta: widgetsMeta,
		Schema: core.SchemaInfo{
			Name:        schema.Name,
			DisplayName: schema.DisplayName,
			Widgets:     schema.Widgets,
		},
	}
}
