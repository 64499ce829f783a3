package normalize

import (
	"context"
	"time"

	"talos/core"
	"talos/metrics"
	"talos/util"
)

// coerce applies the declared field type to a resolved value. A nil value
// or a failed conversion yields the fallback; coercion never fails hard.
func coerce(value interface{}, fieldType core.FieldType, fallback interface{}) interface{} {
	if value == nil {
		return fallback
	}
	switch fieldType {
	case core.FieldString:
		return util.ToString(value)
	case core.FieldInt:
		if n, ok := util.ToInt(value); ok {
			return n
		}
		return fallback
	case core.FieldFloat:
		if f, ok := util.ToFloat(value); ok {
			return f
		}
		return fallback
	case core.FieldBool:
		return util.IsTruthy(value)
	case core.FieldList:
		return util.SafeList(value)
	case core.FieldDict:
		if m, ok := value.(map[string]interface{}); ok {
			return m
		}
		return fallback
	default:
		return value
	}
}

// Extract walks the schema's field specs against raw data and returns the
// typed field map plus path-resolution coverage.
//
// Four ordered passes make the dependency order explicit:
//  1. path fields    — resolved from raw data and type-coerced
//  2. compute fields — expressions over the fields extracted so far
//  3. script fields  — helper invocations receiving all prior fields
//  4. compute fields — re-evaluated so they can reference script outputs
//
// No failure in any single field aborts extraction: expression errors and
// broken scripts degrade to sentinels, absent data to fallbacks.
func (e *Engine) Extract(ctx context.Context, schema *core.Schema, raw map[string]interface{}) (map[string]interface{}, core.Coverage) {
	fields := make(map[string]interface{}, len(schema.Fields))
	var coverage core.Coverage

	names := schema.FieldNames()

	// Pass 1: path fields.
	for _, name := range names {
		spec := schema.Fields[name]
		if spec.Path == "" {
			continue
		}
		coverage.Total++
		rawValue := e.transforms.Resolve(spec.Path, raw)
		if rawValue == nil && schema.PathBroken(name) {
			// The path is provably broken per load-time validation; show
			// the sentinel so the report surfaces the problem instead of
			// a plausible-looking fallback.
			fields[name] = spec.SentinelValue()
			coverage.Broken++
			if e.cfg.EnableMetrics {
				metrics.PathFieldsBroken.Inc()
			}
			continue
		}
		fields[name] = coerce(rawValue, spec.EffectiveType(), spec.Fallback)
		if rawValue != nil {
			coverage.Resolved++
			if e.cfg.EnableMetrics {
				metrics.PathFieldsResolved.Inc()
			}
		}
	}

	// Pass 2: compute fields over path results.
	for _, name := range names {
		spec := schema.Fields[name]
		if spec.Compute == "" {
			continue
		}
		computed, err := e.expr.Evaluate(spec.Compute, fields)
		if err != nil {
			e.logger.Warnw("compute field failed", "field", name, "error", err)
			fields[name] = spec.SentinelValue()
			continue
		}
		fields[name] = coerce(computed, spec.EffectiveType(), spec.Fallback)
	}

	// Pass 3: script fields, receiving path + compute results.
	for _, name := range names {
		spec := schema.Fields[name]
		if spec.Script == "" {
			continue
		}
		scriptPath, found := ResolveScript(spec.Script, schema.SourcePath, e.cfg.ScriptsDir)
		if !found {
			e.logger.Warnw("script not found for field", "field", name, "script", spec.Script)
			fields[name] = spec.SentinelValue()
			if e.cfg.EnableMetrics {
				metrics.ScriptExecutions.WithLabelValues(ScriptBroken.String()).Inc()
			}
			continue
		}
		timeout := time.Duration(spec.EffectiveScriptTimeout()) * time.Second
		value, status := e.exec.Run(ctx, scriptPath, fields, spec.ScriptArgs, timeout)
		if e.cfg.EnableMetrics {
			metrics.ScriptExecutions.WithLabelValues(status.String()).Inc()
		}
		switch status {
		case ScriptBroken:
			fields[name] = spec.SentinelValue()
		case ScriptAbsent:
			fields[name] = coerce(nil, spec.EffectiveType(), spec.Fallback)
		default:
			fields[name] = coerce(value, spec.EffectiveType(), spec.Fallback)
		}
	}

	// Pass 4: compute fields again, now able to reference script outputs.
	// A failure here only writes the sentinel when the field was never
	// populated, so a successful pass-2 result survives a harmless
	// re-evaluation error.
	for _, name := range names {
		spec := schema.Fields[name]
		if spec.Compute == "" {
			continue
		}
		computed, err := e.expr.Evaluate(spec.Compute, fields)
		if err != nil {
			e.logger.Warnw("compute field failed on re-evaluation", "field", name, "error", err)
			if _, populated := fields[name]; !populated {
				fields[name] = spec.SentinelValue()
			}
			continue
		}
		fields[name] = coerce(computed, spec.EffectiveType(), spec.Fallback)
	}

	return fields, coverage
}
