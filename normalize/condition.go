package normalize

import (
	"reflect"
	"strings"
	"time"

	"talos/core"
	"talos/util"
)

var cmpOps = map[string]func(v, t float64) bool{
	"gt":  func(v, t float64) bool { return v > t },
	"lt":  func(v, t float64) bool { return v < t },
	"gte": func(v, t float64) bool { return v >= t },
	"lte": func(v, t float64) bool { return v <= t },
	"eq":  func(v, t float64) bool { return v == t },
	"ne":  func(v, t float64) bool { return v != t },
}

var ageOps = map[string]func(age, days float64) bool{
	"age_gt":  func(age, days float64) bool { return age > days },
	"age_lt":  func(age, days float64) bool { return age < days },
	"age_gte": func(age, days float64) bool { return age >= days },
	"age_lte": func(age, days float64) bool { return age <= days },
}

// EvaluateCondition evaluates one condition variant against extracted
// fields. Pure function of its inputs; it never fails — malformed input
// degrades to false for that one condition only.
func (e *Engine) EvaluateCondition(cond core.Condition, fields map[string]interface{}) bool {
	switch c := cond.(type) {
	case *core.ThresholdCondition:
		value, present := fields[c.Field]
		if !present || value == nil {
			return false
		}
		comparator, ok := cmpOps[c.Op]
		if !ok {
			return false
		}
		f, ok := util.ToFloat(value)
		if !ok {
			return false
		}
		return comparator(f, c.Threshold)

	case *core.RangeCondition:
		value, present := fields[c.Field]
		if !present || value == nil {
			return c.Min <= 0 && 0 < c.Max
		}
		f, ok := util.ToFloat(value)
		if !ok {
			return false
		}
		// Half-open: min <= value < max.
		return c.Min <= f && f < c.Max

	case *core.ExistsCondition:
		exists := fieldExists(fields, c.Field)
		if c.Op == "not_exists" {
			return !exists
		}
		return exists

	case *core.FilterCountCondition:
		count := 0
		for _, item := range util.SafeList(fields[c.Field]) {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if equalValues(entry[c.FilterField], c.FilterValue) {
				count++
			}
		}
		return float64(count) > c.Threshold

	case *core.MultiFilterCondition:
		count := 0
		for _, item := range util.SafeList(fields[c.Field]) {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			matched := true
			for _, filter := range c.Filters {
				if !equalValues(entry[filter.FilterField], filter.FilterValue) {
					matched = false
					break
				}
			}
			if matched {
				count++
			}
		}
		return float64(count) > c.Threshold

	case *core.StringCondition:
		value := util.ToString(fields[c.Field])
		if c.Op == "ne_str" {
			return value != c.Value
		}
		return value == c.Value

	case *core.StringInCondition:
		value := util.ToString(fields[c.Field])
		member := false
		for _, v := range c.Values {
			if value == v {
				member = true
				break
			}
		}
		if c.Op == "not_in_str" {
			return !member
		}
		return member

	case *core.ComputedFilterCondition:
		return e.evalComputedFilter(c, fields)

	case *core.DateThresholdCondition:
		fieldTime, ok := parseISO(util.ToString(fields[c.Field]))
		if !ok {
			return false
		}
		ref := e.now()
		if c.ReferenceField != "" {
			if refTime, ok := parseISO(util.ToString(fields[c.ReferenceField])); ok {
				ref = refTime
			}
		}
		ageDays := ref.Sub(fieldTime).Seconds() / 86400.0
		cmp, ok := ageOps[c.Op]
		if !ok {
			return false
		}
		return cmp(ageDays, c.Days)

	default:
		return false
	}
}

// evalComputedFilter evaluates the expression per list entry, substituting
// each entry's own sub-fields; any entry that satisfies the comparator (or
// range) fires the condition. Entries that error are skipped, not failed.
func (e *Engine) evalComputedFilter(c *core.ComputedFilterCondition, fields map[string]interface{}) bool {
	list := util.SafeList(fields[c.Field])

	if c.Cmp == "range" {
		if c.Min == nil || c.Max == nil {
			return false
		}
		for _, item := range list {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			value, err := e.expr.Evaluate(c.Expression, entry)
			if err != nil {
				continue
			}
			if *c.Min <= value && value < *c.Max {
				return true
			}
		}
		return false
	}

	comparator, ok := cmpOps[c.Cmp]
	if !ok || c.Threshold == nil {
		return false
	}
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		value, err := e.expr.Evaluate(c.Expression, entry)
		if err != nil {
			continue
		}
		if comparator(value, *c.Threshold) {
			return true
		}
	}
	return false
}

// fieldExists reports whether a field is present and not an empty list
// or map.
func fieldExists(fields map[string]interface{}, name string) bool {
	value, present := fields[name]
	if !present || value == nil {
		return false
	}
	switch t := value.(type) {
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}

// equalValues compares a list entry's sub-field with a schema literal.
// Numeric values compare numerically so YAML integers match float payload
// values; everything else compares structurally.
func equalValues(a, b interface{}) bool {
	_, aStr := a.(string)
	_, bStr := b.(string)
	if !aStr && !bStr {
		af, aok := util.ToFloat(a)
		bf, bok := util.ToFloat(b)
		if aok && bok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

// isoLayouts are the accepted timestamp shapes, most specific first.
var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseISO parses an ISO-8601 timestamp, tolerating a trailing Z and
// date-only or fractional-second forms. Timestamps are taken as UTC.
func parseISO(ts string) (time.Time, bool) {
	ts = strings.TrimSuffix(strings.TrimSpace(ts), "Z")
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, ts, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
