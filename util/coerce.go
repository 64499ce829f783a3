package util

import (
	"encoding/json"
	"strconv"
	"strings"
)

// falsyStrings are string forms of "false" produced by upstream collectors
// that serialize booleans as text.
var falsyStrings = map[string]bool{
	"false": true,
	"no":    true,
	"n":     true,
	"0":     true,
	"off":   true,
	"":      true,
	"none":  true,
	"null":  true,
}

// SafeList coerces a value into a slice. Non-slice values (including nil)
// yield an empty slice rather than an error.
func SafeList(v interface{}) []interface{} {
	switch t := v.(type) {
	case nil:
		return []interface{}{}
	case []interface{}:
		return t
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	default:
		return []interface{}{}
	}
}

// IsTruthy reports whether a value is "true" in the loose sense used by
// collector payloads. Strings are matched against a falsy table so that
// "False", "no" and "0" do not count as true.
func IsTruthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return !falsyStrings[strings.ToLower(strings.TrimSpace(t))]
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case float32:
		return t != 0
	case float64:
		return t != 0
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}

// ToFloat converts numeric-ish values to float64. The second return value
// is false when the value has no numeric interpretation.
func ToFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToInt converts numeric-ish values to int. Numeric types truncate;
// strings must parse as whole integers, so "7.5" is a failed conversion
// and the caller's fallback applies rather than a silently rounded 7.
func ToInt(v interface{}) (int, bool) {
	if s, ok := v.(string); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	f, ok := ToFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// ToString renders a value the way it should appear in report fields and
// interpolated messages. Floats drop a trailing ".0" style mantissa when
// they are whole numbers.
func ToString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
