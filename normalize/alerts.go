package normalize

import (
	"regexp"

	"talos/core"
	"talos/util"
)

var fieldRefPattern = regexp.MustCompile(`\{(\w+)\}`)

// interpolate substitutes {field_name} placeholders in a message template.
// If any referenced field is missing the raw template is returned
// unchanged; a half-substituted message would be worse than none.
func interpolate(template string, fields map[string]interface{}) string {
	refs := fieldRefPattern.FindAllStringSubmatch(template, -1)
	for _, ref := range refs {
		if _, ok := fields[ref[1]]; !ok {
			return template
		}
	}
	return fieldRefPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		return util.ToString(fields[name])
	})
}

// BuildAlerts evaluates every alert rule against the extracted fields and
// returns one alert per matching rule, in schema order. Callers sort for
// display; the builder does not.
func (e *Engine) BuildAlerts(schema *core.Schema, fields map[string]interface{}) []core.Alert {
	alerts := make([]core.Alert, 0)
	for _, rule := range schema.Alerts {
		if rule.Condition == nil || !e.EvaluateCondition(rule.Condition, fields) {
			continue
		}

		detail := make(map[string]interface{})
		for _, name := range rule.DetailFields {
			if value, ok := fields[name]; ok {
				detail[name] = value
			}
		}

		affected := []interface{}{}
		if rule.AffectedItemsField != "" {
			affected = util.SafeList(fields[rule.AffectedItemsField])
		}

		alerts = append(alerts, core.Alert{
			ID:            rule.ID,
			Severity:      core.CanonicalSeverity(rule.Severity),
			Category:      rule.Category,
			Message:       interpolate(rule.Message, fields),
			Detail:        detail,
			AffectedItems: affected,
		})
	}
	return alerts
}
