package core

import "time"

// Alert is the realized output of a matched alert rule. Ephemeral: it
// exists only within one normalization call (and in whatever the caller
// persists).
type Alert struct {
	ID            string                 `json:"id"`
	Severity      Severity               `json:"severity"`
	Category      string                 `json:"category"`
	Message       string                 `json:"message"`
	Detail        map[string]interface{} `json:"detail"`
	AffectedItems []interface{}          `json:"affected_items"`
}

// Coverage counts how many of the schema's path-based fields actually
// resolved against a host's raw data.
type Coverage struct {
	Resolved int `json:"resolved"`
	Total    int `json:"total"`
	Broken   int `json:"broken"`
}

// Metadata describes one normalization run.
type Metadata struct {
	RunID         string    `json:"run_id"`
	AuditType     string    `json:"audit_type"`
	SchemaName    string    `json:"schema_name"`
	Platform      string    `json:"platform"`
	DisplayName   string    `json:"display_name"`
	GeneratedAt   time.Time `json:"generated_at"`
	FieldCoverage Coverage  `json:"field_coverage"`
}

// WidgetMeta is the per-widget descriptor echoed into the report for
// rendering layers.
type WidgetMeta struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// SchemaInfo is the slice of schema metadata carried on the report so
// renderers do not need the full schema object.
type SchemaInfo struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Widgets     []Widget `json:"widgets"`
}

// Report is the normalized record produced for one host: metadata, the
// rolled-up health and summary, the alert list, the full typed field map
// and widget descriptors.
type Report struct {
	Metadata    Metadata               `json:"metadata"`
	Health      Health                 `json:"health"`
	Summary     Summary                `json:"summary"`
	Alerts      []Alert                `json:"alerts"`
	Fields      map[string]interface{} `json:"fields"`
	WidgetsMeta map[string]WidgetMeta  `json:"widgets_meta"`
	Schema      SchemaInfo             `json:"schema"`
}
