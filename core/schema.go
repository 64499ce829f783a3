package core

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// FieldType is the declared type of a schema field.
type FieldType string

const (
	FieldString FieldType = "str"
	FieldInt    FieldType = "int"
	FieldFloat  FieldType = "float"
	FieldBool   FieldType = "bool"
	FieldList   FieldType = "list"
	FieldDict   FieldType = "dict"
)

// IsValid checks if the field type is one of the declared set.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldString, FieldInt, FieldFloat, FieldBool, FieldList, FieldDict:
		return true
	default:
		return false
	}
}

// DefaultScriptTimeoutSeconds bounds script field subprocesses when the
// schema does not declare its own timeout.
const DefaultScriptTimeoutSeconds = 30

// FieldSpec declares one field's production rule: exactly one of Path,
// Compute or Script, plus the declared type, the fallback used when
// resolution yields nothing, and an optional sentinel used when the
// source is known to be broken.
type FieldSpec struct {
	// Path is a dot-notation traversal into the raw bundle, optionally
	// piped through a named transform: "hardware.interfaces | len_if_list".
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// Compute is an arithmetic expression over {field_name} references.
	Compute string `yaml:"compute,omitempty" json:"compute,omitempty"`
	// Script names an external helper executable; it receives JSON on
	// stdin and returns a JSON value on stdout.
	Script string `yaml:"script,omitempty" json:"script,omitempty"`

	// ScriptArgs are static key/value args passed to the script alongside
	// the extracted fields.
	ScriptArgs map[string]interface{} `yaml:"script_args,omitempty" json:"script_args,omitempty"`
	// ScriptTimeout is the per-invocation bound in seconds before the
	// script is killed and the sentinel is used.
	ScriptTimeout int `yaml:"script_timeout,omitempty" json:"script_timeout,omitempty"`

	Type     FieldType   `yaml:"type,omitempty" json:"type"`
	Fallback interface{} `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	// Sentinel overrides the type-appropriate default ("ERROR" / -1) shown
	// when the field's source is provably broken.
	Sentinel interface{} `yaml:"sentinel,omitempty" json:"sentinel,omitempty"`
}

// Validate enforces the exactly-one-of path/compute/script contract and
// the declared type set.
func (s *FieldSpec) Validate() error {
	sources := 0
	if s.Path != "" {
		sources++
	}
	if s.Compute != "" {
		sources++
	}
	if s.Script != "" {
		sources++
	}
	if sources == 0 {
		return fmt.Errorf("field spec requires one of: path, compute, script")
	}
	if sources > 1 {
		return fmt.Errorf("field spec: path, compute and script are mutually exclusive")
	}
	if s.Type != "" && !s.Type.IsValid() {
		return fmt.Errorf("field spec: unknown type %q", s.Type)
	}
	return nil
}

// EffectiveType returns the declared type, defaulting to str.
func (s *FieldSpec) EffectiveType() FieldType {
	if s.Type == "" {
		return FieldString
	}
	return s.Type
}

// EffectiveScriptTimeout returns the script timeout in seconds, applying
// the default when unset.
func (s *FieldSpec) EffectiveScriptTimeout() int {
	if s.ScriptTimeout <= 0 {
		return DefaultScriptTimeoutSeconds
	}
	return s.ScriptTimeout
}

// SentinelValue returns the value substituted when this field's source is
// known to be broken: the declared sentinel if set, otherwise a
// deliberately wrong-looking type default so data-quality problems are
// visible in the rendered report, otherwise the fallback.
func (s *FieldSpec) SentinelValue() interface{} {
	if s.Sentinel != nil {
		return s.Sentinel
	}
	switch s.EffectiveType() {
	case FieldString:
		return "ERROR"
	case FieldInt:
		return -1
	case FieldFloat:
		return -1.0
	default:
		return s.Fallback
	}
}

// AlertRule declares one alert: a condition over extracted fields, a
// message template interpolated against them, and optional detail and
// affected-items field references.
type AlertRule struct {
	ID                 string    `yaml:"id" json:"id" validate:"required"`
	Category           string    `yaml:"category" json:"category" validate:"required"`
	Severity           string    `yaml:"severity" json:"severity"`
	Condition          Condition `yaml:"-" json:"-"`
	Message            string    `yaml:"message" json:"message"`
	DetailFields       []string  `yaml:"detail_fields" json:"detail_fields,omitempty"`
	AffectedItemsField string    `yaml:"affected_items_field" json:"affected_items_field,omitempty"`
}

// UnmarshalYAML decodes an alert rule, dispatching the condition block to
// DecodeCondition so the rule carries a concrete condition variant.
func (r *AlertRule) UnmarshalYAML(node *yaml.Node) error {
	type plain AlertRule
	if err := node.Decode((*plain)(r)); err != nil {
		return err
	}
	if r.Severity == "" {
		r.Severity = string(SeverityWarning)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "condition" {
			continue
		}
		cond, err := DecodeCondition(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("alert rule %q: %w", r.ID, err)
		}
		r.Condition = cond
		return nil
	}
	return fmt.Errorf("alert rule %q: missing condition", r.ID)
}

// WidgetField is one label/field pair rendered by a key_value widget.
type WidgetField struct {
	Label  string `yaml:"label" json:"label"`
	Field  string `yaml:"field" json:"field"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// WidgetColumn is one column of a table widget.
type WidgetColumn struct {
	Label     string `yaml:"label" json:"label"`
	Field     string `yaml:"field" json:"field"`
	Badge     bool   `yaml:"badge,omitempty" json:"badge,omitempty"`
	Format    string `yaml:"format,omitempty" json:"format,omitempty"`
	LinkField string `yaml:"link_field,omitempty" json:"link_field,omitempty"`
}

// Widget is a display descriptor carried through to rendering layers.
// Type is one of key_value, table, alert_panel; the core never interprets
// widgets beyond echoing their metadata into the report.
type Widget struct {
	ID        string         `yaml:"id" json:"id"`
	Title     string         `yaml:"title" json:"title"`
	Type      string         `yaml:"type" json:"type"`
	Fields    []WidgetField  `yaml:"fields,omitempty" json:"fields,omitempty"`
	RowsField string         `yaml:"rows_field,omitempty" json:"rows_field,omitempty"`
	Columns   []WidgetColumn `yaml:"columns,omitempty" json:"columns,omitempty"`
}

// Schema is the immutable, externally authored definition of fields and
// alert rules for one audit domain. Loaded and validated once; the
// normalization core only reads it.
type Schema struct {
	Name        string                `yaml:"name" json:"name" validate:"required"`
	Platform    string                `yaml:"platform" json:"platform"`
	DisplayName string                `yaml:"display_name" json:"display_name"`
	Fields      map[string]*FieldSpec `yaml:"fields" json:"fields" validate:"required,min=1"`
	Alerts      []*AlertRule          `yaml:"alerts" json:"alerts"`
	Widgets     []Widget              `yaml:"widgets" json:"widgets"`

	// SourcePath is the schema file location, used to resolve relative
	// script references. Set by the loader.
	SourcePath string `yaml:"-" json:"-"`

	// BrokenPaths is the set of path-based field names whose paths failed
	// to resolve against the schema's example bundle at load time. The
	// extraction pipeline substitutes sentinels for these instead of
	// fallbacks. Empty when no example bundle is available.
	BrokenPaths map[string]struct{} `yaml:"-" json:"-"`
}

// PathBroken reports whether a field name was flagged broken at load time.
func (s *Schema) PathBroken(name string) bool {
	_, ok := s.BrokenPaths[name]
	return ok
}

// FieldNames returns the schema's field names sorted for deterministic
// pass ordering and logging.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
