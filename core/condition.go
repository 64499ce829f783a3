package core

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Condition is the closed set of alert condition variants. Schema files
// discriminate on the `op` key; DecodeCondition maps each op onto its
// concrete variant so evaluator dispatch is an exhaustive type switch
// instead of a runtime tag chain.
type Condition interface {
	// CondOp returns the schema-level op discriminator for this condition.
	CondOp() string

	isCondition()
}

// ThresholdCondition compares a numeric field against a literal threshold.
// Op is one of gt, lt, gte, lte, eq, ne.
type ThresholdCondition struct {
	Op        string  `yaml:"op" json:"op"`
	Field     string  `yaml:"field" json:"field"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// RangeCondition fires when min <= value < max (half-open interval).
type RangeCondition struct {
	Op    string  `yaml:"op" json:"op"`
	Field string  `yaml:"field" json:"field"`
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
}

// ExistsCondition tests field presence. A field "exists" when it is set
// and is not an empty list or map. Op is exists or not_exists.
type ExistsCondition struct {
	Op    string `yaml:"op" json:"op"`
	Field string `yaml:"field" json:"field"`
}

// FilterCountCondition counts list entries whose sub-field equals a literal
// and fires when the count strictly exceeds Threshold.
type FilterCountCondition struct {
	Op          string      `yaml:"op" json:"op"`
	Field       string      `yaml:"field" json:"field"`
	FilterField string      `yaml:"filter_field" json:"filter_field"`
	FilterValue interface{} `yaml:"filter_value" json:"filter_value"`
	Threshold   float64     `yaml:"threshold" json:"threshold"`
}

// FilterSpec is a single equality filter inside MultiFilterCondition.
type FilterSpec struct {
	FilterField string      `yaml:"filter_field" json:"filter_field"`
	FilterValue interface{} `yaml:"filter_value" json:"filter_value"`
}

// MultiFilterCondition counts list entries matching ALL filters and fires
// when the count strictly exceeds Threshold.
type MultiFilterCondition struct {
	Op        string       `yaml:"op" json:"op"`
	Field     string       `yaml:"field" json:"field"`
	Filters   []FilterSpec `yaml:"filters" json:"filters"`
	Threshold float64      `yaml:"threshold" json:"threshold"`
}

// StringCondition is case-sensitive string equality. Op is eq_str or ne_str.
type StringCondition struct {
	Op    string `yaml:"op" json:"op"`
	Field string `yaml:"field" json:"field"`
	Value string `yaml:"value" json:"value"`
}

// StringInCondition tests membership against a literal set of strings.
// Op is in_str or not_in_str.
type StringInCondition struct {
	Op     string   `yaml:"op" json:"op"`
	Field  string   `yaml:"field" json:"field"`
	Values []string `yaml:"values" json:"values"`
}

// ComputedFilterCondition evaluates an arithmetic expression per list entry,
// substituting the entry's own sub-fields, and fires when any entry satisfies
// the comparator (or the half-open range when Cmp is "range"). Entries that
// error during evaluation are skipped.
type ComputedFilterCondition struct {
	Op         string   `yaml:"op" json:"op"`
	Field      string   `yaml:"field" json:"field"`
	Expression string   `yaml:"expression" json:"expression"`
	Cmp        string   `yaml:"cmp" json:"cmp"`
	Threshold  *float64 `yaml:"threshold" json:"threshold,omitempty"`
	Min        *float64 `yaml:"min" json:"min,omitempty"`
	Max        *float64 `yaml:"max" json:"max,omitempty"`
}

// DateThresholdCondition compares the age in days of an ISO-8601 timestamp
// field against a threshold. Age is computed against ReferenceField when
// declared, otherwise against the current time. Op is one of age_gt,
// age_lt, age_gte, age_lte.
type DateThresholdCondition struct {
	Op             string  `yaml:"op" json:"op"`
	Field          string  `yaml:"field" json:"field"`
	Days           float64 `yaml:"days" json:"days"`
	ReferenceField string  `yaml:"reference_field" json:"reference_field,omitempty"`
}

func (c *ThresholdCondition) CondOp() string      { return c.Op }
func (c *RangeCondition) CondOp() string          { return c.Op }
func (c *ExistsCondition) CondOp() string         { return c.Op }
func (c *FilterCountCondition) CondOp() string    { return c.Op }
func (c *MultiFilterCondition) CondOp() string    { return c.Op }
func (c *StringCondition) CondOp() string         { return c.Op }
func (c *StringInCondition) CondOp() string       { return c.Op }
func (c *ComputedFilterCondition) CondOp() string { return c.Op }
func (c *DateThresholdCondition) CondOp() string  { return c.Op }

func (*ThresholdCondition) isCondition()      {}
func (*RangeCondition) isCondition()          {}
func (*ExistsCondition) isCondition()         {}
func (*FilterCountCondition) isCondition()    {}
func (*MultiFilterCondition) isCondition()    {}
func (*StringCondition) isCondition()         {}
func (*StringInCondition) isCondition()       {}
func (*ComputedFilterCondition) isCondition() {}
func (*DateThresholdCondition) isCondition()  {}

// DecodeCondition decodes a YAML mapping node into the condition variant
// selected by its `op` key.
func DecodeCondition(node *yaml.Node) (Condition, error) {
	var head struct {
		Op string `yaml:"op"`
	}
	if err := node.Decode(&head); err != nil {
		return nil, fmt.Errorf("failed to read condition op: %w", err)
	}

	var cond Condition
	switch head.Op {
	case "gt", "lt", "gte", "lte", "eq", "ne":
		cond = &ThresholdCondition{}
	case "range":
		cond = &RangeCondition{}
	case "exists", "not_exists":
		cond = &ExistsCondition{}
	case "filter_count":
		cond = &FilterCountCondition{}
	case "filter_multi":
		cond = &MultiFilterCondition{}
	case "eq_str", "ne_str":
		cond = &StringCondition{}
	case "in_str", "not_in_str":
		cond = &StringInCondition{}
	case "computed_filter":
		cond = &ComputedFilterCondition{}
	case "age_gt", "age_lt", "age_gte", "age_lte":
		cond = &DateThresholdCondition{}
	default:
		return nil, fmt.Errorf("unknown condition op %q", head.Op)
	}

	if err := node.Decode(cond); err != nil {
		return nil, fmt.Errorf("failed to decode %q condition: %w", head.Op, err)
	}
	return cond, nil
}
