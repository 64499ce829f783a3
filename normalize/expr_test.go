package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	fields := map[string]interface{}{
		"a":        20.0,
		"b":        200,
		"zero":     0,
		"str_num":  "50",
		"not_num":  "n/a",
		"mem_used": 900.0,
		"mem_cap":  1000.0,
	}

	tests := []struct {
		name string
		expr string
		want float64
	}{
		{name: "literal", expr: "42", want: 42},
		{name: "float literal", expr: "2.5", want: 2.5},
		{name: "addition", expr: "1 + 2", want: 3},
		{name: "precedence", expr: "2 + 3 * 4", want: 14},
		{name: "parens", expr: "(2 + 3) * 4", want: 20},
		{name: "unary minus", expr: "-3 + 5", want: 2},
		{name: "unary plus", expr: "+4", want: 4},
		{name: "double unary", expr: "--4", want: 4},
		{name: "field ref", expr: "{a}", want: 20},
		{name: "percentage", expr: "{a}/{b}*100", want: 10},
		{name: "capacity formula", expr: "{mem_used} / {mem_cap} * 100", want: 90},
		{name: "division by zero yields zero", expr: "{a}/{zero}", want: 0},
		{name: "literal division by zero", expr: "5 / 0", want: 0},
		{name: "absent ref is zero", expr: "{missing} + 1", want: 1},
		{name: "numeric string ref", expr: "{str_num} * 2", want: 100},
		{name: "non-numeric ref is zero", expr: "{not_num} + 7", want: 7},
	}

	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.expr, fields)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateParseErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{name: "empty", expr: ""},
		{name: "bare operator", expr: "*"},
		{name: "trailing operator", expr: "1 +"},
		{name: "unterminated ref", expr: "{a + 1"},
		{name: "empty ref", expr: "{}"},
		{name: "bad ref name", expr: "{a.b}"},
		{name: "unexpected char", expr: "1 % 2"},
		{name: "unbalanced parens", expr: "(1 + 2"},
		{name: "trailing input", expr: "1 2"},
		{name: "bad literal", expr: "1..2"},
	}
	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Evaluate(tt.expr, nil)
			require.Error(t, err)
			var exprErr *ExprError
			assert.True(t, errors.As(err, &exprErr))
		})
	}
}

func TestEvaluateCacheReuse(t *testing.T) {
	e := NewEvaluator()

	got, err := e.Evaluate("{n} * 2", map[string]interface{}{"n": 3})
	require.NoError(t, err)
	assert.Equal(t, 6.0, got)

	// Same expression, different field values: the cached parse must not
	// capture the first evaluation's fields.
	got, err = e.Evaluate("{n} * 2", map[string]interface{}{"n": 10})
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)
}
