package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    FieldSpec
		wantErr bool
	}{
		{name: "path only", spec: FieldSpec{Path: "a.b"}},
		{name: "compute only", spec: FieldSpec{Compute: "{a}+1"}},
		{name: "script only", spec: FieldSpec{Script: "count.sh"}},
		{name: "no source", spec: FieldSpec{Type: FieldInt}, wantErr: true},
		{name: "path and compute", spec: FieldSpec{Path: "a", Compute: "{a}"}, wantErr: true},
		{name: "all three", spec: FieldSpec{Path: "a", Compute: "{a}", Script: "x"}, wantErr: true},
		{name: "bad type", spec: FieldSpec{Path: "a", Type: "string"}, wantErr: true},
		{name: "valid type", spec: FieldSpec{Path: "a", Type: FieldList}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestFieldSpecSentinelValue(t *testing.T) {
	tests := []struct {
		name string
		spec FieldSpec
		want interface{}
	}{
		{name: "explicit sentinel wins", spec: FieldSpec{Type: FieldInt, Sentinel: -99}, want: -99},
		{name: "str default", spec: FieldSpec{Type: FieldString}, want: "ERROR"},
		{name: "untyped defaults to str", spec: FieldSpec{}, want: "ERROR"},
		{name: "int default", spec: FieldSpec{Type: FieldInt}, want: -1},
		{name: "float default", spec: FieldSpec{Type: FieldFloat}, want: -1.0},
		{name: "list falls back", spec: FieldSpec{Type: FieldList, Fallback: []interface{}{}}, want: []interface{}{}},
		{name: "bool falls back", spec: FieldSpec{Type: FieldBool, Fallback: false}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.SentinelValue())
		})
	}
}

func TestFieldSpecEffectiveScriptTimeout(t *testing.T) {
	assert.Equal(t, DefaultScriptTimeoutSeconds, (&FieldSpec{}).EffectiveScriptTimeout())
	assert.Equal(t, 5, (&FieldSpec{ScriptTimeout: 5}).EffectiveScriptTimeout())
}

func TestSchemaFieldNames(t *testing.T) {
	s := &Schema{Fields: map[string]*FieldSpec{
		"zeta":  {Path: "z"},
		"alpha": {Path: "a"},
		"mid":   {Path: "m"},
	}}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, s.FieldNames())
}

func TestSchemaPathBroken(t *testing.T) {
	s := &Schema{BrokenPaths: map[string]struct{}{"gone": {}}}
	assert.True(t, s.PathBroken("gone"))
	assert.False(t, s.PathBroken("present"))

	var empty Schema
	assert.False(t, empty.PathBroken("anything"))
}
