package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testBundle() map[string]interface{} {
	return map[string]interface{}{
		"system": map[string]interface{}{
			"facts": map[string]interface{}{
				"hostname": "web-01",
				"cpus":     8,
			},
		},
		"interfaces": []interface{}{
			map[string]interface{}{"name": "eth0"},
			map[string]interface{}{"name": "eth1"},
		},
		"uptime": "412 days",
	}
}

func TestResolve(t *testing.T) {
	r := NewTransformRegistry(zap.NewNop().Sugar())
	raw := testBundle()

	tests := []struct {
		name string
		path string
		want interface{}
	}{
		{name: "top level", path: "uptime", want: "412 days"},
		{name: "nested", path: "system.facts.hostname", want: "web-01"},
		{name: "missing leaf", path: "system.facts.domain", want: nil},
		{name: "missing branch", path: "network.dns", want: nil},
		{name: "traversal through scalar", path: "uptime.days", want: nil},
		{name: "traversal through list", path: "interfaces.0.name", want: nil},
		{name: "len_if_list on list", path: "interfaces | len_if_list", want: 2},
		{name: "len_if_list on scalar", path: "uptime | len_if_list", want: 0},
		{name: "len_if_list on missing", path: "nope | len_if_list", want: 0},
		{name: "first on list", path: "interfaces | first", want: map[string]interface{}{"name": "eth0"}},
		{name: "first on missing", path: "nope | first", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.path, raw))
		})
	}
}

func TestResolveUnknownTransform(t *testing.T) {
	r := NewTransformRegistry(zap.NewNop().Sugar())
	// Unknown transform warns and leaves the resolved value untouched.
	assert.Equal(t, "412 days", r.Resolve("uptime | reverse", testBundle()))
}

func TestRegisterOverride(t *testing.T) {
	r := NewTransformRegistry(zap.NewNop().Sugar())
	r.Register("len_if_list", func(v interface{}) interface{} { return -1 })
	assert.Equal(t, -1, r.Resolve("interfaces | len_if_list", testBundle()))
}
