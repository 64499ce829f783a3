package normalize

import (
	"strings"

	"go.uber.org/zap"
)

// Transform is a named pipe applied to a resolved path value. Transforms
// must accept any value, including nil for an unresolved path.
type Transform func(value interface{}) interface{}

// TransformRegistry holds the named transforms available to path specs.
// Built explicitly at startup and passed by reference into the engine;
// there is no global mutable registry.
type TransformRegistry struct {
	transforms map[string]Transform
	logger     *zap.SugaredLogger
}

// NewTransformRegistry creates a registry pre-populated with the built-in
// transforms.
func NewTransformRegistry(logger *zap.SugaredLogger) *TransformRegistry {
	r := &TransformRegistry{
		transforms: make(map[string]Transform),
		logger:     logger,
	}
	r.Register("len_if_list", func(v interface{}) interface{} {
		if list, ok := v.([]interface{}); ok {
			return len(list)
		}
		return 0
	})
	r.Register("first", func(v interface{}) interface{} {
		if list, ok := v.([]interface{}); ok && len(list) > 0 {
			return list[0]
		}
		return nil
	})
	return r
}

// Register adds or replaces a named transform.
func (r *TransformRegistry) Register(name string, fn Transform) {
	r.transforms[name] = fn
}

// Resolve resolves a dotted field path against a raw bundle.
//
// Syntax:
//   - Dot-notation traversal: "system.facts.hostname"
//   - Optional pipe transform: "interfaces | len_if_list"
//
// A missing segment, or traversal through a non-map, yields nil; this
// function never fails. An unknown transform name logs a warning and
// leaves the value unchanged.
func (r *TransformRegistry) Resolve(path string, raw map[string]interface{}) interface{} {
	pathPart := path
	transformName := ""
	if idx := strings.Index(path, " | "); idx >= 0 {
		pathPart = strings.TrimSpace(path[:idx])
		transformName = strings.TrimSpace(path[idx+3:])
	}

	var obj interface{} = raw
	for _, segment := range strings.Split(pathPart, ".") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		m, ok := obj.(map[string]interface{})
		if !ok {
			obj = nil
			break
		}
		obj = m[segment]
	}

	if transformName != "" {
		transform, ok := r.transforms[transformName]
		if !ok {
			r.logger.Warnw("unknown transform in path", "transform", transformName, "path", path)
		} else {
			obj = transform(obj)
		}
	}

	return obj
}
