// Package schema loads and validates declarative audit schemas from YAML
// files, including load-time detection of provably broken field paths
// against an optional example bundle.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"talos/core"
	"talos/normalize"
)

// MaxSchemaFileSize bounds schema payloads; schemas are authored by hand
// and a larger file is a mistake, not a bigger schema.
const MaxSchemaFileSize = 1024 * 1024

var structValidator = validator.New()

// Loader reads schema files and attaches broken-path sets.
type Loader struct {
	logger     *zap.SugaredLogger
	transforms *normalize.TransformRegistry
}

// NewLoader creates a loader. The transform registry must match the one
// the engine will resolve paths with, so load-time broken-path detection
// sees the same pipe transforms.
func NewLoader(transforms *normalize.TransformRegistry, logger *zap.SugaredLogger) *Loader {
	return &Loader{logger: logger, transforms: transforms}
}

// Load reads, validates and returns one schema file. When an example
// bundle sits next to the schema (<name>.example.json or .example.yaml),
// every path spec is resolved against it and unresolvable paths are
// recorded in the schema's broken set.
func (l *Loader) Load(path string) (*core.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	if len(data) > MaxSchemaFileSize {
		return nil, fmt.Errorf("schema file %s exceeds maximum size of %d bytes", path, MaxSchemaFileSize)
	}

	if err := validateStructure(data); err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}

	var s core.Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	s.SourcePath = path

	if err := validateSchema(&s); err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}

	if example, ok := l.loadExampleBundle(path); ok {
		l.attachBrokenPaths(&s, example)
	}

	return &s, nil
}

// LoadDir loads every *.yaml / *.yml schema in a directory, sorted by
// file name.
func (l *Loader) LoadDir(dir string) ([]*core.Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.Contains(name, ".example.") {
			continue
		}
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)

	schemas := make([]*core.Schema, 0, len(paths))
	for _, path := range paths {
		s, err := l.Load(path)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

// validateSchema runs struct-level validation plus the per-field
// exactly-one-of contract that gojsonschema cannot express cleanly.
func validateSchema(s *core.Schema) error {
	if err := structValidator.Struct(s); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	for name, spec := range s.Fields {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	seen := make(map[string]struct{}, len(s.Alerts))
	for _, rule := range s.Alerts {
		if err := structValidator.Struct(rule); err != nil {
			return fmt.Errorf("alert rule %q: %w", rule.ID, err)
		}
		if _, dup := seen[rule.ID]; dup {
			return fmt.Errorf("duplicate alert rule id %q", rule.ID)
		}
		seen[rule.ID] = struct{}{}
	}
	return nil
}

// validateStructure checks the raw document against the schema
// meta-schema before typed decoding, so authoring mistakes produce
// pointer-precise errors instead of decode failures.
func validateStructure(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert schema to JSON: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(metaSchema),
		gojsonschema.NewBytesLoader(jsonDoc),
	)
	if err != nil {
		return fmt.Errorf("meta-schema validation failed: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("schema does not match meta-schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// loadExampleBundle looks for an example bundle next to the schema file.
func (l *Loader) loadExampleBundle(schemaPath string) (map[string]interface{}, bool) {
	base := strings.TrimSuffix(schemaPath, filepath.Ext(schemaPath))
	for _, candidate := range []string{base + ".example.json", base + ".example.yaml"} {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		var bundle map[string]interface{}
		if strings.HasSuffix(candidate, ".json") {
			err = json.Unmarshal(data, &bundle)
		} else {
			err = yaml.Unmarshal(data, &bundle)
		}
		if err != nil {
			l.logger.Warnw("failed to parse example bundle", "path", candidate, "error", err)
			return nil, false
		}
		return bundle, true
	}
	return nil, false
}

// attachBrokenPaths resolves every path spec against the example bundle
// and records the field names that do not resolve. The extraction
// pipeline substitutes sentinels for these so the rendered report makes
// the breakage visible.
func (l *Loader) attachBrokenPaths(s *core.Schema, example map[string]interface{}) {
	broken := make(map[string]struct{})
	for name, spec := range s.Fields {
		if spec.Path == "" {
			continue
		}
		if l.transforms.Resolve(spec.Path, example) == nil {
			broken[name] = struct{}{}
			l.logger.Warnw("schema path does not resolve against example bundle",
				"schema", s.Name, "field", name, "path", spec.Path)
		}
	}
	s.BrokenPaths = broken
}
