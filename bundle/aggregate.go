// Package bundle assembles per-host raw bundles from a directory tree of
// collected audit files. Collectors drop one directory per host containing
// JSON or YAML snapshots; each file becomes a top-level section of the
// host's bundle, keyed by the file stem.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// HostBundle is one host's assembled raw bundle.
type HostBundle struct {
	Host string
	Raw  map[string]interface{}
}

// LoadHost reads every *.json / *.yaml / *.yml file in dir into one raw
// bundle. A file that fails to parse is skipped with a warning; one bad
// collector output must not lose the rest of the host's data.
func LoadHost(dir string, logger *zap.SugaredLogger) (map[string]interface{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read host directory: %w", err)
	}

	raw := make(map[string]interface{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warnw("failed to read bundle file", "path", path, "error", err)
			continue
		}

		var section interface{}
		if ext == ".json" {
			err = json.Unmarshal(data, &section)
		} else {
			err = yaml.Unmarshal(data, &section)
		}
		if err != nil {
			logger.Warnw("failed to parse bundle file", "path", path, "error", err)
			continue
		}

		raw[strings.TrimSuffix(name, filepath.Ext(name))] = section
	}
	return raw, nil
}

// LoadFleet walks root treating each subdirectory as one host and returns
// the assembled bundles sorted by host name.
func LoadFleet(root string, logger *zap.SugaredLogger) ([]HostBundle, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle root: %w", err)
	}

	var bundles []HostBundle
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		host := entry.Name()
		raw, err := LoadHost(filepath.Join(root, host), logger)
		if err != nil {
			logger.Warnw("skipping host", "host", host, "error", err)
			continue
		}
		bundles = append(bundles, HostBundle{Host: host, Raw: raw})
	}

	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Host < bundles[j].Host })
	return bundles, nil
}
