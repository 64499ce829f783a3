package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadHost(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "system.json", `{"hostname": "web-01", "cpus": 8}`)
	writeFile(t, dir, "services.yaml", "- name: sshd\n  state: running\n")
	writeFile(t, dir, "storage.yml", "mounts:\n  - /var\n")
	writeFile(t, dir, "collector.log", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	raw, err := LoadHost(dir, zap.NewNop().Sugar())
	require.NoError(t, err)

	// One section per parseable file, keyed by stem.
	require.Len(t, raw, 3)
	assert.Equal(t, map[string]interface{}{"hostname": "web-01", "cpus": 8.0}, raw["system"])
	assert.IsType(t, []interface{}{}, raw["services"])
	assert.Contains(t, raw, "storage")
}

func TestLoadHostSkipsUnparseable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", `{"ok": true}`)
	writeFile(t, dir, "bad.json", `{broken`)

	raw, err := LoadHost(dir, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Len(t, raw, 1)
	assert.Contains(t, raw, "good")
}

func TestLoadHostMissingDir(t *testing.T) {
	_, err := LoadHost(filepath.Join(t.TempDir(), "nope"), zap.NewNop().Sugar())
	require.Error(t, err)
}

func TestLoadFleet(t *testing.T) {
	root := t.TempDir()
	for _, host := range []string{"web-02", "db-01", "web-01"} {
		dir := filepath.Join(root, host)
		require.NoError(t, os.Mkdir(dir, 0o755))
		writeFile(t, dir, "system.json", `{"hostname": "`+host+`"}`)
	}
	// Stray files at the root are not hosts.
	writeFile(t, root, "README.md", "fleet bundles")

	bundles, err := LoadFleet(root, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.Len(t, bundles, 3)

	// Sorted by host name.
	assert.Equal(t, "db-01", bundles[0].Host)
	assert.Equal(t, "web-01", bundles[1].Host)
	assert.Equal(t, "web-02", bundles[2].Host)

	system := bundles[0].Raw["system"].(map[string]interface{})
	assert.Equal(t, "db-01", system["hostname"])
}

func TestLoadFleetEmptyRoot(t *testing.T) {
	bundles, err := LoadFleet(t.TempDir(), zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Empty(t, bundles)
}
