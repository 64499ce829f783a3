package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"talos/core"
)

func openTestStore(t *testing.T) *ReportStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "talos.db"), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleReport(runID string, health core.Health, generatedAt time.Time) *core.Report {
	summary := core.Summary{Total: 0}
	switch health {
	case core.HealthCritical:
		summary = core.Summary{Total: 1, CriticalCount: 1}
	case core.HealthWarning:
		summary = core.Summary{Total: 1, WarningCount: 1}
	}
	return &core.Report{
		Metadata: core.Metadata{
			RunID:       runID,
			AuditType:   "schema_linux",
			SchemaName:  "linux",
			GeneratedAt: generatedAt,
		},
		Health:  health,
		Summary: summary,
		Fields:  map[string]interface{}{"hostname": "web-01"},
	}
}

func TestSaveAndLatestReport(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save("web-01", sampleReport("run-1", core.HealthWarning, now)))
	require.NoError(t, store.Save("web-01", sampleReport("run-2", core.HealthCritical, now.Add(time.Hour))))

	report, err := store.LatestReport("web-01")
	require.NoError(t, err)
	assert.Equal(t, "run-2", report.Metadata.RunID)
	assert.Equal(t, core.HealthCritical, report.Health)
	assert.Equal(t, "web-01", report.Fields["hostname"])
}

func TestLatestReportNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.LatestReport("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRejectsDuplicateRunID(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()
	require.NoError(t, store.Save("web-01", sampleReport("run-1", core.HealthHealthy, now)))
	assert.Error(t, store.Save("web-01", sampleReport("run-1", core.HealthHealthy, now)))
}

func TestHostsLatestPerHost(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save("web-02", sampleReport("r1", core.HealthHealthy, now)))
	require.NoError(t, store.Save("web-01", sampleReport("r2", core.HealthWarning, now)))
	require.NoError(t, store.Save("web-01", sampleReport("r3", core.HealthCritical, now.Add(time.Hour))))

	hosts, err := store.Hosts()
	require.NoError(t, err)
	require.Len(t, hosts, 2)

	// Sorted by host, one row per host with its newest health.
	assert.Equal(t, "web-01", hosts[0].Host)
	assert.Equal(t, core.HealthCritical, hosts[0].Health)
	assert.Equal(t, 1, hosts[0].CriticalCount)
	assert.Equal(t, now.Add(time.Hour), hosts[0].GeneratedAt)

	assert.Equal(t, "web-02", hosts[1].Host)
	assert.Equal(t, core.HealthHealthy, hosts[1].Health)
}

func TestSummary(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.Save("a", sampleReport("r1", core.HealthHealthy, now)))
	require.NoError(t, store.Save("b", sampleReport("r2", core.HealthWarning, now)))
	require.NoError(t, store.Save("c", sampleReport("r3", core.HealthCritical, now)))
	require.NoError(t, store.Save("d", sampleReport("r4", core.HealthCritical, now)))

	summary, err := store.Summary()
	require.NoError(t, err)
	assert.Equal(t, FleetSummary{Hosts: 4, Healthy: 1, Warning: 1, Critical: 2}, summary)
}

func TestSummaryEmpty(t *testing.T) {
	store := openTestStore(t)
	summary, err := store.Summary()
	require.NoError(t, err)
	assert.Equal(t, FleetSummary{}, summary)
}
