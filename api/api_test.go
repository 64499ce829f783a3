package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"talos/config"
	"talos/core"
	"talos/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.ReportStore) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "talos.db"), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := NewServer(config.APIConfig{Host: "127.0.0.1", Port: 0}, store, zap.NewNop().Sugar())
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func seedReport(t *testing.T, store *storage.ReportStore, host, runID string, health core.Health) {
	t.Helper()
	report := &core.Report{
		Metadata: core.Metadata{
			RunID:       runID,
			SchemaName:  "linux",
			GeneratedAt: time.Now().UTC(),
		},
		Health: health,
		Fields: map[string]interface{}{"hostname": host},
	}
	require.NoError(t, store.Save(host, report))
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHosts(t *testing.T) {
	srv, store := newTestServer(t)
	seedReport(t, store, "web-01", "r1", core.HealthWarning)
	seedReport(t, store, "db-01", "r2", core.HealthHealthy)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/hosts")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Hosts []storage.HostStatus `json:"hosts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Hosts, 2)
	assert.Equal(t, "db-01", body.Hosts[0].Host)
	assert.Equal(t, "web-01", body.Hosts[1].Host)
	assert.Equal(t, core.HealthWarning, body.Hosts[1].Health)
}

func TestHostReport(t *testing.T) {
	srv, store := newTestServer(t)
	seedReport(t, store, "web-01", "r1", core.HealthCritical)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/hosts/web-01/report")
	require.Equal(t, http.StatusOK, rec.Code)

	var report core.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "r1", report.Metadata.RunID)
	assert.Equal(t, core.HealthCritical, report.Health)
}

func TestHostReportNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/hosts/ghost/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFleetSummary(t *testing.T) {
	srv, store := newTestServer(t)
	seedReport(t, store, "a", "r1", core.HealthHealthy)
	seedReport(t, store, "b", "r2", core.HealthCritical)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/fleet/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary storage.FleetSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, storage.FleetSummary{Hosts: 2, Healthy: 1, Critical: 1}, summary)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/hosts")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
