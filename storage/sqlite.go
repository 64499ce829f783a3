// Package storage persists normalized reports to SQLite so fleet history
// survives individual runs and the read API has something to serve.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"talos/core"
	"talos/metrics"
)

// ErrNotFound is returned when no report exists for a host.
var ErrNotFound = errors.New("report not found")

// HostStatus is the latest known state of one host.
type HostStatus struct {
	Host          string      `json:"host"`
	SchemaName    string      `json:"schema_name"`
	Health        core.Health `json:"health"`
	CriticalCount int         `json:"critical_count"`
	WarningCount  int         `json:"warning_count"`
	GeneratedAt   time.Time   `json:"generated_at"`
}

// FleetSummary tallies latest host states by health.
type FleetSummary struct {
	Hosts    int `json:"hosts"`
	Healthy  int `json:"healthy"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
}

// ReportStore is a SQLite-backed report history. WAL mode, single writer.
type ReportStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Open opens (creating if needed) the report database at path.
func Open(path string, logger *zap.SugaredLogger) (*ReportStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	// WAL for concurrent readers during fleet runs; one writer is enough.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	db.SetMaxOpenConns(1)

	store := &ReportStore{db: db, logger: logger}
	if err := store.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func (s *ReportStore) createTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			run_id         TEXT PRIMARY KEY,
			host           TEXT NOT NULL,
			schema_name    TEXT NOT NULL,
			health         TEXT NOT NULL,
			critical_count INTEGER NOT NULL,
			warning_count  INTEGER NOT NULL,
			info_count     INTEGER NOT NULL,
			generated_at   TEXT NOT NULL,
			report         TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reports_host_generated
			ON reports(host, generated_at DESC);
	`)
	return err
}

// Save persists one host's normalized report.
func (s *ReportStore) Save(host string, report *core.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO reports
			(run_id, host, schema_name, health, critical_count, warning_count, info_count, generated_at, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Metadata.RunID,
		host,
		report.Metadata.SchemaName,
		string(report.Health),
		report.Summary.CriticalCount,
		report.Summary.WarningCount,
		report.Summary.InfoCount,
		report.Metadata.GeneratedAt.UTC().Format(time.RFC3339Nano),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report for %s: %w", host, err)
	}
	metrics.ReportsPersisted.Inc()
	return nil
}

// Hosts returns the latest status per host, sorted by host name.
func (s *ReportStore) Hosts() ([]HostStatus, error) {
	rows, err := s.db.Query(`
		SELECT host, schema_name, health, critical_count, warning_count, generated_at
		FROM reports r
		WHERE generated_at = (
			SELECT MAX(generated_at) FROM reports WHERE host = r.host
		)
		GROUP BY host
		ORDER BY host
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hosts: %w", err)
	}
	defer rows.Close()

	var out []HostStatus
	for rows.Next() {
		var hs HostStatus
		var health, generatedAt string
		if err := rows.Scan(&hs.Host, &hs.SchemaName, &health, &hs.CriticalCount, &hs.WarningCount, &generatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan host row: %w", err)
		}
		hs.Health = core.Health(health)
		if t, err := time.Parse(time.RFC3339Nano, generatedAt); err == nil {
			hs.GeneratedAt = t
		}
		out = append(out, hs)
	}
	return out, rows.Err()
}

// LatestReport returns the most recent report for one host.
func (s *ReportStore) LatestReport(host string) (*core.Report, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT report FROM reports WHERE host = ? ORDER BY generated_at DESC LIMIT 1`,
		host,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report for %s: %w", host, err)
	}

	var report core.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored report for %s: %w", host, err)
	}
	return &report, nil
}

// Summary tallies the latest host states by health.
func (s *ReportStore) Summary() (FleetSummary, error) {
	hosts, err := s.Hosts()
	if err != nil {
		return FleetSummary{}, err
	}
	summary := FleetSummary{Hosts: len(hosts)}
	for _, h := range hosts {
		switch h.Health {
		case core.HealthCritical:
			summary.Critical++
		case core.HealthWarning:
			summary.Warning++
		default:
			summary.Healthy++
		}
	}
	return summary, nil
}

// Close closes the database.
func (s *ReportStore) Close() error {
	return s.db.Close()
}
