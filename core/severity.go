package core

import "strings"

// Severity is the canonical three-level alert severity used for rollups.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// String returns the string representation
func (s Severity) String() string {
	return string(s)
}

// CanonicalSeverity maps arbitrary severity spellings from schema files and
// collector payloads onto the canonical three-level scale. Anything not
// recognizably critical or warning is INFO.
func CanonicalSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL", "CRIT", "FATAL", "ERROR":
		return SeverityCritical
	case "WARNING", "WARN":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Health is the rolled-up per-host status derived from an alert list.
type Health string

const (
	HealthHealthy  Health = "HEALTHY"
	HealthWarning  Health = "WARNING"
	HealthCritical Health = "CRITICAL"
)

// String returns the string representation
func (h Health) String() string {
	return string(h)
}
