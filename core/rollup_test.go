package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthRollup(t *testing.T) {
	tests := []struct {
		name   string
		alerts []Alert
		want   Health
	}{
		{
			name:   "no alerts is healthy",
			alerts: []Alert{},
			want:   HealthHealthy,
		},
		{
			name:   "nil alerts is healthy",
			alerts: nil,
			want:   HealthHealthy,
		},
		{
			name: "only warnings",
			alerts: []Alert{
				{Severity: SeverityWarning},
				{Severity: SeverityWarning},
			},
			want: HealthWarning,
		},
		{
			name: "only info stays healthy",
			alerts: []Alert{
				{Severity: SeverityInfo},
			},
			want: HealthHealthy,
		},
		{
			name: "critical dominates regardless of order",
			alerts: []Alert{
				{Severity: SeverityInfo},
				{Severity: SeverityWarning},
				{Severity: SeverityCritical},
			},
			want: HealthCritical,
		},
		{
			name: "critical first",
			alerts: []Alert{
				{Severity: SeverityCritical},
				{Severity: SeverityWarning},
			},
			want: HealthCritical,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HealthRollup(tt.alerts))
		})
	}
}

func TestSummarizeAlerts(t *testing.T) {
	alerts := []Alert{
		{Severity: SeverityCritical, Category: "Capacity"},
		{Severity: SeverityWarning, Category: "capacity"},
		{Severity: SeverityWarning, Category: "security"},
		{Severity: SeverityInfo, Category: ""},
		{Severity: "unknown", Category: "security"},
	}

	summary := SummarizeAlerts(alerts)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 1, summary.CriticalCount)
	assert.Equal(t, 2, summary.WarningCount)
	// Unknown severities count as INFO.
	assert.Equal(t, 2, summary.InfoCount)
	assert.Equal(t, map[string]int{
		"capacity":      2,
		"security":      2,
		"uncategorized": 1,
	}, summary.ByCategory)
}

func TestCanonicalSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
	}{
		{input: "CRITICAL", want: SeverityCritical},
		{input: "critical", want: SeverityCritical},
		{input: " crit ", want: SeverityCritical},
		{input: "WARNING", want: SeverityWarning},
		{input: "warn", want: SeverityWarning},
		{input: "INFO", want: SeverityInfo},
		{input: "notice", want: SeverityInfo},
		{input: "", want: SeverityInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalSeverity(tt.input), "input %q", tt.input)
	}
}
