package core

import "strings"

// Summary tallies alert counts by canonical severity and category.
type Summary struct {
	Total         int            `json:"total"`
	CriticalCount int            `json:"critical_count"`
	WarningCount  int            `json:"warning_count"`
	InfoCount     int            `json:"info_count"`
	ByCategory    map[string]int `json:"by_category"`
}

// SummarizeAlerts tallies counts by canonical severity and lowercased
// category. Order-independent.
func SummarizeAlerts(alerts []Alert) Summary {
	summary := Summary{
		Total:      len(alerts),
		ByCategory: make(map[string]int),
	}
	for _, a := range alerts {
		switch CanonicalSeverity(string(a.Severity)) {
		case SeverityCritical:
			summary.CriticalCount++
		case SeverityWarning:
			summary.WarningCount++
		default:
			summary.InfoCount++
		}
		cat := strings.ToLower(a.Category)
		if cat == "" {
			cat = "uncategorized"
		}
		summary.ByCategory[cat]++
	}
	return summary
}

// HealthRollup derives the single worst-case status from an alert list:
// CRITICAL dominates WARNING dominates the absence of either.
func HealthRollup(alerts []Alert) Health {
	health := HealthHealthy
	for _, a := range alerts {
		switch CanonicalSeverity(string(a.Severity)) {
		case SeverityCritical:
			return HealthCritical
		case SeverityWarning:
			health = HealthWarning
		}
	}
	return health
}
