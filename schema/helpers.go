package schema

import (
	"slices"
	"strings"
)

var statusDescriptions = map[StatusCode]string{
	StatusCreated:           "Created",
	StatusRunning:           "Running",
	StatusCanceled:          "Canceled",
	StatusFailed:            "Failed",
	StatusPending:           "Pending",
	StatusEndedUnexpectedly: "Ended Unexpectedly",
	StatusSucceeded:         "Succeeded",
	StatusStopping:          "Stopping",
	StatusCompleted:         "Completed",
}

// String returns the catalog description of the status, or "Unknown".
func (s StatusCode) String() string {
	if desc, ok := statusDescriptions[s]; ok {
		return desc
	}
	return "Unknown"
}

// IsActive reports whether the status belongs to work that has not finished.
func (s StatusCode) IsActive() bool {
	return slices.Contains(ActiveStatuses, s)
}

// TimelineColor maps a status to the color class of its timeline bar.
func TimelineColor(s StatusCode) string {
	switch s {
	case StatusSucceeded:
		return "success"
	case StatusFailed:
		return "danger"
	case StatusRunning:
		return "primary"
	case StatusCanceled:
		return "warning"
	default:
		return "secondary"
	}
}

// LastStatusLabel is the coarse label shown for the latest run of a package.
func LastStatusLabel(s StatusCode) string {
	if s == StatusSucceeded {
		return "Success"
	}
	return "Failed"
}

// ParseMetricName resolves a metric name case-insensitively.
// Hyphens are accepted in place of underscores.
func ParseMetricName(raw string) (MetricName, bool) {
	name := MetricName(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	if slices.Contains(DashboardMetrics, name) || slices.Contains(AdvancedMetrics, name) {
		return name, true
	}
	return "", false
}

// IsAdvanced reports whether the metric belongs to the advanced analytics.
func (m MetricName) IsAdvanced() bool {
	return slices.Contains(AdvancedMetrics, m)
}
