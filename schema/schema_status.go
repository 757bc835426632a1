package schema

import "time"

// CacheStatus represents the status of the result cache.
type CacheStatus struct {
	Entries      int           `json:"entries"`
	Hits         uint64        `json:"hits"`
	Misses       uint64        `json:"misses"`
	Computes     uint64        `json:"computes"`
	Failures     uint64        `json:"failures"`
	DefaultTTL   time.Duration `json:"default_ttl"`
	SingleFlight bool          `json:"single_flight"`
	Keys         []string      `json:"keys"`
}

// CatalogStatus represents the status of the execution catalog.
type CatalogStatus struct {
	Backend         string    `json:"backend"`
	Configured      bool      `json:"configured"`
	Connected       bool      `json:"connected"`
	TotalExecutions int64     `json:"total_executions"`
	TotalMessages   int64     `json:"total_messages"`
	OldestStartTime time.Time `json:"oldest_start_time"`
	LatestStartTime time.Time `json:"latest_start_time"`
}

// ConfigStatus is what the server reports about its catalog connection.
type ConfigStatus struct {
	Configured bool   `json:"configured"`
	Backend    string `json:"backend"`
	Server     string `json:"server,omitempty"`
}

// PushUpdate is the payload of a recompute push event.
type PushUpdate struct {
	Metric       MetricName `json:"metric"`
	BusinessUnit string     `json:"businessUnit,omitempty"`
	Data         any        `json:"data"`
}

// RefreshNotice is the payload of a DataRefreshed event.
type RefreshNotice struct {
	Scope        string    `json:"scope"` // dashboard or analytics
	BusinessUnit string    `json:"businessUnit,omitempty"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// CheckViolation is one package below a check threshold.
type CheckViolation struct {
	PackageName string     `json:"packageName"`
	Metric      MetricName `json:"metric"`
	Value       float64    `json:"value"`
	Threshold   float64    `json:"threshold"`
}

// CheckResult is the outcome of a reliability and SLA gate.
type CheckResult struct {
	Passed          bool                   `json:"passed"`
	MinReliability  float64                `json:"minReliability"`
	MinSLA          float64                `json:"minSla"`
	CheckedPackages int                    `json:"checkedPackages"`
	LowestScores    map[MetricName]float64 `json:"lowestScores"`
	LowestPackages  map[MetricName]string  `json:"lowestPackages"`
	Violations      []CheckViolation       `json:"violations"`
}
