package schema

import "time"

// ReliabilityScore is the rolling health of one package.
type ReliabilityScore struct {
	PackageName          string  `json:"packageName"`
	TotalExecutions      int     `json:"totalExecutions"`
	SuccessfulExecutions int     `json:"successfulExecutions"`
	FailedExecutions     int     `json:"failedExecutions"`
	SuccessRate          float64 `json:"successRate"`
	ReliabilityScore     float64 `json:"reliabilityScore"` // mean of overall and recent success rate
	Trend                string  `json:"trend"`
}

// MTBFRecord is the failure spacing of one package.
type MTBFRecord struct {
	PackageName             string     `json:"packageName"`
	MeanTimeBetweenFailures float64    `json:"meanTimeBetweenFailures"` // hours
	AvailabilityPercentage  float64    `json:"availabilityPercentage"`
	FailureCount            int        `json:"failureCount"`
	LastFailure             *time.Time `json:"lastFailure"`
	Status                  string     `json:"status"`
}

// ErrorCluster groups error messages that share a category and a truncated text.
type ErrorCluster struct {
	ErrorCategory    string    `json:"errorCategory"`
	ErrorMessage     string    `json:"errorMessage"`
	Frequency        int       `json:"frequency"`
	AffectedPackages []string  `json:"affectedPackages"`
	FirstOccurrence  time.Time `json:"firstOccurrence"`
	LastOccurrence   time.Time `json:"lastOccurrence"`
	Severity         string    `json:"severity"`
}

// SLACompliance is the adherence of one package to its inferred duration threshold.
type SLACompliance struct {
	PackageName          string  `json:"packageName"`
	SLAThresholdMinutes  float64 `json:"slaThresholdMinutes"`
	AvgExecutionMinutes  float64 `json:"avgExecutionMinutes"`
	TotalExecutions      int     `json:"totalExecutions"`
	CompliantExecutions  int     `json:"compliantExecutions"`
	CompliancePercentage float64 `json:"compliancePercentage"`
	ComplianceStatus     string  `json:"complianceStatus"`
}

// PerformanceTrendPoint is one day of durations for one package.
type PerformanceTrendPoint struct {
	Date                time.Time `json:"date"`
	PackageName         string    `json:"packageName"`
	AvgExecutionMinutes float64   `json:"avgExecutionMinutes"`
	MinExecutionMinutes int64     `json:"minExecutionMinutes"`
	MaxExecutionMinutes int64     `json:"maxExecutionMinutes"`
	ExecutionCount      int       `json:"executionCount"`
	Trend               string    `json:"trend"`
}

// HeatmapCell is the load of one hour-of-day and day-of-week bucket.
type HeatmapCell struct {
	HourOfDay          int     `json:"hourOfDay"` // 0-23
	DayOfWeek          int     `json:"dayOfWeek"` // 1 Sunday .. 7 Saturday
	ExecutionCount     int     `json:"executionCount"`
	AvgDurationMinutes float64 `json:"avgDurationMinutes"`
	FailureCount       int     `json:"failureCount"`
}

// PackageCorrelation is the co-occurrence of two packages, Package1 < Package2.
type PackageCorrelation struct {
	Package1                 string  `json:"package1"`
	Package2                 string  `json:"package2"`
	CoExecutionCount         int     `json:"coExecutionCount"`
	CorrelationScore         float64 `json:"correlationScore"`
	AvgTimeDifferenceMinutes float64 `json:"avgTimeDifferenceMinutes"`
}

// ResourceUtilizationSlot is the load of one hour.
type ResourceUtilizationSlot struct {
	TimeSlot             time.Time `json:"timeSlot"`
	ConcurrentExecutions int       `json:"concurrentExecutions"`
	TotalCPUTime         float64   `json:"totalCpuTime"` // elapsed seconds
	PeakMemoryMB         float64   `json:"peakMemoryMb"` // not measured
	UtilizationLevel     string    `json:"utilizationLevel"`
}

// AdvancedSnapshot is every advanced analytic, loaded together.
type AdvancedSnapshot struct {
	Reliability         []ReliabilityScore        `json:"reliability"`
	MTBF                []MTBFRecord              `json:"mtbf"`
	ErrorClusters       []ErrorCluster            `json:"errorClusters"`
	SLACompliance       []SLACompliance           `json:"slaCompliance"`
	PerformanceTrends   []PerformanceTrendPoint   `json:"performanceTrends"`
	Heatmap             []HeatmapCell             `json:"heatmap"`
	Correlation         []PackageCorrelation      `json:"correlation"`
	ResourceUtilization []ResourceUtilizationSlot `json:"resourceUtilization"`
	GeneratedAt         time.Time                 `json:"generatedAt"`
}
