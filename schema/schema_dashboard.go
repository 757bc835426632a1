package schema

import "time"

// ExecutionMetrics summarizes the executions in a window.
type ExecutionMetrics struct {
	TotalExecutions      int     `json:"totalExecutions"`
	SuccessfulExecutions int     `json:"successfulExecutions"`
	FailedExecutions     int     `json:"failedExecutions"`
	SuccessRate          float64 `json:"successRate"`
	AvgDuration          float64 `json:"avgDuration"` // seconds over finished runs
}

// ExecutionTrend is one day of success and failure counts.
type ExecutionTrend struct {
	Date        string  `json:"date"` // yyyy-mm-dd
	Success     int     `json:"success"`
	Failed      int     `json:"failed"`
	AvgDuration float64 `json:"avgDuration"`
}

// ErrorLog is one error message emitted by a failed execution.
type ErrorLog struct {
	ExecutionID      int64     `json:"executionId"`
	PackageName      string    `json:"packageName"`
	ErrorTime        time.Time `json:"errorTime"`
	ErrorCode        int64     `json:"errorCode"`
	ErrorDescription string    `json:"errorDescription"`
}

// PackageExecution is one execution as listed on the dashboard.
type PackageExecution struct {
	ExecutionID int64      `json:"executionId"`
	PackageName string     `json:"packageName"`
	FolderName  string     `json:"folderName"`
	ProjectName string     `json:"projectName"`
	Status      string     `json:"status"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	Duration    int64      `json:"duration"` // seconds, 0 while running
}

// CurrentExecution is an execution that has not finished yet.
type CurrentExecution struct {
	ExecutionID       int64     `json:"executionId"`
	PackageName       string    `json:"packageName"`
	StartTime         time.Time `json:"startTime"`
	DurationSeconds   int64     `json:"durationSeconds"`
	Status            string    `json:"status"`
	StatusDescription string    `json:"statusDescription"`
	ExecutedBy        string    `json:"executedBy"`
	IsLongRunning     bool      `json:"isLongRunning"`
}

// PackagePerformance aggregates the runs of one package in a window.
type PackagePerformance struct {
	PackageName          string     `json:"packageName"`
	TotalExecutions      int        `json:"totalExecutions"`
	SuccessfulExecutions int        `json:"successfulExecutions"`
	FailedExecutions     int        `json:"failedExecutions"`
	SuccessRate          float64    `json:"successRate"`
	AvgDurationSeconds   float64    `json:"avgDurationSeconds"`
	MinDurationSeconds   int64      `json:"minDurationSeconds"`
	MaxDurationSeconds   int64      `json:"maxDurationSeconds"`
	LastExecutionTime    *time.Time `json:"lastExecutionTime"`
	LastExecutionStatus  string     `json:"lastExecutionStatus"`
}

// FailurePattern summarizes the failures of one package in a window.
type FailurePattern struct {
	PackageName     string     `json:"packageName"`
	FailureCount    int        `json:"failureCount"`
	MostCommonError string     `json:"mostCommonError"`
	LastFailureTime *time.Time `json:"lastFailureTime"`
	FailureRate     float64    `json:"failureRate"`
}

// ExecutionTimeline is one bar on the execution timeline.
type ExecutionTimeline struct {
	ExecutionID     int64      `json:"executionId"`
	PackageName     string     `json:"packageName"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
	DurationMinutes int64      `json:"durationMinutes"`
	Status          string     `json:"status"`
	StatusColor     string     `json:"statusColor"`
}

// DashboardSnapshot is every dashboard metric for one partition, loaded together.
type DashboardSnapshot struct {
	BusinessUnit       string               `json:"businessUnit"`
	Metrics            ExecutionMetrics     `json:"metrics"`
	Trends             []ExecutionTrend     `json:"trends"`
	RecentErrors       []ErrorLog           `json:"recentErrors"`
	RecentExecutions   []PackageExecution   `json:"recentExecutions"`
	LastExecuted       []PackageExecution   `json:"lastExecutedPackages"`
	CurrentExecutions  []CurrentExecution   `json:"currentExecutions"`
	PackagePerformance []PackagePerformance `json:"packagePerformance"`
	FailurePatterns    []FailurePattern     `json:"failurePatterns"`
	Timeline           []ExecutionTimeline  `json:"timeline"`
	GeneratedAt        time.Time            `json:"generatedAt"`
}
