// Package parquet exports dashboard and analytics snapshots to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/runlens/schema"
	"github.com/parquet-go/parquet-go"
)

// Execution is one listed execution of a dashboard snapshot.
type Execution struct {
	// BusinessUnit is the partition label the snapshot was loaded for ("ALL" when unfiltered)
	BusinessUnit string `parquet:"business_unit,snappy"`

	ExecutionID int64  `parquet:"execution_id,snappy"`
	PackageName string `parquet:"package_name,snappy"`
	FolderName  string `parquet:"folder_name,snappy"`
	ProjectName string `parquet:"project_name,snappy"`
	Status      string `parquet:"status,snappy"`

	// StartTime is when the execution began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is nil while the execution is still running
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	DurationSeconds int64 `parquet:"duration_seconds,snappy"`
}

// PackagePerformance is the per-package performance row of a dashboard snapshot.
type PackagePerformance struct {
	BusinessUnit         string     `parquet:"business_unit,snappy"`
	PackageName          string     `parquet:"package_name,snappy"`
	TotalExecutions      int32      `parquet:"total_executions,snappy"`
	SuccessfulExecutions int32      `parquet:"successful_executions,snappy"`
	FailedExecutions     int32      `parquet:"failed_executions,snappy"`
	SuccessRate          float64    `parquet:"success_rate,snappy"`
	AvgDurationSeconds   float64    `parquet:"avg_duration_seconds,snappy"`
	MinDurationSeconds   int64      `parquet:"min_duration_seconds,snappy"`
	MaxDurationSeconds   int64      `parquet:"max_duration_seconds,snappy"`
	LastExecutionTime    *time.Time `parquet:"last_execution_time,optional,snappy"`
	LastExecutionStatus  string     `parquet:"last_execution_status,snappy"`
}

// PackageHealth joins the reliability, MTBF and SLA rows of one package.
// Packages missing from one of the analytics get null columns for it.
type PackageHealth struct {
	PackageName string `parquet:"package_name,snappy"`

	// AnalysisTime is when the analytics snapshot was generated
	AnalysisTime time.Time `parquet:"analysis_time,snappy"`

	ReliabilityScore *float64 `parquet:"reliability_score,optional,snappy"`
	SuccessRate      *float64 `parquet:"success_rate,optional,snappy"`
	Trend            *string  `parquet:"trend,optional,snappy"`

	// MTBFHours is the mean time between failures in hours (nullable)
	MTBFHours    *float64   `parquet:"mtbf_hours,optional,snappy"`
	Availability *float64   `parquet:"availability,optional,snappy"`
	FailureCount *int32     `parquet:"failure_count,optional,snappy"`
	LastFailure  *time.Time `parquet:"last_failure,optional,snappy"`

	SLAThresholdMinutes  *float64 `parquet:"sla_threshold_minutes,optional,snappy"`
	CompliancePercentage *float64 `parquet:"compliance_percentage,optional,snappy"`
	ComplianceStatus     *string  `parquet:"compliance_status,optional,snappy"`
}

// ErrorCluster is one grouped error of an analytics snapshot.
type ErrorCluster struct {
	ErrorCategory    string    `parquet:"error_category,snappy"`
	ErrorMessage     string    `parquet:"error_message,snappy"`
	Frequency        int32     `parquet:"frequency,snappy"`
	AffectedPackages []string  `parquet:"affected_packages,list"`
	FirstOccurrence  time.Time `parquet:"first_occurrence,snappy"`
	LastOccurrence   time.Time `parquet:"last_occurrence,snappy"`
	Severity         string    `parquet:"severity,snappy"`
}

// WriteRows writes a slice of row structs to a Parquet file.
// The schema is derived from the row type's struct tags.
func WriteRows[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to flush parquet file: %w", err)
	}
	return nil
}

// ConvertExecutions converts the recent executions of a dashboard snapshot.
func ConvertExecutions(snap schema.DashboardSnapshot) []Execution {
	result := make([]Execution, len(snap.RecentExecutions))
	for i, e := range snap.RecentExecutions {
		result[i] = Execution{
			BusinessUnit:    snap.BusinessUnit,
			ExecutionID:     e.ExecutionID,
			PackageName:     e.PackageName,
			FolderName:      e.FolderName,
			ProjectName:     e.ProjectName,
			Status:          e.Status,
			StartTime:       e.StartTime,
			EndTime:         e.EndTime,
			DurationSeconds: e.Duration,
		}
	}
	return result
}

// ConvertPackagePerformance converts the package performance rows of a dashboard snapshot.
func ConvertPackagePerformance(snap schema.DashboardSnapshot) []PackagePerformance {
	result := make([]PackagePerformance, len(snap.PackagePerformance))
	for i, p := range snap.PackagePerformance {
		result[i] = PackagePerformance{
			BusinessUnit:         snap.BusinessUnit,
			PackageName:          p.PackageName,
			TotalExecutions:      int32(p.TotalExecutions),
			SuccessfulExecutions: int32(p.SuccessfulExecutions),
			FailedExecutions:     int32(p.FailedExecutions),
			SuccessRate:          p.SuccessRate,
			AvgDurationSeconds:   p.AvgDurationSeconds,
			MinDurationSeconds:   p.MinDurationSeconds,
			MaxDurationSeconds:   p.MaxDurationSeconds,
			LastExecutionTime:    p.LastExecutionTime,
			LastExecutionStatus:  p.LastExecutionStatus,
		}
	}
	return result
}

// ConvertPackageHealth joins reliability, MTBF and SLA compliance by package name.
// Rows keep the reliability order, then packages only seen by the other analytics.
func ConvertPackageHealth(snap schema.AdvancedSnapshot) []PackageHealth {
	var result []PackageHealth
	index := make(map[string]int)
	row := func(name string) *PackageHealth {
		i, ok := index[name]
		if !ok {
			i = len(result)
			index[name] = i
			result = append(result, PackageHealth{PackageName: name, AnalysisTime: snap.GeneratedAt})
		}
		return &result[i]
	}

	for _, r := range snap.Reliability {
		h := row(r.PackageName)
		h.ReliabilityScore = ptr(r.ReliabilityScore)
		h.SuccessRate = ptr(r.SuccessRate)
		h.Trend = ptr(r.Trend)
	}
	for _, m := range snap.MTBF {
		h := row(m.PackageName)
		h.MTBFHours = ptr(m.MeanTimeBetweenFailures)
		h.Availability = ptr(m.AvailabilityPercentage)
		h.FailureCount = ptr(int32(m.FailureCount))
		h.LastFailure = m.LastFailure
	}
	for _, s := range snap.SLACompliance {
		h := row(s.PackageName)
		h.SLAThresholdMinutes = ptr(s.SLAThresholdMinutes)
		h.CompliancePercentage = ptr(s.CompliancePercentage)
		h.ComplianceStatus = ptr(s.ComplianceStatus)
	}
	return result
}

// ConvertErrorClusters converts the error clusters of an analytics snapshot.
func ConvertErrorClusters(snap schema.AdvancedSnapshot) []ErrorCluster {
	result := make([]ErrorCluster, len(snap.ErrorClusters))
	for i, c := range snap.ErrorClusters {
		result[i] = ErrorCluster{
			ErrorCategory:    c.ErrorCategory,
			ErrorMessage:     c.ErrorMessage,
			Frequency:        int32(c.Frequency),
			AffectedPackages: c.AffectedPackages,
			FirstOccurrence:  c.FirstOccurrence,
			LastOccurrence:   c.LastOccurrence,
			Severity:         c.Severity,
		}
	}
	return result
}

// ExportSnapshots writes every export table next to each other as <prefix>_<table>.parquet
// and returns the paths written.
func ExportSnapshots(dash schema.DashboardSnapshot, adv schema.AdvancedSnapshot, prefix string) ([]string, error) {
	var written []string
	write := func(table string, fn func(path string) error) error {
		path := fmt.Sprintf("%s_%s.parquet", prefix, table)
		if err := fn(path); err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
		written = append(written, path)
		return nil
	}

	steps := []struct {
		table string
		fn    func(path string) error
	}{
		{"executions", func(p string) error { return WriteRows(ConvertExecutions(dash), p) }},
		{"package_performance", func(p string) error { return WriteRows(ConvertPackagePerformance(dash), p) }},
		{"package_health", func(p string) error { return WriteRows(ConvertPackageHealth(adv), p) }},
		{"error_clusters", func(p string) error { return WriteRows(ConvertErrorClusters(adv), p) }},
	}
	for _, s := range steps {
		if err := write(s.table, s.fn); err != nil {
			return written, err
		}
	}
	return written, nil
}

func ptr[T any](v T) *T {
	return &v
}
