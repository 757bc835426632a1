package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend that hosts the execution catalog.
	DatabaseBackend string

	// MetricName identifies one derived computation served by the facade.
	MetricName string

	// PartitionLabel is the coarse business-unit grouping derived from a package name.
	PartitionLabel string

	// EventName is the name of a push notification sent to live subscribers.
	EventName string
)

// StatusCode is the execution status exposed verbatim by the catalog.
type StatusCode int

// Catalog execution statuses.
const (
	StatusCreated           StatusCode = 1
	StatusRunning           StatusCode = 2
	StatusCanceled          StatusCode = 3
	StatusFailed            StatusCode = 4
	StatusPending           StatusCode = 5
	StatusEndedUnexpectedly StatusCode = 6
	StatusSucceeded         StatusCode = 7
	StatusStopping          StatusCode = 8
	StatusCompleted         StatusCode = 9
)

// ActiveStatuses are the statuses of executions that have not finished yet.
var ActiveStatuses = []StatusCode{StatusCreated, StatusRunning, StatusPending, StatusStopping}

// ErrorMessageType is the event message type code for error messages.
const ErrorMessageType = 120

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All catalog backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	SQLServerBackend  DatabaseBackend = "sqlserver"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid catalog backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	SQLServerBackend:  {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Dashboard metrics.
const (
	MetricSummary            MetricName = "metrics"
	MetricTrends             MetricName = "trends"
	MetricErrors             MetricName = "errors"
	MetricExecutions         MetricName = "executions"
	MetricLastExecuted       MetricName = "last_executed"
	MetricCurrentExecutions  MetricName = "current_executions"
	MetricPackagePerformance MetricName = "package_performance"
	MetricFailurePatterns    MetricName = "failure_patterns"
	MetricTimeline           MetricName = "timeline"
)

// Advanced analytics.
const (
	MetricReliability         MetricName = "reliability"
	MetricMTBF                MetricName = "mtbf"
	MetricErrorClusters       MetricName = "error_clusters"
	MetricSLACompliance       MetricName = "sla_compliance"
	MetricPerformanceTrends   MetricName = "performance_trends"
	MetricHeatmap             MetricName = "heatmap"
	MetricCorrelation         MetricName = "correlation"
	MetricResourceUtilization MetricName = "resource_utilization"
)

// DashboardMetrics lists the metrics assembled into one dashboard snapshot, in display order.
var DashboardMetrics = []MetricName{
	MetricSummary, MetricTrends, MetricErrors, MetricExecutions, MetricLastExecuted,
	MetricCurrentExecutions, MetricPackagePerformance, MetricFailurePatterns, MetricTimeline,
}

// AdvancedMetrics lists the analytics assembled into one advanced snapshot, in display order.
var AdvancedMetrics = []MetricName{
	MetricReliability, MetricMTBF, MetricErrorClusters, MetricSLACompliance,
	MetricPerformanceTrends, MetricHeatmap, MetricCorrelation, MetricResourceUtilization,
}

// Partition labels.
const (
	ClientRepoPartition    PartitionLabel = "ClientRepo"
	ChartNavPartition      PartitionLabel = "ChartNav"
	EDSPartition           PartitionLabel = "EDS"
	HIMPartition           PartitionLabel = "HIM"
	UncategorizedPartition PartitionLabel = "Uncategorized"
)

// AllPartitionsKey is the cache key segment used when no partition filter applies.
const AllPartitionsKey = "ALL"

// Push events sent to live subscribers.
const (
	ConnectedEvent     EventName = "Connected"
	MetricsUpdateEvent EventName = "ReceiveMetricsUpdate"
	TrendsUpdateEvent  EventName = "ReceiveTrendsUpdate"
	DataRefreshedEvent EventName = "DataRefreshed"
)

// Tier and trend labels shared by the analytics.
const (
	ExcellentTier = "Excellent"
	GoodTier      = "Good"
	FairTier      = "Fair"
	PoorTier      = "Poor"

	CriticalTier = "Critical"
	HighTier     = "High"
	MediumTier   = "Medium"
	LowTier      = "Low"

	ImprovingTrend = "Improving"
	DecliningTrend = "Declining"
	DegradingTrend = "Degrading"
	StableTrend    = "Stable"
)

// Error categories, in rule priority order.
const (
	TimeoutCategory    = "Timeout"
	ConnectionCategory = "Connection"
	PermissionCategory = "Permission"
	MemoryCategory     = "Memory"
	ValidationCategory = "Validation"
	DeadlockCategory   = "Deadlock"
	OtherCategory      = "Other"
)
