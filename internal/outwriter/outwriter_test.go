package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func testConfig(output schema.OutputMode) *contract.Config {
	return &contract.Config{Output: output, Precision: 2, Width: 120}
}

func testDashboard() schema.DashboardSnapshot {
	end := generatedAt.Add(-50 * time.Minute)
	return schema.DashboardSnapshot{
		BusinessUnit: "ClientRepo",
		Metrics:      schema.ExecutionMetrics{TotalExecutions: 10, SuccessfulExecutions: 7, FailedExecutions: 3, SuccessRate: 70, AvgDuration: 600},
		Trends:       []schema.ExecutionTrend{{Date: "2026-10-15", Success: 1, Failed: 0, AvgDuration: 600}},
		LastExecuted: []schema.PackageExecution{{
			ExecutionID: 1, PackageName: "CR_Load", Status: "Succeeded", StartTime: generatedAt.Add(-time.Hour), EndTime: &end, Duration: 600,
		}},
		PackagePerformance: []schema.PackagePerformance{{PackageName: "CR_Load", TotalExecutions: 10, SuccessRate: 70}},
		GeneratedAt:        generatedAt,
	}
}

func TestMetricTitle(t *testing.T) {
	assert.Equal(t, "Last Executed", metricTitle(schema.MetricLastExecuted))
	assert.Equal(t, "MTBF", metricTitle(schema.MetricMTBF))
	assert.Equal(t, "SLA COMPLIANCE", metricTitle(schema.MetricSLACompliance))
	assert.Equal(t, "Metrics", metricTitle(schema.MetricSummary))
}

func TestBuildSection_EveryMetric(t *testing.T) {
	fmtFloat := createFormatter(2)
	values := append(dashboardValues(testDashboard()), analyticsValues(schema.AdvancedSnapshot{})...)
	for _, nv := range values {
		t.Run(string(nv.metric), func(t *testing.T) {
			s, ok := buildSection(nv.metric, nv.value, fmtFloat)
			require.True(t, ok)
			assert.NotEmpty(t, s.headers)
			for _, row := range s.rows {
				assert.Len(t, row, len(s.headers))
			}
			for _, col := range s.labels {
				assert.Less(t, col, len(s.headers))
			}
			assert.Less(t, s.text, len(s.headers))
		})
	}

	_, ok := buildSection(schema.MetricSummary, "nope", fmtFloat)
	assert.False(t, ok)
}

func TestBuildSection_Heatmap(t *testing.T) {
	fmtFloat := createFormatter(1)
	s, ok := buildSection(schema.MetricHeatmap, []schema.HeatmapCell{{DayOfWeek: 5, HourOfDay: 9, ExecutionCount: 3, AvgDurationMinutes: 2.25}}, fmtFloat)
	require.True(t, ok)
	assert.Equal(t, []string{"Thursday", "09:00", "3", "2.2", "0"}, s.rows[0])
}

func TestWriteDashboard_Text(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	require.NoError(t, WriteDashboard(&buf, testDashboard(), testConfig(schema.TextOut), 120*time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "Dashboard for ClientRepo at 2026-10-15 12:00")
	assert.Contains(t, out, "Metrics (1)")
	assert.Contains(t, out, "70.00")
	assert.Contains(t, out, "Last Executed (1)")
	assert.Contains(t, out, "CR_Load")
	assert.Contains(t, out, "Errors (0)")
	assert.Contains(t, out, "no data")
	assert.Contains(t, out, "Loaded in 120ms")
}

func TestWriteDashboard_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDashboard(&buf, testDashboard(), testConfig(schema.JSONOut), time.Second))

	var got schema.DashboardSnapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "ClientRepo", got.BusinessUnit)
	assert.Equal(t, 70.0, got.Metrics.SuccessRate)
}

func TestWriteMetric_CSV(t *testing.T) {
	var buf bytes.Buffer
	scores := []schema.ReliabilityScore{
		{PackageName: "CR_Load", TotalExecutions: 10, SuccessfulExecutions: 7, FailedExecutions: 3, SuccessRate: 70, ReliabilityScore: 70.71, Trend: schema.StableTrend},
	}
	require.NoError(t, WriteMetric(&buf, schema.MetricReliability, scores, testConfig(schema.CSVOut), time.Second))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Package", records[0][0])
	assert.Equal(t, []string{"CR_Load", "10", "7", "3", "70.00", "70.71", "Stable"}, records[1])
}

func TestWriteAnalytics_CSVSections(t *testing.T) {
	var buf bytes.Buffer
	snap := schema.AdvancedSnapshot{
		MTBF: []schema.MTBFRecord{{PackageName: "CR_Load", MeanTimeBetweenFailures: 720, AvailabilityPercentage: 100, Status: schema.ExcellentTier}},
	}
	require.NoError(t, WriteAnalytics(&buf, snap, testConfig(schema.CSVOut), time.Second))

	out := buf.String()
	assert.Contains(t, out, "# Reliability\n")
	assert.Contains(t, out, "# MTBF\n")
	assert.Contains(t, out, "CR_Load,720.00,100.00,0,,Excellent")
	assert.Equal(t, 7, strings.Count(out, "\n\n"), "sections are separated by an empty record")
}

func TestWriteMetric_UnknownValue(t *testing.T) {
	err := WriteMetric(&bytes.Buffer{}, schema.MetricSummary, 42, testConfig(schema.TextOut), time.Second)
	assert.Error(t, err)
}

func TestOutWriter_File(t *testing.T) {
	cfg := testConfig(schema.JSONOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "metrics.json")

	ow := NewOutWriter()
	require.NoError(t, ow.WriteMetric(schema.MetricSummary, schema.ExecutionMetrics{TotalExecutions: 3}, cfg, time.Second))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"totalExecutions": 3`)
}

func TestGetMaxTextWidth(t *testing.T) {
	tests := []struct {
		width, columns, want int
	}{
		{80, 10, 15},
		{120, 4, 62},
		{300, 2, 70},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, getMaxTextWidth(&contract.Config{Width: tt.width}, tt.columns))
	}
}

func TestWriteMetric_TextLimit(t *testing.T) {
	color.NoColor = true
	cfg := testConfig(schema.TextOut)
	cfg.ResultLimit = 2
	perf := []schema.PackagePerformance{
		{PackageName: "CR_Load", TotalExecutions: 10},
		{PackageName: "EDS_Feed", TotalExecutions: 5},
		{PackageName: "HIM_Import", TotalExecutions: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMetric(&buf, schema.MetricPackagePerformance, perf, cfg, time.Second))
	out := buf.String()
	assert.Contains(t, out, "EDS_Feed")
	assert.NotContains(t, out, "HIM_Import")
	assert.Contains(t, out, "... and 1 more")
}
