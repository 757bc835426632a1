package agg

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/runlens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReliability(t *testing.T) {
	h := &history{}
	// A: 3 of 5 succeeded, all recent.
	for i, status := range []schema.StatusCode{7, 7, 7, 4, 4} {
		h.run("A", status, time.Duration(i+1)*time.Hour, time.Minute)
	}
	// B: 6 of 8 succeeded, the recent week is clean.
	for i := range 8 {
		status := schema.StatusSucceeded
		if i >= 6 {
			status = schema.StatusFailed
		}
		h.run("B", status, time.Duration(i*3+1)*day, time.Minute)
	}
	// C: too few runs.
	for i := range 4 {
		h.run("C", schema.StatusSucceeded, time.Duration(i+1)*time.Hour, time.Minute)
	}

	scores, err := h.engine().Reliability(context.Background(), schema.Query{})
	require.NoError(t, err)
	require.Len(t, scores, 2)

	// B: overall 75, recent (days 1, 4, 7) 100 -> 87.5
	assert.Equal(t, "B", scores[0].PackageName)
	assert.Equal(t, 75.0, scores[0].SuccessRate)
	assert.Equal(t, 87.5, scores[0].ReliabilityScore)
	assert.Equal(t, schema.ImprovingTrend, scores[0].Trend)

	assert.Equal(t, "A", scores[1].PackageName)
	assert.Equal(t, 5, scores[1].TotalExecutions)
	assert.Equal(t, 3, scores[1].SuccessfulExecutions)
	assert.Equal(t, 2, scores[1].FailedExecutions)
	assert.Equal(t, 60.00, scores[1].SuccessRate)
	assert.Equal(t, 60.00, scores[1].ReliabilityScore)
	assert.Equal(t, schema.StableTrend, scores[1].Trend)
}

func TestReliability_TieBreaks(t *testing.T) {
	h := &history{}
	for _, name := range []string{"Zeta", "Alpha"} {
		for i := range 5 {
			h.run(name, schema.StatusSucceeded, time.Duration(i+1)*time.Hour, time.Minute)
		}
	}
	h.run("Zeta", schema.StatusSucceeded, 10*time.Hour, time.Minute)

	scores, err := h.engine().Reliability(context.Background(), schema.Query{})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "Zeta", scores[0].PackageName, "equal scores rank more runs first")
	assert.Equal(t, "Alpha", scores[1].PackageName)
}

func TestMTBF(t *testing.T) {
	h := &history{}
	for i := range 5 {
		h.run("Clean", schema.StatusSucceeded, time.Duration(i+1)*day, time.Minute)
	}
	// Failures 48h and 24h apart.
	h.run("Flaky", schema.StatusFailed, 5*day, time.Minute)
	h.run("Flaky", schema.StatusFailed, 3*day, time.Minute)
	h.run("Flaky", schema.StatusFailed, 2*day, time.Minute)
	h.run("Flaky", schema.StatusSucceeded, day, time.Minute)
	h.run("Flaky", schema.StatusSucceeded, time.Hour, time.Minute)
	// One failure has no gap.
	h.run("Once", schema.StatusFailed, 2*day, time.Minute)
	for i := range 4 {
		h.run("Once", schema.StatusSucceeded, time.Duration(i+1)*time.Hour, time.Minute)
	}

	records, err := h.engine().MTBF(context.Background(), schema.Query{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Clean", records[0].PackageName)
	assert.Equal(t, 720.0, records[0].MeanTimeBetweenFailures)
	assert.Equal(t, schema.ExcellentTier, records[0].Status)
	assert.Equal(t, 100.0, records[0].AvailabilityPercentage)
	assert.Nil(t, records[0].LastFailure)

	assert.Equal(t, "Once", records[1].PackageName)
	assert.Equal(t, 720.0, records[1].MeanTimeBetweenFailures)
	assert.Equal(t, 1, records[1].FailureCount)
	assert.Equal(t, 80.0, records[1].AvailabilityPercentage)

	assert.Equal(t, "Flaky", records[2].PackageName)
	assert.Equal(t, 36.0, records[2].MeanTimeBetweenFailures)
	assert.Equal(t, schema.FairTier, records[2].Status)
	assert.Equal(t, 3, records[2].FailureCount)
	assert.Equal(t, 40.0, records[2].AvailabilityPercentage)
	require.NotNil(t, records[2].LastFailure)
	assert.Equal(t, testNow.Add(-2*day), *records[2].LastFailure)
}

func TestErrorClusters(t *testing.T) {
	h := &history{}
	long := strings.Repeat("x", 250)
	for i := range 4 {
		id := h.run(fmt.Sprintf("CR_%d", i%2), schema.StatusFailed, time.Duration(i+1)*time.Hour, time.Minute)
		h.message(id, testNow.Add(-time.Duration(i+1)*time.Hour), "Connection timeout while accessing DB")
	}
	for i := range 3 {
		id := h.run("EDS_Feed", schema.StatusSucceeded, time.Duration(i+1)*time.Hour, time.Minute)
		h.message(id, testNow.Add(-time.Duration(i+1)*time.Hour), long+fmt.Sprint(i))
	}
	for i := range 2 {
		id := h.run("HIM", schema.StatusFailed, time.Duration(i+1)*time.Hour, time.Minute)
		h.message(id, testNow.Add(-time.Duration(i+1)*time.Hour), "deadlock victim")
	}
	id := h.run("Old", schema.StatusFailed, 40*day, time.Minute)
	h.message(id, testNow.Add(-40*day), "Connection timeout while accessing DB")

	clusters, err := h.engine().ErrorClusters(context.Background(), schema.Query{})
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	c := clusters[0]
	assert.Equal(t, schema.TimeoutCategory, c.ErrorCategory)
	assert.Equal(t, 4, c.Frequency)
	assert.Equal(t, []string{"CR_0", "CR_1"}, c.AffectedPackages)
	assert.Equal(t, testNow.Add(-4*time.Hour), c.FirstOccurrence)
	assert.Equal(t, testNow.Add(-time.Hour), c.LastOccurrence)
	assert.Equal(t, schema.LowTier, c.Severity)

	assert.Equal(t, schema.OtherCategory, clusters[1].ErrorCategory)
	assert.Equal(t, 3, clusters[1].Frequency, "messages equal in their first 200 runes group together")
	assert.Len(t, []rune(clusters[1].ErrorMessage), 200)
}

func TestSLACompliance(t *testing.T) {
	h := &history{}
	for i, minutes := range []int{10, 10, 10, 10, 100} {
		h.run("A", schema.StatusSucceeded, time.Duration(i+1)*time.Hour, time.Duration(minutes)*time.Minute)
	}
	h.run("A", schema.StatusFailed, 30*time.Minute, 100*time.Minute)
	for i := range 5 {
		h.run("B", schema.StatusSucceeded, time.Duration(i+1)*time.Hour, 5*time.Minute)
	}

	sla, err := h.engine().SLACompliance(context.Background(), schema.Query{})
	require.NoError(t, err)
	require.Len(t, sla, 2)

	assert.Equal(t, "B", sla[0].PackageName)
	assert.Equal(t, 100.0, sla[0].CompliancePercentage)
	assert.Equal(t, 6.0, sla[0].SLAThresholdMinutes)
	assert.Equal(t, schema.ExcellentTier, sla[0].ComplianceStatus)

	// p95 of {10,10,10,10,100} is 82, threshold 98.4: the outlier misses it.
	a := sla[1]
	assert.Equal(t, "A", a.PackageName)
	assert.Equal(t, 5, a.TotalExecutions)
	assert.Equal(t, 98.4, a.SLAThresholdMinutes)
	assert.Equal(t, 28.0, a.AvgExecutionMinutes)
	assert.Equal(t, 4, a.CompliantExecutions)
	assert.Equal(t, 80.0, a.CompliancePercentage)
	assert.Equal(t, schema.FairTier, a.ComplianceStatus)
}

func TestPerformanceTrends(t *testing.T) {
	h := &history{}
	// Day -3 (single run, dropped but used as the previous day), day -2, day -1.
	h.run("A", schema.StatusSucceeded, 3*day, 10*time.Minute)
	h.run("A", schema.StatusSucceeded, 2*day, 20*time.Minute)
	h.run("A", schema.StatusSucceeded, 2*day-time.Hour, 20*time.Minute)
	h.run("A", schema.StatusSucceeded, day, 10*time.Minute)
	h.run("A", schema.StatusSucceeded, day-time.Hour, 12*time.Minute)
	h.run("A", schema.StatusFailed, day-2*time.Hour, 99*time.Minute)
	h.run("B", schema.StatusSucceeded, day, 5*time.Minute)
	h.run("B", schema.StatusSucceeded, day-time.Hour, 5*time.Minute)

	points, err := h.engine().PerformanceTrends(context.Background(), schema.Query{})
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "A", points[0].PackageName)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.Equal(t, 11.0, points[0].AvgExecutionMinutes)
	assert.Equal(t, int64(10), points[0].MinExecutionMinutes)
	assert.Equal(t, int64(12), points[0].MaxExecutionMinutes)
	assert.Equal(t, 2, points[0].ExecutionCount)
	assert.Equal(t, schema.ImprovingTrend, points[0].Trend)

	assert.Equal(t, "A", points[1].PackageName)
	assert.Equal(t, 20.0, points[1].AvgExecutionMinutes)
	assert.Equal(t, schema.DegradingTrend, points[1].Trend, "compared with the dropped single-run day")

	assert.Equal(t, "B", points[2].PackageName)
	assert.Equal(t, schema.StableTrend, points[2].Trend)
}

func TestHeatmap(t *testing.T) {
	h := &history{}
	h.run("A", schema.StatusSucceeded, 2*time.Hour, 10*time.Minute)  // Thu 10:00
	h.run("A", schema.StatusFailed, 2*time.Hour, 20*time.Minute)     // Thu 10:00
	h.run("A", schema.StatusRunning, 30*time.Minute, -1)             // Thu 11:30
	h.run("A", schema.StatusSucceeded, 4*day+2*time.Hour, time.Hour) // Sun 10:00

	cells, err := h.engine().Heatmap(context.Background(), schema.Query{})
	require.NoError(t, err)
	require.Len(t, cells, 3)

	assert.Equal(t, schema.HeatmapCell{HourOfDay: 10, DayOfWeek: 1, ExecutionCount: 1, AvgDurationMinutes: 60}, cells[0])
	assert.Equal(t, schema.HeatmapCell{HourOfDay: 10, DayOfWeek: 5, ExecutionCount: 2, AvgDurationMinutes: 15, FailureCount: 1}, cells[1])
	assert.Equal(t, schema.HeatmapCell{HourOfDay: 11, DayOfWeek: 5, ExecutionCount: 1, AvgDurationMinutes: 30}, cells[2])
}

func TestCorrelation(t *testing.T) {
	h := &history{}
	for d := range 4 {
		base := time.Duration(d+1) * day
		h.run("B_Load", schema.StatusSucceeded, base, time.Minute)
		h.run("A_Extract", schema.StatusSucceeded, base-10*time.Minute, time.Minute)
		h.run("C_Report", schema.StatusSucceeded, base-2*time.Hour, time.Minute) // too far apart
	}

	pairs, err := h.engine().Correlation(context.Background(), schema.Query{})
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, "A_Extract", p.Package1)
	assert.Equal(t, "B_Load", p.Package2)
	assert.Equal(t, 4, p.CoExecutionCount)
	assert.Equal(t, 100.0, p.CorrelationScore)
	assert.Equal(t, 10.0, p.AvgTimeDifferenceMinutes)
}

func TestCorrelation_ScoreOverCoveredDays(t *testing.T) {
	h := &history{}
	for d := range 3 {
		base := time.Duration(d+1) * day
		h.run("A_Extract", schema.StatusSucceeded, base+10*time.Minute, time.Minute)
		h.run("B_Load", schema.StatusSucceeded, base, time.Minute)
	}
	// A second B_Load on the first day pairs with A_Extract again, 30 minutes apart.
	h.run("B_Load", schema.StatusSucceeded, day-20*time.Minute, time.Minute)
	// C_Report runs alone on five more days.
	for d := 4; d <= 8; d++ {
		h.run("C_Report", schema.StatusSucceeded, time.Duration(d)*day, time.Minute)
	}

	pairs, err := h.engine().Correlation(context.Background(), schema.Query{})
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, "A_Extract", p.Package1)
	assert.Equal(t, "B_Load", p.Package2)
	assert.Equal(t, 4, p.CoExecutionCount)
	assert.Equal(t, 50.0, p.CorrelationScore, "4 co-executions over 8 covered days")
	assert.Equal(t, 15.0, p.AvgTimeDifferenceMinutes)
}

func TestCorrelation_OrderedAndCapped(t *testing.T) {
	h := &history{}
	// 8 packages that always start together give 28 pairs.
	for d := range 3 {
		for p := range 8 {
			h.run(fmt.Sprintf("P%d", p), schema.StatusSucceeded, time.Duration(d+1)*day, time.Minute)
		}
	}
	// One more shared day for P0 and P1.
	h.run("P0", schema.StatusSucceeded, 5*day, time.Minute)
	h.run("P1", schema.StatusSucceeded, 5*day, time.Minute)

	pairs, err := h.engine().Correlation(context.Background(), schema.Query{})
	require.NoError(t, err)
	require.Len(t, pairs, 20)

	assert.Equal(t, "P0", pairs[0].Package1)
	assert.Equal(t, "P1", pairs[0].Package2)
	assert.Equal(t, 4, pairs[0].CoExecutionCount)
	for i, p := range pairs {
		assert.Less(t, p.Package1, p.Package2)
		if i > 0 {
			assert.LessOrEqual(t, p.CoExecutionCount, pairs[i-1].CoExecutionCount)
		}
	}
}

func TestResourceUtilization(t *testing.T) {
	h := &history{}
	for i := range 6 {
		h.run("A", schema.StatusSucceeded, 3*time.Hour-time.Duration(i)*time.Minute, time.Minute)
	}
	h.run("B", schema.StatusRunning, 30*time.Minute, -1)
	h.run("C", schema.StatusSucceeded, 8*day, time.Minute) // outside the window

	slots, err := h.engine().ResourceUtilization(context.Background(), schema.Query{})
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, time.Date(2026, 10, 15, 11, 0, 0, 0, time.UTC), slots[0].TimeSlot)
	assert.Equal(t, 1, slots[0].ConcurrentExecutions)
	assert.Equal(t, 1800.0, slots[0].TotalCPUTime)
	assert.Equal(t, schema.LowTier, slots[0].UtilizationLevel)

	assert.Equal(t, 6, slots[1].ConcurrentExecutions)
	assert.Equal(t, 360.0, slots[1].TotalCPUTime)
	assert.Equal(t, schema.MediumTier, slots[1].UtilizationLevel)
	assert.Zero(t, slots[1].PeakMemoryMB)
}
