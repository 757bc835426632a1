package agg

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/huangsam/runlens/core/algo"
	"github.com/huangsam/runlens/schema"
)

// PerformanceTrends returns daily duration statistics per package.
// Each day is compared with the previous day that had runs, before thin days are dropped.
func (e *Engine) PerformanceTrends(ctx context.Context, q schema.Query) ([]schema.PerformanceTrendPoint, error) {
	const op = "performance trends"
	now := e.Now()
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.PerformanceLookback)),
		Statuses:  []schema.StatusCode{schema.StatusSucceeded},
		Finished:  true,
		Partition: q.Partition,
	})
	if err != nil {
		return nil, err
	}

	var out []schema.PerformanceTrendPoint
	for name, runs := range groupByPackage(rows) {
		byDay := make(map[time.Time][]int64)
		for _, r := range runs {
			m, err := elapsed(op, r, now, time.Minute)
			if err != nil {
				return nil, err
			}
			d := algo.Day(r.StartTime)
			byDay[d] = append(byDay[d], m)
		}

		days := make([]time.Time, 0, len(byDay))
		for d := range byDay {
			days = append(days, d)
		}
		slices.SortFunc(days, time.Time.Compare)

		var prev *float64
		for _, d := range days {
			minutes := byDay[d]
			avg := algo.Mean(minutes)
			trend := algo.PerformanceTrend(avg, prev)
			prev = ptr(avg)
			if len(minutes) < e.opts.MinDailyExecutions {
				continue
			}
			out = append(out, schema.PerformanceTrendPoint{
				Date:                d,
				PackageName:         name,
				AvgExecutionMinutes: algo.Round2(avg),
				MinExecutionMinutes: slices.Min(minutes),
				MaxExecutionMinutes: slices.Max(minutes),
				ExecutionCount:      len(minutes),
				Trend:               trend,
			})
		}
	}

	slices.SortFunc(out, func(a, b schema.PerformanceTrendPoint) int {
		if c := cmp.Compare(a.PackageName, b.PackageName); c != 0 {
			return c
		}
		return b.Date.Compare(a.Date)
	})
	return out, nil
}

// Heatmap buckets the executions of the window by hour of day and day of week.
func (e *Engine) Heatmap(ctx context.Context, q schema.Query) ([]schema.HeatmapCell, error) {
	const op = "heatmap"
	now := e.Now()
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.Lookback)),
		Partition: q.Partition,
	})
	if err != nil {
		return nil, err
	}

	type bucket struct{ hour, weekday int }
	type acc struct {
		cell    schema.HeatmapCell
		minutes []int64
	}
	cells := make(map[bucket]*acc)
	for _, r := range rows {
		k := bucket{r.StartTime.Hour(), int(r.StartTime.Weekday()) + 1}
		a, ok := cells[k]
		if !ok {
			a = &acc{cell: schema.HeatmapCell{HourOfDay: k.hour, DayOfWeek: k.weekday}}
			cells[k] = a
		}
		m, err := elapsed(op, r, now, time.Minute)
		if err != nil {
			return nil, err
		}
		a.cell.ExecutionCount++
		a.minutes = append(a.minutes, m)
		if r.Status == schema.StatusFailed {
			a.cell.FailureCount++
		}
	}

	out := make([]schema.HeatmapCell, 0, len(cells))
	for _, a := range cells {
		c := a.cell
		c.AvgDurationMinutes = algo.Round2(algo.Mean(a.minutes))
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b schema.HeatmapCell) int {
		if c := cmp.Compare(a.DayOfWeek, b.DayOfWeek); c != 0 {
			return c
		}
		return cmp.Compare(a.HourOfDay, b.HourOfDay)
	})
	return out, nil
}

// ResourceUtilization buckets recent executions by the hour they started in, newest hour first.
// Elapsed seconds stand in for CPU time; memory is not measured by the catalog.
func (e *Engine) ResourceUtilization(ctx context.Context, q schema.Query) ([]schema.ResourceUtilizationSlot, error) {
	const op = "resource utilization"
	now := e.Now()
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.UtilizationLookback)),
		Partition: q.Partition,
	})
	if err != nil {
		return nil, err
	}

	slots := make(map[time.Time]*schema.ResourceUtilizationSlot)
	for _, r := range rows {
		hour := algo.Hour(r.StartTime)
		s, ok := slots[hour]
		if !ok {
			s = &schema.ResourceUtilizationSlot{TimeSlot: hour}
			slots[hour] = s
		}
		seconds, err := elapsed(op, r, now, time.Second)
		if err != nil {
			return nil, err
		}
		s.ConcurrentExecutions++
		s.TotalCPUTime += float64(seconds)
	}

	out := make([]schema.ResourceUtilizationSlot, 0, len(slots))
	for _, s := range slots {
		s.UtilizationLevel = algo.UtilizationTier(s.ConcurrentExecutions)
		out = append(out, *s)
	}
	return algo.TopN(out, q.Limit, func(a, b schema.ResourceUtilizationSlot) int {
		return b.TimeSlot.Compare(a.TimeSlot)
	}), nil
}
