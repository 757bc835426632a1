package agg

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/runlens/core/algo"
	"github.com/huangsam/runlens/schema"
)

const dateLayout = "2006-01-02"

// Metrics summarizes the executions of the window.
func (e *Engine) Metrics(ctx context.Context, q schema.Query) (schema.ExecutionMetrics, error) {
	const op = "metrics"
	now := e.Now()
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.Lookback)),
		Partition: q.Partition,
	})
	if err != nil {
		return schema.ExecutionMetrics{}, err
	}

	var out schema.ExecutionMetrics
	var seconds []int64
	for _, r := range rows {
		out.TotalExecutions++
		switch r.Status {
		case schema.StatusFailed:
			out.FailedExecutions++
		case schema.StatusSucceeded:
			out.SuccessfulExecutions++
		}
		if r.Finished() {
			s, err := elapsed(op, r, now, time.Second)
			if err != nil {
				return schema.ExecutionMetrics{}, err
			}
			seconds = append(seconds, s)
		}
	}
	out.SuccessRate = algo.Percent(out.SuccessfulExecutions, out.TotalExecutions)
	out.AvgDuration = algo.Round2(algo.Mean(seconds))
	return out, nil
}

// Trends returns one entry per start date of the window, newest first.
func (e *Engine) Trends(ctx context.Context, q schema.Query) ([]schema.ExecutionTrend, error) {
	const op = "trends"
	now := e.Now()
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.Lookback)),
		Partition: q.Partition,
	})
	if err != nil {
		return nil, err
	}

	type day struct {
		trend   schema.ExecutionTrend
		seconds []int64
	}
	days := make(map[string]*day)
	for _, r := range rows {
		key := r.StartTime.Format(dateLayout)
		d, ok := days[key]
		if !ok {
			d = &day{trend: schema.ExecutionTrend{Date: key}}
			days[key] = d
		}
		switch r.Status {
		case schema.StatusSucceeded:
			d.trend.Success++
		case schema.StatusFailed:
			d.trend.Failed++
		}
		if r.Finished() {
			s, err := elapsed(op, r, now, time.Second)
			if err != nil {
				return nil, err
			}
			d.seconds = append(d.seconds, s)
		}
	}

	out := make([]schema.ExecutionTrend, 0, len(days))
	for _, d := range days {
		d.trend.AvgDuration = algo.Round2(algo.Mean(d.seconds))
		out = append(out, d.trend)
	}
	slices.SortFunc(out, func(a, b schema.ExecutionTrend) int {
		return algo.Desc(a.Date, b.Date)
	})
	return out, nil
}

// Errors returns the newest error messages of failed executions started in the window.
func (e *Engine) Errors(ctx context.Context, q schema.Query) ([]schema.ErrorLog, error) {
	events, err := e.events(ctx, "errors", schema.EventQuery{
		MessageType:  schema.ErrorMessageType,
		StartedSince: ptr(e.window(q, e.opts.Lookback)),
		Statuses:     []schema.StatusCode{schema.StatusFailed},
		Partition:    q.Partition,
		Limit:        limitOr(q, e.opts.RecentLimit),
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(events, newestMessageFirst)
	out := make([]schema.ErrorLog, 0, len(events))
	for _, ev := range events {
		out = append(out, schema.ErrorLog{
			ExecutionID:      ev.OperationID,
			PackageName:      ev.PackageName,
			ErrorTime:        ev.MessageTime,
			ErrorCode:        ev.EventMessageID,
			ErrorDescription: ev.Message,
		})
	}
	return out, nil
}

// Executions returns the newest executions of the window.
func (e *Engine) Executions(ctx context.Context, q schema.Query) ([]schema.PackageExecution, error) {
	const op = "executions"
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.Lookback)),
		Partition: q.Partition,
		Limit:     limitOr(q, e.opts.RecentLimit),
	})
	if err != nil {
		return nil, err
	}
	return toPackageExecutions(op, rows, e.Now())
}

// LastExecuted returns the newest executions regardless of age.
func (e *Engine) LastExecuted(ctx context.Context, q schema.Query) ([]schema.PackageExecution, error) {
	const op = "last executed"
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Partition: q.Partition,
		Limit:     limitOr(q, e.opts.LastExecutedLimit),
	})
	if err != nil {
		return nil, err
	}
	return toPackageExecutions(op, rows, e.Now())
}

func toPackageExecutions(op string, rows []schema.ExecutionRecord, now time.Time) ([]schema.PackageExecution, error) {
	slices.SortStableFunc(rows, newestRunFirst)
	out := make([]schema.PackageExecution, 0, len(rows))
	for _, r := range rows {
		var seconds int64
		if r.Finished() {
			s, err := elapsed(op, r, now, time.Second)
			if err != nil {
				return nil, err
			}
			seconds = s
		}
		out = append(out, schema.PackageExecution{
			ExecutionID: r.ExecutionID,
			PackageName: r.PackageName,
			FolderName:  r.FolderName,
			ProjectName: r.ProjectName,
			Status:      r.Status.String(),
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			Duration:    seconds,
		})
	}
	return out, nil
}

// CurrentExecutions returns the work that has not finished, newest first.
func (e *Engine) CurrentExecutions(ctx context.Context, q schema.Query) ([]schema.CurrentExecution, error) {
	const op = "current executions"
	now := e.Now()
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Statuses:  schema.ActiveStatuses,
		Partition: q.Partition,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(rows, newestRunFirst)
	longRunning := int64(e.opts.LongRunning / time.Second)
	out := make([]schema.CurrentExecution, 0, len(rows))
	for _, r := range rows {
		seconds, err := elapsed(op, r, now, time.Second)
		if err != nil {
			return nil, err
		}
		executedBy := "N/A"
		if r.ExecutedBy != nil && *r.ExecutedBy != "" {
			executedBy = *r.ExecutedBy
		}
		out = append(out, schema.CurrentExecution{
			ExecutionID:       r.ExecutionID,
			PackageName:       r.PackageName,
			StartTime:         r.StartTime,
			DurationSeconds:   seconds,
			Status:            strconv.Itoa(int(r.Status)),
			StatusDescription: r.Status.String(),
			ExecutedBy:        executedBy,
			IsLongRunning:     seconds > longRunning,
		})
	}
	return out, nil
}

// PackagePerformance aggregates the runs of each package in the window, busiest first.
func (e *Engine) PackagePerformance(ctx context.Context, q schema.Query) ([]schema.PackagePerformance, error) {
	const op = "package performance"
	now := e.Now()
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.Lookback)),
		Partition: q.Partition,
	})
	if err != nil {
		return nil, err
	}

	type acc struct {
		perf    schema.PackagePerformance
		latest  schema.ExecutionRecord
		seconds []int64
	}
	byPackage := make(map[string]*acc)
	for _, r := range rows {
		a, ok := byPackage[r.PackageName]
		if !ok {
			a = &acc{perf: schema.PackagePerformance{PackageName: r.PackageName}, latest: r}
			byPackage[r.PackageName] = a
		}
		a.perf.TotalExecutions++
		switch r.Status {
		case schema.StatusSucceeded:
			a.perf.SuccessfulExecutions++
		case schema.StatusFailed:
			a.perf.FailedExecutions++
		}
		if newestRunFirst(r, a.latest) < 0 {
			a.latest = r
		}
		if r.Finished() {
			s, err := elapsed(op, r, now, time.Second)
			if err != nil {
				return nil, err
			}
			a.seconds = append(a.seconds, s)
		}
	}

	out := make([]schema.PackagePerformance, 0, len(byPackage))
	for _, a := range byPackage {
		p := a.perf
		p.SuccessRate = algo.Percent(p.SuccessfulExecutions, p.TotalExecutions)
		p.AvgDurationSeconds = algo.Round2(algo.Mean(a.seconds))
		if len(a.seconds) > 0 {
			p.MinDurationSeconds = slices.Min(a.seconds)
			p.MaxDurationSeconds = slices.Max(a.seconds)
		}
		// The window has no upper bound, so the newest run in it is the package's newest run overall.
		p.LastExecutionTime = ptr(a.latest.StartTime)
		p.LastExecutionStatus = schema.LastStatusLabel(a.latest.Status)
		out = append(out, p)
	}
	return algo.TopN(out, q.Limit, func(a, b schema.PackagePerformance) int {
		if c := algo.Desc(a.TotalExecutions, b.TotalExecutions); c != 0 {
			return c
		}
		return cmp.Compare(a.PackageName, b.PackageName)
	}), nil
}

// FailurePatterns summarizes the packages that failed in the window, most failures first.
func (e *Engine) FailurePatterns(ctx context.Context, q schema.Query) ([]schema.FailurePattern, error) {
	const op = "failure patterns"
	since := e.window(q, e.opts.Lookback)
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Since:     &since,
		Partition: q.Partition,
	})
	if err != nil {
		return nil, err
	}
	events, err := e.events(ctx, op, schema.EventQuery{
		MessageType:  schema.ErrorMessageType,
		StartedSince: &since,
		Statuses:     []schema.StatusCode{schema.StatusFailed},
		Partition:    q.Partition,
	})
	if err != nil {
		return nil, err
	}

	latestMessage := make(map[string]schema.EventMessage)
	for _, ev := range events {
		if cur, ok := latestMessage[ev.PackageName]; !ok || newestMessageFirst(ev, cur) < 0 {
			latestMessage[ev.PackageName] = ev
		}
	}

	type acc struct {
		total   int
		pattern schema.FailurePattern
	}
	byPackage := make(map[string]*acc)
	for _, r := range rows {
		a, ok := byPackage[r.PackageName]
		if !ok {
			a = &acc{pattern: schema.FailurePattern{PackageName: r.PackageName}}
			byPackage[r.PackageName] = a
		}
		a.total++
		if r.Status != schema.StatusFailed {
			continue
		}
		a.pattern.FailureCount++
		if r.EndTime != nil && (a.pattern.LastFailureTime == nil || r.EndTime.After(*a.pattern.LastFailureTime)) {
			a.pattern.LastFailureTime = ptr(*r.EndTime)
		}
	}

	var out []schema.FailurePattern
	for name, a := range byPackage {
		if a.pattern.FailureCount == 0 {
			continue
		}
		p := a.pattern
		p.MostCommonError = "N/A"
		if ev, ok := latestMessage[name]; ok && ev.Message != "" {
			p.MostCommonError = ev.Message
		}
		p.FailureRate = algo.Percent(p.FailureCount, a.total)
		out = append(out, p)
	}
	return algo.TopN(out, q.Limit, func(a, b schema.FailurePattern) int {
		if c := algo.Desc(a.FailureCount, b.FailureCount); c != 0 {
			return c
		}
		return cmp.Compare(a.PackageName, b.PackageName)
	}), nil
}

// Timeline returns the executions of the last day as colored bars, newest first.
func (e *Engine) Timeline(ctx context.Context, q schema.Query) ([]schema.ExecutionTimeline, error) {
	const op = "timeline"
	now := e.Now()
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.TimelineLookback)),
		Partition: q.Partition,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(rows, newestRunFirst)
	out := make([]schema.ExecutionTimeline, 0, len(rows))
	for _, r := range rows {
		minutes, err := elapsed(op, r, now, time.Minute)
		if err != nil {
			return nil, err
		}
		out = append(out, schema.ExecutionTimeline{
			ExecutionID:     r.ExecutionID,
			PackageName:     r.PackageName,
			StartTime:       r.StartTime,
			EndTime:         r.EndTime,
			DurationMinutes: minutes,
			Status:          r.Status.String(),
			StatusColor:     schema.TimelineColor(r.Status),
		})
	}
	return out, nil
}

func newestRunFirst(a, b schema.ExecutionRecord) int {
	if c := b.StartTime.Compare(a.StartTime); c != 0 {
		return c
	}
	return cmp.Compare(b.ExecutionID, a.ExecutionID)
}

func newestMessageFirst(a, b schema.EventMessage) int {
	if c := b.MessageTime.Compare(a.MessageTime); c != 0 {
		return c
	}
	return cmp.Compare(b.EventMessageID, a.EventMessageID)
}
