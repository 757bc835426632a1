package agg

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/huangsam/runlens/core/algo"
	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
)

// ErrorClusters groups the error messages of the window by category and truncated text.
// Groups seen fewer than MinClusterFrequency times are dropped.
func (e *Engine) ErrorClusters(ctx context.Context, q schema.Query) ([]schema.ErrorCluster, error) {
	events, err := e.events(ctx, "error clusters", schema.EventQuery{
		MessageType:  schema.ErrorMessageType,
		MessageSince: ptr(e.window(q, e.opts.Lookback)),
		Partition:    q.Partition,
	})
	if err != nil {
		return nil, err
	}

	type key struct{ category, message string }
	type acc struct {
		cluster  schema.ErrorCluster
		packages map[string]struct{}
	}
	groups := make(map[key]*acc)
	for _, ev := range events {
		k := key{algo.CategorizeError(ev.Message), contract.Truncate(ev.Message, e.opts.ClusterMessageLength)}
		a, ok := groups[k]
		if !ok {
			a = &acc{
				cluster: schema.ErrorCluster{
					ErrorCategory:   k.category,
					ErrorMessage:    k.message,
					FirstOccurrence: ev.MessageTime,
					LastOccurrence:  ev.MessageTime,
				},
				packages: make(map[string]struct{}),
			}
			groups[k] = a
		}
		a.cluster.Frequency++
		if ev.MessageTime.Before(a.cluster.FirstOccurrence) {
			a.cluster.FirstOccurrence = ev.MessageTime
		}
		if ev.MessageTime.After(a.cluster.LastOccurrence) {
			a.cluster.LastOccurrence = ev.MessageTime
		}
		if ev.PackageName != "" {
			a.packages[ev.PackageName] = struct{}{}
		}
	}

	var out []schema.ErrorCluster
	for _, a := range groups {
		if a.cluster.Frequency < e.opts.MinClusterFrequency {
			continue
		}
		c := a.cluster
		c.AffectedPackages = make([]string, 0, len(a.packages))
		for name := range a.packages {
			c.AffectedPackages = append(c.AffectedPackages, name)
		}
		slices.Sort(c.AffectedPackages)
		c.Severity = algo.SeverityTier(c.Frequency)
		out = append(out, c)
	}

	return algo.TopN(out, q.Limit, func(a, b schema.ErrorCluster) int {
		if c := algo.Desc(a.Frequency, b.Frequency); c != 0 {
			return c
		}
		if c := b.LastOccurrence.Compare(a.LastOccurrence); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ErrorCategory, b.ErrorCategory); c != 0 {
			return c
		}
		return cmp.Compare(a.ErrorMessage, b.ErrorMessage)
	}), nil
}

// Correlation finds package pairs that start within CorrelationGap of each other
// on the same day. Each pair is reported once with Package1 < Package2.
func (e *Engine) Correlation(ctx context.Context, q schema.Query) ([]schema.PackageCorrelation, error) {
	rows, err := e.executions(ctx, "correlation", schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.Lookback)),
		Partition: q.Partition,
	})
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time][]schema.ExecutionRecord)
	for _, r := range rows {
		d := algo.Day(r.StartTime)
		byDay[d] = append(byDay[d], r)
	}

	type pair struct{ first, second string }
	type acc struct {
		count   int
		diffSum int64
	}
	pairs := make(map[pair]*acc)
	maxGap := int64(e.opts.CorrelationGap / time.Minute)

	for _, runs := range byDay {
		slices.SortFunc(runs, func(a, b schema.ExecutionRecord) int {
			return a.StartTime.Compare(b.StartTime)
		})
		for i := range runs {
			for j := i + 1; j < len(runs); j++ {
				// Starts are sorted, so every later run is further away.
				diff := algo.DateDiff(runs[i].StartTime, runs[j].StartTime, time.Minute)
				if diff > maxGap {
					break
				}
				a, b := runs[i].PackageName, runs[j].PackageName
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				k := pair{a, b}
				p, ok := pairs[k]
				if !ok {
					p = &acc{}
					pairs[k] = p
				}
				p.count++
				p.diffSum += diff
			}
		}
	}

	// The score is relative to every day with at least one run in the window.
	coveredDays := float64(len(byDay))
	var out []schema.PackageCorrelation
	for k, p := range pairs {
		if p.count < e.opts.MinCoExecutions {
			continue
		}
		out = append(out, schema.PackageCorrelation{
			Package1:                 k.first,
			Package2:                 k.second,
			CoExecutionCount:         p.count,
			CorrelationScore:         algo.Round2(float64(p.count) * 100 / coveredDays),
			AvgTimeDifferenceMinutes: algo.Round2(float64(p.diffSum) / float64(p.count)),
		})
	}

	limit := e.opts.CorrelationLimit
	if q.Limit > 0 && q.Limit < limit {
		limit = q.Limit
	}
	return algo.TopN(out, limit, func(a, b schema.PackageCorrelation) int {
		if c := algo.Desc(a.CoExecutionCount, b.CoExecutionCount); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Package1, b.Package1); c != 0 {
			return c
		}
		return cmp.Compare(a.Package2, b.Package2)
	}), nil
}
