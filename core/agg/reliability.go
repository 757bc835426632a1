package agg

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/huangsam/runlens/core/algo"
	"github.com/huangsam/runlens/schema"
)

// groupByPackage buckets rows by package name.
func groupByPackage(rows []schema.ExecutionRecord) map[string][]schema.ExecutionRecord {
	groups := make(map[string][]schema.ExecutionRecord)
	for _, r := range rows {
		groups[r.PackageName] = append(groups[r.PackageName], r)
	}
	return groups
}

// Reliability scores every package with enough runs in the window.
// The score is the mean of the overall and recent success rates.
func (e *Engine) Reliability(ctx context.Context, q schema.Query) ([]schema.ReliabilityScore, error) {
	now := e.Now()
	rows, err := e.executions(ctx, "reliability", schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.Lookback)),
		Partition: q.Partition,
	})
	if err != nil {
		return nil, err
	}
	recentSince := now.Add(-e.opts.RecentWindow)

	var out []schema.ReliabilityScore
	for name, runs := range groupByPackage(rows) {
		if len(runs) < e.opts.MinExecutions {
			continue
		}
		score := schema.ReliabilityScore{PackageName: name, TotalExecutions: len(runs)}
		var recentTotal, recentSuccess int
		for _, r := range runs {
			succeeded := r.Status == schema.StatusSucceeded
			switch r.Status {
			case schema.StatusSucceeded:
				score.SuccessfulExecutions++
			case schema.StatusFailed:
				score.FailedExecutions++
			}
			if !r.StartTime.Before(recentSince) {
				recentTotal++
				if succeeded {
					recentSuccess++
				}
			}
		}
		score.SuccessRate = algo.Percent(score.SuccessfulExecutions, score.TotalExecutions)
		recentRate := algo.Percent(recentSuccess, recentTotal)
		score.ReliabilityScore = algo.Round2((score.SuccessRate + recentRate) / 2)
		score.Trend = algo.ReliabilityTrend(recentRate, score.SuccessRate)
		out = append(out, score)
	}

	return algo.TopN(out, q.Limit, func(a, b schema.ReliabilityScore) int {
		if c := algo.Desc(a.ReliabilityScore, b.ReliabilityScore); c != 0 {
			return c
		}
		if c := algo.Desc(a.TotalExecutions, b.TotalExecutions); c != 0 {
			return c
		}
		return cmp.Compare(a.PackageName, b.PackageName)
	}), nil
}

// MTBF measures the hours between consecutive failure starts of every package
// with enough runs in the window. Packages without a gap report the ceiling.
func (e *Engine) MTBF(ctx context.Context, q schema.Query) ([]schema.MTBFRecord, error) {
	rows, err := e.executions(ctx, "mtbf", schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.Lookback)),
		Partition: q.Partition,
	})
	if err != nil {
		return nil, err
	}

	var out []schema.MTBFRecord
	for name, runs := range groupByPackage(rows) {
		if len(runs) < e.opts.MinExecutions {
			continue
		}
		var failures []time.Time
		for _, r := range runs {
			if r.Status == schema.StatusFailed {
				failures = append(failures, r.StartTime)
			}
		}
		slices.SortFunc(failures, time.Time.Compare)

		mtbf := float64(algo.MTBFCeilingHours)
		if len(failures) > 1 {
			gaps := make([]int64, 0, len(failures)-1)
			for i := 1; i < len(failures); i++ {
				gaps = append(gaps, algo.DateDiff(failures[i-1], failures[i], time.Hour))
			}
			mtbf = algo.Round2(algo.Mean(gaps))
		}

		rec := schema.MTBFRecord{
			PackageName:             name,
			MeanTimeBetweenFailures: mtbf,
			AvailabilityPercentage:  algo.Percent(len(runs)-len(failures), len(runs)),
			FailureCount:            len(failures),
			Status:                  algo.MTBFTier(mtbf),
		}
		if len(failures) > 0 {
			rec.LastFailure = ptr(failures[len(failures)-1])
		}
		out = append(out, rec)
	}

	return algo.TopN(out, q.Limit, func(a, b schema.MTBFRecord) int {
		if c := algo.Desc(a.MeanTimeBetweenFailures, b.MeanTimeBetweenFailures); c != 0 {
			return c
		}
		return cmp.Compare(a.PackageName, b.PackageName)
	}), nil
}

// SLACompliance infers a duration threshold per package from its successful runs
// and reports how many runs stayed within it.
func (e *Engine) SLACompliance(ctx context.Context, q schema.Query) ([]schema.SLACompliance, error) {
	const op = "sla compliance"
	now := e.Now()
	rows, err := e.executions(ctx, op, schema.ExecutionQuery{
		Since:     ptr(e.window(q, e.opts.Lookback)),
		Statuses:  []schema.StatusCode{schema.StatusSucceeded},
		Finished:  true,
		Partition: q.Partition,
	})
	if err != nil {
		return nil, err
	}

	var out []schema.SLACompliance
	for name, runs := range groupByPackage(rows) {
		if len(runs) < e.opts.MinExecutions {
			continue
		}
		minutes := make([]int64, 0, len(runs))
		for _, r := range runs {
			m, err := elapsed(op, r, now, time.Minute)
			if err != nil {
				return nil, err
			}
			minutes = append(minutes, m)
		}

		threshold := algo.PercentileCont(minutes, e.opts.SLAPercentile) * e.opts.SLAHeadroom
		compliant := 0
		for _, m := range minutes {
			if float64(m) <= threshold {
				compliant++
			}
		}
		pct := algo.Percent(compliant, len(minutes))
		out = append(out, schema.SLACompliance{
			PackageName:          name,
			SLAThresholdMinutes:  algo.Round2(threshold),
			AvgExecutionMinutes:  algo.Round2(algo.Mean(minutes)),
			TotalExecutions:      len(minutes),
			CompliantExecutions:  compliant,
			CompliancePercentage: pct,
			ComplianceStatus:     algo.SLATier(pct),
		})
	}

	return algo.TopN(out, q.Limit, func(a, b schema.SLACompliance) int {
		if c := algo.Desc(a.CompliancePercentage, b.CompliancePercentage); c != 0 {
			return c
		}
		return cmp.Compare(a.PackageName, b.PackageName)
	}), nil
}
