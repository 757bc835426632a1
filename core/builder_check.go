package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/runlens/core/agg"
	"github.com/huangsam/runlens/schema"
)

// CheckThresholds are the lowest acceptable scores. A threshold of zero or less is not checked.
type CheckThresholds struct {
	MinReliability float64
	MinSLA         float64
}

// CheckResultBuilder builds the check result using a builder pattern.
type CheckResultBuilder struct {
	ctx         context.Context
	agg         *Aggregator
	thresholds  CheckThresholds
	reliability []schema.ReliabilityScore
	sla         []schema.SLACompliance
	result      *schema.CheckResult
}

// NewCheckResultBuilder creates a new builder for check results.
func NewCheckResultBuilder(ctx context.Context, a *Aggregator, thresholds CheckThresholds) *CheckResultBuilder {
	return &CheckResultBuilder{ctx: ctx, agg: a, thresholds: thresholds}
}

// FetchScores loads reliability and SLA compliance through the cache.
func (b *CheckResultBuilder) FetchScores() (*CheckResultBuilder, error) {
	var err error
	if b.thresholds.MinReliability > 0 {
		b.reliability, err = load(b.ctx, b.agg, schema.MetricReliability, schema.Query{}, (*agg.Engine).Reliability)
		if err != nil {
			return nil, fmt.Errorf("failed to load reliability scores: %w", err)
		}
	}
	if b.thresholds.MinSLA > 0 {
		b.sla, err = load(b.ctx, b.agg, schema.MetricSLACompliance, schema.Query{}, (*agg.Engine).SLACompliance)
		if err != nil {
			return nil, fmt.Errorf("failed to load SLA compliance: %w", err)
		}
	}
	return b, nil
}

// Evaluate compares every package against the thresholds.
func (b *CheckResultBuilder) Evaluate() *CheckResultBuilder {
	result := &schema.CheckResult{
		MinReliability: b.thresholds.MinReliability,
		MinSLA:         b.thresholds.MinSLA,
		LowestScores:   make(map[schema.MetricName]float64),
		LowestPackages: make(map[schema.MetricName]string),
	}
	packages := make(map[string]struct{})

	observe := func(metric schema.MetricName, name string, value, threshold float64) {
		packages[name] = struct{}{}
		if lowest, ok := result.LowestScores[metric]; !ok || value < lowest {
			result.LowestScores[metric] = value
			result.LowestPackages[metric] = name
		}
		if value < threshold {
			result.Violations = append(result.Violations, schema.CheckViolation{
				PackageName: name,
				Metric:      metric,
				Value:       value,
				Threshold:   threshold,
			})
		}
	}
	for _, r := range b.reliability {
		observe(schema.MetricReliability, r.PackageName, r.ReliabilityScore, b.thresholds.MinReliability)
	}
	for _, s := range b.sla {
		observe(schema.MetricSLACompliance, s.PackageName, s.CompliancePercentage, b.thresholds.MinSLA)
	}

	slices.SortFunc(result.Violations, func(x, y schema.CheckViolation) int {
		return cmp.Or(
			cmp.Compare(x.Metric, y.Metric),
			cmp.Compare(x.Value, y.Value),
			cmp.Compare(x.PackageName, y.PackageName),
		)
	})
	result.CheckedPackages = len(packages)
	result.Passed = len(result.Violations) == 0
	b.result = result
	return b
}

// GetResult returns the built result, or nil before Evaluate.
func (b *CheckResultBuilder) GetResult() *schema.CheckResult {
	return b.result
}
