package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/runlens/schema"
)

// ExecuteCheck runs the reliability and SLA gate for CI/CD.
// The result is printed to w; callers decide how a failed check exits.
func ExecuteCheck(ctx context.Context, a *Aggregator, thresholds CheckThresholds, w io.Writer) (*schema.CheckResult, error) {
	start := time.Now()

	builder, err := NewCheckResultBuilder(ctx, a, thresholds).FetchScores()
	if err != nil {
		return nil, err
	}
	result := builder.Evaluate().GetResult()
	printCheckResult(w, result, time.Since(start))
	return result, nil
}

// printCheckResult prints the check result in a concise format suitable for CI/CD.
func printCheckResult(w io.Writer, result *schema.CheckResult, duration time.Duration) {
	printCheckHeader(w, result, duration)

	if result.Passed {
		printCheckSuccess(w, result)
	} else {
		printCheckFailure(w, result)
	}
}

// printCheckHeader prints the common header information for check results.
func printCheckHeader(w io.Writer, result *schema.CheckResult, duration time.Duration) {
	_, _ = fmt.Fprintln(w, "Check Results:")

	// Define labels and values for dynamic padding
	labels := []string{"Min Reliability:", "Min SLA:"}
	values := []string{threshold(result.MinReliability), threshold(result.MinSLA)}

	maxLabelLen := 0
	for _, label := range labels {
		maxLabelLen = max(maxLabelLen, len(label))
	}
	for i, label := range labels {
		_, _ = fmt.Fprintf(w, "  %-*s %s\n", maxLabelLen+1, label, values[i])
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintf(w, "Checked %d packages in %v\n\n", result.CheckedPackages, duration.Round(time.Millisecond))
}

func threshold(v float64) string {
	if v <= 0 {
		return "off"
	}
	return fmt.Sprintf("%.2f", v)
}

// printCheckSuccess prints the success case output.
func printCheckSuccess(w io.Writer, result *schema.CheckResult) {
	_, _ = fmt.Fprintf(w, "✅ All packages passed\n\n")
	if len(result.LowestScores) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "Lowest scores observed:")
	for _, metric := range []schema.MetricName{schema.MetricReliability, schema.MetricSLACompliance} {
		score, ok := result.LowestScores[metric]
		if !ok {
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s: %.2f (%s)\n", metric, score, result.LowestPackages[metric])
	}
}

// printCheckFailure prints the failure case output.
func printCheckFailure(w io.Writer, result *schema.CheckResult) {
	_, _ = fmt.Fprintf(w, "❌ Check failed: %d violation(s) across %d packages\n\n", len(result.Violations), result.CheckedPackages)

	groups := make(map[schema.MetricName][]schema.CheckViolation)
	for _, v := range result.Violations {
		groups[v.Metric] = append(groups[v.Metric], v)
	}

	for _, metric := range []schema.MetricName{schema.MetricReliability, schema.MetricSLACompliance} {
		violations := groups[metric]
		if len(violations) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "Metric: %s (%d violations)\n", metric, len(violations))

		// Show the worst 5, with "... and X more" if needed
		const maxToShow = 5
		for i, v := range violations {
			if i == maxToShow {
				_, _ = fmt.Fprintf(w, "  ... and %d more\n", len(violations)-maxToShow)
				break
			}
			_, _ = fmt.Fprintf(w, "  - %s (%.2f < threshold: %.2f)\n", v.PackageName, v.Value, v.Threshold)
		}
		_, _ = fmt.Fprintln(w)
	}
}
