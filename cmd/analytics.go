package cmd

import (
	"time"

	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/internal/outwriter"
	"github.com/spf13/cobra"
)

// analyticsCmd prints the advanced analytics.
var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show reliability, MTBF, error clusters, SLA compliance and load patterns",
	Long: `Load the advanced analytics over every package in one pass.

Includes:
- Reliability scores with recent trend
- Mean time between failures and availability
- Error clusters by category
- SLA compliance against a P95 based threshold
- Performance trends, the hour by weekday heatmap, package correlation and hourly utilization

Packages with fewer than --min-executions runs are left out of reliability, MTBF and SLA.

Examples:
  # All analytics as tables
  runlens analytics

  # One metric as CSV
  runlens analytics --metric sla_compliance --output csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		metric, _ := cmd.Flags().GetString("metric")
		if err := runAnalytics(metric); err != nil {
			contract.LogFatal("Cannot load analytics", err)
		}
	},
}

func runAnalytics(rawMetric string) error {
	store, err := openCatalog(rootCtx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	a := newCLIAggregator(store)
	writer := outwriter.NewOutWriter()
	start := time.Now()

	if rawMetric != "" {
		metric, err := parseMetric(rawMetric, true)
		if err != nil {
			return err
		}
		value, err := a.Fetch(rootCtx, metric, "")
		if err != nil {
			return err
		}
		defer printCacheStats(a)
		return writer.WriteMetric(metric, value, cfg, time.Since(start))
	}

	snap, err := a.LoadAdvancedAnalytics(rootCtx)
	if err != nil {
		return err
	}
	defer printCacheStats(a)
	return writer.WriteAnalytics(snap, cfg, time.Since(start))
}
