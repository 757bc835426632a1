package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/runlens/core"
	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/internal/iocache"
	"github.com/huangsam/runlens/internal/outwriter"
	"github.com/huangsam/runlens/schema"
	"github.com/spf13/cobra"
)

// dashboardCmd prints the dashboard metrics of one partition.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show execution metrics, trends, errors and package performance",
	Long: `Load every dashboard metric for the last 30 days in one pass.

Includes:
- Summary counts and success rate
- Daily trends and the recent error log
- Recent, last executed and currently running executions
- Package performance, failure patterns and the 24h timeline

Examples:
  # Everything across all packages
  runlens dashboard

  # One business unit as JSON
  runlens dashboard --business-unit EDS --output json

  # A single metric
  runlens dashboard --metric package_performance`,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		metric, _ := cmd.Flags().GetString("metric")
		if err := runDashboard(metric); err != nil {
			contract.LogFatal("Cannot load dashboard", err)
		}
	},
}

func runDashboard(rawMetric string) error {
	store, err := openCatalog(rootCtx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	a := newCLIAggregator(store)
	writer := outwriter.NewOutWriter()
	start := time.Now()

	if rawMetric != "" {
		metric, err := parseMetric(rawMetric, false)
		if err != nil {
			return err
		}
		value, err := a.Fetch(rootCtx, metric, cfg.BusinessUnit)
		if err != nil {
			return err
		}
		defer printCacheStats(a)
		return writer.WriteMetric(metric, value, cfg, time.Since(start))
	}

	snap, err := a.LoadDashboard(rootCtx, cfg.BusinessUnit)
	if err != nil {
		return err
	}
	defer printCacheStats(a)
	return writer.WriteDashboard(snap, cfg, time.Since(start))
}

// parseMetric resolves a metric name and checks that it belongs to the requested family.
func parseMetric(raw string, advanced bool) (schema.MetricName, error) {
	metric, ok := schema.ParseMetricName(raw)
	if !ok || metric.IsAdvanced() != advanced {
		family := schema.DashboardMetrics
		if advanced {
			family = schema.AdvancedMetrics
		}
		return "", fmt.Errorf("unknown metric %q, expected one of %v", raw, family)
	}
	return metric, nil
}

// newCLIAggregator is the aggregator used by one-shot commands; nothing listens for pushes.
func newCLIAggregator(store contract.ExecutionStore) *core.Aggregator {
	return newAggregator(store, contract.NopNotifier{})
}

// printCacheStats reports what the command computed when debugging.
func printCacheStats(a *core.Aggregator) {
	if cfg.LogLevel != "debug" {
		return
	}
	iocache.PrintCacheStatus(os.Stderr, a.CacheStatus())
}
