package cmd

import (
	"fmt"

	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/internal/parquet"
	"github.com/huangsam/runlens/schema"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// exportCmd exports the current dashboard and analytics snapshots to Parquet files.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export dashboard and analytics tables to Parquet for BI tools",
	Long: `Export the current dashboard and analytics snapshots to Parquet files.

Writes four tables named <output-file>_<table>.parquet:
- executions - recent executions of the selected business unit
- package_performance - per package counts, success rate and durations
- package_health - reliability, MTBF and SLA compliance joined by package
- error_clusters - grouped error messages with affected packages

Requires: --output-file parameter (used as the file prefix)

Examples:
  # Export everything
  runlens export --output-file runlens

  # Query with DuckDB
  duckdb -c "SELECT * FROM read_parquet('runlens_package_health.parquet') LIMIT 10"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := runExport(); err != nil {
			contract.LogFatal("Failed to export", err)
		}
	},
}

func runExport() error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required")
	}

	store, err := openCatalog(rootCtx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	a := newCLIAggregator(store)

	var (
		dash schema.DashboardSnapshot
		adv  schema.AdvancedSnapshot
	)
	g, ctx := errgroup.WithContext(rootCtx)
	g.Go(func() (err error) {
		dash, err = a.LoadDashboard(ctx, cfg.BusinessUnit)
		return err
	})
	g.Go(func() (err error) {
		adv, err = a.LoadAdvancedAnalytics(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	written, err := parquet.ExportSnapshots(dash, adv, cfg.OutputFile)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}
