package cmd

import (
	"fmt"
	"time"

	"github.com/huangsam/runlens/internal/catalog"
	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/internal/iocache"
	"github.com/spf13/cobra"
)

// catalogCmd focused on execution catalog management.
//
// Note: SQL Server catalogs belong to the SSIS installation. The migrate and seed
// subcommands only work on self-hosted sqlite, mysql and postgresql catalogs.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the execution catalog connection and self-hosted schema",
	Long: `Inspect the execution catalog and manage self-hosted catalogs.

Subcommands:
  status  - Show the catalog connection and row counts
  migrate - Create or roll back the catalog tables (sqlite, mysql, postgresql)
  seed    - Replace the catalog contents with deterministic demo history

Examples:
  # Set up a local demo catalog
  runlens catalog migrate
  runlens catalog seed --days 30

  # Check a SQL Server catalog
  runlens catalog status --catalog-backend sqlserver --catalog-db-connect "sqlserver://host?database=SSISDB"`,
}

// catalogStatusCmd shows catalog status.
var catalogStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display catalog connection details and row counts",
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		store, err := openCatalog(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to open catalog", err)
		}
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus(rootCtx)
		iocache.PrintCatalogStatus(cmd.OutOrStdout(), status)
		if err != nil {
			contract.LogWarn("Catalog status is incomplete", err)
		}
	},
}

// catalogMigrateCmd runs database migrations for a self-hosted catalog.
var catalogMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run catalog schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of a self-hosted execution catalog.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  runlens catalog migrate

  # Rollback to initial state
  runlens catalog migrate --target-version 0`,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		targetVersion, _ := cmd.Flags().GetInt("target-version")

		store, err := openCatalog(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to open catalog", err)
		}
		defer func() { _ = store.Close() }()

		if err := catalog.Migrate(store.DB(), store.Backend(), targetVersion, cmd.OutOrStdout()); err != nil {
			_ = store.Close()
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// catalogSeedCmd fills a self-hosted catalog with demo history.
var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the catalog contents with deterministic demo history",
	Long: `Generate demo execution history ending now and write it to a self-hosted catalog.

The same --seed and --days always produce the same runs relative to now.
WARNING: This deletes every existing execution and message in the catalog.

Examples:
  runlens catalog seed --days 14 --seed 7`,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		days, _ := cmd.Flags().GetInt("days")
		seed, _ := cmd.Flags().GetUint64("seed")
		if days < 1 {
			contract.LogFatal("Invalid days", fmt.Errorf("--days must be at least 1 (received %d)", days))
		}

		store, err := openCatalog(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to open catalog", err)
		}
		defer func() { _ = store.Close() }()

		data := catalog.GenerateDemo(time.Now(), days, seed)
		if err := catalog.Seed(rootCtx, store.DB(), store.Backend(), data); err != nil {
			_ = store.Close()
			contract.LogFatal("Failed to seed catalog", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d executions and %d messages.\n", len(data.Executions), len(data.Events))
	},
}
