// Package cmd defines the command-line interface for runlens.
package cmd

import (
	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the catalog subcommands to the parent catalog command
	catalogCmd.AddCommand(catalogMigrateCmd)
	catalogCmd.AddCommand(catalogStatusCmd)
	catalogCmd.AddCommand(catalogSeedCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("catalog-backend", string(schema.SQLiteBackend), "Catalog backend: sqlserver or postgresql or mysql or sqlite or none")
	rootCmd.PersistentFlags().String("catalog-db-connect", "", "Catalog connection string (e.g., sqlserver://host?database=SSISDB)")
	rootCmd.PersistentFlags().String("query-timeout", contract.DefaultQueryTimeout.String(), "Timeout of a single catalog query")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "Default time to live of cached results")
	rootCmd.PersistentFlags().String("ttl-override", "", "Per-metric cache TTLs (format: 'metrics:10s,trends:1m')")
	rootCmd.PersistentFlags().String("cache-single-flight", "no", "Share one computation between concurrent misses of a key (yes/no)")
	rootCmd.PersistentFlags().Int("min-executions", contract.DefaultMinExecutions, "Minimum executions per package for reliability, MTBF and SLA")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of rows to display per table")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "Address the HTTP API listens on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// The dashboard reads its partition through viper, the metric flags stay local
	dashboardCmd.Flags().StringP("business-unit", "b", "", "Business unit to filter by (ClientRepo, ChartNav, EDS, HIM, Uncategorized)")
	if err := viper.BindPFlag("business-unit", dashboardCmd.Flags().Lookup("business-unit")); err != nil {
		contract.LogFatal("Error binding dashboard flags", err)
	}
	dashboardCmd.Flags().StringP("metric", "m", "", "Show a single dashboard metric")
	analyticsCmd.Flags().StringP("metric", "m", "", "Show a single analytics metric")

	checkCmd.Flags().Float64("min-reliability", defaultMinReliability, "Lowest acceptable reliability score (0 disables)")
	checkCmd.Flags().Float64("min-sla", defaultMinSLA, "Lowest acceptable SLA compliance percentage (0 disables)")

	catalogMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	catalogSeedCmd.Flags().Int("days", 30, "Days of demo history to generate")
	catalogSeedCmd.Flags().Uint64("seed", 42, "Seed of the demo history generator")
}
