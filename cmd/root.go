package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/runlens/core"
	"github.com/huangsam/runlens/core/agg"
	"github.com/huangsam/runlens/internal/catalog"
	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/internal/iocache"
	"github.com/huangsam/runlens/internal/metrics"
	"github.com/huangsam/runlens/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profile holds profiling configuration.
var profile = &contract.ProfileConfig{}

// logger is the process logger, installed globally by sharedSetup.
var logger = zap.NewNop()

// startProfiling starts CPU and memory profiling if enabled.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}

	cpuFile, err := os.Create(profile.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	// Memory profiling will be captured at the end
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profile.Prefix, profile.Prefix)
	return err
}

// stopProfiling stops profiling and writes memory profile.
func stopProfiling() error {
	if !profile.Enabled {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profile.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profile.Prefix)
	return err
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "runlens",
	Short:              "Aggregate and cache analytics over SSIS execution history.",
	Long:               `runlens reads the execution catalog and turns it into cached dashboard metrics and advanced reliability analytics.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// loadConfigFile points viper at the config file and reads it if present.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".runlens") // Name of config file (without extension)
		viper.SetConfigType("yaml")     // We'll use YAML format
		viper.AddConfigPath(".")        // Look in the current directory
		viper.AddConfigPath("$HOME")    // Look in the home directory
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// initConfig sets up ENV variables and defaults.
func initConfig() {
	viper.SetEnvPrefix("RUNLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	viper.SetDefault("catalog-backend", schema.SQLiteBackend)
	viper.SetDefault("catalog-db-connect", "")
	viper.SetDefault("query-timeout", contract.DefaultQueryTimeout.String())
	viper.SetDefault("cache-ttl", contract.DefaultCacheTTL.String())
	viper.SetDefault("cache-single-flight", "no")
	viper.SetDefault("min-executions", contract.DefaultMinExecutions)
	viper.SetDefault("listen", contract.DefaultListenAddr)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "console")
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("color", "yes")
}

// sharedSetup unmarshals config, runs validation and installs the logger.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	if err := contract.ProcessProfilingConfig(profile, viper.GetString("profile")); err != nil {
		return fmt.Errorf("failed to process profiling config: %w", err)
	}
	if profile.Enabled {
		if err := startProfiling(); err != nil {
			return fmt.Errorf("failed to start profiling: %w", err)
		}
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 4. Install the process logger.
	l, err := contract.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = l
	zap.ReplaceGlobals(logger)

	color.NoColor = !cfg.UseColors
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// openCatalog connects to the configured execution catalog.
// An unconfigured catalog is not an error here; queries report it.
func openCatalog(ctx context.Context) (*catalog.Store, error) {
	store, err := catalog.NewStore(ctx, cfg.CatalogBackend, cfg.CatalogDBConnect,
		catalog.WithQueryTimeout(cfg.QueryTimeout),
		catalog.WithLogger(logger.Named("catalog")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return store, nil
}

// newAggregator wires the engine, the result cache and the notifier over store.
func newAggregator(store contract.ExecutionStore, notifier contract.Notifier) *core.Aggregator {
	engine := agg.NewEngine(store,
		agg.WithMinExecutions(cfg.MinExecutions),
		agg.WithLogger(logger.Named("agg")),
	)
	cache := iocache.NewResultCache(
		iocache.WithDefaultTTL(cfg.CacheTTL),
		iocache.WithSingleFlight(cfg.CacheSingleFlight),
		iocache.WithObserver(metrics.CacheObserver{}),
		iocache.WithRecomputeHook(core.RecomputeNotifier(notifier)),
		iocache.WithLogger(logger.Named("cache")),
	)
	// The aggregator keeps its own copy of the TTL table.
	ttl := cfg.Clone()
	return core.NewAggregator(engine, cache,
		core.WithNotifier(notifier),
		core.WithTTL(ttl.TTLFor),
		core.WithLogger(logger.Named("core")),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// StopProfiling stops profiling if enabled.
func StopProfiling() error {
	return stopProfiling()
}
