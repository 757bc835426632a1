package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/runlens/core"
	"github.com/huangsam/runlens/internal/contract"
	"github.com/spf13/cobra"
)

// Default gates of the check command.
const (
	defaultMinReliability = 80.0
	defaultMinSLA         = 85.0
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Enforce reliability and SLA thresholds (exits non-zero on violations)",
	Long: `Check every package against a minimum reliability score and SLA compliance.

Designed for CI/CD and scheduled health checks - fails with a non-zero exit code
when any package falls below a threshold. A threshold of 0 disables that gate.

Default thresholds: reliability 80, SLA compliance 85

Examples:
  # Check with default thresholds
  runlens check

  # Only gate on reliability
  runlens check --min-reliability 90 --min-sla 0`,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		minReliability, _ := cmd.Flags().GetFloat64("min-reliability")
		minSLA, _ := cmd.Flags().GetFloat64("min-sla")
		thresholds := core.CheckThresholds{MinReliability: minReliability, MinSLA: minSLA}
		if thresholds.MinReliability > 100 || thresholds.MinSLA > 100 {
			contract.LogFatal("Invalid thresholds", fmt.Errorf("thresholds must be between 0 and 100"))
		}

		store, err := openCatalog(rootCtx)
		if err != nil {
			contract.LogFatal("Health check failed", err)
		}
		defer func() { _ = store.Close() }()

		result, err := core.ExecuteCheck(rootCtx, newCLIAggregator(store), thresholds, cmd.OutOrStdout())
		if err != nil {
			contract.LogFatal("Health check failed", err)
		}
		if !result.Passed {
			_ = store.Close()
			os.Exit(1)
		}
	},
}
