package cmd

import (
	"github.com/huangsam/runlens/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the runlens MCP server",
	Long:  `Launch an MCP server on stdio that lets AI agents query dashboard metrics, analytics and health checks via standard tools.`,
	// Logs go to stderr, so stdout stays reserved for the protocol.
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := openCatalog(rootCtx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return mcp.StartMCPServer(rootCtx, newCLIAggregator(store), version)
	},
}
