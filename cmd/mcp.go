package cmd

import (
	"github.com/huangsam/boardline/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the boardline MCP server",
	Long: `Launch an MCP server over stdio so AI agents can lay out boards,
hide items, drag them and reschedule them via standard tools.

Every tool call names its own board file; the flags given here become
the defaults for each call.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Stdio carries the protocol, so nothing else may write to stdout.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
