package main

import (
	"context"

	"github.com/aretw0/hangar/internal/cli"
	"github.com/aretw0/hangar/pkg/runner"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server",
	Long: `Loads the schema (if present) and exposes the hangar to Model Context Protocol
clients. Tools list, create, update and destroy instances; types and instances
are also readable as resources. Serves on stdio unless --sse is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sse, _ := cmd.Flags().GetString("sse")
		baseURL, _ := cmd.Flags().GetString("base-url")

		signals := runner.NewSignalManager(context.Background())
		defer signals.Stop()

		return cli.ServeMCP(signals.Context(), cli.MCPOptions{
			Config:  cfg,
			Logger:  logger,
			SSEAddr: sse,
			BaseURL: baseURL,
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("sse", "", "Serve over SSE on this address (e.g. :8081) instead of stdio")
	mcpCmd.Flags().String("base-url", "", "Public base URL for SSE clients (default http://localhost<addr>)")
}
