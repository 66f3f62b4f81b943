package main

import (
	"github.com/aretw0/hangar/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [schema]",
	Short: "Print a Mermaid diagram of a schema",
	Long:  `Shortcut for describe --format mermaid. Paste the output into any Mermaid renderer.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Schema
		if len(args) > 0 {
			path = args[0]
		}
		return cli.Describe(cmd.Context(), path, cli.DescribeMermaid, 0, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
