package main

import (
	"os"

	"github.com/aretw0/hangar/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var describeCmd = &cobra.Command{
	Use:   "describe [schema]",
	Short: "Summarise a schema",
	Long: `Prints the schema's types, instances and drives. On a terminal the summary is
rendered as styled markdown; --format selects markdown, terminal or mermaid.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Schema
		if len(args) > 0 {
			path = args[0]
		}

		format, _ := cmd.Flags().GetString("format")
		width := 0
		fd := int(os.Stdout.Fd())
		if term.IsTerminal(fd) {
			if w, _, err := term.GetSize(fd); err == nil {
				width = w
			}
		}
		if format == "" {
			format = cli.DescribeMarkdown
			if width > 0 {
				format = cli.DescribeTerminal
			}
		}

		return cli.Describe(cmd.Context(), path, format, width, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringP("format", "f", "", "Output format: markdown, terminal or mermaid")
}
