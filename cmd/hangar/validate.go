package main

import (
	"fmt"

	"github.com/aretw0/hangar/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [schema]",
	Short: "Check a schema for consistency",
	Long: `Parses the schema, registers its types and creates its instances in a scratch
hangar. Structural problems fail the command; instances that are created
invalid are listed, and fail it only with --strict.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Schema
		if len(args) > 0 {
			path = args[0]
		}
		strict, _ := cmd.Flags().GetBool("strict")

		invalid, err := cli.Validate(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		out := cmd.OutOrStdout()
		for _, line := range invalid {
			fmt.Fprintf(out, "invalid: %s\n", line)
		}
		if strict && len(invalid) > 0 {
			return fmt.Errorf("%d invalid instance(s)", len(invalid))
		}
		fmt.Fprintln(out, "Schema is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Fail when any instance is created invalid")
}
