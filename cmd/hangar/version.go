package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/hangar"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of hangar",
	// Skips config loading so a broken hangar.yaml does not hide the version.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hangar version %s\n", strings.TrimSpace(hangar.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
