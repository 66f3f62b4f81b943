package main

import (
	"github.com/aretw0/hangar/internal/cli"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [id...]",
	Short: "Show mirrored instance snapshots",
	Long:  `Reads instance snapshots from the configured store (redis or sqlite) and prints them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]domain.ID, 0, len(args))
		for _, arg := range args {
			id, err := domain.ParseID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		return cli.Inspect(cmd.Context(), cfg, ids, jsonMode, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("json", false, "Print snapshots as JSON")
}
