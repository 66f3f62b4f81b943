package main

import (
	"context"

	"github.com/aretw0/hangar/internal/cli"
	"github.com/aretw0/hangar/pkg/runner"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Loads the schema (if present) and exposes the hangar as a JSON API with a
server-sent event stream at /events and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}
		drive, _ := cmd.Flags().GetBool("drive")

		signals := runner.NewSignalManager(context.Background())
		defer signals.Stop()

		return cli.Serve(signals.Context(), cli.ServeOptions{
			Config: cfg,
			Logger: logger,
			Drive:  drive,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
	serveCmd.Flags().Bool("drive", false, "Apply the schema's drives while serving")
}
