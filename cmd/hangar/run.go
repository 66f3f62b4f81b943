package main

import (
	"context"

	"github.com/aretw0/hangar/internal/cli"
	"github.com/aretw0/hangar/pkg/runner"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [schema]",
	Short: "Load a schema and drive its instances",
	Long: `Loads the schema, prints every define and update, and applies the schema's
drives once per interval until interrupted or --ticks have elapsed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("schema") {
			cfg.Schema = args[0]
		}
		if cmd.Flags().Changed("interval") {
			cfg.Drive.Interval, _ = cmd.Flags().GetDuration("interval")
		}
		if cmd.Flags().Changed("ticks") {
			cfg.Drive.Ticks, _ = cmd.Flags().GetInt("ticks")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		watchMode, _ := cmd.Flags().GetBool("watch")
		quiet, _ := cmd.Flags().GetBool("quiet")

		signals := runner.NewSignalManager(context.Background())
		defer signals.Stop()

		return cli.Execute(signals.Context(), cli.RunOptions{
			Config: cfg,
			Logger: logger,
			JSON:   jsonMode,
			Watch:  watchMode,
			Quiet:  quiet,
			Out:    cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Print events as JSON lines")
	runCmd.Flags().BoolP("watch", "w", false, "Reload when the schema file changes")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
	runCmd.Flags().Duration("interval", 0, "Tick interval (overrides drive.interval)")
	runCmd.Flags().Int("ticks", 0, "Stop after this many ticks (0 = until interrupted)")
}
