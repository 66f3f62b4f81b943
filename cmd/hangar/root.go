package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/hangar/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hangar",
	Short: "Hangar runs typed instances through their lifecycle",
	Long: `Hangar registers types and instances from a YAML or JSON schema, drives
their fields over time and notifies observers of every define, update and
delete. Settings come from hangar.yaml, HANGAR_* variables and flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("config")
		v := config.New(file)
		// Flags win over the file and the environment.
		for key, flag := range map[string]string{
			"schema":        "schema",
			"log.level":     "log-level",
			"log.format":    "log-format",
			"store.backend": "store",
		} {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return err
			}
		}

		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = cfg.Logger()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./hangar.yaml)")
	rootCmd.PersistentFlags().StringP("schema", "s", "", "Schema file with types, instances and drives")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().String("store", "", "Snapshot store: "+strings.Join(config.ValidBackends(), ", "))
}
