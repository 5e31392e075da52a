package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"myelinfc/internal"
	"myelinfc/internal/config"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	var envFile string
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "myelinfc",
		Short:         "Myelin/FC coupling regression and dominance analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := config.LoadDotEnv(envFile); err != nil {
					return err
				}
			} else if err := config.LoadDotEnv(); err != nil {
				return err
			}
			level := os.Getenv("LOG_LEVEL")
			if cmd.Flags().Changed("log-level") {
				level = logLevel
			}
			internal.DefaultLogger.SetLevel(internal.ParseLogLevel(level))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file to load (default .env when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "ERROR, WARN, INFO, DEBUG or TRACE")

	rootCmd.AddCommand(
		newRunCmd(),
		newSynthCmd(),
		newHistoryCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
