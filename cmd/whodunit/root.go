package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/aretw0/whodunit/internal/config"
	"github.com/aretw0/whodunit/internal/logging"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "whodunit",
	Short:         "Whodunit is a turn-based murder mystery",
	Long:          `Whodunit casts you as the detective (or the killer) in a generated murder mystery, played one turn at a time against LLM-driven suspects.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		environ := env.ToMap(os.Environ())
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			environ[config.FileEnv] = path
		}
		dotenv, _ := cmd.Flags().GetString("env-file")

		var err error
		cfg, err = config.LoadFrom(dotenv, environ)
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.App.LogLevel = lvl
		}
		level, err := cfg.Level()
		if err != nil {
			return err
		}
		if jsonLogs, _ := cmd.Flags().GetBool("log-json"); jsonLogs {
			logger = logging.NewJSON(level)
		} else {
			logger = logging.New(level)
		}
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file (overrides "+config.FileEnv+")")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file to read")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")
}
