package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/ingest"
	"github.com/aretw0/ingest/internal/cli"
	"github.com/aretw0/ingest/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest is a step based wizard for creating repository objects",
	Long: `Ingest walks a user through an ordered sequence of form steps, collects the
metadata and content of new repository objects and creates them at the end.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default "+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().String("store", "", "Session store: memory, file or redis")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the configuration file and applies the persistent flags over it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store.Kind = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, cfg.Validate()
}

// loadStack builds the wizard of a command. Logs always go to Stderr.
func loadStack(cmd *cobra.Command, extra ...ingest.Option) (*cli.Stack, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	logger, err := cli.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, cfg, err
	}
	stack, err := cli.Build(cfg, logger, extra...)
	if err != nil {
		return nil, cfg, err
	}
	return stack, cfg, nil
}
