package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"runtrail/config"
	loggerv2 "runtrail/logger/v2"
)

var rootCmd = &cobra.Command{
	Use:   "runtrail",
	Short: "Run-tree tracing client for the run collector",
	Long: `runtrail records chains of LLM calls, tool invocations and agent
decisions as hierarchical run trees and ships them to a remote collector.

This CLI exercises the export pipeline against a configured collector.

Examples:
  # Verify the collector accepts a synthetic run tree
  runtrail check

  # Show the resolved configuration
  runtrail env`,
}

var (
	flagEndpoint string
	flagSession  string
	flagLogLevel string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "collector endpoint (overrides RUNTRAIL_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session", "", "session name (overrides RUNTRAIL_SESSION)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	_ = viper.BindPFlag("session", rootCmd.PersistentFlags().Lookup("session"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(envCmd)
}

// loadConfig resolves environment configuration and applies flag overrides.
func loadConfig() (config.Config, loggerv2.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}

	if flagEndpoint != "" {
		cfg.Endpoint = flagEndpoint
	}
	if flagSession != "" {
		cfg.SessionName = flagSession
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	logger, err := loggerv2.New(loggerv2.Config{Level: cfg.LogLevel, Format: "text"})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
