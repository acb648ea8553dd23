package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		apiKey := "(unset)"
		if cfg.APIKey != "" {
			apiKey = "(redacted)"
		}
		tenant := cfg.TenantID
		if tenant == "" {
			tenant = "(resolved from collector on first use)"
		}

		fmt.Printf("endpoint:     %s\n", cfg.Endpoint)
		fmt.Printf("api key:      %s\n", apiKey)
		fmt.Printf("tenant id:    %s\n", tenant)
		fmt.Printf("session:      %s\n", cfg.SessionName)
		fmt.Printf("concurrency:  %d\n", cfg.Concurrency)
		fmt.Printf("max retries:  %d\n", cfg.MaxRetries)
		fmt.Printf("log level:    %s\n", cfg.LogLevel)
		return nil
	},
}
