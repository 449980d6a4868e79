// Package main is the entry point for the factual CLI.
//
//	@title			factual API
//	@version		1.0
//	@description	Ranks news articles against a claim by topical similarity and sentiment agreement
//	@host			localhost:8080
//	@BasePath		/api/v1
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixml/factual/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "factual",
		Short:         "factual news matching server",
		Long:          `factual searches the web and news feeds for articles related to a claim and ranks them by topical similarity and sentiment agreement.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
