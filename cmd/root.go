package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"educonnect/placement-service/internal/config"
	"educonnect/placement-service/internal/logging"
)

const appName = "placement"

var (
	debug bool

	rootCmd = &cobra.Command{
		Use:          appName,
		Short:        "EduConnect placement service",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "force debug logging")
}

// bootstrap loads configuration and builds the logger every subcommand
// shares.
func bootstrap() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	return cfg, logging.New(level, cfg.LogFormat).With("service", appName), nil
}
