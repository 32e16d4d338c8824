package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"educonnect/placement-service/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the gRPC health server and the scheduler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, cleanup, err := app.Initialize(ctx, cfg, log)
		if err != nil {
			log.Error("startup failed", "err", err)
			return err
		}
		defer cleanup()

		return a.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
