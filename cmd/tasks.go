package main

import (
	"github.com/spf13/cobra"

	"educonnect/placement-service/internal/app"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire job postings past their expiry date once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			n, err := a.Jobs.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			a.Log.Info("sweep finished", "expired", n)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import-jobs",
	Short: "Run one external job import round and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app.App) error {
			rep, err := a.Importer.Run(cmd.Context())
			if err != nil {
				return err
			}
			a.Log.Info("import finished",
				"fetched", rep.Fetched,
				"inserted", rep.Inserted,
				"filtered", rep.Filtered,
				"duplicates", rep.Duplicates,
				"failed", rep.Failed)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd, importCmd)
}

func withApp(cmd *cobra.Command, fn func(*app.App) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, cleanup, err := app.Initialize(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(a)
}
