package main

import (
	"github.com/spf13/cobra"

	"educonnect/placement-service/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx := cmd.Context()
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: 2})
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := db.Migrate(ctx, pool)
		if err != nil {
			log.Error("migration failed", "applied", applied, "err", err)
			return err
		}
		if len(applied) == 0 {
			log.Info("schema up to date")
			return nil
		}
		log.Info("migrations applied", "versions", applied)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
