package main

import (
	"context"
	"fmt"

	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/pkg/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, s, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		if cfg.Database.Type != "pgsql" {
			if err := s.InitialMigration(ctx); err != nil {
				return fmt.Errorf("running initial migration: %w", err)
			}
			zap.S().Info("Db migrated")
			return nil
		}

		pool, err := store.NewPgxPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := migrations.MigrateStore(ctx, db, cfg.Service.MigrationFolder, pool); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		zap.S().Info("Db migrated")
		return nil
	},
}
