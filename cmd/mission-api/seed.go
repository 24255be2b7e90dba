package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/auth"
	"github.com/servicemarket/missions/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tokenTTL time.Duration

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert development users and an offering",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, s, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		if cfg.Database.Type != "pgsql" {
			if err := s.InitialMigration(ctx); err != nil {
				return fmt.Errorf("running initial migration: %w", err)
			}
		}
		if err := s.Seed(ctx); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
		zap.S().Infow("seeded", "offering_id", store.SeedOfferingID)

		if cfg.Service.Auth.AuthenticationType != "local" {
			return nil
		}

		accounts := []struct {
			id   uuid.UUID
			role string
			name string
		}{
			{store.SeedAdminID, auth.RoleAdmin, "admin"},
			{store.SeedClientID, auth.RoleClient, "client"},
			{store.SeedProviderID, auth.RoleProvider, "provider"},
		}
		for _, a := range accounts {
			token, err := auth.GenerateLocalToken([]byte(cfg.Service.Auth.LocalSecret), a.id, a.role, a.name, tokenTTL)
			if err != nil {
				return fmt.Errorf("signing token for %s: %w", a.name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", a.name, a.id, token)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "Lifetime of the printed local tokens")
}
