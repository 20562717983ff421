package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/ayush/conduit/backend/internal/config"
	"github.com/ayush/conduit/backend/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostgreSQL tables if they don't exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.NewPostgresStore(db).Migrate(ctx); err != nil {
			return err
		}
		logger.Sugar().Info("schema is up to date")
		return nil
	},
}

func openPostgres(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}
	return store.OpenPostgres(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
}
