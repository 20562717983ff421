package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayush/conduit/backend/internal/seed"
	"github.com/ayush/conduit/backend/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo user and articles",
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

		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		return seed.Run(ctx, pg, logger.Sugar())
	},
}
