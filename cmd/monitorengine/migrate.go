package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/uptimer/internal/config"
	"github.com/alexisbeaulieu97/uptimer/internal/storage/postgres"
)

func newMigrateCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema (monitors, results, scheduler_jobs)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if !cfg.UsesPostgres() {
				return fmt.Errorf("no storage URI configured; set MONGODB_URI to a Postgres DSN")
			}

			ctx := cmd.Context()
			store, err := postgres.Open(ctx, cfg.StorageURI, cfg.ResultsRetention)
			if err != nil {
				return fmt.Errorf("connecting to postgres: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("running migration: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
