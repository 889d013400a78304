package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/templui/claimguard/internal/config"
	"github.com/templui/claimguard/internal/db"
	"github.com/templui/claimguard/internal/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the claimguard database schema",
	}

	rootCmd.AddCommand(migrateCmd("up", "Apply all pending migrations", db.RunMigrations))
	rootCmd.AddCommand(migrateCmd("down", "Roll back the most recent migration", db.MigrateDown))
	rootCmd.AddCommand(migrateCmd("status", "Show applied and pending migrations", db.MigrationStatus))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type migrateFunc func(ctx context.Context, database *sql.DB, driver string) error

func migrateCmd(use, short string, fn migrateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Init(logger.Options{Development: cfg.IsDevelopment()})

			ctx := cmd.Context()
			database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			return fn(ctx, database.DB, cfg.DBDriver)
		},
	}
}
