package main

import (
	"admissions-portal/internal/client"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Migrate applies the schema for every table the portal uses. It is safe to run
repeatedly and does not drop columns.`,
		RunE: runMigrate,
	}
}

func runMigrate(_ *cobra.Command, _ []string) error {
	db, closeDB, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := client.Migrate(db); err != nil {
		return err
	}

	logger.Info("schema migrated", slog.String("driver", cfg.Database.Driver))
	fmt.Println("✅ Database schema is up to date")
	return nil
}
