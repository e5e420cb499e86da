package main

import (
	"admissions-portal/internal/client"
	"admissions-portal/internal/config"
	"admissions-portal/internal/logging"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	envFiles []string
	cfg      *config.Config
	logger   *slog.Logger
	rootCmd  = &cobra.Command{
		Use:   "admissionsctl",
		Short: "Operator tooling for the admissions portal",
		Long: `admissionsctl runs maintenance tasks against the admissions database:
schema migration, catalog seeding, verification reruns and sweeps, and
issuing API tokens for testing.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment (default: .env)")
	rootCmd.PersistentFlags().String("log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(tokenCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(envFiles...)
	if err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		loaded.Log.Level = level
	}

	// Operator output goes to the terminal regardless of LOG_OUTPUT.
	l, err := logging.Setup(logging.Options{
		Level:  loaded.Log.Level,
		Format: loaded.Log.Format,
		Output: "stdout",
	})
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}

	cfg = loaded
	logger = l
	return nil
}

func openDB() (*gorm.DB, func(), error) {
	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = sqlDB.Close() }, nil
}
