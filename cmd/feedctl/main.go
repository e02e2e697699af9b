// Command feedctl runs schema migrations and counter reconciliation against
// the postgres store.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/genz-feed/api-go/config"
	"github.com/genz-feed/api-go/services"
	"github.com/genz-feed/api-go/store"
)

var (
	databaseURL string
	postID      uint
	workers     int
	verbose     bool

	rootCmd = &cobra.Command{
		Use:          "feedctl",
		Short:        "Operate the feed database",
		SilenceUsage: true,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
	}
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  withDB(config.Migrate),
	}
	migrateDownCmd = &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE:  withDB(config.MigrateDown),
	}
	migrateStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  withDB(config.MigrationStatus),
	}

	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute like and comment counters from their rows",
		RunE:  runReconcile,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	reconcileCmd.Flags().UintVar(&postID, "post", 0, "reconcile a single post")
	reconcileCmd.Flags().IntVar(&workers, "workers", 4, "posts reconciled in parallel")
	reconcileCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every healed post")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd, reconcileCmd)
}

func openDB(ctx context.Context) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	return config.OpenSQL(ctx, databaseURL)
}

func withDB(fn func(*sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(db)
	}
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	gdb, err := config.OpenGorm(db)
	if err != nil {
		db.Close()
		return err
	}
	s := store.NewGormStore(gdb)
	defer s.Close()

	reconciler := services.NewReconciler(s, workers, services.WithLogger(config.NewLogger(slog.LevelInfo)))
	out := json.NewEncoder(cmd.OutOrStdout())
	out.SetIndent("", "  ")

	if postID != 0 {
		drift, err := reconciler.ReconcilePost(ctx, postID)
		if err != nil {
			return err
		}
		return out.Encode(drift)
	}

	report, err := reconciler.ReconcileAll(ctx)
	if err != nil {
		return err
	}
	if !verbose {
		report.Drifts = nil
	}
	return out.Encode(report)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
