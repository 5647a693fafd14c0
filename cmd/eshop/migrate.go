package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/eshop-analytics/internal/cli"
	"github.com/Veraticus/eshop-analytics/internal/config"
	"github.com/Veraticus/eshop-analytics/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the required
tables and indexes for the application to function properly.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		lines := fmt.Sprintf("Database:        %s\nCurrent version: %d\nLatest version:  %d",
			store.Path(), current, storage.ExpectedSchemaVersion)
		_, _ = fmt.Fprintln(out, cli.RenderBox(cli.FolderIcon+" Database Migration Status", lines))
		if current < storage.ExpectedSchemaVersion {
			_, _ = fmt.Fprintln(out, cli.FormatWarning("Pending migrations; run 'eshop migrate' to apply them."))
		}
		return nil
	}

	slog.Info("Running database migrations", "database", store.Path())

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	_, _ = fmt.Fprintln(out, cli.FormatSuccess("Database migrations completed successfully!"))
	return nil
}
