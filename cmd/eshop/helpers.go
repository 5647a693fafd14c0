package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/eshop-analytics/internal/cli"
	"github.com/Veraticus/eshop-analytics/internal/common"
	"github.com/Veraticus/eshop-analytics/internal/config"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/Veraticus/eshop-analytics/internal/session"
	"github.com/Veraticus/eshop-analytics/internal/storage"
	"github.com/spf13/cobra"
)

const dateFlagLayout = "2006-01-02"

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openSession loads the stored working set into a new session. The caller
// closes the returned store.
func openSession(ctx context.Context) (*session.Session, *config.Config, *storage.SQLiteStorage, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	sess := session.New(store, slog.Default())
	if err := sess.Load(ctx); err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}

	return sess, cfg, store, nil
}

// addFilterFlags registers the flags read by filterFromFlags.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "Only sales on or after this date (format: 2006-01-02)")
	cmd.Flags().String("end", "", "Only sales on or before this date (format: 2006-01-02)")
	cmd.Flags().StringSlice("item", nil, "Only these items (repeatable or comma-separated)")
	cmd.Flags().StringSlice("city", nil, "Only these cities (repeatable or comma-separated)")
}

func filterFromFlags(cmd *cobra.Command) (pipeline.Filter, error) {
	var f pipeline.Filter
	var err error

	startStr, _ := cmd.Flags().GetString("start")
	if f.Start, err = parseDateFlag("start", startStr); err != nil {
		return f, err
	}
	endStr, _ := cmd.Flags().GetString("end")
	if f.End, err = parseDateFlag("end", endStr); err != nil {
		return f, err
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return f, common.NewUserError("--end must not be before --start", nil)
	}

	f.Items, _ = cmd.Flags().GetStringSlice("item")
	f.Cities, _ = cmd.Flags().GetStringSlice("city")
	return f, nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFlagLayout, value)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid --%s date %q (use YYYY-MM-DD)", name, value), err)
	}
	return t, nil
}

// reportWarning prints the connectivity warning of a mutation, if any.
func reportWarning(w io.Writer, res session.Result) {
	if res.Warning != nil {
		_, _ = fmt.Fprintln(w, cli.FormatWarning("Changed in memory only; the database was not updated: "+res.Warning.Error()))
	}
}
