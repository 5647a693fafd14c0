package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/eshop-analytics/internal/config"
	"github.com/Veraticus/eshop-analytics/internal/geo"
	"github.com/Veraticus/eshop-analytics/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the views and record editing as a JSON API",
		Long: `Start an HTTP server exposing the working set under /api/v1: records
(list, create, update, delete), spreadsheet imports and the customer,
region, item, metrics and trend views. Stops cleanly on Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sess, cfg, store, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cities, err := geo.Load(cfg.CitiesFile)
			if err != nil {
				return err
			}

			api := server.NewWebAPI(slog.Default(), server.Config{
				Dependencies:    server.Dependencies{Session: sess, Geo: cities},
				Addr:            cfg.ServerAddr,
				ImportMode:      cfg.ImportMode,
				ImportChunkSize: cfg.ImportChunkSize,
				ShutdownTimeout: cfg.ShutdownTimeout,
			})

			slog.Info("Serving sales API", "addr", cfg.ServerAddr, "records", len(sess.Records()))
			if err := api.Start(ctx); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default: "+config.DefaultServerAddr+")")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}
