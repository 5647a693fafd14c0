package main

import (
	"github.com/Veraticus/eshop-analytics/internal/geo"
	"github.com/Veraticus/eshop-analytics/internal/tui"
	"github.com/spf13/cobra"
)

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the views in an interactive terminal UI",
		Long: `Open a full-screen browser with one tab per view. Use tab and shift+tab
to switch views, the arrow keys to move, d on the Records tab to delete
the selected record and ? for help.`,
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

			return tui.Run(ctx, sess, cities)
		},
	}
}
