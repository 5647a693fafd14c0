package main

import (
	"fmt"

	"github.com/Veraticus/eshop-analytics/internal/cli"
	"github.com/Veraticus/eshop-analytics/internal/config"
	"github.com/Veraticus/eshop-analytics/internal/geo"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/spf13/cobra"
)

// reportRunner receives the views of the filtered working set.
type reportRunner func(cmd *cobra.Command, cfg *config.Config, views pipeline.Views, records model.Collection) error

// reportCommand wires the shared open-filter-summarize steps around run.
func reportCommand(use, short string, run reportRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, cfg, store, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}

			records := filter.Apply(sess.Records())
			return run(cmd, cfg, sess.Filtered(filter), records)
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func customersCmd() *cobra.Command {
	cmd := reportCommand("customers", "Show customers ranked by total spent",
		func(cmd *cobra.Command, _ *config.Config, views pipeline.Views, _ model.Collection) error {
			top, _ := cmd.Flags().GetInt("top")
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, cli.FormatTitle("Customers"))
			_, _ = fmt.Fprintln(out, cli.CustomersTable(views.Customers, top))
			return nil
		})
	cmd.Flags().Int("top", 0, "Only show the N best customers (0 for all)")
	return cmd
}

func regionsCmd() *cobra.Command {
	return reportCommand("regions", "Show sales per city with map coordinates",
		func(cmd *cobra.Command, cfg *config.Config, views pipeline.Views, _ model.Collection) error {
			cities, err := geo.Load(cfg.CitiesFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, cli.FormatTitle("Regions"))
			_, _ = fmt.Fprintln(out, cli.RegionsTable(cities.Locate(views.Regions)))
			return nil
		})
}

func itemsCmd() *cobra.Command {
	cmd := reportCommand("items", "Show items ranked by revenue",
		func(cmd *cobra.Command, _ *config.Config, views pipeline.Views, _ model.Collection) error {
			top, _ := cmd.Flags().GetInt("top")
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, cli.FormatTitle("Items"))
			_, _ = fmt.Fprintln(out, cli.ItemsTable(views.Items, top))
			return nil
		})
	cmd.Flags().Int("top", 0, "Only show the N best-selling items (0 for all)")
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := reportCommand("dashboard", "Show the headline figures and sales trend",
		func(cmd *cobra.Command, _ *config.Config, views pipeline.Views, records model.Collection) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, cli.RenderDashboard(views.Metrics))

			days, _ := cmd.Flags().GetInt("days")
			if days > 0 {
				_, _ = fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Last %d days", days)))
				_, _ = fmt.Fprintln(out, cli.TrendTable(pipeline.DailyTrend(records, days), model.TrendPoint.DayLabel))
			}
			return nil
		})
	cmd.Flags().Int("days", 0, "Also list daily sales for the last N days with sales")
	return cmd
}
