package main

import (
	"fmt"

	"github.com/Veraticus/eshop-analytics/internal/cli"
	"github.com/Veraticus/eshop-analytics/internal/export"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file.csv|file.xlsx>",
		Short: "Export sales to CSV or an XLSX workbook",
		Long: `Export the working set to a file. A .csv file receives the sale records
with their recomputed totals and can be imported again. A .xlsx file
receives a workbook with one sheet per view: customers, regions, items,
monthly trend and records.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, store, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}

			records := filter.Apply(sess.Records())
			if err := export.ToFile(args[0], sess.Filtered(filter), records); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d records to %s", len(records), args[0])))
			return nil
		},
	}

	addFilterFlags(cmd)

	return cmd
}
