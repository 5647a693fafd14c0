package main

import (
	"fmt"

	"github.com/Veraticus/eshop-analytics/internal/cli"
	"github.com/Veraticus/eshop-analytics/internal/common"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/spf13/cobra"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"rec"},
		Short:   "List and edit individual sale records",
		Long: `Manage the sale records in the working set.

Records are addressed by the ID shown in 'eshop records list'. Every change
recomputes the record total and all derived views.`,
	}

	cmd.AddCommand(recordsListCmd())
	cmd.AddCommand(recordsAddCmd())
	cmd.AddCommand(recordsEditCmd())
	cmd.AddCommand(recordsDeleteCmd())

	return cmd
}

// recordFlags maps the record flags onto the field names understood by the pipeline.
var recordFlags = []struct {
	name  string
	field pipeline.Field
	usage string
}{
	{"customer-id", pipeline.FieldCustomerID, "Customer ID (positive integer)"},
	{"customer", pipeline.FieldCustomerName, "Customer name"},
	{"city", pipeline.FieldCity, "City"},
	{"item", pipeline.FieldItem, "Item sold"},
	{"date", pipeline.FieldDate, "Sale date (2006-01-02 or 02/01/2006)"},
	{"quantity", pipeline.FieldQuantity, "Quantity (positive integer)"},
	{"unit-price", pipeline.FieldUnitPrice, "Unit price (e.g. 49.90 or 49,90)"},
}

func addRecordFlags(cmd *cobra.Command) {
	for _, f := range recordFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
}

// rowFromFlags collects only the flags the user actually set.
func rowFromFlags(cmd *cobra.Command) pipeline.Row {
	row := pipeline.Row{}
	for _, f := range recordFlags {
		if cmd.Flags().Changed(f.name) {
			value, _ := cmd.Flags().GetString(f.name)
			row[string(f.field)] = value
		}
	}
	return row
}

func recordsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sale records",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				_, _ = fmt.Fprintln(out, cli.InfoStyle.Render("No sale records found. Use 'eshop import' to load a spreadsheet."))
				return nil
			}

			limit, _ := cmd.Flags().GetInt("limit")
			shown := records
			if limit > 0 && len(shown) > limit {
				shown = shown[:limit]
			}

			_, _ = fmt.Fprintln(out, cli.RecordsTable(shown))
			_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("%d of %d records", len(shown), len(records))))
			return nil
		},
	}

	addFilterFlags(cmd)
	cmd.Flags().Int("limit", 50, "Maximum number of records to show (0 for all)")

	return cmd
}

func recordsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a sale record",
		Example: `  eshop records add --customer-id 7 --customer "João Silva" --city Recife \
    --item Mouse --quantity 2 --unit-price 49,90 --date 2024-05-10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, _, store, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rec, res, err := sess.Insert(cmd.Context(), rowFromFlags(cmd))
			if err != nil {
				return fmt.Errorf("failed to add record: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Added record %s (%s)", rec.ID, cli.FormatBRL(rec.TotalPrice))))
			reportWarning(out, res)
			return nil
		},
	}

	addRecordFlags(cmd)

	return cmd
}

func recordsEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a sale record",
		Long: `Change one or more fields of a sale record. Fields without a flag keep
their current value; pass --date "" to clear the date.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			row := rowFromFlags(cmd)
			if len(row) == 0 {
				return common.NewUserError("nothing to change: pass at least one field flag", nil)
			}

			sess, _, store, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			current, ok := sess.Record(id)
			if !ok {
				return &common.NotFoundError{ID: id}
			}

			values, err := pipeline.PatchValues(current.Values(), row)
			if err != nil {
				return fmt.Errorf("failed to edit record: %w", err)
			}

			rec, res, err := sess.Edit(cmd.Context(), id, values)
			if err != nil {
				return fmt.Errorf("failed to edit record: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Updated record %s (%s)", rec.ID, cli.FormatBRL(rec.TotalPrice))))
			reportWarning(out, res)
			return nil
		},
	}

	addRecordFlags(cmd)

	return cmd
}

func recordsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete sale records",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, store, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			for _, id := range args {
				res, err := sess.Delete(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("failed to delete record: %w", err)
				}
				_, _ = fmt.Fprintln(out, cli.FormatSuccess("Deleted record "+id))
				reportWarning(out, res)
			}
			return nil
		},
	}
}
