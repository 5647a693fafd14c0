package main

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/eshop-analytics/internal/cli"
	"github.com/Veraticus/eshop-analytics/internal/config"
	"github.com/Veraticus/eshop-analytics/internal/storage"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snap"},
		Short:   "Manage database snapshots",
		Long: `Create, list, restore, and delete copies of the sales database.

A snapshot is taken automatically before every replace import; the five most
recent automatic snapshots are kept.`,
		Example: `  # Save the current state before cleaning up records
  eshop snapshot create --tag antes-da-limpeza

  # Undo the last replace import
  eshop snapshot list
  eshop snapshot restore auto-replace-import-20240601-120000.000`,
	}

	cmd.AddCommand(snapshotCreateCmd())
	cmd.AddCommand(snapshotListCmd())
	cmd.AddCommand(snapshotRestoreCmd())
	cmd.AddCommand(snapshotDeleteCmd())

	return cmd
}

// withSnapshots opens the store and hands its snapshot manager to fn.
func withSnapshots(cmd *cobra.Command, fn func(*storage.SnapshotManager) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	snaps, err := store.Snapshots()
	if err != nil {
		return err
	}
	return fn(snaps)
}

func snapshotCreateCmd() *cobra.Command {
	var tag, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSnapshots(cmd, func(snaps *storage.SnapshotManager) error {
				snap, err := snaps.Create(cmd.Context(), tag, description)
				if err != nil {
					return fmt.Errorf("failed to create snapshot: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created snapshot %s (%d records, %s)",
					snap.ID, snap.Sales, formatFileSize(snap.FileSize))))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Snapshot name (generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of the snapshot")

	return cmd
}

func snapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all snapshots",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSnapshots(cmd, func(snaps *storage.SnapshotManager) error {
				list, err := snaps.List(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(list) == 0 {
					_, _ = fmt.Fprintln(out, cli.InfoStyle.Render("No snapshots yet. Use 'eshop snapshot create' to save one."))
					return nil
				}

				rows := make([][]string, 0, len(list))
				for _, s := range list {
					kind := "manual"
					if s.IsAuto {
						kind = "auto"
					}
					rows = append(rows, []string{
						s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), kind,
						strconv.Itoa(s.Sales), formatFileSize(s.FileSize), s.Description,
					})
				}

				t := table.New().
					Border(lipgloss.NormalBorder()).
					BorderStyle(cli.SubtleStyle).
					Headers("ID", "Created", "Kind", "Records", "Size", "Description").
					Rows(rows...).
					StyleFunc(func(row, _ int) lipgloss.Style {
						if row == table.HeaderRow {
							return cli.TableHeaderStyle
						}
						return cli.TableCellStyle
					})
				_, _ = fmt.Fprintln(out, t.String())
				return nil
			})
		},
	}
}

func snapshotRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace the database with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSnapshots(cmd, func(snaps *storage.SnapshotManager) error {
				if err := snaps.Restore(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("failed to restore snapshot: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Restored snapshot "+args[0]))
				return nil
			})
		},
	}
}

func snapshotDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete snapshots",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSnapshots(cmd, func(snaps *storage.SnapshotManager) error {
				for _, id := range args {
					if err := snaps.Delete(cmd.Context(), id); err != nil {
						return err
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted snapshot "+id))
				}
				return nil
			})
		},
	}
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
