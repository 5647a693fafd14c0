package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/eshop-analytics/internal/cli"
	"github.com/Veraticus/eshop-analytics/internal/intake"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/Veraticus/eshop-analytics/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import sales from CSV or XLSX files",
		Long: `Import sale records from one or more CSV or XLSX spreadsheets.

Rows are validated one by one: a row whose quantity, price or customer id
cannot be read is rejected and reported, the rest of the file still loads.
A file missing a required column is refused as a whole.

With --mode replace the first file replaces the stored working set and any
further files are appended to it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("mode", "", "How to merge into the working set (append, replace)")
	cmd.Flags().String("sheet", "", "XLSX worksheet to read (default: first sheet)")
	cmd.Flags().Int("show-rejections", 10, "Maximum number of rejected rows to list")
	cmd.Flags().Bool("no-progress", false, "Do not draw a progress bar")
	cmd.Flags().Bool("no-snapshot", false, "Skip the database snapshot taken before a replace import")

	_ = viper.BindPFlag("import.mode", cmd.Flags().Lookup("mode"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sess, cfg, store, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sheet, _ := cmd.Flags().GetString("sheet")
	maxRejections, _ := cmd.Flags().GetInt("show-rejections")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	noSnapshot, _ := cmd.Flags().GetBool("no-snapshot")
	sess.SetAutoSnapshot(!noSnapshot)

	mode := cfg.ImportMode

	for i, path := range args {
		if i > 0 {
			mode = pipeline.MergeAppend
		}

		opts := pipeline.IngestOptions{ChunkSize: cfg.ImportChunkSize}
		if !noProgress {
			opts.Progress = cli.IngestProgress(cmd.ErrOrStderr(), filepath.Base(path))
		}

		res, err := importFile(cmd, sess, path, sheet, mode, opts)
		if err != nil {
			return err
		}

		reportSnapshot(out, res)
		_, _ = fmt.Fprintln(out, cli.RenderImportSummary(res.Batch, len(sess.Records()), maxRejections))
		reportWarning(out, res.Result)
	}

	return nil
}

// reportSnapshot prints the snapshot a replace import took, or why it could
// not take one. Neither stops the import.
func reportSnapshot(w io.Writer, res *session.ImportResult) {
	switch {
	case res.SnapshotErr != nil:
		_, _ = fmt.Fprintln(w, cli.FormatWarning("Could not snapshot the database before replacing it: "+res.SnapshotErr.Error()))
	case res.Snapshot.ID != "":
		id := res.Snapshot.ID
		_, _ = fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Saved snapshot %s (%d records); undo with 'eshop snapshot restore %s'", id, res.Snapshot.Sales, id)))
	}
}

func importFile(cmd *cobra.Command, sess *session.Session, path, sheet string, mode pipeline.MergeMode, opts pipeline.IngestOptions) (*session.ImportResult, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	raw, err := intake.Read(path, f, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	slog.Debug("Read sales file", "path", path, "rows", len(raw.Rows), "columns", len(raw.Columns))

	res, err := sess.Import(cmd.Context(), raw, mode, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}
	return res, nil
}
