// Package intake reads uploaded sales files into loosely-typed batches for
// the pipeline. It only splits files into header and cells; all validation
// happens at ingest.
package intake

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/eshop-analytics/internal/pipeline"
)

// Intake errors.
var (
	ErrNoHeader          = errors.New("file has no header row")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ReadFile dispatches on the file extension.
func ReadFile(path string) (pipeline.RawBatch, error) {
	if _, err := formatOf(path); err != nil {
		return pipeline.RawBatch{}, err
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return pipeline.RawBatch{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Read(path, f, "")
}

// Read parses r as the format implied by name's extension. sheet only
// applies to workbooks.
func Read(name string, r io.Reader, sheet string) (pipeline.RawBatch, error) {
	format, err := formatOf(name)
	if err != nil {
		return pipeline.RawBatch{}, err
	}
	if format == formatXLSX {
		return ReadXLSX(r, sheet)
	}
	return ReadCSV(r)
}

type format int

const (
	formatCSV format = iota
	formatXLSX
)

func formatOf(name string) (format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv", ".txt":
		return formatCSV, nil
	case ".xlsx", ".xlsm":
		return formatXLSX, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// buildBatch turns a header and string cells into a batch. Header names are
// trimmed; for repeated names the first column wins. Blank lines are dropped.
func buildBatch(header []string, records [][]string, convert func(column string, value string) any) (pipeline.RawBatch, error) {
	columns := make([]string, 0, len(header))
	for _, h := range header {
		columns = append(columns, strings.TrimSpace(h))
	}
	if isBlank(columns) {
		return pipeline.RawBatch{}, ErrNoHeader
	}

	rows := make([]pipeline.Row, 0, len(records))
	for _, cells := range records {
		if isBlank(cells) {
			continue
		}
		row := make(pipeline.Row, len(columns))
		for i, cell := range cells {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			if _, dup := row[columns[i]]; dup {
				continue
			}
			if convert != nil {
				row[columns[i]] = convert(columns[i], cell)
			} else {
				row[columns[i]] = cell
			}
		}
		rows = append(rows, row)
	}

	return pipeline.RawBatch{Columns: columns, Rows: rows}, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
