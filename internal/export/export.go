// Package export writes the working set and its views to local files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/Veraticus/eshop-analytics/internal/sheets"
	"github.com/xuri/excelize/v2"
)

// CurrencyFormat is the number format applied to money columns in workbooks.
const CurrencyFormat = `"R$" #,##0.00`

// CSVHeader uses the canonical field names so a dump can be imported again.
var CSVHeader = []string{
	string(pipeline.FieldCustomerID),
	string(pipeline.FieldCustomerName),
	string(pipeline.FieldCity),
	string(pipeline.FieldItem),
	string(pipeline.FieldDate),
	string(pipeline.FieldQuantity),
	string(pipeline.FieldUnitPrice),
	string(pipeline.FieldTotalPrice),
}

// WriteCSV dumps records, one per line, with dot decimals and ISO dates.
func WriteCSV(w io.Writer, records model.Collection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		date := ""
		if r.HasDate() {
			date = r.Date.Format("2006-01-02")
		}
		row := []string{
			strconv.Itoa(r.CustomerID),
			r.CustomerName,
			r.City,
			r.Item,
			date,
			strconv.Itoa(r.Quantity),
			r.UnitPrice.StringFixed(2),
			r.TotalPrice.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes one worksheet per dashboard tab. Money columns carry
// CurrencyFormat and every header row is bold and frozen.
func WriteXLSX(w io.Writer, views pipeline.Views, records model.Collection) error {
	f, err := Workbook(views, records)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Workbook builds the workbook in memory. The caller closes it.
func Workbook(views pipeline.Views, records model.Collection) (*excelize.File, error) {
	tabs := sheets.BuildTabs(views, records)

	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	format := CurrencyFormat
	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create currency style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, tab := range tabs {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, tab.Title); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(tab.Title); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", tab.Title, err)
		}

		if err := writeTab(f, tab, bold, currency); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to fill sheet %s: %w", tab.Title, err)
		}
	}
	f.SetActiveSheet(0)

	return f, nil
}

func writeTab(f *excelize.File, tab sheets.Tab, bold, currency int) error {
	for i, row := range tab.Values() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(tab.Title, cell, &row); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(tab.Header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(tab.Title, "A", last, 18); err != nil {
		return err
	}

	if len(tab.Rows) > 0 {
		for _, col := range tab.CurrencyColumns {
			name, err := excelize.ColumnNumberToName(int(col) + 1)
			if err != nil {
				return err
			}
			top := fmt.Sprintf("%s2", name)
			bottom := fmt.Sprintf("%s%d", name, len(tab.Rows)+1)
			if err := f.SetCellStyle(tab.Title, top, bottom, currency); err != nil {
				return err
			}
		}
	}

	if err := f.SetRowStyle(tab.Title, 1, 1, bold); err != nil {
		return err
	}
	return f.SetPanes(tab.Title, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// ToFile writes to path, choosing the format from its extension: .csv gets
// the record dump, .xlsx the full workbook.
func ToFile(path string, views pipeline.Views, records model.Collection) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return fmt.Errorf("unsupported export format %q (want .csv or .xlsx)", ext)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	out, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if ext == ".csv" {
		err = WriteCSV(out, records)
	} else {
		err = WriteXLSX(out, views, records)
	}
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close %s: %w", path, closeErr)
	}
	return err
}
