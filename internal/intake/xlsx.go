package intake

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads one worksheet; the first sheet when sheet is empty. The
// first row is the header. Cells are read raw so numbers keep full
// precision, and serial dates in the date column become time.Time values.
func ReadXLSX(r io.Reader, sheet string) (pipeline.RawBatch, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return pipeline.RawBatch{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return pipeline.RawBatch{}, ErrNoHeader
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return pipeline.RawBatch{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return pipeline.RawBatch{}, ErrNoHeader
	}

	date1904 := false
	if props, propsErr := f.GetWorkbookProps(); propsErr == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	return buildBatch(rows[0], rows[1:], func(column, value string) any {
		if field, ok := pipeline.CanonicalField(column); !ok || field != pipeline.FieldDate {
			return value
		}
		serial, parseErr := strconv.ParseFloat(value, 64)
		if parseErr != nil || serial <= 0 {
			return value
		}
		t, convErr := excelize.ExcelDateToTime(serial, date1904)
		if convErr != nil {
			return value
		}
		return t
	})
}
