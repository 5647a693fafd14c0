package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/eshop-analytics/internal/intake"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/Veraticus/eshop-analytics/internal/sheets"
	"github.com/Veraticus/eshop-analytics/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteCSV_RoundTrips(t *testing.T) {
	records := testutil.SampleSales()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 7)
	assert.Equal(t, "customerId,customerName,city,item,date,quantity,unitPrice,totalPrice", string(lines[0]))
	assert.Equal(t, "1,Ana,São Paulo,Notebook,2024-01-10,1,3500.00,3500.00", string(lines[1]))
	assert.Equal(t, "3,Carla,Recife,Monitor,,1,900.00,900.00", string(lines[4]))

	raw, err := intake.ReadCSV(&buf)
	require.NoError(t, err)
	batch, err := pipeline.Ingest(raw, pipeline.IngestOptions{})
	require.NoError(t, err)
	require.Equal(t, len(records), batch.Accepted)

	for i, got := range batch.Records {
		want := records[i]
		assert.Equal(t, want.CustomerName, got.CustomerName)
		assert.Equal(t, want.Date, got.Date)
		assert.True(t, want.TotalPrice.Equal(got.TotalPrice), "row %d: %s != %s", i, got.TotalPrice, want.TotalPrice)
	}
}

func TestWriteXLSX(t *testing.T) {
	records := testutil.SampleSales()
	views := pipeline.Summarize(records)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, views, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{
		sheets.TabDashboard, sheets.TabCustomers, sheets.TabRegions,
		sheets.TabItems, sheets.TabMonthly, sheets.TabSales,
	}, f.GetSheetList())

	customers, err := f.GetRows(sheets.TabCustomers, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, customers, 5)
	assert.Equal(t, "Customer", customers[0][1])
	assert.Equal(t, "Ana", customers[1][1])
	assert.Equal(t, "3600", customers[1][3])

	sales, err := f.GetRows(sheets.TabSales, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, sales, 7)
	assert.Equal(t, "r1", sales[1][0])

	formatted, err := f.GetCellValue(sheets.TabRegions, "B2")
	require.NoError(t, err)
	assert.Contains(t, formatted, "R$")

	panes, err := f.GetPanes(sheets.TabCustomers)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, pipeline.Summarize(nil), nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheets.TabSales)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	records := testutil.SampleSales()
	views := pipeline.Summarize(records)

	csvPath := filepath.Join(dir, "out", "vendas.csv")
	require.NoError(t, ToFile(csvPath, views, records))
	raw, err := intake.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, raw.Rows, 6)

	xlsxPath := filepath.Join(dir, "vendas.xlsx")
	require.NoError(t, ToFile(xlsxPath, views, records))
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, ToFile(filepath.Join(dir, "vendas.pdf"), views, records))
}
