package cli

import (
	"strconv"

	"github.com/Veraticus/eshop-analytics/internal/geo"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// renderTable draws rows under a header. Columns listed in right are right-aligned.
func renderTable(header []string, rows [][]string, right ...int) string {
	alignRight := make(map[int]bool, len(right))
	for _, c := range right {
		alignRight[c] = true
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if alignRight[col] {
				return TableCellStyle.Align(lipgloss.Right)
			}
			return TableCellStyle
		})
	return t.String()
}

// limit keeps the first n entries; n <= 0 keeps everything.
func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

// CustomersTable lists customers in summary order.
func CustomersTable(customers []model.CustomerSummary, top int) string {
	rows := make([][]string, 0, len(customers))
	for _, c := range limit(customers, top) {
		rows = append(rows, []string{
			strconv.Itoa(c.ID), c.Name, c.City,
			FormatBRL(c.TotalSpent), strconv.Itoa(c.PurchaseCount), FormatDate(c.LastPurchaseDate),
		})
	}
	return renderTable([]string{"ID", "Customer", "City", "Total spent", "Purchases", "Last purchase"}, rows, 0, 3, 4)
}

// RegionsTable lists regions with their coordinates; unknown cities show "-".
func RegionsTable(points []geo.RegionPoint) string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		lat, lon := "-", "-"
		if p.Known {
			lat = strconv.FormatFloat(p.Lat, 'f', 4, 64)
			lon = strconv.FormatFloat(p.Lon, 'f', 4, 64)
		}
		rows = append(rows, []string{
			p.City, FormatBRL(p.TotalSales), strconv.Itoa(p.UniqueCustomers),
			strconv.Itoa(p.ItemsSold), strconv.Itoa(p.SalesCount), lat, lon,
		})
	}
	return renderTable([]string{"City", "Total sales", "Customers", "Items sold", "Sales", "Lat", "Lon"}, rows, 1, 2, 3, 4, 5, 6)
}

// ItemsTable lists products by revenue.
func ItemsTable(items []model.ItemSummary, top int) string {
	rows := make([][]string, 0, len(items))
	for _, it := range limit(items, top) {
		rows = append(rows, []string{it.Item, FormatBRL(it.TotalSales), strconv.Itoa(it.Quantity), strconv.Itoa(it.SalesCount)})
	}
	return renderTable([]string{"Item", "Total sales", "Quantity", "Sales"}, rows, 1, 2, 3)
}

// RecordsTable lists sale records in working-set order.
func RecordsTable(records model.Collection) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID, strconv.Itoa(r.CustomerID), r.CustomerName, r.City, r.Item, FormatDate(r.Date),
			strconv.Itoa(r.Quantity), FormatBRL(r.UnitPrice), FormatBRL(r.TotalPrice),
		})
	}
	return renderTable([]string{"ID", "Cust.", "Customer", "City", "Item", "Date", "Qty", "Unit price", "Total"}, rows, 1, 6, 7, 8)
}

// TrendTable lists a time series with the given period label.
func TrendTable(points []model.TrendPoint, label func(model.TrendPoint) string) string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{label(p), FormatBRL(p.TotalSales)})
	}
	return renderTable([]string{"Period", "Total sales"}, rows, 1)
}
