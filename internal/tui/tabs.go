package tui

import (
	"strconv"

	"github.com/Veraticus/eshop-analytics/internal/cli"
	"github.com/Veraticus/eshop-analytics/internal/geo"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/charmbracelet/bubbles/table"
)

// Tab identifies one browser view.
type Tab int

// Tabs in display order.
const (
	TabCustomers Tab = iota
	TabRegions
	TabItems
	TabMonthly
	TabRecords
	tabCount
)

var tabNames = [tabCount]string{"Customers", "Regions", "Items", "Monthly", "Records"}

func (t Tab) String() string {
	if t < 0 || t >= tabCount {
		return "Unknown"
	}
	return tabNames[t]
}

var tabColumns = [tabCount][]table.Column{
	TabCustomers: {
		{Title: "ID", Width: 6},
		{Title: "Customer", Width: 22},
		{Title: "City", Width: 16},
		{Title: "Total spent", Width: 16},
		{Title: "Purchases", Width: 9},
		{Title: "Last purchase", Width: 13},
	},
	TabRegions: {
		{Title: "City", Width: 18},
		{Title: "Total sales", Width: 16},
		{Title: "Customers", Width: 9},
		{Title: "Items sold", Width: 10},
		{Title: "Sales", Width: 6},
		{Title: "Lat", Width: 9},
		{Title: "Lon", Width: 9},
	},
	TabItems: {
		{Title: "Item", Width: 24},
		{Title: "Total sales", Width: 16},
		{Title: "Quantity", Width: 8},
		{Title: "Sales", Width: 6},
	},
	TabMonthly: {
		{Title: "Month", Width: 8},
		{Title: "Total sales", Width: 16},
	},
	TabRecords: {
		{Title: "Customer", Width: 18},
		{Title: "City", Width: 14},
		{Title: "Item", Width: 16},
		{Title: "Date", Width: 10},
		{Title: "Qty", Width: 4},
		{Title: "Unit price", Width: 13},
		{Title: "Total", Width: 14},
	},
}

func customerRows(customers []model.CustomerSummary) []table.Row {
	rows := make([]table.Row, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, table.Row{
			strconv.Itoa(c.ID), c.Name, c.City, cli.FormatBRL(c.TotalSpent),
			strconv.Itoa(c.PurchaseCount), cli.FormatDate(c.LastPurchaseDate),
		})
	}
	return rows
}

func regionRows(points []geo.RegionPoint) []table.Row {
	rows := make([]table.Row, 0, len(points))
	for _, p := range points {
		lat, lon := "-", "-"
		if p.Known {
			lat = strconv.FormatFloat(p.Lat, 'f', 4, 64)
			lon = strconv.FormatFloat(p.Lon, 'f', 4, 64)
		}
		rows = append(rows, table.Row{
			p.City, cli.FormatBRL(p.TotalSales), strconv.Itoa(p.UniqueCustomers),
			strconv.Itoa(p.ItemsSold), strconv.Itoa(p.SalesCount), lat, lon,
		})
	}
	return rows
}

func itemRows(items []model.ItemSummary) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, table.Row{it.Item, cli.FormatBRL(it.TotalSales), strconv.Itoa(it.Quantity), strconv.Itoa(it.SalesCount)})
	}
	return rows
}

func monthlyRows(points []model.TrendPoint) []table.Row {
	rows := make([]table.Row, 0, len(points))
	for _, p := range points {
		rows = append(rows, table.Row{p.MonthLabel(), cli.FormatBRL(p.TotalSales)})
	}
	return rows
}

func recordRows(records model.Collection) []table.Row {
	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, table.Row{
			r.CustomerName, r.City, r.Item, cli.FormatDate(r.Date),
			strconv.Itoa(r.Quantity), cli.FormatBRL(r.UnitPrice), cli.FormatBRL(r.TotalPrice),
		})
	}
	return rows
}

// tabRows lays every view out as table rows.
func tabRows(views pipeline.Views, records model.Collection, cities *geo.Table) [tabCount][]table.Row {
	return [tabCount][]table.Row{
		TabCustomers: customerRows(views.Customers),
		TabRegions:   regionRows(cities.Locate(views.Regions)),
		TabItems:     itemRows(views.Items),
		TabMonthly:   monthlyRows(views.Metrics.MonthlyTrend),
		TabRecords:   recordRows(records),
	}
}
