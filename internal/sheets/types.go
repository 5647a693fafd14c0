package sheets

import (
	"time"

	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/shopspring/decimal"
)

// Tab titles, in the order they are created.
const (
	TabDashboard = "Dashboard"
	TabCustomers = "Customers"
	TabRegions   = "Regions"
	TabItems     = "Items"
	TabMonthly   = "Monthly"
	TabSales     = "Sales"
)

// Tab is one worksheet's content. The header is the first row.
type Tab struct {
	Title           string
	Header          []any
	Rows            [][]any
	CurrencyColumns []int64
}

// Values returns the header followed by the rows.
func (t Tab) Values() [][]any {
	values := make([][]any, 0, len(t.Rows)+1)
	values = append(values, t.Header)
	return append(values, t.Rows...)
}

// BuildTabs lays the views out as worksheets.
func BuildTabs(views pipeline.Views, records model.Collection) []Tab {
	m := views.Metrics

	dashboard := Tab{
		Title:  TabDashboard,
		Header: []any{"Metric", "Value"},
		Rows: [][]any{
			{"Total revenue", money(m.TotalRevenue)},
			{"Customers", m.TotalCustomers},
			{"Average spent per customer", money(m.AverageSpent)},
			{"Average purchases per customer", m.AveragePurchases},
			{"Top customer", m.TopCustomerName},
			{"Cities served", m.CitiesServed},
			{"Top city", m.TopCity},
			{"Products sold", m.DistinctItems},
			{"Sale records", m.TotalRecords},
		},
	}

	customers := Tab{
		Title:           TabCustomers,
		Header:          []any{"Customer ID", "Customer", "City", "Total spent", "Purchases", "Last purchase"},
		CurrencyColumns: []int64{3},
	}
	for _, c := range views.Customers {
		customers.Rows = append(customers.Rows, []any{c.ID, c.Name, c.City, money(c.TotalSpent), c.PurchaseCount, dateCell(c.LastPurchaseDate)})
	}

	regions := Tab{
		Title:           TabRegions,
		Header:          []any{"City", "Total sales", "Customers", "Items sold", "Sales"},
		CurrencyColumns: []int64{1},
	}
	for _, r := range views.Regions {
		regions.Rows = append(regions.Rows, []any{r.City, money(r.TotalSales), r.UniqueCustomers, r.ItemsSold, r.SalesCount})
	}

	items := Tab{
		Title:           TabItems,
		Header:          []any{"Item", "Total sales", "Quantity", "Sales"},
		CurrencyColumns: []int64{1},
	}
	for _, it := range views.Items {
		items.Rows = append(items.Rows, []any{it.Item, money(it.TotalSales), it.Quantity, it.SalesCount})
	}

	monthly := Tab{
		Title:           TabMonthly,
		Header:          []any{"Month", "Total sales"},
		CurrencyColumns: []int64{1},
	}
	for _, p := range m.MonthlyTrend {
		monthly.Rows = append(monthly.Rows, []any{p.MonthLabel(), money(p.TotalSales)})
	}

	sales := Tab{
		Title:           TabSales,
		Header:          []any{"ID", "Customer ID", "Customer", "City", "Item", "Date", "Quantity", "Unit price", "Total price"},
		CurrencyColumns: []int64{7, 8},
	}
	for _, r := range records {
		sales.Rows = append(sales.Rows, []any{
			r.ID, r.CustomerID, r.CustomerName, r.City, r.Item, dateCell(r.Date),
			r.Quantity, money(r.UnitPrice), money(r.TotalPrice),
		})
	}

	return []Tab{dashboard, customers, regions, items, monthly, sales}
}

// money converts for the API, which only takes JSON numbers.
func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func dateCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
