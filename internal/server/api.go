package server

import (
	"errors"
	"time"

	"github.com/Veraticus/eshop-analytics/internal/geo"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/Veraticus/eshop-analytics/internal/session"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Record is the wire form of a sale record. Money is encoded as a decimal string.
type Record struct {
	Date         *string         `json:"date"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	ID           string          `json:"id"`
	CustomerName string          `json:"customerName"`
	City         string          `json:"city"`
	Item         string          `json:"item"`
	CustomerID   int             `json:"customerId"`
	Quantity     int             `json:"quantity"`
}

// Customer is one row of the customer summary.
type Customer struct {
	LastPurchaseDate *string         `json:"lastPurchaseDate"`
	TotalSpent       decimal.Decimal `json:"totalSpent"`
	CustomerName     string          `json:"customerName"`
	City             string          `json:"city"`
	CustomerID       int             `json:"customerId"`
	PurchaseCount    int             `json:"purchaseCount"`
}

// Region is one row of the regional summary with its map position.
type Region struct {
	TotalSales      decimal.Decimal `json:"totalSales"`
	City            string          `json:"city"`
	Lat             float64         `json:"lat"`
	Lon             float64         `json:"lon"`
	UniqueCustomers int             `json:"uniqueCustomers"`
	ItemsSold       int             `json:"itemsSold"`
	SalesCount      int             `json:"salesCount"`
	Known           bool            `json:"known"`
}

// Item is one row of the product summary.
type Item struct {
	TotalSales decimal.Decimal `json:"totalSales"`
	Item       string          `json:"item"`
	Quantity   int             `json:"quantity"`
	SalesCount int             `json:"salesCount"`
}

// TrendPoint is total sales for one month or day.
type TrendPoint struct {
	Period     string          `json:"period"`
	TotalSales decimal.Decimal `json:"totalSales"`
}

// Metrics are the dashboard figures.
type Metrics struct {
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	AverageSpent     decimal.Decimal `json:"averageSpent"`
	TopCustomerName  string          `json:"topCustomerName"`
	TopCity          string          `json:"topCity"`
	MonthlyTrend     []TrendPoint    `json:"monthlyTrend"`
	AveragePurchases float64         `json:"averagePurchases"`
	TotalCustomers   int             `json:"totalCustomers"`
	CitiesServed     int             `json:"citiesServed"`
	DistinctItems    int             `json:"distinctItems"`
	TotalRecords     int             `json:"totalRecords"`
}

// Rejection explains why one uploaded row was dropped.
type Rejection struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
	Row    int    `json:"row"`
}

// ImportResponse reports the outcome of an upload.
type ImportResponse struct {
	Mode         string      `json:"mode"`
	Warning      string      `json:"warning,omitempty"`
	Snapshot     string      `json:"snapshot,omitempty"`
	Rejections   []Rejection `json:"rejections"`
	Received     int         `json:"received"`
	Accepted     int         `json:"accepted"`
	Rejected     int         `json:"rejected"`
	UnknownDates int         `json:"unknownDates"`
	WorkingSet   int         `json:"workingSet"`
}

// RecordResponse wraps a mutated record with the store warning, if any.
type RecordResponse struct {
	Warning string `json:"warning,omitempty"`
	Record  Record `json:"record"`
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Deleted string `json:"deleted"`
	Warning string `json:"warning,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Field   string   `json:"field,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func optionalDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func toRecord(r model.SaleRecord) Record {
	return Record{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		City:         r.City,
		Item:         r.Item,
		Date:         optionalDate(r.Date),
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		TotalPrice:   r.TotalPrice,
	}
}

func toRecords(records model.Collection) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, toRecord(r))
	}
	return out
}

func toCustomers(customers []model.CustomerSummary) []Customer {
	out := make([]Customer, 0, len(customers))
	for _, c := range customers {
		out = append(out, Customer{
			CustomerID:       c.ID,
			CustomerName:     c.Name,
			City:             c.City,
			TotalSpent:       c.TotalSpent,
			PurchaseCount:    c.PurchaseCount,
			LastPurchaseDate: optionalDate(c.LastPurchaseDate),
		})
	}
	return out
}

func toRegions(points []geo.RegionPoint) []Region {
	out := make([]Region, 0, len(points))
	for _, p := range points {
		out = append(out, Region{
			City:            p.City,
			TotalSales:      p.TotalSales,
			UniqueCustomers: p.UniqueCustomers,
			ItemsSold:       p.ItemsSold,
			SalesCount:      p.SalesCount,
			Lat:             p.Lat,
			Lon:             p.Lon,
			Known:           p.Known,
		})
	}
	return out
}

func toItems(items []model.ItemSummary) []Item {
	out := make([]Item, 0, len(items))
	for _, i := range items {
		out = append(out, Item{
			Item:       i.Item,
			Quantity:   i.Quantity,
			SalesCount: i.SalesCount,
			TotalSales: i.TotalSales,
		})
	}
	return out
}

func toTrend(points []model.TrendPoint, label func(model.TrendPoint) string) []TrendPoint {
	out := make([]TrendPoint, 0, len(points))
	for _, p := range points {
		out = append(out, TrendPoint{Period: label(p), TotalSales: p.TotalSales})
	}
	return out
}

func toMetrics(m model.Metrics) Metrics {
	return Metrics{
		TotalRevenue:     m.TotalRevenue,
		AverageSpent:     m.AverageSpent,
		AveragePurchases: m.AveragePurchases,
		TopCustomerName:  m.TopCustomerName,
		TopCity:          m.TopCity,
		TotalCustomers:   m.TotalCustomers,
		CitiesServed:     m.CitiesServed,
		DistinctItems:    m.DistinctItems,
		TotalRecords:     m.TotalRecords,
		MonthlyTrend:     toTrend(m.MonthlyTrend, model.TrendPoint.MonthLabel),
	}
}

func toImportResponse(res *session.ImportResult, mode pipeline.MergeMode, workingSet int) ImportResponse {
	out := ImportResponse{
		Mode:         string(mode),
		Warning:      warningText(errors.Join(res.SnapshotErr, res.Warning)),
		Snapshot:     res.Snapshot.ID,
		Received:     res.Batch.Received,
		Accepted:     res.Batch.Accepted,
		Rejected:     res.Batch.Rejected,
		UnknownDates: res.Batch.UnknownDates,
		WorkingSet:   workingSet,
		Rejections:   make([]Rejection, 0, len(res.Batch.Rejections)),
	}
	for _, r := range res.Batch.Rejections {
		out.Rejections = append(out.Rejections, Rejection{Row: r.Row, Field: r.Field, Value: r.Value, Reason: r.Reason})
	}
	return out
}

func warningText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
