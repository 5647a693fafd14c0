package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerKey groups records for the customer summary.
type CustomerKey struct {
	Name string
	City string
	ID   int
}

// CustomerSummary aggregates the records of one (id, name, city) customer.
type CustomerSummary struct {
	LastPurchaseDate time.Time // Zero when none of the customer's records is dated
	TotalSpent       decimal.Decimal
	CustomerKey
	PurchaseCount int
}

// RegionSummary aggregates the records of one city.
type RegionSummary struct {
	TotalSales      decimal.Decimal
	City            string
	UniqueCustomers int
	ItemsSold       int
	SalesCount      int
}

// ItemSummary aggregates the records of one product.
type ItemSummary struct {
	TotalSales decimal.Decimal
	Item       string
	Quantity   int
	SalesCount int
}

// TrendPoint is total sales for one period (a month or a day).
type TrendPoint struct {
	Period     time.Time
	TotalSales decimal.Decimal
}

// MonthLabel formats the period as YYYY-MM.
func (p TrendPoint) MonthLabel() string {
	return p.Period.Format("2006-01")
}

// DayLabel formats the period as YYYY-MM-DD.
func (p TrendPoint) DayLabel() string {
	return p.Period.Format("2006-01-02")
}

// Metrics are the scalar dashboard figures plus the monthly time series.
type Metrics struct {
	TotalRevenue     decimal.Decimal
	AverageSpent     decimal.Decimal
	TopCustomerName  string
	TopCity          string
	MonthlyTrend     []TrendPoint
	AveragePurchases float64
	TotalCustomers   int
	CitiesServed     int
	DistinctItems    int
	TotalRecords     int
}
