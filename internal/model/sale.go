// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRecord is one imported sale line: a single item sold to a customer.
type SaleRecord struct {
	Date         time.Time       // Zero when the source date was missing or unparseable
	UnitPrice    decimal.Decimal
	TotalPrice   decimal.Decimal // Always Quantity × UnitPrice
	ID           string          // Stable synthetic identifier assigned at ingest
	CustomerName string
	City         string
	Item         string
	CustomerID   int
	Quantity     int
}

// HasDate reports whether the record carries a known date.
func (r SaleRecord) HasDate() bool {
	return !r.Date.IsZero()
}

// Recompute sets TotalPrice from Quantity and UnitPrice.
func (r *SaleRecord) Recompute() {
	r.TotalPrice = r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// SaleValues holds the user-editable fields of a record.
type SaleValues struct {
	Date         time.Time
	UnitPrice    decimal.Decimal
	CustomerName string
	City         string
	Item         string
	CustomerID   int
	Quantity     int
}

// Values extracts the editable fields.
func (r SaleRecord) Values() SaleValues {
	return SaleValues{
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		City:         r.City,
		Item:         r.Item,
		Date:         r.Date,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
	}
}

// Collection is the working set of sale records, in insertion order.
type Collection []SaleRecord

// Clone returns a copy that shares no backing array with c.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// IndexOf returns the position of the record with the given ID, or -1.
func (c Collection) IndexOf(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Revenue sums TotalPrice across the collection.
func (c Collection) Revenue() decimal.Decimal {
	total := decimal.Zero
	for _, r := range c {
		total = total.Add(r.TotalPrice)
	}
	return total
}
