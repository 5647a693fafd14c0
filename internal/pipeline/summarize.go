package pipeline

import (
	"slices"

	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/shopspring/decimal"
)

// SummarizeCustomers groups records by (customerId, name, city). Output is
// sorted by TotalSpent descending; ties keep first-appearance order.
func SummarizeCustomers(records model.Collection) []model.CustomerSummary {
	index := make(map[model.CustomerKey]int)
	out := make([]model.CustomerSummary, 0)

	for _, r := range records {
		key := model.CustomerKey{ID: r.CustomerID, Name: r.CustomerName, City: r.City}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, model.CustomerSummary{CustomerKey: key, TotalSpent: decimal.Zero})
		}

		s := &out[i]
		s.TotalSpent = s.TotalSpent.Add(r.TotalPrice)
		s.PurchaseCount++
		if r.HasDate() && r.Date.After(s.LastPurchaseDate) {
			s.LastPurchaseDate = r.Date
		}
	}

	slices.SortStableFunc(out, func(a, b model.CustomerSummary) int {
		return b.TotalSpent.Cmp(a.TotalSpent)
	})
	return out
}

// SummarizeRegions groups records by city. Output is sorted by TotalSales
// descending; ties keep first-appearance order.
func SummarizeRegions(records model.Collection) []model.RegionSummary {
	index := make(map[string]int)
	customers := make(map[string]map[int]struct{})
	out := make([]model.RegionSummary, 0)

	for _, r := range records {
		i, ok := index[r.City]
		if !ok {
			i = len(out)
			index[r.City] = i
			customers[r.City] = make(map[int]struct{})
			out = append(out, model.RegionSummary{City: r.City, TotalSales: decimal.Zero})
		}

		s := &out[i]
		s.TotalSales = s.TotalSales.Add(r.TotalPrice)
		s.ItemsSold += r.Quantity
		s.SalesCount++
		customers[r.City][r.CustomerID] = struct{}{}
	}

	for i := range out {
		out[i].UniqueCustomers = len(customers[out[i].City])
	}

	slices.SortStableFunc(out, func(a, b model.RegionSummary) int {
		return b.TotalSales.Cmp(a.TotalSales)
	})
	return out
}

// SummarizeItems groups records by product, sorted by TotalSales descending.
func SummarizeItems(records model.Collection) []model.ItemSummary {
	index := make(map[string]int)
	out := make([]model.ItemSummary, 0)

	for _, r := range records {
		i, ok := index[r.Item]
		if !ok {
			i = len(out)
			index[r.Item] = i
			out = append(out, model.ItemSummary{Item: r.Item, TotalSales: decimal.Zero})
		}
		out[i].TotalSales = out[i].TotalSales.Add(r.TotalPrice)
		out[i].Quantity += r.Quantity
		out[i].SalesCount++
	}

	slices.SortStableFunc(out, func(a, b model.ItemSummary) int {
		return b.TotalSales.Cmp(a.TotalSales)
	})
	return out
}
