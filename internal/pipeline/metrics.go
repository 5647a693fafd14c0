package pipeline

import (
	"slices"
	"time"

	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/shopspring/decimal"
)

// DashboardMetrics derives the scalar dashboard figures. The summaries must
// come from SummarizeCustomers and SummarizeRegions over the same records.
func DashboardMetrics(customers []model.CustomerSummary, regions []model.RegionSummary, records model.Collection) model.Metrics {
	m := model.Metrics{
		TotalCustomers: len(customers),
		CitiesServed:   len(regions),
		TotalRecords:   len(records),
		TotalRevenue:   decimal.Zero,
		AverageSpent:   decimal.Zero,
		MonthlyTrend:   MonthlyTrend(records),
	}

	purchases := 0
	for _, c := range customers {
		m.TotalRevenue = m.TotalRevenue.Add(c.TotalSpent)
		purchases += c.PurchaseCount
	}

	if len(customers) > 0 {
		m.TopCustomerName = customers[0].Name
		m.AverageSpent = m.TotalRevenue.Div(decimal.NewFromInt(int64(len(customers)))).Round(2)
		m.AveragePurchases = float64(purchases) / float64(len(customers))
	}
	if len(regions) > 0 {
		m.TopCity = regions[0].City
	}

	items := make(map[string]struct{})
	for _, r := range records {
		items[r.Item] = struct{}{}
	}
	m.DistinctItems = len(items)

	return m
}

// MonthlyTrend sums sales per calendar month over dated records, oldest first.
// Months without records are absent, not zero.
func MonthlyTrend(records model.Collection) []model.TrendPoint {
	return trend(records, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	})
}

// DailyTrend sums sales per calendar day over dated records, oldest first.
// With lastN > 0 only the most recent lastN days present are returned.
func DailyTrend(records model.Collection, lastN int) []model.TrendPoint {
	points := trend(records, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	})
	if lastN > 0 && len(points) > lastN {
		points = points[len(points)-lastN:]
	}
	return points
}

func trend(records model.Collection, bucket func(time.Time) time.Time) []model.TrendPoint {
	sums := make(map[time.Time]decimal.Decimal)
	for _, r := range records {
		if !r.HasDate() {
			continue
		}
		k := bucket(r.Date.UTC())
		sums[k] = sums[k].Add(r.TotalPrice)
	}

	out := make([]model.TrendPoint, 0, len(sums))
	for period, total := range sums {
		out = append(out, model.TrendPoint{Period: period, TotalSales: total})
	}
	slices.SortFunc(out, func(a, b model.TrendPoint) int {
		return a.Period.Compare(b.Period)
	})
	return out
}
