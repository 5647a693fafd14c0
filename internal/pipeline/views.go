package pipeline

import "github.com/Veraticus/eshop-analytics/internal/model"

// Views bundles every derived artifact of a collection.
type Views struct {
	Customers []model.CustomerSummary
	Regions   []model.RegionSummary
	Items     []model.ItemSummary
	Metrics   model.Metrics
}

// Summarize recomputes all views from scratch.
func Summarize(records model.Collection) Views {
	customers := SummarizeCustomers(records)
	regions := SummarizeRegions(records)
	return Views{
		Customers: customers,
		Regions:   regions,
		Items:     SummarizeItems(records),
		Metrics:   DashboardMetrics(customers, regions, records),
	}
}
