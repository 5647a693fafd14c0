package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/shopspring/decimal"
)

const barWidth = 30

// RenderDashboard draws the headline figures and the monthly trend.
func RenderDashboard(m model.Metrics) string {
	if m.TotalRecords == 0 {
		return RenderBox(ChartIcon+" Dashboard", SubtleStyle.Render("No sales loaded yet. Run `eshop import <file>` first."))
	}

	lines := []string{
		metricLine("Total revenue", FormatBRL(m.TotalRevenue)),
		metricLine("Customers", strconv.Itoa(m.TotalCustomers)),
		metricLine("Average spent", FormatBRL(m.AverageSpent)),
		metricLine("Average purchases", FormatRatio(m.AveragePurchases)),
		metricLine("Top customer", m.TopCustomerName),
		metricLine("Cities served", strconv.Itoa(m.CitiesServed)),
		metricLine("Top city", m.TopCity),
		metricLine("Products", strconv.Itoa(m.DistinctItems)),
		metricLine("Sale records", strconv.Itoa(m.TotalRecords)),
	}

	if len(m.MonthlyTrend) > 0 {
		lines = append(lines, "", TitleStyle.UnsetMargins().Render("Monthly sales"))
		lines = append(lines, trendBars(m.MonthlyTrend)...)
	}

	return RenderBox(ChartIcon+" Dashboard", strings.Join(lines, "\n"))
}

func metricLine(label, value string) string {
	return fmt.Sprintf("%-18s %s", label, FigureStyle.Render(value))
}

// trendBars scales each period against the largest one.
func trendBars(points []model.TrendPoint) []string {
	peak := decimal.Zero
	for _, p := range points {
		if p.TotalSales.GreaterThan(peak) {
			peak = p.TotalSales
		}
	}

	out := make([]string, 0, len(points))
	for _, p := range points {
		n := 0
		if peak.IsPositive() {
			n = int(p.TotalSales.Mul(decimal.NewFromInt(barWidth)).Div(peak).Round(0).IntPart())
		}
		out = append(out, fmt.Sprintf("%s %s %s", p.MonthLabel(), SuccessStyle.Render(strings.Repeat("█", n)), FormatBRL(p.TotalSales)))
	}
	return out
}

// RenderImportSummary reports what an ingest accepted and dropped. At most
// maxRejections rejected rows are listed.
func RenderImportSummary(batch *pipeline.ValidatedBatch, workingSet int, maxRejections int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rows received:  %d\n", batch.Received)
	fmt.Fprintf(&b, "Rows accepted:  %s\n", SuccessStyle.Render(strconv.Itoa(batch.Accepted)))
	fmt.Fprintf(&b, "Rows rejected:  %s\n", rejectedCount(batch.Rejected))
	if batch.UnknownDates > 0 {
		fmt.Fprintf(&b, "Unknown dates:  %d\n", batch.UnknownDates)
	}
	fmt.Fprintf(&b, "Working set:    %d records", workingSet)

	for i, r := range batch.Rejections {
		if i == maxRejections {
			fmt.Fprintf(&b, "\n  … and %d more", len(batch.Rejections)-maxRejections)
			break
		}
		fmt.Fprintf(&b, "\n  row %d: %s %q %s", r.Row, r.Field, r.Value, SubtleStyle.Render(r.Reason))
	}

	return RenderBox("Import complete", b.String())
}

func rejectedCount(n int) string {
	if n == 0 {
		return "0"
	}
	return WarningStyle.Render(strconv.Itoa(n))
}
