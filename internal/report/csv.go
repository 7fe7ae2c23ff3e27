package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/vendata/vendata/internal/domain"
)

var exportHeader = []string{
	"vendor_id", "order_id", "order_date", "product_name", "product_sku",
	"product_category", "order_value", "finance_selected", "finance_provider",
	"finance_term_months", "finance_decision_status", "finance_decision_date",
	"customer_id", "sales_channel", "customer_segment", "country", "region",
	"postal_code", "currency", "deal_size_band",
}

// WriteCSV exports normalized records in canonical column order.
func WriteCSV(w io.Writer, records []domain.NormalizedRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.VendorID,
			rec.OrderID,
			rec.OrderDate.Format(time.RFC3339),
			rec.ProductName,
			rec.ProductSKU,
			rec.ProductCategory,
			formatFloat(rec.OrderValue),
			strconv.FormatBool(rec.FinanceSelected),
			rec.FinanceProvider,
			formatInt(rec.FinanceTermMonths),
			string(rec.FinanceDecisionStatus),
			formatTime(rec.FinanceDecisionDate),
			rec.CustomerID,
			string(rec.SalesChannel),
			string(rec.CustomerSegment),
			geoField(rec.Geography, func(g *domain.GeoLocation) string { return g.Country }),
			geoField(rec.Geography, func(g *domain.GeoLocation) string { return g.Region }),
			geoField(rec.Geography, func(g *domain.GeoLocation) string { return g.PostalCode }),
			rec.Currency,
			string(rec.DealSizeBand),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}

func geoField(g *domain.GeoLocation, pick func(*domain.GeoLocation) string) string {
	if g == nil {
		return ""
	}
	return pick(g)
}
