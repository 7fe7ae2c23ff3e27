package normalize

import (
	"fmt"

	"github.com/vendata/vendata/internal/domain"
)

// Options control per-run normalization behavior.
type Options struct {
	// DefaultVendorID is stamped onto records whose source has no vendor
	// column. A mapped, non-empty vendor cell overrides it per row.
	DefaultVendorID string

	// AssumeFinanceSelected is the finance-selected value used when no
	// finance column is mapped.
	AssumeFinanceSelected bool

	// AllowDuplicates downgrades a repeated order id from a fatal row error
	// to a warning. The repeat is counted in statistics either way.
	AllowDuplicates bool
}

// Issue is one classified problem found while normalizing a row. Fatal
// issues suppress the record; warnings accompany a successful record in the
// run-level log.
type Issue struct {
	Row     int                  `json:"row"`
	Field   domain.CanonicalField `json:"field"`
	Column  string               `json:"column,omitempty"`
	Message string               `json:"message"`
	Fatal   bool                 `json:"fatal"`

	// Duplicate marks the repeated-order-id issue so statistics can count it
	// separately from type problems.
	Duplicate bool `json:"duplicate,omitempty"`

	// MissingRequired and InvalidType drive the per-field statistics counters.
	MissingRequired bool `json:"missing_required,omitempty"`
	InvalidType     bool `json:"invalid_type,omitempty"`
}

// RowNormalizer applies a field mapping plus the value normalizers to raw
// rows. It carries the per-run duplicate seen-set, so one instance serves
// exactly one parse pass; reuse across runs without a reset is a bug.
type RowNormalizer struct {
	mapping domain.FieldMapping
	opts    Options
	seen    map[string]bool
}

// NewRowNormalizer builds a normalizer for one parse pass.
func NewRowNormalizer(mapping domain.FieldMapping, opts Options) *RowNormalizer {
	return &RowNormalizer{
		mapping: mapping,
		opts:    opts,
		seen:    make(map[string]bool),
	}
}

// Reset clears the duplicate seen-set so the instance can serve a fresh pass.
func (n *RowNormalizer) Reset() {
	n.seen = make(map[string]bool)
}

func (n *RowNormalizer) cell(row domain.RawRow, field domain.CanonicalField) (domain.RawValue, string) {
	column, ok := n.mapping.Column(field)
	if !ok {
		return domain.Absent(), ""
	}
	return row.Get(column), column
}

// Normalize converts one raw row. On success it returns a record plus any
// non-fatal warnings; on failure the record is nil and at least one returned
// issue is fatal.
func (n *RowNormalizer) Normalize(rowNum int, row domain.RawRow) (*domain.NormalizedRecord, []Issue) {
	var issues []Issue
	fatal := func(i Issue) { i.Row, i.Fatal = rowNum, true; issues = append(issues, i) }
	warn := func(i Issue) { i.Row = rowNum; issues = append(issues, i) }

	rec := &domain.NormalizedRecord{
		ProductName:           "Unknown",
		FinanceDecisionStatus: domain.StatusOther,
		VendorID:              n.opts.DefaultVendorID,
		FinanceSelected:       n.opts.AssumeFinanceSelected,
	}

	// Required: order id.
	if raw, col := n.cell(row, domain.FieldOrderID); raw.Empty() {
		fatal(Issue{Field: domain.FieldOrderID, Column: col, Message: "order id is missing", MissingRequired: true})
	} else {
		rec.OrderID = CleanString(raw.String())
	}

	// Required: order date.
	if raw, col := n.cell(row, domain.FieldOrderDate); raw.Empty() {
		fatal(Issue{Field: domain.FieldOrderDate, Column: col, Message: "order date is missing", MissingRequired: true})
	} else if ts, ok := ParseDate(raw.String()); ok {
		rec.OrderDate = ts
	} else {
		fatal(Issue{
			Field: domain.FieldOrderDate, Column: col,
			Message:     fmt.Sprintf("unparseable order date %q", raw.String()),
			InvalidType: true,
		})
	}

	// Duplicate order ids are tracked across the whole pass.
	if rec.OrderID != "" {
		if n.seen[rec.OrderID] {
			issue := Issue{
				Field:     domain.FieldOrderID,
				Message:   fmt.Sprintf("duplicate order id %q", rec.OrderID),
				Duplicate: true,
			}
			if n.opts.AllowDuplicates {
				warn(issue)
			} else {
				fatal(issue)
			}
		}
		n.seen[rec.OrderID] = true
	}

	if raw, _ := n.cell(row, domain.FieldProductName); !raw.Empty() {
		rec.ProductName = CleanString(raw.String())
	}
	if raw, _ := n.cell(row, domain.FieldProductSKU); !raw.Empty() {
		rec.ProductSKU = CleanString(raw.String())
	}
	if raw, _ := n.cell(row, domain.FieldProductCategory); !raw.Empty() {
		rec.ProductCategory = CleanString(raw.String())
	}

	if raw, col := n.cell(row, domain.FieldOrderValue); !raw.Empty() {
		if v, ok := ParseNumber(raw.String()); ok {
			rec.OrderValue = &v
		} else {
			warn(Issue{
				Field: domain.FieldOrderValue, Column: col,
				Message:     fmt.Sprintf("unparseable order value %q", raw.String()),
				InvalidType: true,
			})
		}
	}

	if raw, _ := n.cell(row, domain.FieldFinanceSelected); !raw.Empty() {
		selected, _ := ParseBool(raw.String())
		rec.FinanceSelected = selected
	}
	if raw, _ := n.cell(row, domain.FieldFinanceProvider); !raw.Empty() {
		rec.FinanceProvider = CleanString(raw.String())
	}
	if raw, col := n.cell(row, domain.FieldFinanceTermMonths); !raw.Empty() {
		if months, ok := ParseInteger(raw.String()); ok {
			rec.FinanceTermMonths = &months
		} else {
			warn(Issue{
				Field: domain.FieldFinanceTermMonths, Column: col,
				Message:     fmt.Sprintf("unparseable finance term %q", raw.String()),
				InvalidType: true,
			})
		}
	}
	if raw, _ := n.cell(row, domain.FieldFinanceDecisionStatus); !raw.Empty() {
		rec.FinanceDecisionStatus = ParseDecisionStatus(raw.String())
	}
	if raw, col := n.cell(row, domain.FieldFinanceDecisionDate); !raw.Empty() {
		if ts, ok := ParseDate(raw.String()); ok {
			rec.FinanceDecisionDate = &ts
		} else {
			warn(Issue{
				Field: domain.FieldFinanceDecisionDate, Column: col,
				Message:     fmt.Sprintf("unparseable decision date %q", raw.String()),
				InvalidType: true,
			})
		}
	}

	if raw, _ := n.cell(row, domain.FieldCustomerID); !raw.Empty() {
		rec.CustomerID = CleanString(raw.String())
	}
	if raw, _ := n.cell(row, domain.FieldVendorID); !raw.Empty() {
		if id, ok := ParseVendorID(raw.String()); ok {
			rec.VendorID = id
		}
	}

	if raw, col := n.cell(row, domain.FieldSalesChannel); !raw.Empty() {
		if ch, ok := ParseSalesChannel(raw.String()); ok {
			rec.SalesChannel = ch
		} else {
			warn(Issue{
				Field: domain.FieldSalesChannel, Column: col,
				Message: fmt.Sprintf("unrecognized sales channel %q", raw.String()),
			})
		}
	}
	if raw, col := n.cell(row, domain.FieldCustomerSegment); !raw.Empty() {
		if seg, ok := ParseCustomerSegment(raw.String()); ok {
			rec.CustomerSegment = seg
		} else {
			warn(Issue{
				Field: domain.FieldCustomerSegment, Column: col,
				Message: fmt.Sprintf("unrecognized customer segment %q", raw.String()),
			})
		}
	}

	var geo domain.GeoLocation
	if raw, _ := n.cell(row, domain.FieldCountry); !raw.Empty() {
		if code, ok := ParseCountry(raw.String()); ok {
			geo.Country = code
		}
	}
	if raw, _ := n.cell(row, domain.FieldRegion); !raw.Empty() {
		geo.Region = CleanString(raw.String())
	}
	if raw, _ := n.cell(row, domain.FieldPostalCode); !raw.Empty() {
		geo.PostalCode = CleanString(raw.String())
	}
	if geo.Country != "" {
		rec.Geography = &geo
	}

	if raw, col := n.cell(row, domain.FieldCurrency); !raw.Empty() {
		if ccy, ok := ParseCurrency(raw.String()); ok {
			rec.Currency = ccy
		} else {
			warn(Issue{
				Field: domain.FieldCurrency, Column: col,
				Message: fmt.Sprintf("unrecognized currency %q", raw.String()),
			})
		}
	}

	if rec.VendorID == "" {
		fatal(Issue{Field: domain.FieldVendorID, Message: "vendor id could not be resolved", MissingRequired: true})
	}

	// Deal-size band is always derived, never read from input.
	rec.DealSizeBand = domain.CalculateDealSizeBand(rec.OrderValue)

	for _, issue := range issues {
		if issue.Fatal {
			return nil, issues
		}
	}
	return rec, issues
}
