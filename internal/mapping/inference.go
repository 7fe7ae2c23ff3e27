// Package mapping infers how a vendor's CSV columns line up with the
// canonical schema. Scoring is heuristic: a confidence near 1.0 means the
// headers matched known spellings closely, not that the data is trustworthy.
package mapping

import (
	"regexp"
	"strings"

	"github.com/vendata/vendata/internal/domain"
)

// fieldVariants lists known header spellings per canonical field. Matching is
// done on normalized text (lowercased, separators collapsed), so variants are
// written in their collapsed form.
var fieldVariants = map[domain.CanonicalField][]string{
	domain.FieldOrderID: {
		"order_id", "order_number", "order_no", "order_ref", "order_reference",
		"invoice_number", "invoice_no", "transaction_id", "sale_id", "ref",
	},
	domain.FieldOrderDate: {
		"order_date", "date", "sale_date", "transaction_date", "invoice_date",
		"purchase_date", "created", "created_at",
	},
	domain.FieldProductName: {
		"product_name", "product", "item", "item_name", "description",
		"product_description", "goods",
	},
	domain.FieldProductSKU: {
		"product_sku", "sku", "product_code", "item_code", "part_number",
	},
	domain.FieldProductCategory: {
		"product_category", "category", "product_type", "item_category",
	},
	domain.FieldOrderValue: {
		"order_value", "value", "amount", "total", "order_total", "price",
		"sale_amount", "net_value", "gross_value",
	},
	domain.FieldFinanceSelected: {
		"finance_selected", "finance", "financed", "on_finance", "finance_used",
		"finance_flag", "credit_selected",
	},
	domain.FieldFinanceProvider: {
		"finance_provider", "provider", "lender", "finance_company",
		"credit_provider",
	},
	domain.FieldFinanceTermMonths: {
		"finance_term_months", "term_months", "term", "finance_term",
		"loan_term", "months",
	},
	domain.FieldFinanceDecisionStatus: {
		"finance_decision_status", "decision_status", "decision", "finance_status",
		"application_status", "credit_decision",
	},
	domain.FieldFinanceDecisionDate: {
		"finance_decision_date", "decision_date", "approval_date",
		"application_date",
	},
	domain.FieldCustomerID: {
		"customer_id", "customer_number", "customer_ref", "client_id",
		"account_number",
	},
	domain.FieldVendorID: {
		"vendor_id", "vendor", "dealer_id", "dealer", "merchant_id",
		"retailer_id", "supplier_id",
	},
	domain.FieldSalesChannel: {
		"sales_channel", "channel", "sale_channel", "order_channel", "source",
	},
	domain.FieldCustomerSegment: {
		"customer_segment", "segment", "customer_type", "client_type",
	},
	domain.FieldCountry: {
		"country", "country_code", "nation",
	},
	domain.FieldRegion: {
		"region", "state", "county", "province",
	},
	domain.FieldPostalCode: {
		"postal_code", "postcode", "post_code", "zip", "zip_code",
	},
	domain.FieldCurrency: {
		"currency", "currency_code", "ccy",
	},
}

// acceptThreshold is the minimum similarity for a header to be claimed.
const acceptThreshold = 0.5

// Result is the outcome of header inference for one source.
type Result struct {
	Mapping    domain.FieldMapping `json:"mapping"`
	Confidence float64             `json:"confidence"`

	// Scores holds the accepted per-field similarity scores.
	Scores map[domain.CanonicalField]float64 `json:"scores,omitempty"`

	UnmappedFields []domain.CanonicalField `json:"unmapped_fields,omitempty"`
	UnusedHeaders  []string                `json:"unused_headers,omitempty"`
}

var separatorPattern = regexp.MustCompile(`[\s\-./]+`)

// normalizeHeader lowercases a header and collapses runs of separators to a
// single underscore so "Order  Date", "order-date" and "order.date" compare
// equal.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Trim(h, "\"'")
	h = separatorPattern.ReplaceAllString(h, "_")
	return strings.Trim(h, "_")
}

// similarity scores a normalized header against a normalized variant:
// 1.0 exact, 0.8 containment, otherwise character-overlap ratio.
func similarity(header, variant string) float64 {
	if header == "" || variant == "" {
		return 0
	}
	if header == variant {
		return 1.0
	}
	if strings.Contains(header, variant) || strings.Contains(variant, header) {
		return 0.8
	}
	return overlapRatio(header, variant)
}

// overlapRatio measures character overlap as the share of distinct character
// bigrams the two strings have in common, relative to the larger bigram set.
// Bigrams keep ordering information, so unrelated headers that merely share
// an alphabet score near zero.
func overlapRatio(a, b string) float64 {
	setA := bigrams(a)
	setB := bigrams(b)
	shared := 0
	for g := range setA {
		if setB[g] {
			shared++
		}
	}
	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	if larger == 0 {
		return 0
	}
	return float64(shared) / float64(larger)
}

func bigrams(s string) map[string]bool {
	runes := []rune(s)
	set := make(map[string]bool, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = true
	}
	return set
}

// Infer proposes a field mapping for a raw header list. Fields claim headers
// in canonical declaration order; once a header is claimed it cannot serve a
// later field, so the declaration order doubles as the tie-break policy.
func Infer(headers []string) Result {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	claimed := make(map[int]bool, len(headers))
	result := Result{
		Mapping: make(domain.FieldMapping),
		Scores:  make(map[domain.CanonicalField]float64),
	}

	for _, field := range domain.AllFields {
		variants := fieldVariants[field]
		bestIdx := -1
		bestScore := 0.0

		for idx, header := range normalized {
			if claimed[idx] || header == "" {
				continue
			}
			for _, variant := range variants {
				if score := similarity(header, variant); score > bestScore {
					bestScore = score
					bestIdx = idx
				}
			}
		}

		if bestIdx >= 0 && bestScore > acceptThreshold {
			claimed[bestIdx] = true
			result.Mapping[field] = headers[bestIdx]
			result.Scores[field] = bestScore
		} else {
			result.UnmappedFields = append(result.UnmappedFields, field)
		}
	}

	for idx, header := range headers {
		if !claimed[idx] {
			result.UnusedHeaders = append(result.UnusedHeaders, header)
		}
	}

	if len(result.Scores) > 0 {
		sum := 0.0
		for _, score := range result.Scores {
			sum += score
		}
		result.Confidence = sum / float64(len(result.Scores))
	}

	return result
}

// Valid reports whether the inferred mapping can be trusted structurally.
// Callers must still check Confidence against their own threshold.
func (r Result) Valid() bool {
	return r.Mapping.Validate() == nil
}
