package domain

import "time"

// FinanceDecisionStatus is the outcome of a finance application attached to
// an order. Unrecognized or absent source text maps to StatusOther, never to
// an error.
type FinanceDecisionStatus string

const (
	StatusApproved  FinanceDecisionStatus = "approved"
	StatusDeclined  FinanceDecisionStatus = "declined"
	StatusPending   FinanceDecisionStatus = "pending"
	StatusCancelled FinanceDecisionStatus = "cancelled"
	StatusOther     FinanceDecisionStatus = "other"
)

// SalesChannel is the channel an order was placed through.
type SalesChannel string

const (
	ChannelOnline    SalesChannel = "online"
	ChannelInStore   SalesChannel = "in_store"
	ChannelTelephone SalesChannel = "telephone"
	ChannelPartner   SalesChannel = "partner"
)

// CustomerSegment is a coarse customer classification.
type CustomerSegment string

const (
	SegmentConsumer   CustomerSegment = "consumer"
	SegmentBusiness   CustomerSegment = "business"
	SegmentPublic     CustomerSegment = "public_sector"
	SegmentCharity    CustomerSegment = "charity"
)

// DealSizeBand is a derived four-bucket classification of order value. It is
// never accepted from raw input, even when a source column looks like one.
type DealSizeBand string

const (
	BandUnder1K DealSizeBand = "under-1k"
	Band1KTo5K  DealSizeBand = "1k-5k"
	Band5KTo10K DealSizeBand = "5k-10k"
	BandOver10K DealSizeBand = "over-10k"
	BandNone    DealSizeBand = ""
)

// CalculateDealSizeBand buckets a positive order value. Nil or non-positive
// values carry no band. The four buckets partition the positive reals.
func CalculateDealSizeBand(value *float64) DealSizeBand {
	if value == nil || *value <= 0 {
		return BandNone
	}
	switch v := *value; {
	case v < 1000:
		return BandUnder1K
	case v < 5000:
		return Band1KTo5K
	case v < 10000:
		return Band5KTo10K
	default:
		return BandOver10K
	}
}

// GeoLocation is the geography block of a record. Country is required for the
// block to exist at all; region and postal code are optional refinements.
type GeoLocation struct {
	Country    string `json:"country"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// NormalizedRecord is the canonical output unit of the pipeline. Instances
// are immutable once built by the row normalizer; the deduplication and
// storage layers own them afterwards.
type NormalizedRecord struct {
	OrderID   string    `json:"order_id"`
	OrderDate time.Time `json:"order_date"`
	VendorID  string    `json:"vendor_id"`

	ProductName     string `json:"product_name"`
	ProductSKU      string `json:"product_sku,omitempty"`
	ProductCategory string `json:"product_category,omitempty"`

	OrderValue *float64 `json:"order_value,omitempty"`

	FinanceSelected       bool                  `json:"finance_selected"`
	FinanceProvider       string                `json:"finance_provider,omitempty"`
	FinanceTermMonths     *int                  `json:"finance_term_months,omitempty"`
	FinanceDecisionStatus FinanceDecisionStatus `json:"finance_decision_status"`
	FinanceDecisionDate   *time.Time            `json:"finance_decision_date,omitempty"`

	CustomerID      string          `json:"customer_id,omitempty"`
	SalesChannel    SalesChannel    `json:"sales_channel,omitempty"`
	CustomerSegment CustomerSegment `json:"customer_segment,omitempty"`
	Geography       *GeoLocation    `json:"geography,omitempty"`
	Currency        string          `json:"currency,omitempty"`

	DealSizeBand DealSizeBand `json:"deal_size_band,omitempty"`
}

// DedupKey identifies the logical transaction a record describes. Two
// records sharing a key are the same transaction regardless of any other
// field difference.
type DedupKey struct {
	VendorID string
	OrderID  string
}

// Key returns the record's deduplication key.
func (r NormalizedRecord) Key() DedupKey {
	return DedupKey{VendorID: r.VendorID, OrderID: r.OrderID}
}
