package domain

// CanonicalField is a fixed slot in the target schema, independent of how any
// vendor names its columns.
type CanonicalField string

const (
	FieldOrderID               CanonicalField = "order_id"
	FieldOrderDate             CanonicalField = "order_date"
	FieldProductName           CanonicalField = "product_name"
	FieldProductSKU            CanonicalField = "product_sku"
	FieldProductCategory       CanonicalField = "product_category"
	FieldOrderValue            CanonicalField = "order_value"
	FieldFinanceSelected       CanonicalField = "finance_selected"
	FieldFinanceProvider       CanonicalField = "finance_provider"
	FieldFinanceTermMonths     CanonicalField = "finance_term_months"
	FieldFinanceDecisionStatus CanonicalField = "finance_decision_status"
	FieldFinanceDecisionDate   CanonicalField = "finance_decision_date"
	FieldCustomerID            CanonicalField = "customer_id"
	FieldVendorID              CanonicalField = "vendor_id"
	FieldSalesChannel          CanonicalField = "sales_channel"
	FieldCustomerSegment       CanonicalField = "customer_segment"
	FieldCountry               CanonicalField = "country"
	FieldRegion                CanonicalField = "region"
	FieldPostalCode            CanonicalField = "postal_code"
	FieldCurrency              CanonicalField = "currency"
)

// AllFields lists every canonical field in declaration order. Header
// inference claims source columns in this order, so the order is part of the
// mapping contract and must not be reshuffled.
var AllFields = []CanonicalField{
	FieldOrderID,
	FieldOrderDate,
	FieldProductName,
	FieldProductSKU,
	FieldProductCategory,
	FieldOrderValue,
	FieldFinanceSelected,
	FieldFinanceProvider,
	FieldFinanceTermMonths,
	FieldFinanceDecisionStatus,
	FieldFinanceDecisionDate,
	FieldCustomerID,
	FieldVendorID,
	FieldSalesChannel,
	FieldCustomerSegment,
	FieldCountry,
	FieldRegion,
	FieldPostalCode,
	FieldCurrency,
}

// RequiredFields are the canonical fields a mapping must resolve before any
// rows are normalized against it.
var RequiredFields = []CanonicalField{FieldOrderID, FieldOrderDate}
