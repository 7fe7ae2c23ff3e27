package domain

import "time"

// VendorProfile stores what the pipeline has learned about one data source:
// the last accepted field mapping, its confidence, and per-vendor
// normalization defaults.
type VendorProfile struct {
	VendorID string `json:"vendor_id"`
	Name     string `json:"name"`

	Mapping           FieldMapping `json:"mapping,omitempty"`
	MappingConfidence float64      `json:"mapping_confidence"`

	// AssumeFinanceSelected is the default for records whose source has no
	// finance-selected column.
	AssumeFinanceSelected bool `json:"assume_finance_selected"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewVendorProfile creates a profile with timestamps set.
func NewVendorProfile(vendorID, name string) VendorProfile {
	now := time.Now().UTC()
	return VendorProfile{
		VendorID:  vendorID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
