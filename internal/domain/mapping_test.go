package domain

import (
	"reflect"
	"testing"
)

func TestMappingValidateRequiresOrderIDAndDate(t *testing.T) {
	m := FieldMapping{
		FieldOrderID:     "Order Ref",
		FieldProductName: "Item",
	}
	if err := m.Validate(); err == nil {
		t.Fatalf("expected validation error for missing order date")
	}

	m[FieldOrderDate] = "Date"
	if err := m.Validate(); err != nil {
		t.Fatalf("mapping with both required fields should validate: %v", err)
	}

	delete(m, FieldOrderID)
	if err := m.Validate(); err == nil {
		t.Fatalf("expected validation error for missing order id")
	}
}

func TestMappingValidateRejectsColumnCollision(t *testing.T) {
	m := FieldMapping{
		FieldOrderID:    "ref",
		FieldOrderDate:  "date",
		FieldCustomerID: "ref",
	}
	if err := m.Validate(); err == nil {
		t.Fatalf("expected collision error when two fields claim one column")
	}
}

func TestMappingExportImportRoundTrip(t *testing.T) {
	m := FieldMapping{
		FieldOrderID:      "Order Number",
		FieldOrderDate:    "Sale Date",
		FieldOrderValue:   "Total (GBP)",
		FieldSalesChannel: "Channel",
	}

	data, err := m.Export()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	imported, err := ImportMapping(data)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if !reflect.DeepEqual(m, imported) {
		t.Fatalf("round trip mismatch:\nexported: %+v\nimported: %+v", m, imported)
	}
}

func TestImportMappingRejectsUnknownField(t *testing.T) {
	if _, err := ImportMapping([]byte(`{"deal_size_band":"Band"}`)); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
}
