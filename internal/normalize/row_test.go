package normalize

import (
	"testing"
	"time"

	"github.com/vendata/vendata/internal/domain"
)

var testMapping = domain.FieldMapping{
	domain.FieldOrderID:         "order_id",
	domain.FieldOrderDate:       "date",
	domain.FieldProductName:     "name",
	domain.FieldOrderValue:      "value",
	domain.FieldFinanceSelected: "financed",
}

func row(cells map[string]string) domain.RawRow {
	r := make(domain.RawRow, len(cells))
	for col, v := range cells {
		r[col] = domain.Text(v)
	}
	return r
}

func TestNormalizeMissingOrderIDIsFatal(t *testing.T) {
	n := NewRowNormalizer(testMapping, Options{DefaultVendorID: "acme"})

	rec, issues := n.Normalize(1, row(map[string]string{
		"order_id": "", "date": "2024-11-15", "name": "A",
	}))
	if rec != nil {
		t.Fatalf("expected no record for missing order id")
	}
	foundFatal := false
	for _, issue := range issues {
		if issue.Fatal && issue.Field == domain.FieldOrderID && issue.MissingRequired {
			foundFatal = true
		}
	}
	if !foundFatal {
		t.Fatalf("expected fatal missing-required issue, got %+v", issues)
	}

	rec, issues = n.Normalize(2, row(map[string]string{
		"order_id": "X2", "date": "15/03/2024", "name": "B",
	}))
	if rec == nil {
		t.Fatalf("expected a record, got issues %+v", issues)
	}
	if rec.OrderID != "X2" {
		t.Errorf("order id = %q", rec.OrderID)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !rec.OrderDate.Equal(want) {
		t.Errorf("UK-format date parsed as %v, want %v", rec.OrderDate, want)
	}
}

func TestNormalizeUnparseableDateIsFatal(t *testing.T) {
	n := NewRowNormalizer(testMapping, Options{DefaultVendorID: "acme"})
	rec, issues := n.Normalize(1, row(map[string]string{
		"order_id": "X1", "date": "sometime last week",
	}))
	if rec != nil {
		t.Fatalf("expected no record for unparseable date")
	}
	if len(issues) == 0 || !issues[0].Fatal || !issues[0].InvalidType {
		t.Fatalf("expected fatal invalid-type issue, got %+v", issues)
	}
}

func TestNormalizeBadNumericIsWarningOnly(t *testing.T) {
	n := NewRowNormalizer(testMapping, Options{DefaultVendorID: "acme"})
	rec, issues := n.Normalize(1, row(map[string]string{
		"order_id": "X1", "date": "2024-01-10", "value": "n/a",
	}))
	if rec == nil {
		t.Fatalf("bad numeric must not suppress the record, issues %+v", issues)
	}
	if rec.OrderValue != nil {
		t.Errorf("unparseable value should leave the field empty")
	}
	if len(issues) != 1 || issues[0].Fatal || !issues[0].InvalidType {
		t.Fatalf("expected one non-fatal invalid-type warning, got %+v", issues)
	}
}

func TestNormalizeDuplicatePolicy(t *testing.T) {
	base := map[string]string{"order_id": "X1", "date": "2024-01-10"}

	// Duplicates disallowed: second occurrence is fatal.
	strict := NewRowNormalizer(testMapping, Options{DefaultVendorID: "acme"})
	if rec, _ := strict.Normalize(1, row(base)); rec == nil {
		t.Fatalf("first occurrence must succeed")
	}
	rec, issues := strict.Normalize(2, row(base))
	if rec != nil {
		t.Fatalf("expected duplicate to be rejected")
	}
	if len(issues) != 1 || !issues[0].Fatal || !issues[0].Duplicate {
		t.Fatalf("expected fatal duplicate issue, got %+v", issues)
	}

	// Duplicates allowed: second occurrence is a warning and yields a record.
	lenient := NewRowNormalizer(testMapping, Options{DefaultVendorID: "acme", AllowDuplicates: true})
	lenient.Normalize(1, row(base))
	rec, issues = lenient.Normalize(2, row(base))
	if rec == nil {
		t.Fatalf("tolerated duplicate must still yield a record")
	}
	if len(issues) != 1 || issues[0].Fatal || !issues[0].Duplicate {
		t.Fatalf("expected non-fatal duplicate warning, got %+v", issues)
	}
}

func TestNormalizeDefaultsAndDerivedBand(t *testing.T) {
	n := NewRowNormalizer(testMapping, Options{
		DefaultVendorID:       "acme",
		AssumeFinanceSelected: true,
	})
	rec, _ := n.Normalize(1, row(map[string]string{
		"order_id": "X9", "date": "2024-05-01", "value": "£7,250.00",
	}))
	if rec == nil {
		t.Fatalf("expected a record")
	}
	if rec.ProductName != "Unknown" {
		t.Errorf("missing product name should default to Unknown, got %q", rec.ProductName)
	}
	if !rec.FinanceSelected {
		t.Errorf("assume-financed default not applied")
	}
	if rec.FinanceDecisionStatus != domain.StatusOther {
		t.Errorf("absent decision status should default to other, got %q", rec.FinanceDecisionStatus)
	}
	if rec.VendorID != "acme" {
		t.Errorf("vendor id = %q", rec.VendorID)
	}
	if rec.DealSizeBand != domain.Band5KTo10K {
		t.Errorf("band = %q for value 7250", rec.DealSizeBand)
	}
}

func TestNormalizeFinanceSelectedFromColumn(t *testing.T) {
	n := NewRowNormalizer(testMapping, Options{DefaultVendorID: "acme", AssumeFinanceSelected: true})
	rec, _ := n.Normalize(1, row(map[string]string{
		"order_id": "X1", "date": "2024-05-01", "financed": "no",
	}))
	if rec == nil {
		t.Fatalf("expected a record")
	}
	if rec.FinanceSelected {
		t.Errorf("mapped finance column must override the assume-financed default")
	}
}

func TestNormalizeNoVendorResolvableIsFatal(t *testing.T) {
	n := NewRowNormalizer(testMapping, Options{})
	rec, issues := n.Normalize(1, row(map[string]string{
		"order_id": "X1", "date": "2024-05-01",
	}))
	if rec != nil {
		t.Fatalf("expected failure when no vendor id can be resolved")
	}
	found := false
	for _, issue := range issues {
		if issue.Field == domain.FieldVendorID && issue.Fatal {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fatal vendor id issue, got %+v", issues)
	}
}
