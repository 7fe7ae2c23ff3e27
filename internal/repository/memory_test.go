package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vendata/vendata/internal/domain"
)

func TestMemoryVendorRepository(t *testing.T) {
	repo := NewMemoryVendorRepository()
	ctx := context.Background()

	profile := domain.NewVendorProfile("acme", "Acme Retail")
	profile.MappingConfidence = 0.92

	saved, err := repo.Upsert(ctx, profile)
	if err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}
	if saved.UpdatedAt.IsZero() {
		t.Fatalf("expected updated timestamp to be set")
	}

	got, err := repo.GetByID(ctx, "acme")
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if got.Name != "Acme Retail" || got.MappingConfidence != 0.92 {
		t.Fatalf("unexpected profile: %+v", got)
	}

	// Updating preserves the creation timestamp.
	created := got.CreatedAt
	got.Name = "Acme Retail Ltd"
	updated, err := repo.Upsert(ctx, got)
	if err != nil {
		t.Fatalf("second upsert returned error: %v", err)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Fatalf("upsert must not rewrite created_at")
	}

	if _, err := repo.GetByID(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, "acme"); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if err := repo.Delete(ctx, "acme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryRecordRepositoryUpsertAndList(t *testing.T) {
	repo := NewMemoryRecordRepository()
	ctx := context.Background()

	records := []domain.NormalizedRecord{
		{VendorID: "acme", OrderID: "ORD-2", OrderDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{VendorID: "acme", OrderID: "ORD-1", OrderDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{VendorID: "other", OrderID: "ORD-9", OrderDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	written, err := repo.UpsertBatch(ctx, records)
	if err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}
	if written != 3 {
		t.Fatalf("expected 3 written, got %d", written)
	}

	listed, total, err := repo.List(ctx, "acme", 10, 0)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if total != 2 || len(listed) != 2 {
		t.Fatalf("expected 2 acme records, got %d (total %d)", len(listed), total)
	}
	if listed[0].OrderID != "ORD-1" {
		t.Fatalf("expected date ordering, got %q first", listed[0].OrderID)
	}

	// Same key replaces rather than appends.
	replacement := domain.NormalizedRecord{
		VendorID:  "acme",
		OrderID:   "ORD-1",
		OrderDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	if _, err := repo.UpsertBatch(ctx, []domain.NormalizedRecord{replacement}); err != nil {
		t.Fatalf("replacement upsert returned error: %v", err)
	}
	count, err := repo.Count(ctx, "acme")
	if err != nil {
		t.Fatalf("count returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count to stay at 2, got %d", count)
	}
	got, err := repo.GetByKey(ctx, domain.DedupKey{VendorID: "acme", OrderID: "ORD-1"})
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if got.OrderDate.Day() != 5 {
		t.Fatalf("expected replacement to win, got %v", got.OrderDate)
	}
}

func TestMemoryRecordRepositoryExistingKeys(t *testing.T) {
	repo := NewMemoryRecordRepository()
	ctx := context.Background()

	_, err := repo.UpsertBatch(ctx, []domain.NormalizedRecord{
		{VendorID: "acme", OrderID: "ORD-1"},
		{VendorID: "acme", OrderID: "ORD-2"},
		{VendorID: "other", OrderID: "ORD-1"},
	})
	if err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}

	keys, err := repo.ExistingKeys(ctx, "acme")
	if err != nil {
		t.Fatalf("existing keys returned error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if _, ok := keys[domain.DedupKey{VendorID: "other", OrderID: "ORD-1"}]; ok {
		t.Fatalf("keys must be scoped per vendor")
	}
}

func TestMemoryRecordRepositoryPagination(t *testing.T) {
	repo := NewMemoryRecordRepository()
	ctx := context.Background()

	var records []domain.NormalizedRecord
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		records = append(records, domain.NormalizedRecord{
			VendorID:  "acme",
			OrderID:   string(rune('A' + i)),
			OrderDate: base.AddDate(0, 0, i),
		})
	}
	if _, err := repo.UpsertBatch(ctx, records); err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}

	page, total, err := repo.List(ctx, "acme", 2, 2)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Fatalf("unexpected page: len %d total %d", len(page), total)
	}
	if page[0].OrderID != "C" {
		t.Fatalf("expected page to start at C, got %q", page[0].OrderID)
	}

	empty, total, err := repo.List(ctx, "acme", 2, 10)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if total != 5 || len(empty) != 0 {
		t.Fatalf("offset past the end must return an empty page")
	}
}

func TestMemoryErrorLogRepository(t *testing.T) {
	repo := NewMemoryErrorLogRepository()
	ctx := context.Background()

	first := domain.NewStructuredError("acme", domain.SeverityHigh, domain.CategoryValidation, "order id is missing")
	second := domain.NewStructuredError("acme", domain.SeverityLow, domain.CategoryQuality, "low confidence")
	other := domain.NewStructuredError("other", domain.SeverityInfo, domain.CategoryParsing, "short row")

	for _, entry := range []*domain.StructuredError{first, second, other} {
		if err := repo.Record(ctx, entry); err != nil {
			t.Fatalf("record returned error: %v", err)
		}
	}

	entries, err := repo.List(ctx, "acme", 10, 0)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 acme entries, got %d", len(entries))
	}
	if entries[0].ID != second.ID {
		t.Fatalf("expected newest entry first")
	}
}
