package repository

import (
	"context"

	"github.com/vendata/vendata/internal/domain"
)

// VendorRepository stores vendor profiles: the learned mapping and per-vendor
// normalization defaults.
type VendorRepository interface {
	Upsert(ctx context.Context, profile domain.VendorProfile) (domain.VendorProfile, error)
	GetByID(ctx context.Context, vendorID string) (domain.VendorProfile, error)
	List(ctx context.Context) ([]domain.VendorProfile, error)
	Delete(ctx context.Context, vendorID string) error
}

// RecordRepository stores normalized records keyed by (vendor, order id).
type RecordRepository interface {
	// UpsertBatch writes records, replacing any existing row with the same
	// key. Returns how many rows were written.
	UpsertBatch(ctx context.Context, records []domain.NormalizedRecord) (int, error)
	GetByKey(ctx context.Context, key domain.DedupKey) (domain.NormalizedRecord, error)
	List(ctx context.Context, vendorID string, limit int, offset int) ([]domain.NormalizedRecord, int, error)

	// ExistingKeys returns the set of keys already stored for a vendor, for
	// pre-insert deduplication.
	ExistingKeys(ctx context.Context, vendorID string) (map[domain.DedupKey]struct{}, error)
	Count(ctx context.Context, vendorID string) (int64, error)
}

// ErrorLogRepository persists structured errors for observability.
type ErrorLogRepository interface {
	Record(ctx context.Context, entry *domain.StructuredError) error
	List(ctx context.Context, vendorID string, limit int, offset int) ([]domain.StructuredError, error)
}
