package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vendata/vendata/internal/domain"
)

// MemoryVendorRepository is an in-memory VendorRepository for the CLI and
// tests.
type MemoryVendorRepository struct {
	mu       sync.RWMutex
	profiles map[string]domain.VendorProfile
}

// NewMemoryVendorRepository creates an empty in-memory vendor store.
func NewMemoryVendorRepository() *MemoryVendorRepository {
	return &MemoryVendorRepository{profiles: make(map[string]domain.VendorProfile)}
}

func (m *MemoryVendorRepository) Upsert(ctx context.Context, profile domain.VendorProfile) (domain.VendorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := m.profiles[profile.VendorID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	m.profiles[profile.VendorID] = profile
	return profile, nil
}

func (m *MemoryVendorRepository) GetByID(ctx context.Context, vendorID string) (domain.VendorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[vendorID]
	if !ok {
		return domain.VendorProfile{}, fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	return profile, nil
}

func (m *MemoryVendorRepository) List(ctx context.Context) ([]domain.VendorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profiles := make([]domain.VendorProfile, 0, len(m.profiles))
	for _, profile := range m.profiles {
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].VendorID < profiles[j].VendorID })
	return profiles, nil
}

func (m *MemoryVendorRepository) Delete(ctx context.Context, vendorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[vendorID]; !ok {
		return fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	delete(m.profiles, vendorID)
	return nil
}

// MemoryRecordRepository is an in-memory RecordRepository.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records map[domain.DedupKey]domain.NormalizedRecord
}

// NewMemoryRecordRepository creates an empty in-memory record store.
func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{records: make(map[domain.DedupKey]domain.NormalizedRecord)}
}

func (m *MemoryRecordRepository) UpsertBatch(ctx context.Context, records []domain.NormalizedRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		m.records[rec.Key()] = rec
	}
	return len(records), nil
}

func (m *MemoryRecordRepository) GetByKey(ctx context.Context, key domain.DedupKey) (domain.NormalizedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[key]
	if !ok {
		return domain.NormalizedRecord{}, fmt.Errorf("record %s/%s: %w", key.VendorID, key.OrderID, ErrNotFound)
	}
	return rec, nil
}

func (m *MemoryRecordRepository) List(ctx context.Context, vendorID string, limit int, offset int) ([]domain.NormalizedRecord, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]domain.NormalizedRecord, 0)
	for key, rec := range m.records {
		if key.VendorID == vendorID {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].OrderDate.Equal(matched[j].OrderDate) {
			return matched[i].OrderDate.Before(matched[j].OrderDate)
		}
		return matched[i].OrderID < matched[j].OrderID
	})

	total := len(matched)
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.NormalizedRecord{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *MemoryRecordRepository) ExistingKeys(ctx context.Context, vendorID string) (map[domain.DedupKey]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make(map[domain.DedupKey]struct{})
	for key := range m.records {
		if key.VendorID == vendorID {
			keys[key] = struct{}{}
		}
	}
	return keys, nil
}

func (m *MemoryRecordRepository) Count(ctx context.Context, vendorID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for key := range m.records {
		if key.VendorID == vendorID {
			count++
		}
	}
	return count, nil
}

// MemoryErrorLogRepository is an in-memory ErrorLogRepository.
type MemoryErrorLogRepository struct {
	mu      sync.RWMutex
	entries []domain.StructuredError
}

// NewMemoryErrorLogRepository creates an empty in-memory error log.
func NewMemoryErrorLogRepository() *MemoryErrorLogRepository {
	return &MemoryErrorLogRepository{}
}

func (m *MemoryErrorLogRepository) Record(ctx context.Context, entry *domain.StructuredError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *MemoryErrorLogRepository) List(ctx context.Context, vendorID string, limit int, offset int) ([]domain.StructuredError, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]domain.StructuredError, 0)
	for i := len(m.entries) - 1; i >= 0; i-- { // newest first
		if m.entries[i].VendorID == vendorID {
			matched = append(matched, m.entries[i])
		}
	}
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.StructuredError{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

var (
	_ VendorRepository   = (*MemoryVendorRepository)(nil)
	_ RecordRepository   = (*MemoryRecordRepository)(nil)
	_ ErrorLogRepository = (*MemoryErrorLogRepository)(nil)
)
