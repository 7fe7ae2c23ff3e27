// Package dedup identifies duplicate records by their (vendor id, order id)
// key, across batches and within a single batch.
package dedup

import "github.com/vendata/vendata/internal/domain"

// Duplicate pairs an incoming record with the existing record it collides
// with.
type Duplicate struct {
	Incoming domain.NormalizedRecord `json:"incoming"`
	Existing domain.NormalizedRecord `json:"existing"`
}

// Partition is the outcome of checking an incoming batch against an existing
// corpus.
type Partition struct {
	New        []domain.NormalizedRecord `json:"new"`
	Duplicates []Duplicate               `json:"duplicates"`

	// Rate is duplicates over total incoming, zero for an empty batch.
	Rate float64 `json:"rate"`
}

// PartitionAgainstExisting splits incoming records into new vs duplicate by
// dedup key. When several incoming records share a key, each is reported as a
// duplicate of the first existing match found.
func PartitionAgainstExisting(incoming, existing []domain.NormalizedRecord) Partition {
	index := make(map[domain.DedupKey]domain.NormalizedRecord, len(existing))
	for _, rec := range existing {
		if _, ok := index[rec.Key()]; !ok {
			index[rec.Key()] = rec
		}
	}

	var p Partition
	for _, rec := range incoming {
		if match, ok := index[rec.Key()]; ok {
			p.Duplicates = append(p.Duplicates, Duplicate{Incoming: rec, Existing: match})
			continue
		}
		// A record accepted as new becomes the existing match for any later
		// incoming record with the same key.
		index[rec.Key()] = rec
		p.New = append(p.New, rec)
	}

	if len(incoming) > 0 {
		p.Rate = float64(len(p.Duplicates)) / float64(len(incoming))
	}
	return p
}

// BatchResult is the outcome of within-batch deduplication.
type BatchResult struct {
	Records []domain.NormalizedRecord `json:"records"`

	// Dropped counts discarded occurrences per key.
	Dropped map[domain.DedupKey]int `json:"dropped,omitempty"`
}

// DeduplicateBatch keeps the first occurrence of each key. The operation is
// idempotent: running it on its own output drops nothing.
func DeduplicateBatch(records []domain.NormalizedRecord) BatchResult {
	result := BatchResult{Dropped: make(map[domain.DedupKey]int)}
	seen := make(map[domain.DedupKey]bool, len(records))

	for _, rec := range records {
		key := rec.Key()
		if seen[key] {
			result.Dropped[key]++
			continue
		}
		seen[key] = true
		result.Records = append(result.Records, rec)
	}
	return result
}

// MergeWithUpdates reconciles existing and incoming records, keeping
// whichever has the later order date per key. This is an opt-in policy; plain
// ingestion must use PartitionAgainstExisting instead.
func MergeWithUpdates(existing, incoming []domain.NormalizedRecord) []domain.NormalizedRecord {
	merged := make([]domain.NormalizedRecord, 0, len(existing)+len(incoming))
	index := make(map[domain.DedupKey]int, len(existing))

	for _, rec := range existing {
		key := rec.Key()
		if at, ok := index[key]; ok {
			if rec.OrderDate.After(merged[at].OrderDate) {
				merged[at] = rec
			}
			continue
		}
		index[key] = len(merged)
		merged = append(merged, rec)
	}
	for _, rec := range incoming {
		key := rec.Key()
		if at, ok := index[key]; ok {
			if rec.OrderDate.After(merged[at].OrderDate) {
				merged[at] = rec
			}
			continue
		}
		index[key] = len(merged)
		merged = append(merged, rec)
	}
	return merged
}
