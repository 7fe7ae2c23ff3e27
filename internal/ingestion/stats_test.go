package ingestion

import (
	"testing"

	"github.com/vendata/vendata/internal/domain"
	"github.com/vendata/vendata/internal/normalize"
)

func TestStatisticsObserve(t *testing.T) {
	stats := NewStatistics()

	stats.Observe([]normalize.Issue{
		{Field: domain.FieldOrderID, MissingRequired: true},
		{Field: domain.FieldOrderValue, InvalidType: true},
		{Field: domain.FieldOrderID, Duplicate: true},
	})
	stats.Observe([]normalize.Issue{
		{Field: domain.FieldOrderValue, InvalidType: true},
	})

	if stats.MissingRequired[domain.FieldOrderID] != 1 {
		t.Fatalf("unexpected missing-required count: %+v", stats.MissingRequired)
	}
	if stats.InvalidTypes[domain.FieldOrderValue] != 2 {
		t.Fatalf("unexpected invalid-type count: %+v", stats.InvalidTypes)
	}
	if stats.DuplicateOrderIDs != 1 {
		t.Fatalf("unexpected duplicate count: %d", stats.DuplicateOrderIDs)
	}
}

func TestQualityScores(t *testing.T) {
	stats := NewStatistics()
	stats.TotalRows = 10
	stats.SuccessfulRows = 8
	stats.FailedRows = 2
	stats.InvalidTypes[domain.FieldOrderValue] = 4

	if got := stats.Completeness(); got != 0.8 {
		t.Fatalf("completeness: got %f", got)
	}
	if got := stats.Consistency(); got != 0.6 {
		t.Fatalf("consistency: got %f", got)
	}
	if got := stats.Accuracy(); got != 0.7 {
		t.Fatalf("accuracy: got %f", got)
	}
}

func TestQualityScoresEmptyRun(t *testing.T) {
	stats := NewStatistics()
	if stats.Completeness() != 0 || stats.Consistency() != 0 || stats.Accuracy() != 0 {
		t.Fatalf("empty run must score zero across the board")
	}
}

func TestConsistencyFloorsAtZero(t *testing.T) {
	stats := NewStatistics()
	stats.TotalRows = 2
	stats.InvalidTypes[domain.FieldOrderValue] = 3
	stats.InvalidTypes[domain.FieldFinanceTermMonths] = 1

	if got := stats.Consistency(); got != 0 {
		t.Fatalf("consistency must not go negative, got %f", got)
	}
}

func TestStatisticsReset(t *testing.T) {
	stats := NewStatistics()
	stats.TotalRows = 5
	stats.MissingRequired[domain.FieldOrderID] = 2

	stats.Reset()
	if stats.TotalRows != 0 || len(stats.MissingRequired) != 0 {
		t.Fatalf("reset left state behind: %+v", stats)
	}
}

func TestRowsPerSecond(t *testing.T) {
	stats := NewStatistics()
	stats.TotalRows = 500
	stats.ElapsedMS = 250

	if got := stats.RowsPerSecond(); got != 2000 {
		t.Fatalf("throughput: got %f", got)
	}
	stats.ElapsedMS = 0
	if got := stats.RowsPerSecond(); got != 0 {
		t.Fatalf("zero elapsed must yield zero, got %f", got)
	}
}
