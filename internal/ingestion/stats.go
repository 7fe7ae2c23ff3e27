package ingestion

import (
	"time"

	"github.com/vendata/vendata/internal/domain"
	"github.com/vendata/vendata/internal/normalize"
)

// PassOptions are the policy knobs for one parse pass.
type PassOptions struct {
	// ContinueOnError keeps the pass running after a fatal row error.
	ContinueOnError bool

	// MaxErrors halts the pass early once this many rows have failed, even
	// in continue mode. Zero means no cap.
	MaxErrors int

	// AllowDuplicates tolerates repeated order ids (warning instead of fatal).
	AllowDuplicates bool

	// SkipEmptyRows silently skips all-blank rows instead of recording them.
	SkipEmptyRows bool

	// MinConfidence is the mapping confidence below which the pass refuses
	// to run.
	MinConfidence float64

	// AssumeFinanceSelected is the record default when no finance column is
	// mapped.
	AssumeFinanceSelected bool
}

// Statistics accumulates row and field level counts across one parse pass.
// An instance is scoped to a single run; reuse without Reset is a bug.
type Statistics struct {
	TotalRows      int `json:"total_rows"`
	SuccessfulRows int `json:"successful_rows"`
	FailedRows     int `json:"failed_rows"`
	SkippedRows    int `json:"skipped_rows"`
	EmptyRows      int `json:"empty_rows"`

	DuplicateOrderIDs int `json:"duplicate_order_ids"`

	MissingRequired map[domain.CanonicalField]int `json:"missing_required,omitempty"`
	InvalidTypes    map[domain.CanonicalField]int `json:"invalid_types,omitempty"`

	StartedAt time.Time `json:"started_at"`
	ElapsedMS int64     `json:"elapsed_ms"`
}

// NewStatistics starts an accumulator with the clock running.
func NewStatistics() *Statistics {
	return &Statistics{
		MissingRequired: make(map[domain.CanonicalField]int),
		InvalidTypes:    make(map[domain.CanonicalField]int),
		StartedAt:       time.Now().UTC(),
	}
}

// Reset returns the accumulator to its initial state for a fresh pass.
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}

// Observe folds one row's issues into the counters.
func (s *Statistics) Observe(issues []normalize.Issue) {
	for _, issue := range issues {
		if issue.Duplicate {
			s.DuplicateOrderIDs++
		}
		if issue.MissingRequired {
			s.MissingRequired[issue.Field]++
		}
		if issue.InvalidType {
			s.InvalidTypes[issue.Field]++
		}
	}
}

// Finish stamps elapsed time.
func (s *Statistics) Finish() {
	s.ElapsedMS = time.Since(s.StartedAt).Milliseconds()
}

// RowsPerSecond derives throughput from the elapsed time.
func (s *Statistics) RowsPerSecond() float64 {
	if s.ElapsedMS <= 0 {
		return 0
	}
	return float64(s.TotalRows) / (float64(s.ElapsedMS) / 1000.0)
}

// Completeness is the share of rows that normalized successfully.
func (s *Statistics) Completeness() float64 {
	if s.TotalRows == 0 {
		return 0
	}
	return float64(s.SuccessfulRows) / float64(s.TotalRows)
}

// Consistency is 1 minus the share of rows with type problems.
func (s *Statistics) Consistency() float64 {
	if s.TotalRows == 0 {
		return 0
	}
	invalid := 0
	for _, n := range s.InvalidTypes {
		invalid += n
	}
	score := 1 - float64(invalid)/float64(s.TotalRows)
	if score < 0 {
		return 0
	}
	return score
}

// Accuracy is the average of completeness and consistency. These scores are
// heuristics derived from counts, reproducible from the same snapshot.
func (s *Statistics) Accuracy() float64 {
	return (s.Completeness() + s.Consistency()) / 2
}
