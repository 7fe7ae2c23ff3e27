// Package report aggregates a pipeline run into a human-readable summary.
package report

import (
	"sort"
	"time"

	"github.com/vendata/vendata/internal/domain"
	"github.com/vendata/vendata/internal/pipeline"
)

// Summary is the aggregated view of one pipeline run.
type Summary struct {
	VendorID    string
	FileName    string
	GeneratedAt time.Time

	Mode    pipeline.Mode
	Path    string
	Verdict pipeline.QualityVerdict
	Passed  bool

	TotalRows      int
	SuccessfulRows int
	FailedRows     int
	SkippedRows    int
	Duplicates     int

	Completeness float64
	Consistency  float64
	Accuracy     float64

	MappingConfidence float64
	UnusedHeaders     []string

	TotalValue      float64
	FinanceSelected int
	FinanceApproved int

	// Categorical breakdowns, sorted by label for stable rendering.
	BandCounts    []LabelCount
	ChannelCounts []LabelCount
	SegmentCounts []LabelCount
	MonthCounts   []LabelCount

	Warnings  int
	RowErrors int
}

// LabelCount is one row of a categorical breakdown.
type LabelCount struct {
	Label string
	Count int
}

// Build aggregates a run result into a summary.
func Build(vendorID, fileName string, run *pipeline.RunResult) Summary {
	summary := Summary{
		VendorID:    vendorID,
		FileName:    fileName,
		GeneratedAt: time.Now().UTC(),
		Mode:        run.Mode,
		Path:        run.Path,
		Verdict:     run.Verdict,
		Passed:      run.Passed,
		Accuracy:    run.Accuracy,
	}
	if run.Result == nil {
		return summary
	}

	res := run.Result
	summary.MappingConfidence = res.Mapping.Confidence
	summary.UnusedHeaders = res.Mapping.UnusedHeaders
	summary.Warnings = len(res.Warnings)
	summary.RowErrors = len(res.RowErrors)

	if res.Stats != nil {
		summary.TotalRows = res.Stats.TotalRows
		summary.SuccessfulRows = res.Stats.SuccessfulRows
		summary.FailedRows = res.Stats.FailedRows
		summary.SkippedRows = res.Stats.SkippedRows
		summary.Duplicates = res.Stats.DuplicateOrderIDs
		summary.Completeness = res.Stats.Completeness()
		summary.Consistency = res.Stats.Consistency()
	}

	bands := make(map[string]int)
	channels := make(map[string]int)
	segments := make(map[string]int)
	months := make(map[string]int)
	for _, rec := range res.Records {
		if rec.OrderValue != nil {
			summary.TotalValue += *rec.OrderValue
		}
		if rec.FinanceSelected {
			summary.FinanceSelected++
		}
		if rec.FinanceDecisionStatus == domain.StatusApproved {
			summary.FinanceApproved++
		}
		if rec.DealSizeBand != domain.BandNone {
			bands[string(rec.DealSizeBand)]++
		}
		if rec.SalesChannel != "" {
			channels[string(rec.SalesChannel)]++
		}
		if rec.CustomerSegment != "" {
			segments[string(rec.CustomerSegment)]++
		}
		months[rec.OrderDate.Format("2006-01")]++
	}
	summary.BandCounts = sortedCounts(bands)
	summary.ChannelCounts = sortedCounts(channels)
	summary.SegmentCounts = sortedCounts(segments)
	summary.MonthCounts = sortedCounts(months)
	return summary
}

func sortedCounts(counts map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		out = append(out, LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// FinancePenetration is the share of successful records with finance
// selected.
func (s Summary) FinancePenetration() float64 {
	if s.SuccessfulRows == 0 {
		return 0
	}
	return float64(s.FinanceSelected) / float64(s.SuccessfulRows)
}

// ApprovalRate is the share of finance-selected records that were approved.
func (s Summary) ApprovalRate() float64 {
	if s.FinanceSelected == 0 {
		return 0
	}
	return float64(s.FinanceApproved) / float64(s.FinanceSelected)
}
