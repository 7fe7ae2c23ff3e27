package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendata/vendata/internal/domain"
	"github.com/vendata/vendata/internal/ingestion"
	"github.com/vendata/vendata/internal/mapping"
	"github.com/vendata/vendata/internal/pipeline"
)

func sampleRun() *pipeline.RunResult {
	v1, v2 := 1200.0, 300.0
	stats := ingestion.NewStatistics()
	stats.TotalRows = 3
	stats.SuccessfulRows = 2
	stats.FailedRows = 1

	return &pipeline.RunResult{
		Mode:     pipeline.ModeAdaptive,
		Path:     "strict->lenient",
		Verdict:  pipeline.VerdictFair,
		Passed:   true,
		Accuracy: 0.83,
		Result: &ingestion.Result{
			Records: []domain.NormalizedRecord{
				{
					VendorID: "acme", OrderID: "ORD-1",
					OrderDate:             time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
					OrderValue:            &v1,
					FinanceSelected:       true,
					FinanceDecisionStatus: domain.StatusApproved,
					SalesChannel:          domain.ChannelOnline,
					CustomerSegment:       domain.SegmentConsumer,
					DealSizeBand:          domain.Band1KTo5K,
				},
				{
					VendorID: "acme", OrderID: "ORD-2",
					OrderDate:    time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC),
					OrderValue:   &v2,
					SalesChannel: domain.ChannelOnline,
					DealSizeBand: domain.BandUnder1K,
				},
			},
			Mapping: mapping.Result{Confidence: 0.9, UnusedHeaders: []string{"Internal Notes"}},
			Stats:   stats,
		},
	}
}

func TestBuildSummary(t *testing.T) {
	summary := Build("acme", "orders.csv", sampleRun())

	assert.Equal(t, "acme", summary.VendorID)
	assert.Equal(t, 3, summary.TotalRows)
	assert.Equal(t, 2, summary.SuccessfulRows)
	assert.Equal(t, 1500.0, summary.TotalValue)
	assert.Equal(t, 1, summary.FinanceSelected)
	assert.InDelta(t, 0.5, summary.FinancePenetration(), 0.001)
	assert.InDelta(t, 1.0, summary.ApprovalRate(), 0.001)

	require.Len(t, summary.BandCounts, 2)
	assert.Equal(t, LabelCount{Label: "1k-5k", Count: 1}, summary.BandCounts[0])
	require.Len(t, summary.ChannelCounts, 1)
	assert.Equal(t, LabelCount{Label: "online", Count: 2}, summary.ChannelCounts[0])
	require.Len(t, summary.SegmentCounts, 1)
	assert.Equal(t, LabelCount{Label: "consumer", Count: 1}, summary.SegmentCounts[0])
	require.Len(t, summary.MonthCounts, 2)
	assert.Equal(t, LabelCount{Label: "2024-01", Count: 1}, summary.MonthCounts[0])
	assert.Equal(t, LabelCount{Label: "2024-02", Count: 1}, summary.MonthCounts[1])
}

func TestBuildSummaryNilResult(t *testing.T) {
	run := &pipeline.RunResult{Mode: pipeline.ModeStrict, Path: "strict", Verdict: pipeline.VerdictUnacceptable}
	summary := Build("acme", "orders.csv", run)
	assert.Equal(t, 0, summary.TotalRows)
	assert.Equal(t, 0.0, summary.FinancePenetration())
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, Build("acme", "orders.csv", sampleRun())))

	out := buf.String()
	assert.Contains(t, out, "Ingestion report for acme")
	assert.Contains(t, out, "path: strict->lenient")
	assert.Contains(t, out, "fair (passed)")
	assert.Contains(t, out, "Internal Notes")
}

func TestRenderHTMLEscapes(t *testing.T) {
	run := sampleRun()
	run.Result.Mapping.UnusedHeaders = []string{"<script>alert(1)</script>"}

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, Build("acme", "orders.csv", run)))

	out := buf.String()
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestWriteCSVRoundTrip(t *testing.T) {
	records := sampleRun().Result.Records

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	parsed, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 3) // header + 2 rows

	assert.Equal(t, "vendor_id", parsed[0][0])
	assert.Equal(t, "ORD-1", parsed[1][1])
	assert.Equal(t, "1200", parsed[1][6])
	assert.Equal(t, "", parsed[1][9], "nil term months renders empty")
	assert.Equal(t, "1k-5k", parsed[1][19])
}
