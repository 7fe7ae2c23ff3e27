// Package ingestion runs one parse pass over a vendor file: header
// inference, row normalization, statistics, and policy enforcement. It has no
// opinion on processing modes; the pipeline package layers those on top.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/vendata/vendata/internal/domain"
	"github.com/vendata/vendata/internal/mapping"
	"github.com/vendata/vendata/internal/normalize"
)

var (
	// ErrMappingInvalid is returned when header inference cannot resolve the
	// required fields.
	ErrMappingInvalid = errors.New("inferred mapping is missing required fields")

	// ErrLowConfidence is returned when the mapping confidence is below the
	// pass's minimum.
	ErrLowConfidence = errors.New("mapping confidence below threshold")

	// ErrTooManyErrors is returned when the failed-row count reaches the
	// pass's cap.
	ErrTooManyErrors = errors.New("too many row errors")

	// ErrAborted is returned when a fatal row stops a stop-at-first-error
	// pass.
	ErrAborted = errors.New("parse pass aborted on first error")
)

// Service runs parse passes. It is safe for concurrent use: all per-run state
// lives in the pass, and the mapping cache is internally synchronized.
type Service struct {
	cache  *mapping.Cache
	logger *zap.Logger
}

// NewService creates a parse service. cache may be nil to disable mapping
// reuse.
func NewService(cache *mapping.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cache: cache, logger: logger}
}

// SeedMapping primes the cache under a key with a previously accepted
// mapping, typically one loaded from a stored vendor profile. An existing
// cache entry wins: it is at least as fresh as the store.
func (s *Service) SeedMapping(key string, m domain.FieldMapping, confidence float64) {
	if s.cache == nil || key == "" || len(m) == 0 {
		return
	}
	if _, ok := s.cache.Get(key); ok {
		return
	}
	s.cache.Put(key, mapping.Result{Mapping: m, Confidence: confidence})
}

// Request describes one parse pass input.
type Request struct {
	VendorID string
	FileName string
	Data     io.Reader

	// Delimiter forces a CSV delimiter; zero auto-detects.
	Delimiter rune

	// Mapping, when non-nil, skips header inference entirely (an imported or
	// vendor-profile mapping).
	Mapping domain.FieldMapping

	// CacheKey enables mapping reuse across runs under an explicit key.
	// Empty disables the cache for this run.
	CacheKey string

	Options PassOptions
}

// Result is the output bundle of one parse pass, handed downstream to
// deduplication, aggregation, and reporting.
type Result struct {
	Records  []domain.NormalizedRecord `json:"records"`
	Mapping  mapping.Result            `json:"mapping"`
	Stats    *Statistics               `json:"stats"`
	Warnings []normalize.Issue         `json:"warnings,omitempty"`

	// RowErrors are the fatal per-row issues, retained for diagnostics even
	// when the pass as a whole succeeds.
	RowErrors []normalize.Issue `json:"row_errors,omitempty"`
}

// Parse runs a full pass over the request's data.
func (s *Service) Parse(ctx context.Context, req Request) (*Result, error) {
	result := &Result{Stats: NewStatistics()}

	table, mapRes, err := s.prepare(req, result)
	if err != nil {
		return result, err
	}

	normalizer := normalize.NewRowNormalizer(mapRes.Mapping, normalize.Options{
		DefaultVendorID:       req.VendorID,
		AssumeFinanceSelected: req.Options.AssumeFinanceSelected,
		AllowDuplicates:       req.Options.AllowDuplicates,
	})

	err = s.consumeRows(ctx, table, normalizer, req.Options, result, func(rec domain.NormalizedRecord) error {
		result.Records = append(result.Records, rec)
		return nil
	})
	result.Stats.Finish()

	s.logger.Info("parse pass finished",
		zap.String("vendor", req.VendorID),
		zap.String("file", req.FileName),
		zap.Int("total_rows", result.Stats.TotalRows),
		zap.Int("successful", result.Stats.SuccessfulRows),
		zap.Int("failed", result.Stats.FailedRows),
		zap.Float64("confidence", mapRes.Confidence),
		zap.Error(err),
	)
	return result, err
}

// Chunk is one in-order slice of a streaming parse.
type Chunk struct {
	Index   int
	Records []domain.NormalizedRecord
}

// ParseStream behaves like Parse but delivers records to the callback in
// sequential chunks of chunkSize. Chunks are produced and handled strictly in
// order; a callback error aborts the pass.
func (s *Service) ParseStream(ctx context.Context, req Request, chunkSize int, fn func(Chunk) error) (*Result, error) {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	result := &Result{Stats: NewStatistics()}

	table, mapRes, err := s.prepare(req, result)
	if err != nil {
		return result, err
	}

	normalizer := normalize.NewRowNormalizer(mapRes.Mapping, normalize.Options{
		DefaultVendorID:       req.VendorID,
		AssumeFinanceSelected: req.Options.AssumeFinanceSelected,
		AllowDuplicates:       req.Options.AllowDuplicates,
	})

	chunk := Chunk{}
	flush := func() error {
		if len(chunk.Records) == 0 {
			return nil
		}
		if err := fn(chunk); err != nil {
			return fmt.Errorf("chunk %d handler: %w", chunk.Index, err)
		}
		chunk = Chunk{Index: chunk.Index + 1}
		return nil
	}

	err = s.consumeRows(ctx, table, normalizer, req.Options, result, func(rec domain.NormalizedRecord) error {
		chunk.Records = append(chunk.Records, rec)
		if len(chunk.Records) >= chunkSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	result.Stats.Finish()
	return result, err
}

// prepare reads the payload, parses the table, and resolves the field
// mapping (explicit, cached, or freshly inferred).
func (s *Service) prepare(req Request, result *Result) (tableData, mapping.Result, error) {
	if strings.TrimSpace(req.VendorID) == "" {
		return tableData{}, mapping.Result{}, errors.New("vendor id is required")
	}
	if req.Data == nil {
		return tableData{}, mapping.Result{}, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return tableData{}, mapping.Result{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return tableData{}, mapping.Result{}, errors.New("file is empty")
	}

	table, err := parseTable(req.FileName, payload, req.Delimiter)
	if err != nil {
		return tableData{}, mapping.Result{}, err
	}

	mapRes, err := s.resolveMapping(req, table.headers)
	result.Mapping = mapRes
	if err != nil {
		return tableData{}, mapRes, err
	}
	return table, mapRes, nil
}

func (s *Service) resolveMapping(req Request, headers []string) (mapping.Result, error) {
	var mapRes mapping.Result

	switch {
	case req.Mapping != nil:
		// Caller-supplied mappings are trusted for confidence but still
		// validated structurally.
		mapRes = mapping.Result{Mapping: req.Mapping, Confidence: 1.0}
	default:
		if s.cache != nil && req.CacheKey != "" {
			// A cached mapping only applies while the vendor keeps the same
			// columns; renamed headers force fresh inference.
			if cached, ok := s.cache.Get(req.CacheKey); ok && cached.Mapping.CoversColumns(headers) {
				mapRes = cached
				break
			}
		}
		mapRes = mapping.Infer(headers)
	}

	if err := mapRes.Mapping.Validate(); err != nil {
		return mapRes, fmt.Errorf("%w: %v", ErrMappingInvalid, err)
	}
	if mapRes.Confidence < req.Options.MinConfidence {
		return mapRes, fmt.Errorf("%w: %.2f < %.2f", ErrLowConfidence, mapRes.Confidence, req.Options.MinConfidence)
	}

	if s.cache != nil && req.CacheKey != "" && req.Mapping == nil {
		s.cache.Put(req.CacheKey, mapRes)
	}
	return mapRes, nil
}

// consumeRows drives the normalizer over every data row, enforcing the
// continue-on-error and max-error policies. emit receives each successful
// record in row order.
func (s *Service) consumeRows(
	ctx context.Context,
	table tableData,
	normalizer *normalize.RowNormalizer,
	opts PassOptions,
	result *Result,
	emit func(domain.NormalizedRecord) error,
) error {
	stats := result.Stats

	for rowIdx, cells := range table.rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		rowNum := table.headerRowIndex + rowIdx + 2 // 1-based, counting the header row

		raw := make(domain.RawRow, len(table.headers))
		for colIdx, header := range table.headers {
			if header == "" {
				continue
			}
			if colIdx < len(cells) {
				raw[header] = domain.Text(cells[colIdx])
			} else {
				raw[header] = domain.Absent()
			}
		}

		if raw.Empty() {
			if opts.SkipEmptyRows {
				stats.SkippedRows++
			} else {
				stats.EmptyRows++
				stats.TotalRows++
			}
			continue
		}

		stats.TotalRows++
		rec, issues := normalizer.Normalize(rowNum, raw)
		stats.Observe(issues)

		if rec == nil {
			stats.FailedRows++
			for _, issue := range issues {
				if issue.Fatal {
					result.RowErrors = append(result.RowErrors, issue)
				} else {
					result.Warnings = append(result.Warnings, issue)
				}
			}
			if !opts.ContinueOnError {
				return fmt.Errorf("%w: row %d", ErrAborted, rowNum)
			}
			if opts.MaxErrors > 0 && stats.FailedRows >= opts.MaxErrors {
				return fmt.Errorf("%w: %d failed rows", ErrTooManyErrors, stats.FailedRows)
			}
			continue
		}

		result.Warnings = append(result.Warnings, issues...)
		stats.SuccessfulRows++
		if err := emit(*rec); err != nil {
			return err
		}
	}
	return nil
}
