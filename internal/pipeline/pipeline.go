// Package pipeline wraps the parse service behind the four named processing
// modes and implements the adaptive fallback chain.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/vendata/vendata/internal/dedup"
	"github.com/vendata/vendata/internal/domain"
	"github.com/vendata/vendata/internal/ingestion"
	"github.com/vendata/vendata/internal/recovery"
	"github.com/vendata/vendata/internal/repository"
)

// Stores are optional persistence hooks. A processor with zero-value stores
// runs entirely in memory.
type Stores struct {
	Records repository.RecordRepository
	Vendors repository.VendorRepository
	Errors  repository.ErrorLogRepository
}

// Processor orchestrates ingestion runs. Pass-level failures are always
// routed through the recovery handler before they surface.
type Processor struct {
	svc     *ingestion.Service
	handler *recovery.Handler
	logger  *zap.Logger

	// QualityThreshold is the minimum accuracy for "passed"; zero uses the
	// default.
	QualityThreshold float64

	// Stores receive committed records, vendor profiles, and structured
	// errors when configured.
	Stores Stores
}

// NewProcessor wires the orchestrator. handler may be nil, in which case a
// default handler with the standard strategies is built.
func NewProcessor(svc *ingestion.Service, handler *recovery.Handler, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Processor{svc: svc, logger: logger, QualityThreshold: DefaultQualityThreshold}
	if handler == nil {
		handler = recovery.NewHandler(recovery.Options{}, logger, p.defaultStrategies()...)
	}
	p.handler = handler
	return p
}

// RunResult is the orchestrator's verdict on one ingestion run.
type RunResult struct {
	Mode Mode `json:"mode"`

	// Path names the underlying attempts taken: "strict", "lenient", or
	// "strict->lenient" for an adaptive fallback.
	Path string `json:"path"`

	Result *ingestion.Result `json:"result,omitempty"`

	Accuracy float64        `json:"accuracy"`
	Verdict  QualityVerdict `json:"verdict"`
	Passed   bool           `json:"passed"`

	// DryRun marks diagnostic output that must not be committed or reported
	// downstream.
	DryRun bool `json:"dry_run,omitempty"`

	Recommendations []string `json:"recommendations,omitempty"`

	// Recovery carries the handled failure when the run did not succeed.
	Recovery *recovery.Outcome `json:"recovery,omitempty"`

	// Commit describes what was persisted, for processors with stores.
	Commit *CommitSummary `json:"commit,omitempty"`
}

// CommitSummary reports the storage outcome of a successful run.
type CommitSummary struct {
	Stored          int `json:"stored"`
	WithinBatchDups int `json:"within_batch_dups"`
	UpdatedExisting int `json:"updated_existing"`
}

// Run executes one ingestion run under the given mode.
func (p *Processor) Run(ctx context.Context, req ingestion.Request, mode Mode) (*RunResult, error) {
	// The adaptive chain re-reads the payload, so buffer it once up front.
	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if err := p.applyVendorProfile(ctx, &req); err != nil {
		return nil, err
	}

	var run *RunResult
	switch mode {
	case ModeStrict:
		run, err = p.runStrict(ctx, req, payload)
	case ModeLenient:
		run, err = p.runLenient(ctx, req, payload)
	case ModeAdaptive, "":
		run, err = p.runAdaptive(ctx, req, payload)
	case ModeDiagnostic:
		run, err = p.runDiagnostic(ctx, req, payload)
	default:
		return nil, fmt.Errorf("unknown processing mode %q", mode)
	}

	if err == nil && !run.DryRun {
		if commitErr := p.commit(ctx, req, run); commitErr != nil {
			run.Recovery = p.handleFailure(ctx, req, run.Result, commitErr)
			run.Passed = false
			return run, commitErr
		}
	}
	return run, err
}

// applyVendorProfile seeds the request with what past runs learned about the
// vendor: the stored mapping becomes the cache baseline and the stored
// finance default applies unless the request already set one. An explicit
// request mapping always wins.
func (p *Processor) applyVendorProfile(ctx context.Context, req *ingestion.Request) error {
	if p.Stores.Vendors == nil || req.Mapping != nil {
		return nil
	}
	profile, err := p.Stores.Vendors.GetByID(ctx, req.VendorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load vendor profile: %w", err)
	}
	if req.CacheKey != "" {
		p.svc.SeedMapping(req.CacheKey, profile.Mapping, profile.MappingConfidence)
	}
	if profile.AssumeFinanceSelected {
		req.Options.AssumeFinanceSelected = true
	}
	return nil
}

// commit deduplicates within the batch and upserts the survivors, then
// refreshes the vendor profile with the accepted mapping.
func (p *Processor) commit(ctx context.Context, req ingestion.Request, run *RunResult) error {
	if p.Stores.Records == nil || run.Result == nil || len(run.Result.Records) == 0 {
		return nil
	}

	batch := dedup.DeduplicateBatch(run.Result.Records)
	summary := &CommitSummary{}
	for _, n := range batch.Dropped {
		summary.WithinBatchDups += n
	}

	existing, err := p.Stores.Records.ExistingKeys(ctx, req.VendorID)
	if err != nil {
		return fmt.Errorf("failed to load existing keys: %w", err)
	}
	for _, rec := range batch.Records {
		if _, ok := existing[rec.Key()]; ok {
			summary.UpdatedExisting++
		}
	}

	written, err := p.Stores.Records.UpsertBatch(ctx, batch.Records)
	if err != nil {
		return fmt.Errorf("failed to store records: %w", err)
	}
	summary.Stored = written
	run.Commit = summary

	if p.Stores.Vendors != nil {
		profile, err := p.Stores.Vendors.GetByID(ctx, req.VendorID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("failed to load vendor profile: %w", err)
			}
			profile = domain.NewVendorProfile(req.VendorID, req.VendorID)
		}
		profile.Mapping = run.Result.Mapping.Mapping
		profile.MappingConfidence = run.Result.Mapping.Confidence
		profile.AssumeFinanceSelected = req.Options.AssumeFinanceSelected
		if _, err := p.Stores.Vendors.Upsert(ctx, profile); err != nil {
			return fmt.Errorf("failed to update vendor profile: %w", err)
		}
	}

	p.logger.Info("run committed",
		zap.String("vendor", req.VendorID),
		zap.Int("stored", summary.Stored),
		zap.Int("within_batch_dups", summary.WithinBatchDups),
		zap.Int("updated_existing", summary.UpdatedExisting),
	)
	return nil
}

func (p *Processor) threshold() float64 {
	if p.QualityThreshold > 0 {
		return p.QualityThreshold
	}
	return DefaultQualityThreshold
}

func (p *Processor) attempt(ctx context.Context, req ingestion.Request, payload []byte, opts ingestion.PassOptions) (*ingestion.Result, error) {
	attemptReq := req
	attemptReq.Data = bytes.NewReader(payload)
	attemptReq.Options = opts
	attemptReq.Options.AssumeFinanceSelected = req.Options.AssumeFinanceSelected
	return p.svc.Parse(ctx, attemptReq)
}

// runStrict succeeds only when the pass completes without error.
func (p *Processor) runStrict(ctx context.Context, req ingestion.Request, payload []byte) (*RunResult, error) {
	res, err := p.attempt(ctx, req, payload, strictOptions())
	run := p.score(ModeStrict, "strict", res)
	if err != nil {
		run.Recovery = p.handleFailure(ctx, req, res, err)
		run.Passed = false
		return run, err
	}
	return run, nil
}

// runLenient succeeds as soon as at least one record normalized.
func (p *Processor) runLenient(ctx context.Context, req ingestion.Request, payload []byte) (*RunResult, error) {
	res, err := p.attempt(ctx, req, payload, lenientOptions())
	run := p.score(ModeLenient, "lenient", res)
	if err == nil && len(res.Records) > 0 {
		return run, nil
	}
	if err == nil {
		err = fmt.Errorf("lenient pass produced no records")
	}
	run.Recovery = p.handleFailure(ctx, req, res, err)
	run.Passed = false
	return run, err
}

// runAdaptive is a pure two-attempt fallback: strict first, lenient only if
// strict fails or scores below the quality threshold. Never more than two
// underlying passes.
func (p *Processor) runAdaptive(ctx context.Context, req ingestion.Request, payload []byte) (*RunResult, error) {
	strictRes, strictErr := p.attempt(ctx, req, payload, strictOptions())
	if strictErr == nil {
		run := p.score(ModeAdaptive, "strict", strictRes)
		if run.Accuracy >= p.threshold() {
			return run, nil
		}
		p.logger.Info("strict attempt below quality threshold, falling back to lenient",
			zap.Float64("accuracy", run.Accuracy),
			zap.Float64("threshold", p.threshold()),
		)
	} else {
		p.logger.Info("strict attempt failed, falling back to lenient", zap.Error(strictErr))
	}

	lenientRes, lenientErr := p.attempt(ctx, req, payload, lenientOptions())
	run := p.score(ModeAdaptive, "strict->lenient", lenientRes)
	if lenientErr == nil && len(lenientRes.Records) > 0 {
		return run, nil
	}
	if lenientErr == nil {
		lenientErr = fmt.Errorf("lenient fallback produced no records")
	}
	run.Recovery = p.handleFailure(ctx, req, lenientRes, lenientErr)
	run.Passed = false
	return run, lenientErr
}

// runDiagnostic surfaces mapping confidence, quality scores, and
// recommendations without committing anything.
func (p *Processor) runDiagnostic(ctx context.Context, req ingestion.Request, payload []byte) (*RunResult, error) {
	res, err := p.attempt(ctx, req, payload, diagnosticOptions())
	run := p.score(ModeDiagnostic, "diagnostic", res)
	run.DryRun = true
	run.Recommendations = p.recommendations(res)
	if err != nil {
		run.Recovery = p.handleFailure(ctx, req, res, err)
		run.Passed = false
		return run, err
	}
	return run, nil
}

func (p *Processor) score(mode Mode, path string, res *ingestion.Result) *RunResult {
	run := &RunResult{Mode: mode, Path: path, Result: res}
	if res != nil && res.Stats != nil {
		run.Accuracy = res.Stats.Accuracy()
	}
	run.Verdict = VerdictFor(run.Accuracy)
	run.Passed = run.Accuracy >= p.threshold()
	return run
}

func (p *Processor) handleFailure(ctx context.Context, req ingestion.Request, res *ingestion.Result, err error) *recovery.Outcome {
	rctx := &recovery.Context{FilePath: req.FileName}
	if res != nil && res.Stats != nil {
		rctx.TotalRows = res.Stats.TotalRows
		rctx.FailedRows = res.Stats.FailedRows
		for _, issue := range res.RowErrors {
			rctx.AffectedRows = append(rctx.AffectedRows, issue.Row)
		}
	}
	outcome := p.handler.Handle(ctx, req.VendorID, err, rctx, true)
	if p.Stores.Errors != nil && outcome.Error != nil {
		if recordErr := p.Stores.Errors.Record(ctx, outcome.Error); recordErr != nil {
			p.logger.Warn("failed to persist structured error", zap.Error(recordErr))
		}
	}
	return outcome
}

func (p *Processor) recommendations(res *ingestion.Result) []string {
	if res == nil {
		return nil
	}
	var recs []string
	if res.Mapping.Confidence < 0.8 {
		recs = append(recs, fmt.Sprintf(
			"mapping confidence is %.2f; review the inferred mapping before committing", res.Mapping.Confidence))
	}
	if len(res.Mapping.UnusedHeaders) > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d source columns did not map to any field: %v; extend the vendor mapping if they carry data",
			len(res.Mapping.UnusedHeaders), res.Mapping.UnusedHeaders))
	}
	if res.Stats != nil {
		if res.Stats.DuplicateOrderIDs > 0 {
			recs = append(recs, fmt.Sprintf(
				"%d duplicate order ids detected; decide whether duplicates should be tolerated", res.Stats.DuplicateOrderIDs))
		}
		if res.Stats.Accuracy() < p.threshold() {
			recs = append(recs, fmt.Sprintf(
				"accuracy %.2f is below the %.2f threshold; lenient mode may salvage more rows", res.Stats.Accuracy(), p.threshold()))
		}
	}
	if len(recs) == 0 {
		recs = append(recs, "data quality looks good; safe to ingest in strict mode")
	}
	return recs
}

// Handler exposes the recovery handler (for error-log export and tests).
func (p *Processor) Handler() *recovery.Handler {
	return p.handler
}

// defaultStrategies are the ordered recovery options for pass-level
// failures.
func (p *Processor) defaultStrategies() []recovery.Strategy {
	return []recovery.Strategy{
		{
			// A weak or invalid mapping often still resolves under lenient
			// thresholds once continue-on-error salvages the good rows.
			Name:       "retry-lenient",
			Categories: []domain.ErrorCategory{domain.CategoryMapping, domain.CategoryValidation},
			Apply: func(ctx context.Context, rctx *recovery.Context) (*recovery.Recovered, error) {
				return &recovery.Recovered{Detail: "re-run the file in lenient mode"}, nil
			},
		},
		{
			Name:         "skip-bad-rows",
			Categories:   []domain.ErrorCategory{domain.CategoryParsing, domain.CategoryNormalization},
			MaxErrorRate: 0.5,
			Apply: func(ctx context.Context, rctx *recovery.Context) (*recovery.Recovered, error) {
				return &recovery.Recovered{Detail: "re-run with continue-on-error and a raised error cap"}, nil
			},
		},
	}
}
