package recovery

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/vendata/vendata/internal/domain"
)

// Context carries what is known about the failing run when an error reaches
// the handler.
type Context struct {
	FilePath     string
	AffectedRows []int

	// TotalRows and FailedRows drive the error-rate severity heuristic.
	// TotalRows zero means the rate is unknown.
	TotalRows  int
	FailedRows int
}

// errorRate returns the observed failure rate, or -1 when unknown.
func (c *Context) errorRate() float64 {
	if c == nil || c.TotalRows <= 0 {
		return -1
	}
	return float64(c.FailedRows) / float64(c.TotalRows)
}

// Recovered is a strategy's successful outcome, opaque to the handler.
type Recovered struct {
	Strategy string
	Detail   string

	// Payload lets a strategy hand back a replacement result (for example a
	// lenient re-parse) to the orchestrator.
	Payload any
}

// Strategy is one recovery option: applicability conditions plus an action.
// Strategies are evaluated in registration order; the first applicable one
// whose action succeeds wins.
type Strategy struct {
	Name string

	// MinRows gates the strategy on run size; zero means no minimum.
	MinRows int

	// MaxErrorRate gates the strategy on observed failure rate; zero means
	// no cap.
	MaxErrorRate float64

	// Categories restricts the strategy; empty means any category.
	Categories []domain.ErrorCategory

	Apply func(ctx context.Context, rctx *Context) (*Recovered, error)
}

func (s Strategy) applicable(category domain.ErrorCategory, rctx *Context) bool {
	if s.MinRows > 0 && (rctx == nil || rctx.TotalRows < s.MinRows) {
		return false
	}
	if s.MaxErrorRate > 0 {
		rate := rctx.errorRate()
		if rate < 0 || rate > s.MaxErrorRate {
			return false
		}
	}
	if len(s.Categories) == 0 {
		return true
	}
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Outcome is what the handler reports back for one handled error.
type Outcome struct {
	Error *domain.StructuredError

	Alerted bool

	// Recovered is non-nil when a strategy succeeded.
	Recovered *Recovered

	// ManualInterventionRequired is set when recovery was attempted and
	// every applicable strategy failed.
	ManualInterventionRequired bool
}

// Options tune the handler.
type Options struct {
	// AlertHighSeverity extends alerting to high severity; critical always
	// alerts.
	AlertHighSeverity bool

	// EscalationThreshold is how many times the same (category, message
	// prefix) pair may repeat before an escalation is logged. Zero uses the
	// default of 3.
	EscalationThreshold int
}

const defaultEscalationThreshold = 3

// Handler owns a run's structured-error log and its recovery strategies.
// The counters are internally synchronized so concurrent runs may share one
// handler when they share a log.
type Handler struct {
	opts       Options
	logger     *zap.Logger
	strategies []Strategy

	mu     sync.Mutex
	log    []*domain.StructuredError
	counts map[string]int
}

// NewHandler creates a handler with the given ordered strategies.
func NewHandler(opts Options, logger *zap.Logger, strategies ...Strategy) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.EscalationThreshold <= 0 {
		opts.EscalationThreshold = defaultEscalationThreshold
	}
	return &Handler{
		opts:       opts,
		logger:     logger,
		strategies: strategies,
		counts:     make(map[string]int),
	}
}

// Log returns the accumulated structured errors in arrival order.
func (h *Handler) Log() []*domain.StructuredError {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*domain.StructuredError, len(h.log))
	copy(out, h.log)
	return out
}

// Reset clears the log and escalation counters for reuse across runs.
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log = nil
	h.counts = make(map[string]int)
}

// Handle classifies an error, appends it to the log, decides alerting and
// escalation, and optionally attempts recovery.
func (h *Handler) Handle(ctx context.Context, vendorID string, err error, rctx *Context, attemptRecovery bool) *Outcome {
	category := Classify(err.Error())
	severity := SeverityFor(category, rctx.errorRate())

	serr := domain.NewStructuredError(vendorID, severity, category, err.Error())
	serr.Suggestions = SuggestionsFor(category)
	if rctx != nil {
		serr.AffectedRows = rctx.AffectedRows
	}

	outcome := &Outcome{Error: serr}

	h.mu.Lock()
	h.log = append(h.log, serr)
	key := escalationKey(category, err.Error())
	h.counts[key]++
	count := h.counts[key]
	h.mu.Unlock()

	if severity == domain.SeverityCritical || (severity == domain.SeverityHigh && h.opts.AlertHighSeverity) {
		outcome.Alerted = true
		h.logger.Error("pipeline alert",
			zap.String("vendor", vendorID),
			zap.String("severity", string(severity)),
			zap.String("category", string(category)),
			zap.String("message", err.Error()),
		)
	}

	if count >= h.opts.EscalationThreshold {
		// Log-only escalation; the underlying record keeps its severity.
		h.logger.Warn("repeated error escalated",
			zap.String("vendor", vendorID),
			zap.String("key", key),
			zap.Int("count", count),
		)
	}

	if attemptRecovery {
		h.recover(ctx, category, rctx, outcome)
	}
	return outcome
}

// recover walks the strategies in order. A strategy's own failure moves the
// search on to the next; the first success is returned immediately.
func (h *Handler) recover(ctx context.Context, category domain.ErrorCategory, rctx *Context, outcome *Outcome) {
	outcome.Error.RecoveryAttempted = true

	for _, strategy := range h.strategies {
		if !strategy.applicable(category, rctx) {
			continue
		}
		recovered, err := strategy.Apply(ctx, rctx)
		if err != nil {
			h.logger.Debug("recovery strategy failed",
				zap.String("strategy", strategy.Name),
				zap.Error(err),
			)
			continue
		}
		if recovered != nil {
			recovered.Strategy = strategy.Name
			outcome.Recovered = recovered
			outcome.Error.RecoverySucceeded = true
			h.logger.Info("recovery succeeded", zap.String("strategy", strategy.Name))
			return
		}
	}

	outcome.ManualInterventionRequired = true
}

// escalationKey groups repeats of the same failure shape: category plus a
// short message prefix, truncated on a rune boundary.
func escalationKey(category domain.ErrorCategory, message string) string {
	const prefixLen = 48
	if len(message) > prefixLen {
		cut := prefixLen
		for cut > 0 && !utf8.RuneStart(message[cut]) {
			cut--
		}
		message = message[:cut]
	}
	return fmt.Sprintf("%s:%s", category, message)
}
