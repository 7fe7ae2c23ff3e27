package domain

import (
	"time"

	"github.com/google/uuid"
)

// Severity ranks how urgent a structured error is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// ErrorCategory groups structured errors by which pipeline stage produced
// them.
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryParsing       ErrorCategory = "parsing"
	CategoryMapping       ErrorCategory = "mapping"
	CategoryNormalization ErrorCategory = "normalization"
	CategorySystem        ErrorCategory = "system"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryQuality       ErrorCategory = "quality"
)

// StructuredError is a classified, loggable record of one failure, distinct
// from the Go error that produced it. Instances accumulate in a run's
// append-only log and are only ever mutated to set the recovery outcome.
type StructuredError struct {
	ID        uuid.UUID     `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	VendorID  string        `json:"vendor_id"`
	Severity  Severity      `json:"severity"`
	Category  ErrorCategory `json:"category"`
	Message   string        `json:"message"`

	AffectedRows []int `json:"affected_rows,omitempty"`

	RecoveryAttempted bool `json:"recovery_attempted"`
	RecoverySucceeded bool `json:"recovery_succeeded"`

	Suggestions []string `json:"suggestions,omitempty"`
}

// NewStructuredError stamps identity and time onto a classified failure.
func NewStructuredError(vendorID string, severity Severity, category ErrorCategory, message string) *StructuredError {
	return &StructuredError{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		VendorID:  vendorID,
		Severity:  severity,
		Category:  category,
		Message:   message,
	}
}
