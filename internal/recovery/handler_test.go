package recovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendata/vendata/internal/domain"
)

func TestHandleClassifiesAndLogs(t *testing.T) {
	h := NewHandler(Options{}, nil)

	outcome := h.Handle(context.Background(), "acme", errors.New("failed to read csv"), nil, false)

	require.NotNil(t, outcome.Error)
	assert.Equal(t, domain.CategoryParsing, outcome.Error.Category)
	assert.Equal(t, domain.SeverityMedium, outcome.Error.Severity)
	assert.Equal(t, "acme", outcome.Error.VendorID)
	assert.NotEmpty(t, outcome.Error.Suggestions)
	assert.False(t, outcome.Error.RecoveryAttempted)

	require.Len(t, h.Log(), 1)
}

func TestHandleAlertsOnCritical(t *testing.T) {
	h := NewHandler(Options{}, nil)
	outcome := h.Handle(context.Background(), "acme", errors.New("database connection refused"), nil, false)
	assert.True(t, outcome.Alerted)
	assert.Equal(t, domain.SeverityCritical, outcome.Error.Severity)
}

func TestHandleHighSeverityAlertingIsOptIn(t *testing.T) {
	err := errors.New("order id is missing") // validation, default high

	quiet := NewHandler(Options{}, nil)
	assert.False(t, quiet.Handle(context.Background(), "acme", err, nil, false).Alerted)

	loud := NewHandler(Options{AlertHighSeverity: true}, nil)
	assert.True(t, loud.Handle(context.Background(), "acme", err, nil, false).Alerted)
}

func TestRecoveryFirstSuccessWins(t *testing.T) {
	var calls []string

	failing := Strategy{
		Name: "first",
		Apply: func(context.Context, *Context) (*Recovered, error) {
			calls = append(calls, "first")
			return nil, errors.New("strategy blew up")
		},
	}
	succeeding := Strategy{
		Name: "second",
		Apply: func(context.Context, *Context) (*Recovered, error) {
			calls = append(calls, "second")
			return &Recovered{Detail: "re-parsed leniently"}, nil
		},
	}
	never := Strategy{
		Name: "third",
		Apply: func(context.Context, *Context) (*Recovered, error) {
			calls = append(calls, "third")
			return &Recovered{}, nil
		},
	}

	h := NewHandler(Options{}, nil, failing, succeeding, never)
	outcome := h.Handle(context.Background(), "acme", errors.New("failed to parse file"), nil, true)

	assert.Equal(t, []string{"first", "second"}, calls, "third strategy must not run after a success")
	require.NotNil(t, outcome.Recovered)
	assert.Equal(t, "second", outcome.Recovered.Strategy)
	assert.True(t, outcome.Error.RecoveryAttempted)
	assert.True(t, outcome.Error.RecoverySucceeded)
	assert.False(t, outcome.ManualInterventionRequired)
}

func TestRecoveryApplicabilityGates(t *testing.T) {
	ran := false
	gated := Strategy{
		Name:         "needs-volume",
		MinRows:      100,
		MaxErrorRate: 0.5,
		Categories:   []domain.ErrorCategory{domain.CategoryParsing},
		Apply: func(context.Context, *Context) (*Recovered, error) {
			ran = true
			return &Recovered{}, nil
		},
	}
	h := NewHandler(Options{}, nil, gated)

	// Too few rows.
	outcome := h.Handle(context.Background(), "acme", errors.New("failed to parse file"),
		&Context{TotalRows: 10, FailedRows: 1}, true)
	assert.False(t, ran)
	assert.True(t, outcome.ManualInterventionRequired)

	// Error rate too high.
	outcome = h.Handle(context.Background(), "acme", errors.New("failed to parse file"),
		&Context{TotalRows: 200, FailedRows: 150}, true)
	assert.False(t, ran)
	assert.True(t, outcome.ManualInterventionRequired)

	// Within every gate.
	outcome = h.Handle(context.Background(), "acme", errors.New("failed to parse file"),
		&Context{TotalRows: 200, FailedRows: 20}, true)
	assert.True(t, ran)
	assert.False(t, outcome.ManualInterventionRequired)
}

func TestRecoveryWrongCategoryRequiresManualIntervention(t *testing.T) {
	mappingOnly := Strategy{
		Name:       "remap",
		Categories: []domain.ErrorCategory{domain.CategoryMapping},
		Apply: func(context.Context, *Context) (*Recovered, error) {
			return &Recovered{}, nil
		},
	}
	h := NewHandler(Options{}, nil, mappingOnly)

	outcome := h.Handle(context.Background(), "acme", errors.New("unable to coerce value"), nil, true)
	assert.Nil(t, outcome.Recovered)
	assert.True(t, outcome.Error.RecoveryAttempted)
	assert.False(t, outcome.Error.RecoverySucceeded)
	assert.True(t, outcome.ManualInterventionRequired)
}

func TestSeverityUsesContextErrorRate(t *testing.T) {
	h := NewHandler(Options{}, nil)
	outcome := h.Handle(context.Background(), "acme", errors.New("unable to coerce value"),
		&Context{TotalRows: 100, FailedRows: 60}, false)
	assert.Equal(t, domain.SeverityHigh, outcome.Error.Severity)
}

func TestEscalationKeyTruncatesOnRuneBoundary(t *testing.T) {
	// Byte 48 lands inside the two-byte "é"; the cut must back up to the
	// rune's start instead of splitting it.
	msg := strings.Repeat("a", 47) + "é and a long tail to force truncation"
	key := escalationKey(domain.CategoryParsing, msg)

	assert.True(t, utf8.ValidString(key))
	assert.Equal(t, fmt.Sprintf("%s:%s", domain.CategoryParsing, strings.Repeat("a", 47)), key)
}

func TestResetClearsLogAndCounters(t *testing.T) {
	h := NewHandler(Options{}, nil)
	h.Handle(context.Background(), "acme", errors.New("unable to coerce value"), nil, false)
	require.NotEmpty(t, h.Log())

	h.Reset()
	assert.Empty(t, h.Log())
}
