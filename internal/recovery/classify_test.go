package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vendata/vendata/internal/domain"
)

func TestClassifyKeywordOrder(t *testing.T) {
	cases := map[string]domain.ErrorCategory{
		"inferred mapping is missing required fields": domain.CategoryMapping,
		"failed to read csv: bare quote":              domain.CategoryParsing,
		"row 4: order id is missing":                  domain.CategoryValidation,
		"unable to coerce value":                      domain.CategoryNormalization,
		"threshold misconfigured":                     domain.CategoryConfiguration,
		"database connection refused":                 domain.CategorySystem,
		"something vague happened":                    domain.CategoryQuality,
	}
	for message, want := range cases {
		assert.Equal(t, want, Classify(message), "message: %s", message)
	}

	// Mapping terms shadow parsing terms: a message mentioning both headers
	// and parsing classifies as mapping because that bucket is checked first.
	assert.Equal(t, domain.CategoryMapping, Classify("failed to parse header row"))
}

func TestSeverityForSystemAlwaysCritical(t *testing.T) {
	assert.Equal(t, domain.SeverityCritical, SeverityFor(domain.CategorySystem, -1))
	assert.Equal(t, domain.SeverityCritical, SeverityFor(domain.CategorySystem, 0.01))
}

func TestSeverityFromErrorRate(t *testing.T) {
	cases := []struct {
		rate float64
		want domain.Severity
	}{
		{0.75, domain.SeverityHigh},
		{0.51, domain.SeverityHigh},
		{0.35, domain.SeverityMedium},
		{0.10, domain.SeverityLow},
		{0.01, domain.SeverityInfo},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SeverityFor(domain.CategoryParsing, tc.rate), "rate %f", tc.rate)
	}
}

func TestSeverityCategoryDefaults(t *testing.T) {
	assert.Equal(t, domain.SeverityHigh, SeverityFor(domain.CategoryValidation, -1))
	assert.Equal(t, domain.SeverityHigh, SeverityFor(domain.CategoryMapping, -1))
	assert.Equal(t, domain.SeverityMedium, SeverityFor(domain.CategoryParsing, -1))
	assert.Equal(t, domain.SeverityMedium, SeverityFor(domain.CategoryNormalization, -1))
	assert.Equal(t, domain.SeverityLow, SeverityFor(domain.CategoryQuality, -1))
	assert.Equal(t, domain.SeverityInfo, SeverityFor(domain.CategoryConfiguration, -1))
}

func TestSuggestionsExistForEveryCategory(t *testing.T) {
	categories := []domain.ErrorCategory{
		domain.CategoryValidation, domain.CategoryParsing, domain.CategoryMapping,
		domain.CategoryNormalization, domain.CategorySystem,
		domain.CategoryConfiguration, domain.CategoryQuality,
	}
	for _, c := range categories {
		assert.NotEmpty(t, SuggestionsFor(c), "category %s", c)
	}
}
