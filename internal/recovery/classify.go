// Package recovery classifies pipeline failures into the severity and
// category taxonomy, logs them as structured errors, and attempts ordered
// recovery strategies.
package recovery

import (
	"strings"

	"github.com/vendata/vendata/internal/domain"
)

// keywordBucket associates message keywords with a category. Buckets are
// checked in order and the first match wins, so mapping terms shadow parsing
// terms, parsing shadows validation, and so on.
type keywordBucket struct {
	category domain.ErrorCategory
	keywords []string
}

var keywordBuckets = []keywordBucket{
	{domain.CategoryMapping, []string{"mapping", "header", "column", "unmapped", "field mapping"}},
	{domain.CategoryParsing, []string{"parse", "parsing", "csv", "xlsx", "delimiter", "format", "read", "decode"}},
	{domain.CategoryValidation, []string{"validation", "invalid", "required", "missing", "duplicate"}},
	{domain.CategoryNormalization, []string{"normalize", "normalization", "coerce", "convert", "type"}},
	{domain.CategoryConfiguration, []string{"config", "configuration", "option", "threshold", "setting"}},
	{domain.CategorySystem, []string{"panic", "memory", "disk", "i/o", "connection", "timeout", "database", "system"}},
}

// Classify infers a category from an error message. Messages matching no
// bucket fall into the quality category.
func Classify(message string) domain.ErrorCategory {
	lower := strings.ToLower(message)
	for _, bucket := range keywordBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.category
			}
		}
	}
	return domain.CategoryQuality
}

// categoryDefaults supply a severity when no error-rate context is available.
var categoryDefaults = map[domain.ErrorCategory]domain.Severity{
	domain.CategoryValidation:    domain.SeverityHigh,
	domain.CategoryMapping:       domain.SeverityHigh,
	domain.CategoryParsing:       domain.SeverityMedium,
	domain.CategoryNormalization: domain.SeverityMedium,
	domain.CategoryQuality:       domain.SeverityLow,
	domain.CategoryConfiguration: domain.SeverityInfo,
}

// SeverityFor derives severity from category and, when known, the observed
// error rate. System errors are always critical. errorRate < 0 means the
// rate is unknown.
func SeverityFor(category domain.ErrorCategory, errorRate float64) domain.Severity {
	if category == domain.CategorySystem {
		return domain.SeverityCritical
	}
	if errorRate >= 0 {
		switch {
		case errorRate > 0.5:
			return domain.SeverityHigh
		case errorRate > 0.2:
			return domain.SeverityMedium
		case errorRate > 0.05:
			return domain.SeverityLow
		default:
			return domain.SeverityInfo
		}
	}
	if sev, ok := categoryDefaults[category]; ok {
		return sev
	}
	return domain.SeverityMedium
}

// suggestionsByCategory are the remediation hints attached to structured
// errors.
var suggestionsByCategory = map[domain.ErrorCategory][]string{
	domain.CategoryMapping: {
		"check that the file's header row matches a known vendor layout",
		"supply an explicit field mapping or save one on the vendor profile",
		"confirm the order id and order date columns are present",
	},
	domain.CategoryParsing: {
		"verify the file delimiter and character encoding",
		"re-export the file as UTF-8 CSV",
		"check for unbalanced quotes in the data",
	},
	domain.CategoryValidation: {
		"review rows with missing order ids or dates",
		"enable continue-on-error to salvage valid rows",
		"check whether duplicate order ids should be tolerated for this vendor",
	},
	domain.CategoryNormalization: {
		"inspect numeric columns for stray text values",
		"confirm date columns use a supported format",
	},
	domain.CategoryConfiguration: {
		"review the processing mode thresholds in the configuration file",
	},
	domain.CategorySystem: {
		"retry the run; if it persists, check database and disk health",
	},
	domain.CategoryQuality: {
		"run diagnostic mode to inspect quality scores before committing",
	},
}

// SuggestionsFor returns the remediation hints for a category.
func SuggestionsFor(category domain.ErrorCategory) []string {
	return suggestionsByCategory[category]
}
