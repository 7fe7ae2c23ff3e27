package pipeline

import (
	"fmt"

	"github.com/vendata/vendata/internal/ingestion"
)

// Mode selects which thresholds and control flow an ingestion run uses. It is
// a per-invocation parameter, not persistent state.
type Mode string

const (
	ModeStrict     Mode = "strict"
	ModeLenient    Mode = "lenient"
	ModeAdaptive   Mode = "adaptive"
	ModeDiagnostic Mode = "diagnostic"
)

// ParseMode validates mode text from CLI flags or HTTP forms.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStrict, ModeLenient, ModeAdaptive, ModeDiagnostic:
		return Mode(s), nil
	case "":
		return ModeAdaptive, nil
	default:
		return "", fmt.Errorf("unknown processing mode %q", s)
	}
}

// strictOptions demand a confident mapping and abort at the first fatal row.
func strictOptions() ingestion.PassOptions {
	return ingestion.PassOptions{
		ContinueOnError: false,
		MaxErrors:       10,
		AllowDuplicates: false,
		SkipEmptyRows:   false,
		MinConfidence:   0.8,
	}
}

// lenientOptions accept weak mappings and salvage whatever rows they can.
func lenientOptions() ingestion.PassOptions {
	return ingestion.PassOptions{
		ContinueOnError: true,
		MaxErrors:       1000,
		AllowDuplicates: true,
		SkipEmptyRows:   true,
		MinConfidence:   0.4,
	}
}

// diagnosticOptions mirror default ingestion policy; the run itself is a dry
// run.
func diagnosticOptions() ingestion.PassOptions {
	return ingestion.PassOptions{
		ContinueOnError: true,
		MaxErrors:       100,
		AllowDuplicates: false,
		SkipEmptyRows:   true,
		MinConfidence:   0.5,
	}
}

// QualityVerdict is the uniform five-step rating applied to a run's accuracy
// score.
type QualityVerdict string

const (
	VerdictExcellent    QualityVerdict = "excellent"
	VerdictGood         QualityVerdict = "good"
	VerdictFair         QualityVerdict = "fair"
	VerdictPoor         QualityVerdict = "poor"
	VerdictUnacceptable QualityVerdict = "unacceptable"
)

// VerdictFor maps an accuracy score to its verdict.
func VerdictFor(accuracy float64) QualityVerdict {
	switch {
	case accuracy >= 0.95:
		return VerdictExcellent
	case accuracy >= 0.85:
		return VerdictGood
	case accuracy >= 0.70:
		return VerdictFair
	case accuracy >= 0.50:
		return VerdictPoor
	default:
		return VerdictUnacceptable
	}
}

// DefaultQualityThreshold is the minimum accuracy for a run to count as
// passed when the caller does not supply one.
const DefaultQualityThreshold = 0.7
