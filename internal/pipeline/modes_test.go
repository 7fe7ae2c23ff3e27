package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for _, name := range []string{"strict", "lenient", "adaptive", "diagnostic"} {
		mode, err := ParseMode(name)
		require.NoError(t, err)
		assert.Equal(t, Mode(name), mode)
	}

	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAdaptive, mode, "empty mode defaults to adaptive")

	_, err = ParseMode("yolo")
	assert.Error(t, err)
}

func TestVerdictBoundaries(t *testing.T) {
	cases := []struct {
		accuracy float64
		want     QualityVerdict
	}{
		{1.00, VerdictExcellent},
		{0.95, VerdictExcellent},
		{0.94, VerdictGood},
		{0.85, VerdictGood},
		{0.84, VerdictFair},
		{0.70, VerdictFair},
		{0.69, VerdictPoor},
		{0.50, VerdictPoor},
		{0.49, VerdictUnacceptable},
		{0.00, VerdictUnacceptable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, VerdictFor(tc.accuracy), "accuracy %f", tc.accuracy)
	}
}

func TestModeOptionProfiles(t *testing.T) {
	strict := strictOptions()
	assert.False(t, strict.ContinueOnError)
	assert.False(t, strict.AllowDuplicates)
	assert.Equal(t, 0.8, strict.MinConfidence)

	lenient := lenientOptions()
	assert.True(t, lenient.ContinueOnError)
	assert.True(t, lenient.AllowDuplicates)
	assert.Equal(t, 0.4, lenient.MinConfidence)
	assert.Greater(t, lenient.MaxErrors, strict.MaxErrors)
}
