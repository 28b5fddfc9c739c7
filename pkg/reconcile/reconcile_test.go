package reconcile

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vodsync/pkg/tracker"
)

func found(offset int64, rate float64) tracker.MatchResult {
	r := tracker.NewMatchResult()
	r.BestOffset = offset
	r.BestTime = float64(offset) / rate
	r.BestScore = 1
	r.FramesScanned = 10
	return r
}

func TestReconcileRoundTrip(t *testing.T) {
	secondaryStart := time.Date(2021, 3, 4, 20, 0, 0, 0, time.UTC)
	referenceStart := time.Date(2021, 3, 4, 19, 58, 30, 0, time.UTC)

	// the template was taken at the middle of a 2h recording and found
	// exactly there
	record, err := Reconcile(Input{
		ExtractionRatio:   0.5,
		SecondaryDuration: 7200,
		TemplateDuration:  60,
		Match:             found(3600*8000, 8000),
	})
	require.NoError(t, err)
	assert.Equal(t, 3600.0, record.TemplateExtractionTime)
	assert.Equal(t, 3600.0, record.DetectedTime)
	assert.Zero(t, record.RawOffset)
	assert.Equal(t, secondaryStart, record.CorrectedStart(secondaryStart))
	assert.Equal(t, referenceStart, record.AlignedStart(referenceStart))
	assert.Equal(t, int64(0), record.CreatedDelay())
	assert.Equal(t, int64(7200000), record.SecondaryDurationMillis())
}

func TestReconcileSign(t *testing.T) {
	// the same moment is 90s later in the reference: the secondary
	// recording started 90s after the reference
	record, err := Reconcile(Input{
		ExtractionRatio:   0.5,
		SecondaryDuration: 600,
		Match:             found(390*8000, 8000),
	})
	require.NoError(t, err)
	assert.Equal(t, 90.0, record.RawOffset)
	assert.Equal(t, 90*time.Second, record.Offset())
	assert.Equal(t, int64(-90000), record.CreatedDelay())

	referenceStart := time.Date(2021, 3, 4, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, referenceStart.Add(90*time.Second), record.AlignedStart(referenceStart))
	secondaryStart := time.Date(2021, 3, 4, 20, 5, 0, 0, time.UTC)
	assert.Equal(t, secondaryStart.Add(-90*time.Second), record.CorrectedStart(secondaryStart))
}

func TestReconcileRefined(t *testing.T) {
	match := found(100*8000, 8000)
	match.Refined = true
	match.RefinedTime = 100.0001
	record, err := Reconcile(Input{
		ExtractionRatio:   0,
		SecondaryDuration: 10,
		Match:             match,
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0001, record.DetectedTime)
	assert.InDelta(t, 100.0001, record.RawOffset, 1e-12)
}

func TestReconcileExtractionTime(t *testing.T) {
	// 0.3*10.00005s is 3.000015s, but the template starts at sample 24000
	// of an 8kHz recording, i.e. exactly at 3s
	extractionTime := 24000.0 / 8000
	record, err := Reconcile(Input{
		ExtractionRatio:   0.3,
		ExtractionTime:    &extractionTime,
		SecondaryDuration: 10.00005,
		TemplateDuration:  1,
		Match:             found(24000, 8000),
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, record.TemplateExtractionTime)
	assert.Zero(t, record.RawOffset)
}

func TestReconcileErrors(t *testing.T) {
	negative := found(0, 8000)
	negative.BestTime = -1

	for name, tc := range map[string]struct {
		input   Input
		problem Problem
	}{
		"ratio": {
			input:   Input{ExtractionRatio: 1.5, SecondaryDuration: 10, Match: found(0, 8000)},
			problem: ProblemInvalidRatio,
		},
		"nan_ratio": {
			input:   Input{ExtractionRatio: math.NaN(), SecondaryDuration: 10, Match: found(0, 8000)},
			problem: ProblemInvalidRatio,
		},
		"duration": {
			input:   Input{ExtractionRatio: 0.5, SecondaryDuration: 0, Match: found(0, 8000)},
			problem: ProblemInvalidSecondaryDuration,
		},
		"inf_duration": {
			input:   Input{ExtractionRatio: 0.5, SecondaryDuration: math.Inf(1), Match: found(0, 8000)},
			problem: ProblemInvalidSecondaryDuration,
		},
		"extraction": {
			input:   Input{ExtractionRatio: 0.9, SecondaryDuration: 100, TemplateDuration: 60, Match: found(0, 8000)},
			problem: ProblemExtractionOutOfRange,
		},
		"negative_extraction_time": {
			input:   Input{ExtractionRatio: 0.5, ExtractionTime: func() *float64 { v := -1.0; return &v }(), SecondaryDuration: 100, Match: found(0, 8000)},
			problem: ProblemExtractionOutOfRange,
		},
		"extraction_time_out_of_range": {
			input:   Input{ExtractionRatio: 0.5, ExtractionTime: func() *float64 { v := 95.0; return &v }(), SecondaryDuration: 100, TemplateDuration: 10, Match: found(0, 8000)},
			problem: ProblemExtractionOutOfRange,
		},
		"not_found": {
			input:   Input{ExtractionRatio: 0.5, SecondaryDuration: 100, Match: tracker.NewMatchResult()},
			problem: ProblemNotFound,
		},
		"negative": {
			input:   Input{ExtractionRatio: 0.5, SecondaryDuration: 100, Match: negative},
			problem: ProblemNegativeDetectedTime,
		},
		"beyond": {
			input:   Input{ExtractionRatio: 0.5, SecondaryDuration: 100, ReferenceDuration: 50, Match: found(60*8000, 8000)},
			problem: ProblemDetectedBeyondReference,
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Reconcile(tc.input)
			var reconcileErr *ReconciliationError
			require.True(t, errors.As(err, &reconcileErr), "%v", err)
			assert.Equal(t, tc.problem, reconcileErr.Problem)
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	for seconds, expected := range map[float64]string{
		0:       "00:00:00.00",
		22870:   "06:21:10.00",
		1800.5:  "00:30:00.50",
		90061.1: "25:01:01.10",
		-1.25:   "-00:00:01.25",
	} {
		assert.Equal(t, expected, FormatTimestamp(seconds), "%v", seconds)
	}
}
