// Package reconcile turns a detected template position into a time offset
// between two recordings of the same event.
//
// Sign convention: RawOffset = DetectedTime - TemplateExtractionTime, that
// is how much later the same moment appears in the reference than in the
// secondary recording.
package reconcile

import (
	"math"
	"time"

	"github.com/xaionaro-go/vodsync/pkg/tracker"
)

type Input struct {
	// ExtractionRatio is the fractional position (0..1) within the
	// secondary recording where the template was extracted.
	ExtractionRatio float64
	// ExtractionTime, if set, is the exact position (in seconds) the
	// template was taken from; it takes precedence over
	// ExtractionRatio*SecondaryDuration, which is off by the rounding to
	// a whole sample.
	ExtractionTime *float64
	// SecondaryDuration is the duration of the secondary recording, in seconds.
	SecondaryDuration float64
	// TemplateDuration is the duration of the template in seconds; if
	// positive, the whole template must fit into the secondary recording.
	TemplateDuration float64
	// ReferenceDuration is the duration of the reference in seconds, or
	// 0 if unknown.
	ReferenceDuration float64
	Match             tracker.MatchResult
}

type OffsetRecord struct {
	TemplateExtractionTime float64
	DetectedTime           float64
	RawOffset              float64
	SecondaryDuration      float64
}

func Reconcile(in Input) (OffsetRecord, error) {
	if math.IsNaN(in.ExtractionRatio) || in.ExtractionRatio < 0 || in.ExtractionRatio > 1 {
		return OffsetRecord{}, newError(ProblemInvalidRatio, "the extraction ratio must be within [0, 1]: got %v", in.ExtractionRatio)
	}
	if !(in.SecondaryDuration > 0) || math.IsInf(in.SecondaryDuration, 0) {
		return OffsetRecord{}, newError(ProblemInvalidSecondaryDuration, "the secondary duration must be positive and finite: got %v", in.SecondaryDuration)
	}
	extractionTime := in.ExtractionRatio * in.SecondaryDuration
	if in.ExtractionTime != nil {
		extractionTime = *in.ExtractionTime
		if math.IsNaN(extractionTime) || extractionTime < 0 {
			return OffsetRecord{}, newError(ProblemExtractionOutOfRange, "the extraction time must not be negative: got %v", extractionTime)
		}
	}
	if extractionTime+math.Max(in.TemplateDuration, 0) > in.SecondaryDuration {
		return OffsetRecord{}, newError(
			ProblemExtractionOutOfRange,
			"the template [%.3fs, %.3fs) does not fit into the secondary recording of %.3fs",
			extractionTime, extractionTime+in.TemplateDuration, in.SecondaryDuration,
		)
	}
	if !in.Match.Found() {
		return OffsetRecord{}, newError(ProblemNotFound, "the template was not found in the reference (frames scanned: %d)", in.Match.FramesScanned)
	}

	detectedTime := in.Match.Time()
	if detectedTime < 0 {
		return OffsetRecord{}, newError(ProblemNegativeDetectedTime, "the detected time is negative: %v", detectedTime)
	}
	if in.ReferenceDuration > 0 && detectedTime > in.ReferenceDuration {
		return OffsetRecord{}, newError(
			ProblemDetectedBeyondReference,
			"the detected time %.3fs is beyond the reference duration %.3fs",
			detectedTime, in.ReferenceDuration,
		)
	}

	return OffsetRecord{
		TemplateExtractionTime: extractionTime,
		DetectedTime:           detectedTime,
		RawOffset:              detectedTime - extractionTime,
		SecondaryDuration:      in.SecondaryDuration,
	}, nil
}

// Offset returns RawOffset as a time.Duration.
func (r OffsetRecord) Offset() time.Duration {
	return secondsToDuration(r.RawOffset)
}

// CorrectedStart subtracts the raw offset from the nominal start of the
// secondary recording.
func (r OffsetRecord) CorrectedStart(secondaryStart time.Time) time.Time {
	return secondaryStart.Add(-r.Offset())
}

// AlignedStart returns the start of the secondary recording on the clock
// of the reference: the same moment is at DetectedTime in the reference
// and at TemplateExtractionTime in the secondary recording.
func (r OffsetRecord) AlignedStart(referenceStart time.Time) time.Time {
	return referenceStart.Add(r.Offset())
}

// CreatedDelay is the delay of the secondary recording creation in
// milliseconds, rounded down.
func (r OffsetRecord) CreatedDelay() int64 {
	return int64(math.Floor(-r.RawOffset * 1000))
}

// SecondaryDurationMillis is the duration of the secondary recording in
// milliseconds, rounded down.
func (r OffsetRecord) SecondaryDurationMillis() int64 {
	return int64(math.Floor(r.SecondaryDuration * 1000))
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}
