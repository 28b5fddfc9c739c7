package tracker

import (
	"fmt"
	"math"
)

type StopReason int

const (
	StopReasonUndefined = StopReason(iota)
	StopReasonEndOfStream
	StopReasonIncompleteStream
	StopReasonCancelled
	StopReasonTimeLimit
)

func (r StopReason) String() string {
	switch r {
	case StopReasonUndefined:
		return "<undefined>"
	case StopReasonEndOfStream:
		return "end-of-stream"
	case StopReasonIncompleteStream:
		return "incomplete-stream"
	case StopReasonCancelled:
		return "cancelled"
	case StopReasonTimeLimit:
		return "time-limit"
	default:
		return fmt.Sprintf("unknown_stop_reason_%d", int(r))
	}
}

// NotFound is the BestOffset of a result without a match.
const NotFound = int64(-1)

type MatchResult struct {
	// BestOffset is the sample position of the best frame, or NotFound.
	BestOffset int64
	// BestTime is BestOffset in seconds; meaningless if !Found().
	BestTime float64
	// BestScore is the absolute score of the best frame (-Inf if none).
	BestScore float64
	// FramesScanned counts every observed frame including non-finite ones.
	FramesScanned int64

	// RunnerUpScore is the best absolute score among the frames that
	// do not overlap the best frame.
	RunnerUpScore float64

	StopReason StopReason

	// Refined* are set when a sub-sample refinement succeeded.
	Refined           bool
	RefinedTime       float64
	RefinedConfidence float64
}

func NewMatchResult() MatchResult {
	return MatchResult{
		BestOffset:    NotFound,
		BestScore:     math.Inf(-1),
		RunnerUpScore: math.Inf(-1),
	}
}

func (r MatchResult) Found() bool {
	return r.BestOffset != NotFound
}

// PeakRatio is BestScore divided by RunnerUpScore. It is +Inf if there is
// no runner-up and NaN if nothing was found.
func (r MatchResult) PeakRatio() float64 {
	if !r.Found() {
		return math.NaN()
	}
	if math.IsInf(r.RunnerUpScore, -1) || r.RunnerUpScore == 0 {
		return math.Inf(1)
	}
	return r.BestScore / r.RunnerUpScore
}

// Time returns the refined time if available, BestTime otherwise.
func (r MatchResult) Time() float64 {
	if r.Refined {
		return r.RefinedTime
	}
	return r.BestTime
}

func (r MatchResult) String() string {
	if !r.Found() {
		return fmt.Sprintf("not found (frames scanned: %d, stop reason: %s)", r.FramesScanned, r.StopReason)
	}
	return fmt.Sprintf(
		"best time %.6fs (offset %d), score %g, peak ratio %.3f, frames scanned %d, stop reason: %s",
		r.Time(), r.BestOffset, r.BestScore, r.PeakRatio(), r.FramesScanned, r.StopReason,
	)
}
