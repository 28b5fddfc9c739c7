package reconcile

import (
	"fmt"
)

type Problem int

const (
	ProblemUndefined = Problem(iota)
	ProblemInvalidRatio
	ProblemInvalidSecondaryDuration
	ProblemExtractionOutOfRange
	ProblemNotFound
	ProblemNegativeDetectedTime
	ProblemDetectedBeyondReference
)

func (p Problem) String() string {
	switch p {
	case ProblemUndefined:
		return "<undefined>"
	case ProblemInvalidRatio:
		return "invalid-extraction-ratio"
	case ProblemInvalidSecondaryDuration:
		return "invalid-secondary-duration"
	case ProblemExtractionOutOfRange:
		return "extraction-out-of-range"
	case ProblemNotFound:
		return "not-found"
	case ProblemNegativeDetectedTime:
		return "negative-detected-time"
	case ProblemDetectedBeyondReference:
		return "detected-beyond-reference"
	default:
		return fmt.Sprintf("unknown_problem_%d", int(p))
	}
}

// ReconciliationError means the inputs cannot be reconciled into a
// plausible offset; the case needs a manual review.
type ReconciliationError struct {
	Problem Problem
	Details string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("unable to reconcile the offset (%s): %s", e.Problem, e.Details)
}

func newError(problem Problem, format string, args ...any) *ReconciliationError {
	return &ReconciliationError{
		Problem: problem,
		Details: fmt.Sprintf(format, args...),
	}
}
