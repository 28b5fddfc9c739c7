// Package refiner estimates the sub-sample position of a template within
// a short excerpt of the stream around a coarse match.
package refiner

import (
	"context"

	"github.com/xaionaro-go/vodsync/pkg/audio"
)

type Result struct {
	// Position is the position of the template start within the excerpt,
	// in samples (fractional).
	Position float64
	// Confidence is a score (0..1).
	Confidence float64
}

type Refiner interface {
	// Refine locates template within excerpt; len(excerpt) must not be
	// less than len(template).
	Refine(
		ctx context.Context,
		excerpt []float64,
		template []float64,
		sampleRate audio.SampleRate,
	) (Result, error)
}

/* for easier copy&paste:

func () Refine(
	ctx context.Context,
	excerpt []float64,
	template []float64,
	sampleRate audio.SampleRate,
) (refiner.Result, error) {
}

*/
