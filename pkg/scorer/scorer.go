package scorer

import (
	"context"
	"math"

	"github.com/xaionaro-go/vodsync/pkg/windower"
	"gonum.org/v1/gonum/floats"
)

// Scorer computes the zero-lag cross-correlation between a template and
// every frame of a batch.
//
// Implementations must be safe for concurrent use on disjoint batches and
// must never modify the batch.
type Scorer interface {
	// ScoreBatch writes the score of frame i of the batch into dst[i];
	// len(dst) must be at least batch.Count.
	ScoreBatch(ctx context.Context, batch windower.Batch, dst []float64) error

	// FrameLength is the length of the template.
	FrameLength() int
}

/* for easier copy&paste:

func () ScoreBatch(
	ctx context.Context,
	batch windower.Batch,
	dst []float64,
) error {
}

func () FrameLength() int {
}

*/

type Options struct {
	// Normalize divides each score by the L2 norms of the frame and the
	// template, making it amplitude-invariant (-1..1). A zero norm makes
	// the score NaN.
	Normalize bool
}

// Norm returns the L2 norm of the samples.
func Norm(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return floats.Norm(samples, 2)
}

// NormalizeScore divides the score by both norms; a zero norm yields NaN.
func NormalizeScore(score, frameNorm, templateNorm float64) float64 {
	denom := frameNorm * templateNorm
	if denom == 0 {
		return math.NaN()
	}
	return score / denom
}
