// Package direct implements the direct-form inner product scorer.
//
// It costs O(frame_length) per frame, which is fine for short templates
// or large hops.
package direct

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/vodsync/pkg/scorer"
	"github.com/xaionaro-go/vodsync/pkg/windower"
	"gonum.org/v1/gonum/floats"
)

// checkEvery is how many frames are scored between context checks.
const checkEvery = 64

type Scorer struct {
	template     []float64
	templateNorm float64
	options      scorer.Options
}

var _ scorer.Scorer = (*Scorer)(nil)

func New(template []float64, opts scorer.Options) (*Scorer, error) {
	if len(template) == 0 {
		return nil, fmt.Errorf("template is empty")
	}
	return &Scorer{
		template:     template,
		templateNorm: scorer.Norm(template),
		options:      opts,
	}, nil
}

func (s *Scorer) FrameLength() int {
	return len(s.template)
}

func (s *Scorer) ScoreBatch(
	ctx context.Context,
	batch windower.Batch,
	dst []float64,
) error {
	if err := scorer.CheckBatch(batch, len(s.template), dst); err != nil {
		return err
	}
	for i := 0; i < batch.Count; i++ {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		frame := batch.Frame(i).Samples
		score := floats.Dot(frame, s.template)
		if s.options.Normalize {
			score = scorer.NormalizeScore(score, scorer.Norm(frame), s.templateNorm)
		}
		dst[i] = score
	}
	return nil
}
