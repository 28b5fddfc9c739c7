// Package auto picks a scorer implementation by kind and template length.
package auto

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vodsync/pkg/scorer"
	"github.com/xaionaro-go/vodsync/pkg/scorer/implementations/direct"
	"github.com/xaionaro-go/vodsync/pkg/scorer/implementations/fft"
)

// DirectMaxFrameLength is the longest template for which the automatic
// choice is the direct-form scorer.
const DirectMaxFrameLength = 256

func NewScorer(
	ctx context.Context,
	kind scorer.Kind,
	template []float64,
	opts scorer.Options,
) (scorer.Scorer, error) {
	if kind == scorer.KindAuto || kind == scorer.KindUndefined {
		kind = scorer.KindFFT
		if len(template) <= DirectMaxFrameLength {
			kind = scorer.KindDirect
		}
		logger.Debugf(ctx, "selected the '%s' scorer for a template of %d samples", kind, len(template))
	}

	var (
		s   scorer.Scorer
		err error
	)
	switch kind {
	case scorer.KindDirect:
		s, err = direct.New(template, opts)
	case scorer.KindFFT:
		s, err = fft.New(template, opts)
	default:
		return nil, fmt.Errorf("unknown scorer kind '%s'", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the '%s' scorer: %w", kind, err)
	}
	return s, nil
}
