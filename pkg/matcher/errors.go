package matcher

import (
	"fmt"

	"github.com/xaionaro-go/vodsync/pkg/audio"
)

// RateMismatchError means the reference and the template have different
// sample rates, so the frame length in samples is ill-defined. The
// template must be resampled upstream.
type RateMismatchError struct {
	ReferenceRate audio.SampleRate
	TemplateRate  audio.SampleRate
}

func (e *RateMismatchError) Error() string {
	return fmt.Sprintf(
		"the reference sample rate %d differs from the template sample rate %d",
		e.ReferenceRate, e.TemplateRate,
	)
}
