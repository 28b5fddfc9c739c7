package scorer

import (
	"fmt"

	"github.com/xaionaro-go/vodsync/pkg/windower"
)

type ErrFrameLengthMismatch struct {
	FrameLength    int
	TemplateLength int
}

func (e ErrFrameLengthMismatch) Error() string {
	return fmt.Sprintf("frame length %d does not match the template length %d", e.FrameLength, e.TemplateLength)
}

type ErrShortDestination struct {
	Length int
	Count  int
}

func (e ErrShortDestination) Error() string {
	return fmt.Sprintf("destination of length %d cannot hold %d scores", e.Length, e.Count)
}

// CheckBatch validates that a batch is compatible with a template of the
// given length and fits into dst.
func CheckBatch(batch windower.Batch, templateLength int, dst []float64) error {
	if batch.Count == 0 {
		return nil
	}
	if batch.FrameLength != templateLength {
		return ErrFrameLengthMismatch{FrameLength: batch.FrameLength, TemplateLength: templateLength}
	}
	if len(dst) < batch.Count {
		return ErrShortDestination{Length: len(dst), Count: batch.Count}
	}
	return nil
}
