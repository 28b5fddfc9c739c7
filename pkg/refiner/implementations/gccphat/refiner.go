// Package gccphat refines a match position using Generalized
// Cross-Correlation with Phase Transform (GCC-PHAT).
//
// Normalizing the magnitude of the cross-power spectrum makes the peak
// sharp and independent of the loudness of either signal, which allows a
// sub-sample estimate via parabolic interpolation.
package gccphat

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/mjibson/go-dsp/fft"
	"github.com/xaionaro-go/vodsync/pkg/audio"
	"github.com/xaionaro-go/vodsync/pkg/refiner"
)

type Refiner struct {
	MinFreq float64
	MaxFreq float64
}

var _ refiner.Refiner = (*Refiner)(nil)

func New() *Refiner {
	return &Refiner{
		// Reasonable defaults: 100Hz to 12000Hz captures most informative audio
		// while filtering out low-frequency rumble and high-frequency digital noise.
		MinFreq: 100,
		MaxFreq: 12000,
	}
}

func (r *Refiner) Refine(
	ctx context.Context,
	excerpt []float64,
	template []float64,
	sampleRate audio.SampleRate,
) (refiner.Result, error) {
	if len(template) == 0 {
		return refiner.Result{}, fmt.Errorf("the template is empty")
	}
	if len(excerpt) < len(template) {
		return refiner.Result{}, fmt.Errorf("the excerpt (%d samples) is shorter than the template (%d samples)", len(excerpt), len(template))
	}
	if err := ctx.Err(); err != nil {
		return refiner.Result{}, err
	}

	// the next power of two of (n1 + n2 - 1) avoids circular artifacts
	n := 1
	for n < len(excerpt)+len(template)-1 {
		n <<= 1
	}
	fref := fft.FFT(padded(excerpt, n))
	fcomp := fft.FFT(padded(template, n))

	// template(t) == excerpt(t+position), so the template "leads" by position
	position, confidence, err := CrossCorrelate(fref, fcomp, float64(sampleRate), r.MinFreq, r.MaxFreq)
	if err != nil {
		return refiner.Result{}, fmt.Errorf("unable to cross-correlate: %w", err)
	}
	logger.Tracef(ctx, "GCC-PHAT: position %f, confidence %f (n: %d)", position, confidence, n)

	return refiner.Result{
		Position:   position,
		Confidence: confidence,
	}, nil
}

func padded(samples []float64, n int) []complex128 {
	out := make([]complex128, n)
	for i, v := range samples {
		out[i] = complex(v, 0)
	}
	return out
}
