// Package fft implements an overlap-save correlation scorer.
//
// The template spectrum is computed once; every batch is then correlated
// chunk by chunk at O(N log N) per chunk of N-frame_length+1 lags, only
// the lags that are frame starts are kept.
package fft

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"

	"github.com/brettbuddin/fourier"
	"github.com/xaionaro-go/vodsync/pkg/scorer"
	"github.com/xaionaro-go/vodsync/pkg/windower"
)

type Scorer struct {
	frameLength int
	fftSize     int
	// templateSpectrum is conj(FFT(template zero-padded to fftSize)).
	templateSpectrum []complex128
	templateNorm     float64
	options          scorer.Options
}

var _ scorer.Scorer = (*Scorer)(nil)

func New(template []float64, opts scorer.Options) (*Scorer, error) {
	if len(template) == 0 {
		return nil, fmt.Errorf("template is empty")
	}

	fftSize := FFTSize(len(template))
	spectrum := make([]complex128, fftSize)
	for i, v := range template {
		spectrum[i] = complex(v, 0)
	}
	if err := fourier.Forward(spectrum); err != nil {
		return nil, fmt.Errorf("unable to calculate the template spectrum: %w", err)
	}
	for i, v := range spectrum {
		spectrum[i] = cmplx.Conj(v)
	}

	return &Scorer{
		frameLength:      len(template),
		fftSize:          fftSize,
		templateSpectrum: spectrum,
		templateNorm:     scorer.Norm(template),
		options:          opts,
	}, nil
}

// minFFTSize is the smallest size fourier.Forward actually transforms.
const minFFTSize = 4

// FFTSize returns the transform size used for a template of the given
// length: the smallest power of two not below twice the length.
func FFTSize(frameLength int) int {
	if frameLength <= 1 {
		return minFFTSize
	}
	return max(minFFTSize, 1<<bits.Len(uint(2*frameLength-1)))
}

func (s *Scorer) FrameLength() int {
	return s.frameLength
}

func (s *Scorer) ScoreBatch(
	ctx context.Context,
	batch windower.Batch,
	dst []float64,
) error {
	if err := scorer.CheckBatch(batch, s.frameLength, dst); err != nil {
		return err
	}
	if batch.Count == 0 {
		return nil
	}

	n := s.fftSize
	validLags := n - s.frameLength + 1
	lastLag := (batch.Count - 1) * batch.Hop
	buf := make([]complex128, n)

	frameIdx := 0
	for chunkStart := 0; chunkStart <= lastLag; chunkStart += validLags {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunkEnd := chunkStart + validLags // exclusive, in lags
		nextLag := frameIdx * batch.Hop
		if nextLag >= chunkEnd {
			// no frame starts within this chunk
			continue
		}

		chunk := batch.Samples[chunkStart:min(chunkStart+n, len(batch.Samples))]
		for i := range buf {
			if i < len(chunk) {
				buf[i] = complex(chunk[i], 0)
			} else {
				buf[i] = 0
			}
		}
		if err := s.correlate(buf); err != nil {
			return err
		}

		for ; frameIdx < batch.Count; frameIdx++ {
			lag := frameIdx * batch.Hop
			if lag >= chunkEnd {
				break
			}
			dst[frameIdx] = real(buf[lag-chunkStart])
		}
	}

	if s.options.Normalize {
		s.normalize(batch, dst)
	}
	return nil
}

// correlate replaces buf with the circular cross-correlation of buf and
// the template.
func (s *Scorer) correlate(buf []complex128) error {
	if err := fourier.Forward(buf); err != nil {
		return fmt.Errorf("unable to calculate the forward transform: %w", err)
	}
	// the inverse transform is computed as conj(FFT(conj(X)))/N
	for i, v := range buf {
		buf[i] = cmplx.Conj(v * s.templateSpectrum[i])
	}
	if err := fourier.Forward(buf); err != nil {
		return fmt.Errorf("unable to calculate the inverse transform: %w", err)
	}
	scale := 1 / float64(len(buf))
	for i, v := range buf {
		buf[i] = complex(real(v)*scale, 0)
	}
	return nil
}

func (s *Scorer) normalize(batch windower.Batch, dst []float64) {
	// prefix[j] is the energy of Samples[:j]
	prefix := make([]float64, len(batch.Samples)+1)
	for j, v := range batch.Samples {
		prefix[j+1] = prefix[j] + v*v
	}
	for i := 0; i < batch.Count; i++ {
		start := i * batch.Hop
		energy := math.Max(prefix[start+s.frameLength]-prefix[start], 0)
		dst[i] = scorer.NormalizeScore(dst[i], math.Sqrt(energy), s.templateNorm)
	}
}
