// Package resampler converts a mono sample source to another sample rate.
package resampler

import (
	"fmt"
	"io"
	"sync"

	"github.com/xaionaro-go/vodsync/pkg/audio"
	"github.com/xaionaro-go/vodsync/pkg/samplesource"
)

const (
	readChunkSize = 16384
)

// Resampler linearly interpolates the samples of a source to OutRate.
type Resampler struct {
	source  samplesource.Source
	outRate audio.SampleRate
	// step is the distance between two output samples, in input samples.
	step float64

	locker sync.Mutex
	// pos is the position of the next output sample relative to buffer[0].
	pos    float64
	buffer []float64
	inErr  error
}

var (
	_ samplesource.Source   = (*Resampler)(nil)
	_ samplesource.Lengther = (*Resampler)(nil)
	_ samplesource.Wrapper  = (*Resampler)(nil)
)

func NewResampler(
	source samplesource.Source,
	outRate audio.SampleRate,
) (*Resampler, error) {
	inRate := source.SampleRate()
	if inRate == 0 || outRate == 0 {
		return nil, fmt.Errorf("unable to initialize a resampler from %d Hz to %d Hz: sample rates must be positive", inRate, outRate)
	}
	return &Resampler{
		source:  source,
		outRate: outRate,
		step:    float64(inRate) / float64(outRate),
	}, nil
}

// Normalize returns source as is if it is already at rate, or wraps it
// into a Resampler otherwise.
func Normalize(source samplesource.Source, rate audio.SampleRate) (samplesource.Source, error) {
	if source.SampleRate() == rate {
		return source, nil
	}
	r, err := NewResampler(source, rate)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resampler) Unwrap() samplesource.Source {
	return r.source
}

func (r *Resampler) Close() error {
	return r.source.Close()
}

func (r *Resampler) SampleRate() audio.SampleRate {
	return r.outRate
}

func (r *Resampler) NumSamples() int64 {
	l, ok := r.source.(samplesource.Lengther)
	if !ok {
		return 0
	}
	return int64(float64(l.NumSamples()) / r.step)
}

func (r *Resampler) ReadSamples(p []float64) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	n := 0
	for n < len(p) {
		idx := int(r.pos)
		if idx+1 >= len(r.buffer) {
			if r.inErr != nil {
				if idx < len(r.buffer) && r.pos == float64(idx) {
					// exactly on the last input sample
					p[n] = r.buffer[idx]
					n++
					r.pos += r.step
				}
				break
			}
			r.fill()
			continue
		}
		frac := r.pos - float64(idx)
		p[n] = r.buffer[idx]*(1-frac) + r.buffer[idx+1]*frac
		n++
		r.pos += r.step
	}

	if n == 0 && r.inErr != nil {
		return 0, r.inErr
	}
	return n, nil
}

func (r *Resampler) fill() {
	consumed := min(int(r.pos), len(r.buffer))
	if consumed > 0 {
		r.buffer = append(r.buffer[:0], r.buffer[consumed:]...)
		r.pos -= float64(consumed)
	}

	chunk := make([]float64, readChunkSize)
	n, err := r.source.ReadSamples(chunk)
	r.buffer = append(r.buffer, chunk[:n]...)
	switch {
	case err != nil:
		r.inErr = err
	case n == 0:
		r.inErr = fmt.Errorf("the source made no progress: %w", io.ErrNoProgress)
	}
}
