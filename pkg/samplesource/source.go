// Package samplesource provides the sequential, fixed-rate, mono sample
// streams scanned by the matcher.
//
// A Source is consumed exactly once and cannot be rewound: callers that
// need to scan the same input again must reopen it.
package samplesource

import (
	"io"

	"github.com/xaionaro-go/vodsync/pkg/audio"
)

type Source interface {
	io.Closer

	// SampleRate is constant for the whole lifetime of the source.
	SampleRate() audio.SampleRate

	// ReadSamples fills p with the next mono samples. It returns io.EOF
	// once the stream is exhausted.
	ReadSamples(p []float64) (int, error)
}

// Lengther is implemented by sources that know their total length
// (in samples at SampleRate) upfront.
type Lengther interface {
	NumSamples() int64
}

// Duration returns the duration of src in seconds if the source knows
// its length.
func Duration(src Source) (float64, bool) {
	l, ok := src.(Lengther)
	if !ok || l.NumSamples() <= 0 || src.SampleRate() == 0 {
		return 0, false
	}
	return src.SampleRate().Seconds(l.NumSamples()), true
}

// ByteCounter is implemented by sources that decode a byte stream and
// count the consumed bytes.
type ByteCounter interface {
	BytesRead() uint64
}

// Wrapper is implemented by sources that transform another source.
type Wrapper interface {
	Unwrap() Source
}

// BytesRead returns the amount of bytes consumed by the innermost source
// that counts them.
func BytesRead(src Source) (uint64, bool) {
	for src != nil {
		if c, ok := src.(ByteCounter); ok {
			return c.BytesRead(), true
		}
		w, ok := src.(Wrapper)
		if !ok {
			break
		}
		src = w.Unwrap()
	}
	return 0, false
}

/* for easier copy&paste:

func () Close() error {
}

func () SampleRate() audio.SampleRate {
}

func () ReadSamples(p []float64) (int, error) {
}

*/
