package samplesource

import (
	"io"

	"github.com/xaionaro-go/vodsync/pkg/audio"
)

// SliceSource serves samples from memory.
type SliceSource struct {
	Samples []float64
	Rate    audio.SampleRate

	// ChunkSizes optionally limits the amount of samples returned by
	// consecutive ReadSamples calls (cycled), to emulate decoders returning
	// irregular chunks.
	ChunkSizes []int

	pos      int
	chunkIdx int
}

var (
	_ Source   = (*SliceSource)(nil)
	_ Lengther = (*SliceSource)(nil)
)

func NewSliceSource(samples []float64, rate audio.SampleRate) *SliceSource {
	return &SliceSource{
		Samples: samples,
		Rate:    rate,
	}
}

func (s *SliceSource) Close() error {
	return nil
}

func (s *SliceSource) SampleRate() audio.SampleRate {
	return s.Rate
}

func (s *SliceSource) NumSamples() int64 {
	return int64(len(s.Samples))
}

func (s *SliceSource) ReadSamples(p []float64) (int, error) {
	if s.pos >= len(s.Samples) {
		return 0, io.EOF
	}
	if len(s.ChunkSizes) > 0 {
		limit := s.ChunkSizes[s.chunkIdx%len(s.ChunkSizes)]
		s.chunkIdx++
		if limit < len(p) {
			p = p[:limit]
		}
	}
	n := copy(p, s.Samples[s.pos:])
	s.pos += n
	return n, nil
}

// ReadAll drains src into memory.
func ReadAll(src Source) ([]float64, error) {
	var result []float64
	buf := make([]float64, 65536)
	for {
		n, err := src.ReadSamples(buf)
		result = append(result, buf[:n]...)
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return result, err
		}
	}
}
