package samplesource

import (
	"fmt"
	"io"

	"github.com/xaionaro-go/vodsync/pkg/audio"
)

// Segment exposes only the samples [Start, Start+Length) of the
// underlying source. A negative Length means "until the end".
type Segment struct {
	Source Source
	Start  int64
	Length int64

	pos int64
}

var (
	_ Source  = (*Segment)(nil)
	_ Wrapper = (*Segment)(nil)
)

func NewSegment(source Source, start, length int64) (*Segment, error) {
	if start < 0 {
		return nil, fmt.Errorf("the segment start must not be negative: %d", start)
	}
	return &Segment{
		Source: source,
		Start:  start,
		Length: length,
	}, nil
}

func (s *Segment) Unwrap() Source {
	return s.Source
}

func (s *Segment) Close() error {
	return s.Source.Close()
}

func (s *Segment) SampleRate() audio.SampleRate {
	return s.Source.SampleRate()
}

func (s *Segment) NumSamples() int64 {
	if s.Length >= 0 {
		return s.Length
	}
	l, ok := s.Source.(Lengther)
	if !ok {
		return 0
	}
	return max(l.NumSamples()-s.Start, 0)
}

func (s *Segment) ReadSamples(p []float64) (int, error) {
	if err := s.skip(); err != nil {
		return 0, err
	}
	if s.Length >= 0 {
		left := s.Start + s.Length - s.pos
		if left <= 0 {
			return 0, io.EOF
		}
		if int64(len(p)) > left {
			p = p[:left]
		}
	}
	n, err := s.Source.ReadSamples(p)
	s.pos += int64(n)
	return n, err
}

func (s *Segment) skip() error {
	if s.pos >= s.Start {
		return nil
	}
	buf := make([]float64, min(s.Start-s.pos, 65536))
	for s.pos < s.Start {
		chunk := buf[:min(int64(len(buf)), s.Start-s.pos)]
		n, err := s.Source.ReadSamples(chunk)
		s.pos += int64(n)
		if err == io.EOF {
			return fmt.Errorf("the stream ended at sample %d, before the segment start %d: %w", s.pos, s.Start, io.ErrUnexpectedEOF)
		}
		if err != nil {
			return fmt.Errorf("unable to skip to sample %d: %w", s.Start, err)
		}
	}
	return nil
}
