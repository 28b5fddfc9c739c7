package matcher

import (
	"io"

	"github.com/xaionaro-go/vodsync/pkg/audio"
)

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// noise returns a deterministic value within [-1, 1) for the given seed
// and position.
func noise(seed uint64, pos int64) float64 {
	x := splitmix64(seed*0x100000001b3 + uint64(pos))
	return float64(x>>11)/float64(1<<53)*2 - 1
}

// proceduralSource generates a long stream without keeping it in memory:
// noise scaled by Amplitude, with Pattern embedded at PatternOffset.
// A negative Length means an endless stream.
type proceduralSource struct {
	Rate          audio.SampleRate
	Length        int64
	Seed          uint64
	Amplitude     float64
	Pattern       []float64
	PatternOffset int64

	// OnRead, if set, is called before serving samples at the position.
	OnRead func(pos int64)
	// FailAt, if set, makes the stream fail with FailErr at the position.
	FailAt  int64
	FailErr error

	pos int64
}

func (s *proceduralSource) Close() error {
	return nil
}

func (s *proceduralSource) SampleRate() audio.SampleRate {
	return s.Rate
}

func (s *proceduralSource) ReadSamples(p []float64) (int, error) {
	if s.OnRead != nil {
		s.OnRead(s.pos)
	}
	if s.FailErr != nil {
		if s.pos >= s.FailAt {
			return 0, s.FailErr
		}
		p = p[:min(int64(len(p)), s.FailAt-s.pos)]
	}
	if s.Length >= 0 {
		if s.pos >= s.Length {
			return 0, io.EOF
		}
		p = p[:min(int64(len(p)), s.Length-s.pos)]
	}
	for i := range p {
		pos := s.pos + int64(i)
		if rel := pos - s.PatternOffset; rel >= 0 && rel < int64(len(s.Pattern)) {
			p[i] = s.Pattern[rel]
			continue
		}
		p[i] = s.Amplitude * noise(s.Seed, pos)
	}
	s.pos += int64(len(p))
	return len(p), nil
}

func noisePattern(seed uint64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = noise(seed, int64(i))
	}
	return out
}

// smoothPattern is noise low-passed by a moving average, so its
// autocorrelation decays linearly over width samples.
func smoothPattern(seed uint64, length, width int) []float64 {
	raw := noisePattern(seed, length+width)
	out := make([]float64, length)
	var sum float64
	for i := 0; i < width; i++ {
		sum += raw[i]
	}
	for i := range out {
		out[i] = sum / float64(width)
		sum += raw[i+width] - raw[i]
	}
	return out
}
