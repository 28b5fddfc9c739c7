package audio

import (
	"fmt"
	"strings"
	"time"
)

// SampleRate is the amount of samples per second per channel.
type SampleRate uint32

// SamplesForDuration returns how many samples fit into the duration d
// (rounded down).
func (r SampleRate) SamplesForDuration(d time.Duration) int64 {
	return int64(d) * int64(r) / int64(time.Second)
}

// Duration returns the time occupied by the given amount of samples.
func (r SampleRate) Duration(samples int64) time.Duration {
	if r == 0 {
		return 0
	}
	return time.Duration(samples * int64(time.Second) / int64(r))
}

// Seconds converts a sample position to seconds.
func (r SampleRate) Seconds(samples int64) float64 {
	return float64(samples) / float64(r)
}

// Channel is an amount of audio channels.
type Channel uint32

type PCMFormat uint

const (
	PCMFormatUndefined = PCMFormat(iota)
	PCMFormatU8
	PCMFormatS16LE
	PCMFormatS16BE
	PCMFormatS24LE
	PCMFormatS24BE
	PCMFormatS32LE
	PCMFormatS32BE
	PCMFormatS64LE
	PCMFormatS64BE
	PCMFormatFloat32LE
	PCMFormatFloat32BE
	PCMFormatFloat64LE
	PCMFormatFloat64BE
	endOfPCMFormat
)

var pcmFormatNames = map[PCMFormat]string{
	PCMFormatU8:        "u8",
	PCMFormatS16LE:     "s16le",
	PCMFormatS16BE:     "s16be",
	PCMFormatS24LE:     "s24le",
	PCMFormatS24BE:     "s24be",
	PCMFormatS32LE:     "s32le",
	PCMFormatS32BE:     "s32be",
	PCMFormatS64LE:     "s64le",
	PCMFormatS64BE:     "s64be",
	PCMFormatFloat32LE: "f32le",
	PCMFormatFloat32BE: "f32be",
	PCMFormatFloat64LE: "f64le",
	PCMFormatFloat64BE: "f64be",
}

// Size returns the size of a single sample in bytes.
func (f PCMFormat) Size() uint {
	switch f {
	case PCMFormatU8:
		return 1
	case PCMFormatS16LE, PCMFormatS16BE:
		return 2
	case PCMFormatS24LE, PCMFormatS24BE:
		return 3
	case PCMFormatS32LE, PCMFormatS32BE, PCMFormatFloat32LE, PCMFormatFloat32BE:
		return 4
	case PCMFormatS64LE, PCMFormatS64BE, PCMFormatFloat64LE, PCMFormatFloat64BE:
		return 8
	default:
		return 0
	}
}

func (f PCMFormat) String() string {
	if name, ok := pcmFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("unknown_pcm_format_%d", uint(f))
}

// ParsePCMFormat is the inverse of PCMFormat.String.
func ParsePCMFormat(s string) (PCMFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f := PCMFormatU8; f < endOfPCMFormat; f++ {
		if f.String() == s {
			return f, nil
		}
	}
	return PCMFormatUndefined, fmt.Errorf("unknown PCM format '%s'", s)
}

type Encoding interface {
	BytesPerSample() uint
	BytesForDuration(time.Duration) uint64
}

type EncodingPCM struct {
	PCMFormat  PCMFormat
	SampleRate SampleRate
}

var _ Encoding = EncodingPCM{}

func (e EncodingPCM) BytesPerSample() uint {
	return e.PCMFormat.Size()
}

// BytesForDuration returns the amount of bytes a single channel occupies
// for the duration d.
func (e EncodingPCM) BytesForDuration(d time.Duration) uint64 {
	return uint64(e.SampleRate.SamplesForDuration(d)) * uint64(e.BytesPerSample())
}
