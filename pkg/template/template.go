// Package template loads the search pattern of a scan.
package template

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vodsync/pkg/audio"
	"github.com/xaionaro-go/vodsync/pkg/samplesource"
)

// Vector is an immutable template: it must not be modified once a scan
// started, since it is shared by all the scoring goroutines.
type Vector struct {
	Samples    []float64
	SampleRate audio.SampleRate
}

func (v Vector) FrameLength() int {
	return len(v.Samples)
}

func (v Vector) Duration() time.Duration {
	return v.SampleRate.Duration(int64(len(v.Samples)))
}

// Load reads the whole source as a template.
func Load(ctx context.Context, src samplesource.Source) (Vector, error) {
	samples, err := samplesource.ReadAll(src)
	if err != nil {
		return Vector{}, fmt.Errorf("unable to read the template: %w", err)
	}
	if len(samples) == 0 {
		return Vector{}, fmt.Errorf("the template is empty")
	}
	logger.Debugf(ctx, "loaded a template of %d samples", len(samples))
	return Vector{
		Samples:    samples,
		SampleRate: src.SampleRate(),
	}, nil
}

// Extraction is a template cut out of a longer (secondary) source.
type Extraction struct {
	Vector Vector
	// Time is the position of the template within the source, in seconds.
	Time float64
	// SourceDuration is the duration of the whole source, in seconds.
	SourceDuration float64
}

// ErrExtractionWindow means the requested template does not fit into
// the source.
type ErrExtractionWindow struct {
	Start          float64
	Duration       float64
	SourceDuration float64
}

func (e ErrExtractionWindow) Error() string {
	return fmt.Sprintf(
		"the extraction window [%.3fs, %.3fs) does not fit into the source of %.3fs",
		e.Start, e.Start+e.Duration, e.SourceDuration,
	)
}

// Extract cuts a template of the given duration starting at
// ratio*duration of the source. The source must know its length.
//
// The source is consumed up to the end of the template.
func Extract(
	ctx context.Context,
	src samplesource.Source,
	ratio float64,
	duration time.Duration,
) (Extraction, error) {
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return Extraction{}, fmt.Errorf("the extraction ratio must be within [0, 1]: got %v", ratio)
	}
	if duration <= 0 {
		return Extraction{}, fmt.Errorf("the template duration must be positive: got %v", duration)
	}
	sourceDuration, ok := samplesource.Duration(src)
	if !ok {
		return Extraction{}, fmt.Errorf("the duration of the source is unknown")
	}

	rate := src.SampleRate()
	total := int64(math.Round(sourceDuration * float64(rate)))
	start := int64(ratio * float64(total))
	length := rate.SamplesForDuration(duration)
	if length <= 0 || start+length > total {
		return Extraction{}, ErrExtractionWindow{
			Start:          rate.Seconds(start),
			Duration:       duration.Seconds(),
			SourceDuration: sourceDuration,
		}
	}

	segment, err := samplesource.NewSegment(src, start, length)
	if err != nil {
		return Extraction{}, err
	}
	samples, err := samplesource.ReadAll(segment)
	if err != nil {
		return Extraction{}, fmt.Errorf("unable to read the template at sample %d: %w", start, err)
	}
	if int64(len(samples)) != length {
		return Extraction{}, fmt.Errorf("expected %d template samples, but got %d", length, len(samples))
	}
	logger.Debugf(ctx, "extracted a template of %d samples at sample %d of %d", length, start, total)

	return Extraction{
		Vector: Vector{
			Samples:    samples,
			SampleRate: rate,
		},
		Time:           rate.Seconds(start),
		SourceDuration: sourceDuration,
	}, nil
}
