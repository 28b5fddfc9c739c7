// Package tracker keeps the running maximum of frame scores.
package tracker

import (
	"math"

	"github.com/xaionaro-go/vodsync/pkg/audio"
)

type observation struct {
	offset int64
	score  float64
}

// Tracker is the single serialized reducer of a scan: the observations
// must be fed in ascending offset order. It is not safe for concurrent use.
//
// Besides the best frame it tracks the exact runner-up: the best score
// among the frames farther than Exclusion samples from the best frame.
// Only frames within Exclusion of the newest frame are retained.
type Tracker struct {
	sampleRate audio.SampleRate
	exclusion  int64
	result     MatchResult

	// recent holds the finite observations within exclusion of the
	// newest one, in ascending order.
	recent []observation
	// expiredMax is the best score among the observations that fell out
	// of recent.
	expiredMax float64
}

// New creates a tracker; exclusion is the distance in samples within
// which a frame is considered to overlap another (usually frame length).
func New(sampleRate audio.SampleRate, exclusion int64) *Tracker {
	return &Tracker{
		sampleRate: sampleRate,
		exclusion:  exclusion,
		result:     NewMatchResult(),
		expiredMax: math.Inf(-1),
	}
}

// Observe accounts one frame. It returns true if the frame became the new
// best match.
func (t *Tracker) Observe(offset int64, score float64) bool {
	t.result.FramesScanned++
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return false
	}
	score = math.Abs(score)

	t.expire(offset)
	t.recent = append(t.recent, observation{offset: offset, score: score})

	if score > t.result.BestScore {
		t.result.BestScore = score
		t.result.BestOffset = offset
		t.result.BestTime = t.sampleRate.Seconds(offset)
		// everything older than the exclusion window is a runner-up now
		t.result.RunnerUpScore = t.expiredMax
		return true
	}

	if offset-t.result.BestOffset > t.exclusion {
		t.result.RunnerUpScore = math.Max(t.result.RunnerUpScore, score)
	}
	return false
}

// expire moves the observations not overlapping the given offset out of
// the window.
func (t *Tracker) expire(offset int64) {
	drop := 0
	for drop < len(t.recent) && offset-t.recent[drop].offset > t.exclusion {
		t.expiredMax = math.Max(t.expiredMax, t.recent[drop].score)
		drop++
	}
	if drop == 0 {
		return
	}
	t.recent = append(t.recent[:0], t.recent[drop:]...)
}

// Result returns a snapshot of the current state.
func (t *Tracker) Result() MatchResult {
	return t.result
}

// Finish freezes the result with the given stop reason.
func (t *Tracker) Finish(reason StopReason) MatchResult {
	t.result.StopReason = reason
	t.recent = nil
	return t.result
}
