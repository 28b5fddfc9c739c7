// Package matcher finds where a template occurs within a long stream.
//
// A scan is a map/reduce: blocks are prefetched from the source, sliced
// into frames, scored in parallel and reduced into a single tracker
// strictly in stream order, so the result does not depend on the amount
// of workers.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/vodsync/pkg/samplesource"
	"github.com/xaionaro-go/vodsync/pkg/scorer"
	"github.com/xaionaro-go/vodsync/pkg/template"
	"github.com/xaionaro-go/vodsync/pkg/tracker"
	"github.com/xaionaro-go/vodsync/pkg/windower"
	"golang.org/x/sync/errgroup"
)

type Matcher struct {
	template template.Vector
	scorer   scorer.Scorer
	options  Options

	samplesScanned atomic.Int64
	framesScanned  atomic.Int64
}

func New(
	tmpl template.Vector,
	s scorer.Scorer,
	opts Options,
) (*Matcher, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if tmpl.FrameLength() == 0 {
		return nil, fmt.Errorf("the template is empty")
	}
	if tmpl.SampleRate == 0 {
		return nil, fmt.Errorf("the template sample rate is not set")
	}
	if s.FrameLength() != tmpl.FrameLength() {
		return nil, fmt.Errorf("the scorer is built for frames of %d samples, but the template has %d samples", s.FrameLength(), tmpl.FrameLength())
	}
	return &Matcher{
		template: tmpl,
		scorer:   s,
		options:  opts,
	}, nil
}

type Progress struct {
	SamplesScanned int64
	FramesScanned  int64
}

// Progress may be called concurrently with Scan.
func (m *Matcher) Progress() Progress {
	return Progress{
		SamplesScanned: m.samplesScanned.Load(),
		FramesScanned:  m.framesScanned.Load(),
	}
}

type blockOrErr struct {
	block []float64
	err   error
}

// excerpt is the stretch of the stream around the best frame kept for
// the refiner.
type excerpt struct {
	offset  int64
	samples []float64
}

// Scan searches the source for the template. The source is consumed but
// not closed.
//
// The returned result is always valid to be inspected:
// * a cancelled context or an exceeded MaxScanDuration stop the scan
// with a partial result and no error;
// * an *samplesource.IncompleteStreamError returns the partial result
// along with the error;
// * a *samplesource.DecodeError or a *RateMismatchError return an empty
// result.
func (m *Matcher) Scan(
	ctx context.Context,
	src samplesource.Source,
) (_ret tracker.MatchResult, _err error) {
	logger.Debugf(ctx, "Scan")
	defer func() {
		logger.Debugf(ctx, "/Scan: %v %v", _ret, _err)
	}()

	rate := src.SampleRate()
	if rate != m.template.SampleRate {
		return tracker.NewMatchResult(), &RateMismatchError{
			ReferenceRate: rate,
			TemplateRate:  m.template.SampleRate,
		}
	}

	frameLength := m.template.FrameLength()
	w, err := windower.New(frameLength, m.options.HopLength)
	if err != nil {
		return tracker.NewMatchResult(), err
	}
	tr := tracker.New(rate, int64(frameLength))

	parentCtx := ctx
	var cancelFn context.CancelFunc
	if m.options.MaxScanDuration > 0 {
		ctx, cancelFn = context.WithTimeout(ctx, m.options.MaxScanDuration)
	} else {
		ctx, cancelFn = context.WithCancel(ctx)
	}
	defer cancelFn()

	blocks, prefetchDone := m.prefetch(ctx, src)
	defer func() {
		cancelFn()
		<-prefetchDone
	}()

	var best *excerpt
	batches := make([]windower.Batch, 0, m.options.Workers)
	scores := make([][]float64, m.options.Workers)
	for {
		batches = batches[:0]
		var streamErr error
		for len(batches) < m.options.Workers && streamErr == nil {
			var (
				item blockOrErr
				ok   bool
			)
			select {
			case <-ctx.Done():
				streamErr = ctx.Err()
			case item, ok = <-blocks:
				switch {
				case !ok:
					streamErr = ctx.Err()
					if streamErr == nil {
						streamErr = io.ErrUnexpectedEOF
					}
				case item.err != nil:
					streamErr = item.err
				}
			}
			if len(item.block) == 0 {
				continue
			}
			m.samplesScanned.Add(int64(len(item.block)))
			if batch := w.Push(item.block); !batch.IsEmpty() {
				batches = append(batches, batch)
			}
		}

		scored, scoreErr := m.scoreWave(ctx, batches, scores)
		for idx, batch := range batches[:scored] {
			if e := m.reduce(tr, batch, scores[idx]); e != nil {
				best = e
			}
		}
		if scoreErr != nil && ctx.Err() == nil {
			return tr.Finish(tracker.StopReasonUndefined), fmt.Errorf("unable to score frames: %w", scoreErr)
		}
		if ctx.Err() != nil {
			streamErr = ctx.Err()
		}

		if streamErr == nil {
			continue
		}

		var (
			incompleteErr *samplesource.IncompleteStreamError
			decodeErr     *samplesource.DecodeError
		)
		switch {
		case errors.As(streamErr, &incompleteErr):
			// a decode failure after the first sample still leaves a valid prefix
		case errors.As(streamErr, &decodeErr):
			return tracker.NewMatchResult(), streamErr
		case streamErr == io.EOF:
			return m.finish(parentCtx, tr, tracker.StopReasonEndOfStream, best), nil
		case ctx.Err() != nil:
			reason := tracker.StopReasonTimeLimit
			if parentCtx.Err() != nil {
				reason = tracker.StopReasonCancelled
			}
			logger.Debugf(parentCtx, "the scan was interrupted: %v", reason)
			return m.finish(parentCtx, tr, reason, best), nil
		}
		logger.Warnf(parentCtx, "the reference stream ended prematurely: %v", streamErr)
		return m.finish(parentCtx, tr, tracker.StopReasonIncompleteStream, best), streamErr
	}
}

// prefetch reads blocks ahead of scoring; the returned channel is closed
// after a terminal error (including io.EOF) or a cancellation.
func (m *Matcher) prefetch(
	ctx context.Context,
	src samplesource.Source,
) (<-chan blockOrErr, <-chan struct{}) {
	blocks := make(chan blockOrErr, m.options.PrefetchBlocks)
	done := make(chan struct{})
	reader := samplesource.NewBlockReader(src, m.options.BlockSamples())
	observability.Go(ctx, func(ctx context.Context) {
		defer close(done)
		defer close(blocks)
		for {
			block, err := reader.Next()
			select {
			case blocks <- blockOrErr{block: block, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	})
	return blocks, done
}

// scoreWave scores every batch in its own goroutine. It returns how many
// leading batches were scored completely.
func (m *Matcher) scoreWave(
	ctx context.Context,
	batches []windower.Batch,
	scores [][]float64,
) (int, error) {
	for idx, batch := range batches {
		if cap(scores[idx]) < batch.Count {
			scores[idx] = make([]float64, batch.Count)
		}
		scores[idx] = scores[idx][:batch.Count]
	}

	if len(batches) == 1 {
		if err := m.scorer.ScoreBatch(ctx, batches[0], scores[0]); err != nil {
			return 0, err
		}
		return 1, nil
	}

	done := make([]bool, len(batches))
	g, gCtx := errgroup.WithContext(ctx)
	for idx, batch := range batches {
		g.Go(func() error {
			if err := m.scorer.ScoreBatch(gCtx, batch, scores[idx]); err != nil {
				return err
			}
			done[idx] = true
			return nil
		})
	}
	err := g.Wait()

	scored := 0
	for scored < len(done) && done[scored] {
		scored++
	}
	return scored, err
}

// reduce feeds the scores of a batch into the tracker in stream order. If
// the best match moved into this batch, the samples around it are
// returned (only when refinement is enabled).
func (m *Matcher) reduce(
	tr *tracker.Tracker,
	batch windower.Batch,
	scores []float64,
) *excerpt {
	bestIdx := -1
	for idx := 0; idx < batch.Count; idx++ {
		if tr.Observe(batch.FrameOffset(idx), scores[idx]) {
			bestIdx = idx
		}
	}
	m.framesScanned.Add(int64(batch.Count))
	if bestIdx < 0 || m.options.Refiner == nil {
		return nil
	}

	start := max(bestIdx*batch.Hop-batch.Hop, 0)
	end := min(bestIdx*batch.Hop+batch.FrameLength+batch.Hop, len(batch.Samples))
	return &excerpt{
		offset:  batch.Offset + int64(start),
		samples: append([]float64(nil), batch.Samples[start:end]...),
	}
}

func (m *Matcher) finish(
	ctx context.Context,
	tr *tracker.Tracker,
	reason tracker.StopReason,
	best *excerpt,
) tracker.MatchResult {
	result := tr.Finish(reason)
	if !result.Found() || best == nil || m.options.Refiner == nil || ctx.Err() != nil {
		return result
	}

	refined, err := m.options.Refiner.Refine(ctx, best.samples, m.template.Samples, m.template.SampleRate)
	if err != nil {
		logger.Warnf(ctx, "unable to refine the match position: %v", err)
		return result
	}
	position := float64(best.offset) + refined.Position
	if math.Abs(position-float64(result.BestOffset)) > float64(m.options.HopLength) {
		logger.Warnf(ctx, "the refined position %f is too far from the coarse position %d, ignoring it", position, result.BestOffset)
		return result
	}
	result.Refined = true
	result.RefinedTime = position / float64(m.template.SampleRate)
	result.RefinedConfidence = refined.Confidence
	return result
}
