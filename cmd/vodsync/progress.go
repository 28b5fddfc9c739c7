package main

import (
	"context"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/vodsync/pkg/matcher"
	"github.com/xaionaro-go/vodsync/pkg/reconcile"
	"github.com/xaionaro-go/vodsync/pkg/samplesource"
)

// reportProgress periodically reports the progress of the scan until the
// returned function is called.
func reportProgress(
	ctx context.Context,
	withBar bool,
	m *matcher.Matcher,
	reference samplesource.Source,
) func(completed bool) {
	barCtx := ctx
	ctx, cancelFn := context.WithCancel(ctx)
	done := make(chan struct{})

	var (
		p   *mpb.Progress
		bar *mpb.Bar
	)
	total := int64(0)
	if l, ok := reference.(samplesource.Lengther); ok {
		total = l.NumSamples()
	}
	if withBar {
		if total <= 0 {
			logger.Warnf(ctx, "the length of the reference is unknown, cannot draw a progress bar")
		} else {
			p = mpb.NewWithContext(barCtx, mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
			bar = p.AddBar(total,
				mpb.PrependDecorators(
					decor.Name("Scanning: "),
					decor.Percentage(),
				),
				mpb.AppendDecorators(
					decor.EwmaETA(decor.ET_STYLE_GO, 60),
				),
			)
		}
	}

	rate := reference.SampleRate()
	observability.Go(ctx, func(ctx context.Context) {
		defer close(done)
		logger.Tracef(ctx, "started the progress printer loop")
		interval := 5 * time.Second
		if bar != nil {
			interval = 200 * time.Millisecond
		}
		t := time.NewTicker(interval)
		defer t.Stop()
		lastAt := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				progress := m.Progress()
				if bar != nil {
					bar.EwmaSetCurrent(min(progress.SamplesScanned, total), now.Sub(lastAt))
					lastAt = now
					continue
				}
				if bytesRead, ok := samplesource.BytesRead(reference); ok {
					logger.Debugf(ctx, "bytes read: %d", bytesRead)
				}
				logger.Infof(ctx, "scanned %s (%d frames)", reconcile.FormatTimestamp(rate.Seconds(progress.SamplesScanned)), progress.FramesScanned)
			}
		}
	})

	return func(completed bool) {
		cancelFn()
		<-done
		if bar == nil {
			return
		}
		if completed {
			bar.SetCurrent(total)
		} else {
			bar.Abort(false)
		}
		p.Wait()
	}
}
