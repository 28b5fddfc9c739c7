package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/vodsync/pkg/audio"
	"github.com/xaionaro-go/vodsync/pkg/config"
	"github.com/xaionaro-go/vodsync/pkg/matcher"
	"github.com/xaionaro-go/vodsync/pkg/reconcile"
	"github.com/xaionaro-go/vodsync/pkg/refiner/implementations/gccphat"
	"github.com/xaionaro-go/vodsync/pkg/samplesource"
	"github.com/xaionaro-go/vodsync/pkg/scorer/implementations/auto"
	"github.com/xaionaro-go/vodsync/pkg/template"
	"github.com/xaionaro-go/vodsync/pkg/tracker"
)

const (
	exitCodeOK       = 0
	exitCodeFatal    = 1
	exitCodeNoResult = 2
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	flags := parseFlags()

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}

	exitCode := run(ctx, flags)
	belt.Flush(ctx)
	os.Exit(exitCode)
}

func run(ctx context.Context, flags Flags) int {
	cfg, err := flags.Config()
	if err != nil {
		logger.Errorf(ctx, "invalid configuration: %v", err)
		return exitCodeFatal
	}
	logger.Debugf(ctx, "config: %#+v", cfg)

	reference, err := flags.openReference(ctx)
	if err != nil {
		logger.Errorf(ctx, "unable to open the reference: %v", err)
		return exitCodeFatal
	}
	defer reference.Close()

	targetRate := cfg.TargetSampleRate
	if targetRate == 0 {
		targetRate = reference.SampleRate()
	}
	referenceDuration, _ := samplesource.Duration(reference)
	normalizedReference, err := normalizeRate(ctx, reference, targetRate)
	if err != nil {
		logger.Errorf(ctx, "unable to normalize the reference: %v", err)
		return exitCodeFatal
	}

	extraction, err := extractTemplate(ctx, flags, cfg, targetRate)
	if err != nil {
		var windowErr template.ErrExtractionWindow
		if errors.As(err, &windowErr) {
			logger.Errorf(ctx, "%v", err)
			return exitCodeNoResult
		}
		logger.Errorf(ctx, "unable to extract the template: %v", err)
		return exitCodeFatal
	}
	logger.Infof(
		ctx, "extracted a template of %v at %s of the secondary recording (%s long)",
		extraction.Vector.Duration(), reconcile.FormatTimestamp(extraction.Time), reconcile.FormatTimestamp(extraction.SourceDuration),
	)

	s, err := auto.NewScorer(ctx, cfg.Scorer, extraction.Vector.Samples, cfg.ScorerOptions())
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		return exitCodeFatal
	}
	opts := cfg.MatcherOptions()
	if cfg.Refine {
		opts.Refiner = gccphat.New()
	}
	m, err := matcher.New(extraction.Vector, s, opts)
	if err != nil {
		logger.Errorf(ctx, "unable to initialize the matcher: %v", err)
		return exitCodeFatal
	}

	scanCtx, cancelFn := signal.NotifyContext(ctx, os.Interrupt)
	defer cancelFn()
	stopProgress := reportProgress(scanCtx, flags.Progress, m, normalizedReference)

	startedAt := time.Now()
	result, err := m.Scan(scanCtx, normalizedReference)
	stopProgress(result.StopReason == tracker.StopReasonEndOfStream)
	cancelFn()
	logger.Infof(ctx, "scanned in %v: %s", time.Since(startedAt), result)
	if err != nil {
		var incompleteErr *samplesource.IncompleteStreamError
		if !errors.As(err, &incompleteErr) {
			logger.Errorf(ctx, "unable to scan the reference: %v", err)
			return exitCodeFatal
		}
		logger.Warnf(ctx, "the result is partial: %v", err)
	}
	if result.StopReason != tracker.StopReasonEndOfStream {
		logger.Warnf(ctx, "the scan was stopped early (%s), the result covers only %s of the reference", result.StopReason, reconcile.FormatTimestamp(targetRate.Seconds(m.Progress().SamplesScanned)))
	}

	record, err := reconcile.Reconcile(reconcile.Input{
		ExtractionRatio:   cfg.TemplateExtractionRatio,
		ExtractionTime:    &extraction.Time,
		SecondaryDuration: extraction.SourceDuration,
		TemplateDuration:  extraction.Vector.Duration().Seconds(),
		ReferenceDuration: referenceDuration,
		Match:             result,
	})
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		return exitCodeNoResult
	}

	printReport(os.Stdout, flags, result, record)
	return exitCodeOK
}

func extractTemplate(
	ctx context.Context,
	flags Flags,
	cfg config.Config,
	targetRate audio.SampleRate,
) (template.Extraction, error) {
	secondary, err := flags.openInput(ctx, flags.Secondary)
	if err != nil {
		return template.Extraction{}, fmt.Errorf("unable to open the secondary recording: %w", err)
	}
	defer secondary.Close()

	normalized, err := normalizeRate(ctx, secondary, targetRate)
	if err != nil {
		return template.Extraction{}, err
	}
	return template.Extract(ctx, normalized, cfg.TemplateExtractionRatio, cfg.TemplateDuration)
}
