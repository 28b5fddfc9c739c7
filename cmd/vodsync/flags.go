package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/vodsync/pkg/audio"
	"github.com/xaionaro-go/vodsync/pkg/audio/resampler"
	"github.com/xaionaro-go/vodsync/pkg/config"
	"github.com/xaionaro-go/vodsync/pkg/samplesource"
	"github.com/xaionaro-go/vodsync/pkg/samplesource/implementations/pcm"
	_ "github.com/xaionaro-go/vodsync/pkg/samplesource/implementations/vorbis"
	_ "github.com/xaionaro-go/vodsync/pkg/samplesource/implementations/wav"
	"github.com/xaionaro-go/vodsync/pkg/scorer"
)

type Flags struct {
	Reference      string
	Secondary      string
	SecondaryStart string
	ReferenceStart string
	ConfigPath     string

	PCMFormat   audio.PCMFormat
	PCMRate     uint32
	PCMChannels uint32

	HopLength        int
	BlockLength      int
	TemplateDuration time.Duration
	ExtractionRatio  float64
	Scorer           scorer.Kind
	Normalize        bool
	Workers          int
	Refine           bool
	MaxScanDuration  time.Duration
	TargetSampleRate uint32
	Progress         bool

	flagSet *pflag.FlagSet
}

func parseFlags() Flags {
	defaults := config.Default()
	var flags Flags
	pflag.StringVar(&flags.Reference, "reference", "", "the long recording to be scanned ('-' for raw PCM from stdin)")
	pflag.StringVar(&flags.Secondary, "secondary", "", "the recording to take the template from")
	pflag.StringVar(&flags.SecondaryStart, "secondary-start", "", "the nominal start of the secondary recording (RFC3339)")
	pflag.StringVar(&flags.ReferenceStart, "reference-start", "", "the trusted start of the reference recording (RFC3339)")
	pflag.StringVar(&flags.ConfigPath, "config", "", "path to a YAML config; the flags below override it")
	pcmFormat := pflag.String("pcm-format", "", "treat the inputs as raw interleaved PCM of this format (e.g. s16le, f32le)")
	pflag.Uint32Var(&flags.PCMRate, "pcm-rate", 8000, "the sample rate of raw PCM inputs")
	pflag.Uint32Var(&flags.PCMChannels, "pcm-channels", 1, "the amount of channels of raw PCM inputs")
	pflag.IntVar(&flags.HopLength, "hop-length", defaults.HopLength, "the distance between candidate positions, in samples")
	pflag.IntVar(&flags.BlockLength, "block-length", defaults.BlockLength, "the amount of hops read at once")
	pflag.DurationVar(&flags.TemplateDuration, "template-duration", defaults.TemplateDuration, "the length of the template")
	pflag.Float64Var(&flags.ExtractionRatio, "extraction-ratio", defaults.TemplateExtractionRatio, "the position (0..1) of the template within the secondary recording")
	flags.Scorer = defaults.Scorer
	pflag.Var(&flags.Scorer, "scorer", "the correlation implementation: auto, direct, fft")
	pflag.BoolVar(&flags.Normalize, "normalize", defaults.Normalize, "normalize the correlation by the signal energy")
	pflag.IntVar(&flags.Workers, "workers", defaults.Workers, "the amount of blocks scored in parallel")
	pflag.BoolVar(&flags.Refine, "refine", defaults.Refine, "refine the match position to a fraction of a sample (GCC-PHAT)")
	pflag.DurationVar(&flags.MaxScanDuration, "max-scan-duration", defaults.MaxScanDuration, "stop scanning after this time (0 = no limit)")
	pflag.Uint32Var(&flags.TargetSampleRate, "target-sample-rate", uint32(defaults.TargetSampleRate), "resample both recordings to this rate (0 = the reference rate)")
	pflag.BoolVar(&flags.Progress, "progress", false, "draw a progress bar on stderr (requires a reference of known length)")
	pflag.Parse()

	if *pcmFormat != "" {
		f, err := audio.ParsePCMFormat(*pcmFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(exitCodeFatal)
		}
		flags.PCMFormat = f
	}
	if flags.Reference == "" || flags.Secondary == "" {
		fmt.Fprintf(os.Stderr, "both --reference and --secondary are required\n\n")
		pflag.Usage()
		os.Exit(exitCodeFatal)
	}
	flags.flagSet = pflag.CommandLine
	return flags
}

// Config loads the config file (if any) and applies the explicitly set
// flags on top of it.
func (flags Flags) Config() (config.Config, error) {
	cfg := config.Default()
	if flags.ConfigPath != "" {
		var err error
		cfg, err = config.Load(flags.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
	}

	override := func(name string) bool {
		return flags.ConfigPath == "" || (flags.flagSet != nil && flags.flagSet.Changed(name))
	}
	if override("hop-length") {
		cfg.HopLength = flags.HopLength
	}
	if override("block-length") {
		cfg.BlockLength = flags.BlockLength
	}
	if override("template-duration") {
		cfg.TemplateDuration = flags.TemplateDuration
	}
	if override("extraction-ratio") {
		cfg.TemplateExtractionRatio = flags.ExtractionRatio
	}
	if override("scorer") {
		cfg.Scorer = flags.Scorer
	}
	if override("normalize") {
		cfg.Normalize = flags.Normalize
	}
	if override("workers") {
		cfg.Workers = flags.Workers
	}
	if override("refine") {
		cfg.Refine = flags.Refine
	}
	if override("max-scan-duration") {
		cfg.MaxScanDuration = flags.MaxScanDuration
	}
	if override("target-sample-rate") {
		cfg.TargetSampleRate = audio.SampleRate(flags.TargetSampleRate)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (flags Flags) pcmFormat() pcm.Format {
	return pcm.Format{
		PCMFormat:  flags.PCMFormat,
		SampleRate: audio.SampleRate(flags.PCMRate),
		Channels:   audio.Channel(flags.PCMChannels),
	}
}

func (flags Flags) openReference(ctx context.Context) (samplesource.Source, error) {
	if flags.Reference != "-" {
		return flags.openInput(ctx, flags.Reference)
	}
	if flags.PCMFormat == audio.PCMFormatUndefined {
		return nil, fmt.Errorf("reading the reference from stdin requires --pcm-format")
	}
	logger.Debugf(ctx, "reading the reference from stdin as %s", flags.PCMFormat)
	src, err := pcm.NewSource(os.Stdin, flags.pcmFormat(), 0)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (flags Flags) openInput(ctx context.Context, path string) (samplesource.Source, error) {
	if flags.PCMFormat == audio.PCMFormatUndefined {
		return samplesource.OpenAuto(ctx, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to stat '%s': %w", path, err)
	}
	src, err := pcm.NewSource(f, flags.pcmFormat(), stat.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

func normalizeRate(
	ctx context.Context,
	src samplesource.Source,
	rate audio.SampleRate,
) (samplesource.Source, error) {
	if src.SampleRate() != rate {
		logger.Infof(ctx, "resampling from %d Hz to %d Hz", src.SampleRate(), rate)
	}
	return resampler.Normalize(src, rate)
}
