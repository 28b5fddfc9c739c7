// Package config defines the tunables of a synchronization run.
package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/vodsync/pkg/audio"
	"github.com/xaionaro-go/vodsync/pkg/matcher"
	"github.com/xaionaro-go/vodsync/pkg/scorer"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// HopLength is the distance between candidate frame starts, in samples.
	HopLength               int              `yaml:"hop_length"`
	// BlockLength is the amount of hops read from the reference at once.
	BlockLength             int              `yaml:"block_length"`
	// TemplateDuration is the length of the excerpt taken from the
	// secondary recording.
	TemplateDuration        time.Duration    `yaml:"template_duration"`
	// TemplateExtractionRatio is the position (0..1) of the excerpt
	// within the secondary recording.
	TemplateExtractionRatio float64          `yaml:"template_extraction_ratio"`
	Scorer                  scorer.Kind      `yaml:"scorer"`
	Normalize               bool             `yaml:"normalize"`
	Workers                 int              `yaml:"workers"`
	PrefetchBlocks          int              `yaml:"prefetch_blocks"`
	MaxScanDuration         time.Duration    `yaml:"max_scan_duration"`
	Refine                  bool             `yaml:"refine"`
	// TargetSampleRate is the rate both recordings are resampled to;
	// 0 keeps the rate of the reference.
	TargetSampleRate        audio.SampleRate `yaml:"target_sample_rate"`
}

func Default() Config {
	return Config{
		HopLength:               128,
		BlockLength:             1024,
		TemplateDuration:        time.Minute,
		TemplateExtractionRatio: 0.5,
		Scorer:                  scorer.KindAuto,
		Workers:                 runtime.NumCPU(),
		PrefetchBlocks:          2,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to open the config '%s': %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return Config{}, fmt.Errorf("unable to load the config '%s': %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config on top of the defaults and
// validates it. Unknown fields are rejected.
func LoadFromReader(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("unable to decode YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid value at once.
func (cfg Config) Validate() error {
	var result *multierror.Error
	if cfg.HopLength <= 0 {
		result = multierror.Append(result, fmt.Errorf("hop_length must be positive: got %d", cfg.HopLength))
	}
	if cfg.BlockLength <= 0 {
		result = multierror.Append(result, fmt.Errorf("block_length must be positive: got %d", cfg.BlockLength))
	}
	if cfg.TemplateDuration <= 0 {
		result = multierror.Append(result, fmt.Errorf("template_duration must be positive: got %v", cfg.TemplateDuration))
	}
	if !(cfg.TemplateExtractionRatio >= 0 && cfg.TemplateExtractionRatio <= 1) {
		result = multierror.Append(result, fmt.Errorf("template_extraction_ratio must be within [0, 1]: got %v", cfg.TemplateExtractionRatio))
	}
	if _, err := scorer.ParseKind(string(cfg.Scorer)); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Workers <= 0 {
		result = multierror.Append(result, fmt.Errorf("workers must be positive: got %d", cfg.Workers))
	}
	if cfg.PrefetchBlocks < 0 {
		result = multierror.Append(result, fmt.Errorf("prefetch_blocks must not be negative: got %d", cfg.PrefetchBlocks))
	}
	if cfg.MaxScanDuration < 0 {
		result = multierror.Append(result, fmt.Errorf("max_scan_duration must not be negative: got %v", cfg.MaxScanDuration))
	}
	return result.ErrorOrNil()
}

// MatcherOptions converts the config into the options of a matcher; the
// refiner is left for the caller to set.
func (cfg Config) MatcherOptions() matcher.Options {
	return matcher.Options{
		HopLength:       cfg.HopLength,
		BlockLength:     cfg.BlockLength,
		Workers:         cfg.Workers,
		PrefetchBlocks:  cfg.PrefetchBlocks,
		MaxScanDuration: cfg.MaxScanDuration,
	}
}

func (cfg Config) ScorerOptions() scorer.Options {
	return scorer.Options{
		Normalize: cfg.Normalize,
	}
}
