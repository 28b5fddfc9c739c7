package matcher

import (
	"fmt"
	"runtime"
	"time"

	"github.com/xaionaro-go/vodsync/pkg/refiner"
)

type Options struct {
	// HopLength is the distance in samples between frame starts.
	HopLength int
	// BlockLength is the amount of hops per block read from the source.
	BlockLength int
	// Workers is the maximal amount of blocks scored in parallel.
	Workers int
	// PrefetchBlocks is how many blocks may be read ahead of scoring.
	PrefetchBlocks int
	// MaxScanDuration limits the wall-clock time of a scan (0 = no limit).
	MaxScanDuration time.Duration
	// Refiner, if set, estimates the sub-sample position of the best match.
	Refiner refiner.Refiner
}

func DefaultOptions() Options {
	return Options{
		HopLength:      128,
		BlockLength:    1024,
		Workers:        runtime.NumCPU(),
		PrefetchBlocks: 2,
	}
}

func (opts Options) validate() error {
	if opts.HopLength <= 0 {
		return fmt.Errorf("hop length must be positive: got %d", opts.HopLength)
	}
	if opts.BlockLength <= 0 {
		return fmt.Errorf("block length must be positive: got %d", opts.BlockLength)
	}
	if opts.Workers <= 0 {
		return fmt.Errorf("the amount of workers must be positive: got %d", opts.Workers)
	}
	if opts.PrefetchBlocks < 0 {
		return fmt.Errorf("the amount of prefetched blocks must not be negative: got %d", opts.PrefetchBlocks)
	}
	if opts.MaxScanDuration < 0 {
		return fmt.Errorf("the scan duration limit must not be negative: got %v", opts.MaxScanDuration)
	}
	return nil
}

// BlockSamples is the nominal amount of samples per block.
func (opts Options) BlockSamples() int {
	return opts.BlockLength * opts.HopLength
}
