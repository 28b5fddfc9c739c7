package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vodsync/pkg/reconcile"
	"github.com/xaionaro-go/vodsync/pkg/scorer"
	"github.com/xaionaro-go/vodsync/pkg/tracker"
)

func TestFlagsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vodsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hop_length: 64\nworkers: 3\nscorer: direct\n"), 0o644))

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := Flags{
		ConfigPath:       path,
		HopLength:        256,
		BlockLength:      10,
		TemplateDuration: time.Second,
		ExtractionRatio:  0.5,
		Scorer:           scorer.KindFFT,
		Workers:          7,
		flagSet:          flagSet,
	}
	flagSet.IntVar(&flags.Workers, "workers", 1, "")
	require.NoError(t, flagSet.Parse([]string{"--workers=8"}))

	cfg, err := flags.Config()
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.HopLength)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, scorer.KindDirect, cfg.Scorer)
	assert.Equal(t, 1024, cfg.BlockLength)

	flags.ConfigPath = ""
	cfg, err = flags.Config()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.HopLength)
	assert.Equal(t, 10, cfg.BlockLength)
	assert.Equal(t, scorer.KindFFT, cfg.Scorer)
}

func TestPrintReport(t *testing.T) {
	result := tracker.NewMatchResult()
	result.BestOffset = 390 * 8000
	result.BestTime = 390
	result.BestScore = 10
	result.RunnerUpScore = 2
	result.FramesScanned = 100

	record, err := reconcile.Reconcile(reconcile.Input{
		ExtractionRatio:   0.5,
		SecondaryDuration: 600,
		Match:             result,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	printReport(&buf, Flags{
		SecondaryStart: "2021-03-04T20:05:00Z",
		ReferenceStart: "bogus",
	}, result, record)
	out := buf.String()
	assert.Contains(t, out, "detected at:         00:06:30.00 (390.000000s)")
	assert.Contains(t, out, "offset:              +90.000s")
	assert.Contains(t, out, "created delay:       -90000 ms")
	assert.Contains(t, out, "corrected start:     2021-03-04T20:03:30Z")
	assert.Contains(t, out, "invalid --reference-start")
}
