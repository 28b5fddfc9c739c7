package fft

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vodsync/pkg/scorer"
	"github.com/xaionaro-go/vodsync/pkg/scorer/implementations/direct"
	"github.com/xaionaro-go/vodsync/pkg/windower"
)

func randomSamples(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

func batchOf(t testing.TB, samples []float64, frameLength, hop int) windower.Batch {
	w, err := windower.New(frameLength, hop)
	require.NoError(t, err)
	return w.Push(samples)
}

func TestFFTSize(t *testing.T) {
	for frameLength, expected := range map[int]int{
		1:     4,
		2:     4,
		3:     8,
		1024:  2048,
		1025:  4096,
		16000: 32768,
	} {
		assert.Equal(t, expected, FFTSize(frameLength), "frame length %d", frameLength)
	}
}

func TestScorerMatchesDirect(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, params := range []struct {
		frameLength int
		hop         int
		length      int
	}{
		{frameLength: 1, hop: 1, length: 10},
		{frameLength: 37, hop: 5, length: 1000},
		{frameLength: 64, hop: 64, length: 4096},
		{frameLength: 100, hop: 301, length: 5000},
		{frameLength: 512, hop: 128, length: 20000},
	} {
		for _, normalize := range []bool{false, true} {
			t.Run(fmt.Sprintf("F%d_H%d_norm%v", params.frameLength, params.hop, normalize), func(t *testing.T) {
				template := randomSamples(rng, params.frameLength)
				batch := batchOf(t, randomSamples(rng, params.length), params.frameLength, params.hop)
				require.Equal(t, (params.length-params.frameLength)/params.hop+1, batch.Count)

				opts := scorer.Options{Normalize: normalize}
				ds, err := direct.New(template, opts)
				require.NoError(t, err)
				fs, err := New(template, opts)
				require.NoError(t, err)

				expected := make([]float64, batch.Count)
				require.NoError(t, ds.ScoreBatch(context.Background(), batch, expected))
				actual := make([]float64, batch.Count)
				require.NoError(t, fs.ScoreBatch(context.Background(), batch, actual))

				for i := range expected {
					require.InDelta(t, expected[i], actual[i], 1e-9, "frame %d", i)
				}
			})
		}
	}
}

func TestScorerSingleSample(t *testing.T) {
	batch := batchOf(t, []float64{1, 2, -3, 0.5, 4, -1, 2}, 1, 1)
	s, err := New([]float64{-2}, scorer.Options{})
	require.NoError(t, err)

	dst := make([]float64, batch.Count)
	require.NoError(t, s.ScoreBatch(context.Background(), batch, dst))
	for i, expected := range []float64{-2, -4, 6, -1, -8, 2, -4} {
		assert.InDelta(t, expected, dst[i], 1e-9, "frame %d", i)
	}
}

func TestScorerSilence(t *testing.T) {
	template := []float64{1, -1, 0.5, 0.25}
	batch := batchOf(t, make([]float64, 32), len(template), 4)

	s, err := New(template, scorer.Options{Normalize: true})
	require.NoError(t, err)
	dst := make([]float64, batch.Count)
	require.NoError(t, s.ScoreBatch(context.Background(), batch, dst))
	for _, v := range dst {
		assert.True(t, math.IsNaN(v))
	}
}

func TestScorerCancelled(t *testing.T) {
	template := make([]float64, 8)
	batch := batchOf(t, make([]float64, 100), len(template), 1)
	s, err := New(template, scorer.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.ScoreBatch(ctx, batch, make([]float64, batch.Count))
	require.ErrorIs(t, err, context.Canceled)
}

func TestScorerMismatch(t *testing.T) {
	s, err := New(make([]float64, 8), scorer.Options{})
	require.NoError(t, err)

	err = s.ScoreBatch(context.Background(), batchOf(t, make([]float64, 100), 4, 1), make([]float64, 100))
	require.ErrorAs(t, err, &scorer.ErrFrameLengthMismatch{})

	err = s.ScoreBatch(context.Background(), batchOf(t, make([]float64, 100), 8, 1), make([]float64, 2))
	require.ErrorAs(t, err, &scorer.ErrShortDestination{})
}

func BenchmarkScoreBatch(b *testing.B) {
	rng := rand.New(rand.NewSource(0))
	template := randomSamples(rng, 16000)
	batch := batchOf(b, randomSamples(rng, 16000+1024*128), len(template), 128)
	dst := make([]float64, batch.Count)

	for _, kind := range []string{"direct", "fft"} {
		b.Run(kind, func(b *testing.B) {
			var s scorer.Scorer
			var err error
			switch kind {
			case "direct":
				s, err = direct.New(template, scorer.Options{})
			case "fft":
				s, err = New(template, scorer.Options{})
			}
			require.NoError(b, err)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				require.NoError(b, s.ScoreBatch(context.Background(), batch, dst))
			}
		})
	}
}
