package resampler

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vodsync/pkg/audio"
	"github.com/xaionaro-go/vodsync/pkg/samplesource"
	"github.com/xaionaro-go/vodsync/pkg/samplesource/implementations/pcm"
)

func ramp(n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = float64(i)
	}
	return samples
}

func TestResampler(t *testing.T) {
	t.Run("Identity", func(t *testing.T) {
		src := samplesource.NewSliceSource(ramp(100), 44100)
		r, err := NewResampler(src, 44100)
		require.NoError(t, err)

		out, err := samplesource.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, ramp(100), out)
	})

	t.Run("Downsampling_44100_to_22050", func(t *testing.T) {
		src := samplesource.NewSliceSource(ramp(100), 44100)
		r, err := NewResampler(src, 22050)
		require.NoError(t, err)
		assert.Equal(t, int64(50), r.NumSamples())

		out, err := samplesource.ReadAll(r)
		require.NoError(t, err)
		require.Len(t, out, 50)
		for i, v := range out {
			assert.InDelta(t, float64(2*i), v, 1e-9)
		}
	})

	t.Run("Upsampling_8000_to_16000", func(t *testing.T) {
		src := samplesource.NewSliceSource(ramp(10), 8000)
		r, err := NewResampler(src, 16000)
		require.NoError(t, err)

		out, err := samplesource.ReadAll(r)
		require.NoError(t, err)
		require.Len(t, out, 19)
		for i, v := range out {
			assert.InDelta(t, float64(i)/2, v, 1e-9)
		}
	})

	t.Run("IrregularChunks", func(t *testing.T) {
		in := make([]float64, 48000)
		for i := range in {
			in[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 48000)
		}
		src := samplesource.NewSliceSource(in, 48000)
		src.ChunkSizes = []int{7, 1000, 3}
		r, err := NewResampler(src, 8000)
		require.NoError(t, err)

		out, err := samplesource.ReadAll(r)
		require.NoError(t, err)
		require.Len(t, out, 8000)
		for i, v := range out {
			assert.InDelta(t, math.Sin(2*math.Pi*440*float64(i)/8000), v, 1e-6)
		}
	})

	t.Run("ZeroRate", func(t *testing.T) {
		_, err := NewResampler(samplesource.NewSliceSource(nil, 0), 8000)
		assert.Error(t, err)
	})
}

func TestNormalize(t *testing.T) {
	src := samplesource.NewSliceSource(ramp(10), 8000)
	same, err := Normalize(src, audio.SampleRate(8000))
	require.NoError(t, err)
	assert.Same(t, src, same)

	other, err := Normalize(src, audio.SampleRate(16000))
	require.NoError(t, err)
	assert.EqualValues(t, 16000, other.SampleRate())
}

func TestResamplerBytesRead(t *testing.T) {
	data := make([]byte, 2*100)
	for i := 0; i < 100; i++ {
		audio.EncodeSample(audio.PCMFormatS16LE, data[2*i:], float64(i)/100)
	}
	src, err := pcm.NewSource(bytes.NewReader(data), pcm.Format{
		PCMFormat:  audio.PCMFormatS16LE,
		SampleRate: 8000,
		Channels:   1,
	}, int64(len(data)))
	require.NoError(t, err)

	resampled, err := Normalize(src, audio.SampleRate(16000))
	require.NoError(t, err)
	require.IsType(t, (*Resampler)(nil), resampled)

	_, err = samplesource.ReadAll(resampled)
	require.NoError(t, err)
	bytesRead, ok := samplesource.BytesRead(resampled)
	require.True(t, ok)
	assert.Equal(t, uint64(len(data)), bytesRead)

	_, ok = samplesource.BytesRead(samplesource.NewSliceSource(ramp(10), 8000))
	assert.False(t, ok)
}
