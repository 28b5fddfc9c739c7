package wav

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vodsync/pkg/samplesource"
)

func writeWAV(t *testing.T, sampleRate, bitDepth, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, wavFormatPCM)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	return path
}

func TestSource_Stereo16(t *testing.T) {
	path := writeWAV(t, 8000, 16, 2, []int{16384, 0, -16384, -16384, 8192, 8192})

	f, err := os.Open(path)
	require.NoError(t, err)
	s, err := NewSource(f, path)
	require.NoError(t, err)
	defer s.Close()

	assert.EqualValues(t, 8000, s.SampleRate())
	assert.EqualValues(t, 2, s.Channels())
	assert.Equal(t, int64(3), s.NumSamples())

	samples, err := samplesource.ReadAll(s)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.InDelta(t, 0.25, samples[0], 1e-6)
	assert.InDelta(t, -0.5, samples[1], 1e-6)
	assert.InDelta(t, 0.25, samples[2], 1e-6)
}

func TestSource_OpenAuto(t *testing.T) {
	data := make([]int, 40000)
	for i := range data {
		data[i] = (i % 200) - 100
	}
	path := writeWAV(t, 16000, 16, 1, data)

	s, err := samplesource.OpenAuto(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	samples, err := samplesource.ReadAll(s)
	require.NoError(t, err)
	require.Len(t, samples, len(data))
	assert.InDelta(t, float64(data[12345])/32768, samples[12345], 1e-9)

	d, ok := samplesource.Duration(s)
	require.True(t, ok)
	assert.InDelta(t, 2.5, d, 1e-9)
}

func TestNewSource_Garbage(t *testing.T) {
	_, err := NewSource(bytes.NewReader([]byte("definitely not a RIFF file")), "garbage")
	var decodeErr *samplesource.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}
