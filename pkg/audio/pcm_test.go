package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleCodec(t *testing.T) {
	for f := PCMFormatU8; f < endOfPCMFormat; f++ {
		t.Run(f.String(), func(t *testing.T) {
			buf := make([]byte, f.Size())
			for _, v := range []float64{-0.5, 0, 0.25, 0.75} {
				EncodeSample(f, buf, v)
				assert.InDelta(t, v, DecodeSample(f, buf), 0.01)
			}
		})
	}
}

func TestEncodeSampleClamps(t *testing.T) {
	buf := make([]byte, 2)
	EncodeSample(PCMFormatS16LE, buf, 2)
	assert.InDelta(t, 1.0, DecodeSample(PCMFormatS16LE, buf), 0.001)
	EncodeSample(PCMFormatS16LE, buf, -2)
	assert.InDelta(t, -1.0, DecodeSample(PCMFormatS16LE, buf), 0.001)
}

func TestParsePCMFormat(t *testing.T) {
	f, err := ParsePCMFormat(" S16LE ")
	require.NoError(t, err)
	assert.Equal(t, PCMFormatS16LE, f)

	_, err = ParsePCMFormat("mp3")
	assert.Error(t, err)
}

func TestDownmixInto(t *testing.T) {
	dst := make([]float64, 3)
	n := DownmixInto(dst, []float64{1, 3, -1, 1, 0.5, 0.5, 9}, 2)
	require.Equal(t, 3, n)
	assert.Equal(t, []float64{2, 0, 0.5}, dst)
}

func TestSampleRate(t *testing.T) {
	r := SampleRate(8000)
	assert.Equal(t, int64(16000), r.SamplesForDuration(2e9))
	assert.Equal(t, 1.5, r.Seconds(12000))
	assert.Equal(t, int64(4000), int64(r.Duration(4000).Milliseconds())*8)
}
