package direct

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vodsync/pkg/scorer"
	"github.com/xaionaro-go/vodsync/pkg/windower"
)

func TestScoreBatch(t *testing.T) {
	w, err := windower.New(3, 2)
	require.NoError(t, err)
	samples := []float64{1, 2, 3, 4, 5, 6, 7}
	batch := w.Push(samples)
	require.Equal(t, 3, batch.Count)

	template := []float64{1, 0, -1}
	s, err := New(template, scorer.Options{})
	require.NoError(t, err)
	dst := make([]float64, batch.Count)
	require.NoError(t, s.ScoreBatch(context.Background(), batch, dst))
	assert.Equal(t, []float64{-2, -2, -2}, dst)

	// inputs are untouched
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7}, samples)
	assert.Equal(t, []float64{1, 0, -1}, template)
}

func TestScoreBatchNormalized(t *testing.T) {
	w, err := windower.New(2, 2)
	require.NoError(t, err)
	batch := w.Push([]float64{3, 4, 0, 0, -6, -8})

	s, err := New([]float64{3, 4}, scorer.Options{Normalize: true})
	require.NoError(t, err)
	dst := make([]float64, batch.Count)
	require.NoError(t, s.ScoreBatch(context.Background(), batch, dst))
	assert.InDelta(t, 1, dst[0], 1e-12)
	assert.True(t, math.IsNaN(dst[1]))
	assert.InDelta(t, -1, dst[2], 1e-12)
}

func TestNew(t *testing.T) {
	_, err := New(nil, scorer.Options{})
	require.Error(t, err)
}
