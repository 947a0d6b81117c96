package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHNSW(t *testing.T, dims int) *HNSWStore {
	t.Helper()
	s, err := NewHNSWStore(VectorStoreConfig{Dimensions: dims})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func unitVec(dims, hot int) []float32 {
	v := make([]float32, dims)
	v[hot] = 1.0
	return v
}

func TestHNSWAddAndSearch(t *testing.T) {
	s := newTestHNSW(t, 4)

	ids := []string{"a", "b", "c"}
	vectors := [][]float32{unitVec(4, 0), unitVec(4, 1), unitVec(4, 2)}
	require.NoError(t, s.Add(context.Background(), ids, vectors))
	assert.Equal(t, 3, s.Count())

	results, err := s.Search(context.Background(), unitVec(4, 1), 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "b", results[0].ID)
	assert.InDelta(t, 0.0, float64(results[0].Distance), 1e-5)

	// Ascending distance.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Distance, results[i-1].Distance)
	}
}

func TestHNSWEmptyStoreReturnsNoResults(t *testing.T) {
	s := newTestHNSW(t, 4)
	results, err := s.Search(context.Background(), unitVec(4, 0), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHNSWDimensionMismatch(t *testing.T) {
	s := newTestHNSW(t, 4)

	err := s.Add(context.Background(), []string{"a"}, [][]float32{{1, 0}})
	var mismatch ErrDimensionMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 4, mismatch.Expected)
	assert.Equal(t, 2, mismatch.Got)

	_, err = s.Search(context.Background(), []float32{1, 0}, 1)
	assert.ErrorAs(t, err, &mismatch)
}

func TestHNSWReAddReplacesVector(t *testing.T) {
	s := newTestHNSW(t, 4)

	require.NoError(t, s.Add(context.Background(), []string{"a"}, [][]float32{unitVec(4, 0)}))
	require.NoError(t, s.Add(context.Background(), []string{"a"}, [][]float32{unitVec(4, 3)}))
	assert.Equal(t, 1, s.Count())

	results, err := s.Search(context.Background(), unitVec(4, 3), 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].ID)
	assert.InDelta(t, 0.0, float64(results[0].Distance), 1e-5)

	// The orphaned node must not leak into results under its old ID.
	for _, r := range results {
		assert.Equal(t, "a", r.ID)
	}
}

func TestHNSWNormalizesOnInsert(t *testing.T) {
	s := newTestHNSW(t, 2)

	// Same direction, different magnitude: distance must be ~0.
	require.NoError(t, s.Add(context.Background(), []string{"big"}, [][]float32{{10, 0}}))
	results, err := s.Search(context.Background(), []float32{0.5, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.0, float64(results[0].Distance), 1e-5)
}

func TestHNSWMismatchedInputLengths(t *testing.T) {
	s := newTestHNSW(t, 2)
	err := s.Add(context.Background(), []string{"a", "b"}, [][]float32{{1, 0}})
	assert.Error(t, err)
}

func TestHNSWClosedStoreRejectsCalls(t *testing.T) {
	s, err := NewHNSWStore(VectorStoreConfig{Dimensions: 2})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Error(t, s.Add(context.Background(), []string{"a"}, [][]float32{{1, 0}}))
	_, err = s.Search(context.Background(), []float32{1, 0}, 1)
	assert.Error(t, err)
	assert.Zero(t, s.Count())
}
