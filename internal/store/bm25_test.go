package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBM25(t *testing.T) *BleveBM25Index {
	t.Helper()
	idx, err := NewBleveBM25Index()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBM25IndexAndSearch(t *testing.T) {
	idx := newTestBM25(t)

	err := idx.Index(context.Background(), []*Document{
		{ID: "a", Content: "the quarterly financial report shows revenue growth"},
		{ID: "b", Content: "employee onboarding checklist and equipment"},
		{ID: "c", Content: "revenue projections for the next fiscal quarter"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Count())

	results, err := idx.Search(context.Background(), "revenue", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	ids := []string{results[0].DocID, results[1].DocID}
	assert.ElementsMatch(t, []string{"a", "c"}, ids)

	// Scores come back descending.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestBM25SearchIsCaseInsensitive(t *testing.T) {
	idx := newTestBM25(t)
	require.NoError(t, idx.Index(context.Background(), []*Document{
		{ID: "a", Content: "Contract Renewal Terms"},
	}))

	results, err := idx.Search(context.Background(), "contract", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestBM25SearchAccentedTerms(t *testing.T) {
	idx := newTestBM25(t)
	require.NoError(t, idx.Index(context.Background(), []*Document{
		{ID: "a", Content: "relatório de férias dos funcionários"},
	}))

	results, err := idx.Search(context.Background(), "férias", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestBM25BlankQueryMatchesNothing(t *testing.T) {
	idx := newTestBM25(t)
	require.NoError(t, idx.Index(context.Background(), []*Document{
		{ID: "a", Content: "anything"},
	}))

	for _, q := range []string{"", "   "} {
		results, err := idx.Search(context.Background(), q, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestBM25SearchRespectsLimit(t *testing.T) {
	idx := newTestBM25(t)
	docs := []*Document{
		{ID: "a", Content: "alpha topic common"},
		{ID: "b", Content: "beta topic common"},
		{ID: "c", Content: "gamma topic common"},
	}
	require.NoError(t, idx.Index(context.Background(), docs))

	results, err := idx.Search(context.Background(), "common", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestBM25ClosedIndexRejectsCalls(t *testing.T) {
	idx, err := NewBleveBM25Index()
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	assert.Error(t, idx.Index(context.Background(), []*Document{{ID: "a", Content: "x"}}))
	_, err = idx.Search(context.Background(), "x", 1)
	assert.Error(t, err)
	assert.Zero(t, idx.Count())
	assert.NoError(t, idx.Close())
}
