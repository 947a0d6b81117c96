package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestFlushPersistsAggregates(t *testing.T) {
	store := newTestStore(t)

	r := NewRecorder()
	r.ObserveQuery("7", "vacation policy", 5*time.Millisecond, 3)
	r.ObserveQuery("7", "vacation terms", 80*time.Millisecond, 0)
	r.ObserveBuild("7", 2*time.Second, 128)
	require.NoError(t, r.Flush(store))

	counts, err := store.GetLatencyCounts("7")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[BucketP10])
	assert.Equal(t, int64(1), counts[BucketP100])

	terms, err := store.TopTerms(10)
	require.NoError(t, err)
	assert.Contains(t, terms, "vacation")

	zero, err := store.ZeroResultQueries()
	require.NoError(t, err)
	require.Len(t, zero, 1)
	assert.Equal(t, "vacation terms", zero[0].Query)

	builds, err := store.BuildCount("7")
	require.NoError(t, err)
	assert.Equal(t, 1, builds)

	// The recorder is drained; a second flush is a no-op.
	require.NoError(t, r.Flush(store))
	builds, err = store.BuildCount("7")
	require.NoError(t, err)
	assert.Equal(t, 1, builds)
}

func TestFlushAccumulatesAcrossFlushes(t *testing.T) {
	store := newTestStore(t)
	r := NewRecorder()

	r.ObserveQuery("global", "onboarding checklist", 5*time.Millisecond, 2)
	require.NoError(t, r.Flush(store))
	r.ObserveQuery("global", "onboarding forms", 6*time.Millisecond, 2)
	require.NoError(t, r.Flush(store))

	counts, err := store.GetLatencyCounts("global")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[BucketP10])

	terms, err := store.TopTerms(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"onboarding"}, terms)
}

func TestZeroResultTrimming(t *testing.T) {
	store := newTestStore(t)
	r := NewRecorder()

	for i := 0; i < 60; i++ {
		r.ObserveQuery("7", "miss one", time.Millisecond, 0)
	}
	require.NoError(t, r.Flush(store))
	for i := 0; i < 60; i++ {
		r.ObserveQuery("7", "miss two", time.Millisecond, 0)
	}
	require.NoError(t, r.Flush(store))

	events, err := store.ZeroResultQueries()
	require.NoError(t, err)
	assert.Len(t, events, maxZeroResultBuffer)
	assert.Equal(t, "miss two", events[0].Query)
}
