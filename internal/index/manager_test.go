package index

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacnlabs/docport/internal/chunk"
	porterr "github.com/jacnlabs/docport/internal/errors"
	"github.com/jacnlabs/docport/internal/scope"
	"github.com/jacnlabs/docport/internal/searcher"
)

// stubBuilder returns canned indexes and records build calls.
type stubBuilder struct {
	mu       sync.Mutex
	calls    int
	delay    time.Duration
	failNext bool
	empty    bool
}

type stubSearcher struct {
	id string
}

func (s stubSearcher) Search(_ context.Context, _ string, k int) ([]searcher.Result, error) {
	return []searcher.Result{
		{Chunk: chunk.Chunk{ID: s.id, Content: "content " + s.id}, Score: 0},
	}, nil
}

func (b *stubBuilder) Build(ctx context.Context, sc scope.Scope) (*Index, error) {
	b.mu.Lock()
	b.calls++
	call := b.calls
	fail := b.failNext
	b.failNext = false
	empty := b.empty
	delay := b.delay
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if fail {
		return nil, porterr.New(porterr.ErrCodeIndexFailed, "injected build failure", nil)
	}
	if empty {
		return &Index{scope: sc, builtAt: time.Now()}, nil
	}
	return &Index{
		scope:      sc,
		searcher:   stubSearcher{id: sc.Key() + "-gen" + string(rune('0'+call))},
		chunkCount: 1,
		builtAt:    time.Now(),
	}, nil
}

func (b *stubBuilder) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestEnsureBuildsLazilyAndCaches(t *testing.T) {
	b := &stubBuilder{}
	m := NewManager(b)
	sc := scope.Tenant("7")

	assert.Equal(t, StateUnbuilt, m.State(sc))

	idx, err := m.Ensure(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, StateReady, idx.State())
	assert.Equal(t, 1, b.callCount())

	again, err := m.Ensure(context.Background(), sc)
	require.NoError(t, err)
	assert.Same(t, idx, again)
	assert.Equal(t, 1, b.callCount())
	assert.Equal(t, 1, m.BuildCount(sc))
}

func TestEnsureDeduplicatesConcurrentBuilds(t *testing.T) {
	b := &stubBuilder{delay: 50 * time.Millisecond}
	m := NewManager(b)
	sc := scope.TenantUser("7", "alice")

	const workers = 16
	var wg sync.WaitGroup
	indexes := make([]*Index, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			indexes[i], errs[i] = m.Ensure(context.Background(), sc)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, indexes[0], indexes[i], "all waiters must get the same generation")
	}
	assert.Equal(t, 1, b.callCount())
}

func TestFailedBuildResolvesEmpty(t *testing.T) {
	b := &stubBuilder{failNext: true}
	m := NewManager(b)
	sc := scope.Tenant("7")

	idx, err := m.Ensure(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, idx.State())
	assert.Equal(t, StateEmpty, m.State(sc))

	// The Empty generation is cached: queries answer with nothing and
	// no automatic retry happens.
	results, err := m.Query(context.Background(), sc, "anything", 5, false)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 1, b.callCount())

	// Forced rebuild is the recovery path.
	idx, err = m.Rebuild(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, StateReady, idx.State())
	assert.Equal(t, StateReady, m.State(sc))
}

func TestEmptyScopeIsCachedAndQueriesReturnNothing(t *testing.T) {
	b := &stubBuilder{empty: true}
	m := NewManager(b)
	sc := scope.Tenant("9")

	results, err := m.Query(context.Background(), sc, "anything", 5, false)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, StateEmpty, m.State(sc))

	// Still cached: no rebuild on the next query.
	_, err = m.Query(context.Background(), sc, "anything else", 5, false)
	require.NoError(t, err)
	assert.Equal(t, 1, b.callCount())
}

func TestRebuildSwapsGeneration(t *testing.T) {
	b := &stubBuilder{}
	m := NewManager(b)
	sc := scope.Tenant("7")

	first, err := m.Ensure(context.Background(), sc)
	require.NoError(t, err)

	second, err := m.Rebuild(context.Background(), sc)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, m.BuildCount(sc))

	current, err := m.Ensure(context.Background(), sc)
	require.NoError(t, err)
	assert.Same(t, second, current)
}

func TestRebuildPicksUpEmptyToReadyTransition(t *testing.T) {
	b := &stubBuilder{empty: true}
	m := NewManager(b)
	sc := scope.Tenant("7")

	_, err := m.Ensure(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, m.State(sc))

	// Documents arrived; forced invalidation is the only path to Ready.
	b.mu.Lock()
	b.empty = false
	b.mu.Unlock()

	idx, err := m.Rebuild(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, StateReady, idx.State())
	assert.Equal(t, StateReady, m.State(sc))
}

func TestEnsureDuringRebuildServesOldGeneration(t *testing.T) {
	b := &stubBuilder{}
	m := NewManager(b)
	sc := scope.Tenant("7")

	first, err := m.Ensure(context.Background(), sc)
	require.NoError(t, err)

	b.mu.Lock()
	b.delay = 80 * time.Millisecond
	b.mu.Unlock()

	done := make(chan *Index, 1)
	go func() {
		idx, rebuildErr := m.Rebuild(context.Background(), sc)
		require.NoError(t, rebuildErr)
		done <- idx
	}()

	// While the rebuild runs, readers keep the old generation.
	time.Sleep(20 * time.Millisecond)
	during, err := m.Ensure(context.Background(), sc)
	require.NoError(t, err)
	assert.Same(t, first, during)

	second := <-done
	after, err := m.Ensure(context.Background(), sc)
	require.NoError(t, err)
	assert.Same(t, second, after)
}

func TestQueryValidation(t *testing.T) {
	b := &stubBuilder{}
	m := NewManager(b)
	sc := scope.Tenant("7")

	_, err := m.Query(context.Background(), sc, "   ", 5, false)
	require.Error(t, err)
	assert.True(t, porterr.IsValidation(err))

	for _, k := range []int{0, -1, 11} {
		_, err := m.Query(context.Background(), sc, "query", k, false)
		require.Error(t, err)
		assert.True(t, porterr.IsValidation(err))
	}

	// Validation failures must not trigger builds.
	assert.Equal(t, 0, b.callCount())
}

func TestQueryInvalidScope(t *testing.T) {
	m := NewManager(&stubBuilder{})
	_, err := m.Query(context.Background(), scope.Tenant("../etc"), "query", 5, false)
	assert.Error(t, err)
}

func TestScopesAreIsolated(t *testing.T) {
	b := &stubBuilder{}
	m := NewManager(b)

	_, err := m.Ensure(context.Background(), scope.Tenant("7"))
	require.NoError(t, err)
	_, err = m.Ensure(context.Background(), scope.TenantUser("7", "alice"))
	require.NoError(t, err)
	_, err = m.Ensure(context.Background(), scope.Global())
	require.NoError(t, err)

	assert.Equal(t, 3, b.callCount())
	assert.ElementsMatch(t, []string{"7", "7_alice", "global"}, m.Scopes())
}

// recordingObserver captures observer callbacks.
type recordingObserver struct {
	mu      sync.Mutex
	builds  []string
	queries []string
}

func (o *recordingObserver) ObserveBuild(key string, _ time.Duration, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.builds = append(o.builds, key)
}

func (o *recordingObserver) ObserveQuery(key, _ string, _ time.Duration, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries = append(o.queries, key)
}

func TestObserverReceivesEvents(t *testing.T) {
	obs := &recordingObserver{}
	m := NewManager(&stubBuilder{}, WithObserver(obs))
	sc := scope.Tenant("7")

	_, err := m.Query(context.Background(), sc, "query", 3, false)
	require.NoError(t, err)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []string{"7"}, obs.builds)
	assert.Equal(t, []string{"7"}, obs.queries)
}

func TestQueryMergesGlobalCorpus(t *testing.T) {
	b := &stubBuilder{}
	m := NewManager(b)
	sc := scope.Tenant("7")

	results, err := m.Query(context.Background(), sc, "policy", 5, true)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Scores tie at 0, so ordering falls back to chunk ID.
	assert.Equal(t, "7-gen1", results[0].Chunk.ID)
	assert.Equal(t, "global-gen2", results[1].Chunk.ID)
	assert.ElementsMatch(t, []string{"7", "global"}, m.Scopes())
}

func TestQueryGlobalScopeDoesNotMergeItself(t *testing.T) {
	b := &stubBuilder{}
	m := NewManager(b)

	results, err := m.Query(context.Background(), scope.Global(), "policy", 5, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, b.callCount())
}

func TestMergeResults(t *testing.T) {
	a := []searcher.Result{
		{Chunk: chunk.Chunk{ID: "a"}, Score: 0.2},
		{Chunk: chunk.Chunk{ID: "b"}, Score: 0.5},
	}
	g := []searcher.Result{
		{Chunk: chunk.Chunk{ID: "b"}, Score: 0.1}, // duplicate, better score wins
		{Chunk: chunk.Chunk{ID: "c"}, Score: 0.3},
		{Chunk: chunk.Chunk{ID: "d"}, Score: 0.9},
	}

	merged := mergeResults(a, g, 3)
	require.Len(t, merged, 3)
	assert.Equal(t, "b", merged[0].Chunk.ID)
	assert.InDelta(t, 0.1, merged[0].Score, 1e-9)
	assert.Equal(t, "a", merged[1].Chunk.ID)
	assert.Equal(t, "c", merged[2].Chunk.ID)
}

// gatedBuilder blocks each build until released, labels the result with
// the corpus content it saw at build start, and tracks build overlap.
type gatedBuilder struct {
	mu        sync.Mutex
	inFlight  int
	maxFlight int
	label     string

	started chan struct{}
	release chan struct{}
}

func (b *gatedBuilder) Build(_ context.Context, sc scope.Scope) (*Index, error) {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight > b.maxFlight {
		b.maxFlight = b.inFlight
	}
	label := b.label
	b.mu.Unlock()

	b.started <- struct{}{}
	<-b.release

	b.mu.Lock()
	b.inFlight--
	b.mu.Unlock()

	return &Index{
		scope:      sc,
		searcher:   stubSearcher{id: label},
		chunkCount: 1,
		builtAt:    time.Now(),
	}, nil
}

func TestRebuildNeverLosesToInFlightLazyBuild(t *testing.T) {
	b := &gatedBuilder{label: "stale", started: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(b)
	sc := scope.Tenant("7")

	ensureDone := make(chan struct{})
	go func() {
		defer close(ensureDone)
		_, err := m.Ensure(context.Background(), sc)
		assert.NoError(t, err)
	}()
	<-b.started // lazy build is reading the pre-upload corpus

	// An upload lands and the collaborator forces a rebuild.
	b.mu.Lock()
	b.label = "fresh"
	b.mu.Unlock()

	rebuildDone := make(chan struct{})
	go func() {
		defer close(rebuildDone)
		_, err := m.Rebuild(context.Background(), sc)
		assert.NoError(t, err)
	}()

	b.release <- struct{}{} // finish the lazy (stale) build
	<-ensureDone
	<-b.started             // the rebuild's build may only start now
	b.release <- struct{}{} // finish the rebuild
	<-rebuildDone

	b.mu.Lock()
	maxFlight := b.maxFlight
	b.mu.Unlock()
	assert.Equal(t, 1, maxFlight, "builds for one scope must never overlap")

	// The forced rebuild installed last: queries see the new documents.
	results, err := m.Query(context.Background(), sc, "query", 3, false)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "fresh", results[0].Chunk.ID)
}

func TestEnsureQueuedBehindRebuildReusesItsGeneration(t *testing.T) {
	b := &gatedBuilder{label: "fresh", started: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(b)
	sc := scope.Tenant("7")

	rebuildDone := make(chan *Index, 1)
	go func() {
		idx, err := m.Rebuild(context.Background(), sc)
		assert.NoError(t, err)
		rebuildDone <- idx
	}()
	<-b.started

	ensureDone := make(chan *Index, 1)
	go func() {
		idx, err := m.Ensure(context.Background(), sc)
		assert.NoError(t, err)
		ensureDone <- idx
	}()

	b.release <- struct{}{}
	rebuilt := <-rebuildDone

	// The queued lazy build finds the rebuild's generation and must not
	// build a second one.
	ensured := <-ensureDone
	assert.Same(t, rebuilt, ensured)

	b.mu.Lock()
	maxFlight := b.maxFlight
	b.mu.Unlock()
	assert.Equal(t, 1, maxFlight)
}
