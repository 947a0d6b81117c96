package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	porterr "github.com/jacnlabs/docport/internal/errors"
	"github.com/jacnlabs/docport/internal/scope"
	"github.com/jacnlabs/docport/internal/searcher"
)

const (
	// MinTopK and MaxTopK bound the k parameter on queries.
	MinTopK = 1
	MaxTopK = 10

	// DefaultTopK is used when the caller passes no preference.
	DefaultTopK = 4
)

// Observer receives build and query events, typically for telemetry.
type Observer interface {
	ObserveBuild(scopeKey string, duration time.Duration, chunks int)
	ObserveQuery(scopeKey, query string, duration time.Duration, results int)
}

// Manager caches one Index per scope key. Builds are lazy and
// deduplicated: concurrent first queries for a scope trigger exactly one
// build, and everyone waits for it. A failed build resolves the scope to
// Empty so queries degrade to zero results instead of erroring; only a
// forced Rebuild retries.
type Manager struct {
	builder  Builder
	logger   *slog.Logger
	observer Observer

	mu      sync.RWMutex
	entries map[string]*Index

	group singleflight.Group

	// buildLocks serializes build work per scope key so a lazy build
	// and a forced rebuild can never run concurrently for one scope.
	locksMu    sync.Mutex
	buildLocks map[string]*sync.Mutex

	buildsMu sync.Mutex
	builds   map[string]int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithObserver attaches a build/query observer.
func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) { m.observer = o }
}

// NewManager creates an empty cache over the given builder.
func NewManager(builder Builder, opts ...ManagerOption) *Manager {
	m := &Manager{
		builder:    builder,
		logger:     slog.Default(),
		entries:    make(map[string]*Index),
		buildLocks: make(map[string]*sync.Mutex),
		builds:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ensure returns the scope's cached index, building it first if no build
// has completed yet. Empty is a terminal build result: it is cached and
// returned without rebuilding.
func (m *Manager) Ensure(ctx context.Context, sc scope.Scope) (*Index, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	key := sc.Key()

	m.mu.RLock()
	idx := m.entries[key]
	m.mu.RUnlock()
	if idx != nil {
		return idx, nil
	}

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		return m.build(ctx, sc, false)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}

// Rebuild discards the scope's cached index and builds a fresh one. This
// is the only way to pick up document changes. Readers keep the old
// generation until the new one is swapped in; no query ever sees a
// half-built index.
func (m *Manager) Rebuild(ctx context.Context, sc scope.Scope) (*Index, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	key := sc.Key()

	// Separate flight key so a rebuild is never satisfied by a
	// concurrent lazy build of the stale generation. The per-scope
	// build lock inside build still serializes the two paths: a
	// rebuild waits for an in-flight lazy build and then builds after
	// it, so the fresh generation always wins the cache slot.
	v, err, _ := m.group.Do("rebuild\x00"+key, func() (interface{}, error) {
		return m.build(ctx, sc, true)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}

// buildLock returns the scope's build mutex, creating it on first use.
// Locks are never removed; the key space is bounded by the tenant set.
func (m *Manager) buildLock(key string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l := m.buildLocks[key]
	if l == nil {
		l = &sync.Mutex{}
		m.buildLocks[key] = l
	}
	return l
}

// build runs the builder and swaps the result in, holding the scope's
// build lock for the whole load-build-install span: at most one build is
// ever in flight per scope, and a forced rebuild that queued behind a
// lazy build installs after it. The lazy path returns a generation that
// landed while it waited instead of building again; the forced path
// always builds. Infra failures are absorbed: the scope resolves to an
// Empty generation so queries answer with zero results until a rebuild
// succeeds. Caller cancellation is the one error that propagates, and it
// leaves the cache untouched.
func (m *Manager) build(ctx context.Context, sc scope.Scope, force bool) (*Index, error) {
	key := sc.Key()

	lock := m.buildLock(key)
	lock.Lock()
	defer lock.Unlock()

	if !force {
		m.mu.RLock()
		existing := m.entries[key]
		m.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}
	}

	start := time.Now()
	idx, err := m.builder.Build(ctx, sc)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.logger.Error("index build failed, scope resolves empty", "scope", key, "error", err)
		idx = &Index{scope: sc, builtAt: time.Now()}
	}

	m.mu.Lock()
	m.entries[key] = idx
	m.mu.Unlock()

	m.buildsMu.Lock()
	m.builds[key]++
	m.buildsMu.Unlock()

	if m.observer != nil {
		m.observer.ObserveBuild(key, time.Since(start), idx.ChunkCount())
	}
	return idx, nil
}

// Query validates inputs, ensures the scope's index, and searches it.
// An Empty scope answers with zero results rather than an error. With
// includeGlobal, the shared corpus is searched too and both result
// lists are merged on the common normalized score scale. A broken
// global corpus degrades to scope-only results.
func (m *Manager) Query(ctx context.Context, sc scope.Scope, query string, k int, includeGlobal bool) ([]searcher.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, porterr.New(porterr.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	if k < MinTopK || k > MaxTopK {
		return nil, porterr.New(porterr.ErrCodeInvalidTopK,
			fmt.Sprintf("k must be between %d and %d, got %d", MinTopK, MaxTopK, k), nil)
	}

	start := time.Now()
	results, err := m.queryScope(ctx, sc, query, k)
	if err != nil {
		return nil, err
	}

	if includeGlobal && sc.Key() != scope.Global().Key() {
		globalResults, err := m.queryScope(ctx, scope.Global(), query, k)
		if err != nil {
			m.logger.Warn("global corpus unavailable, answering scope-only",
				"scope", sc.Key(), "error", err)
		} else {
			results = mergeResults(results, globalResults, k)
		}
	}

	if m.observer != nil {
		m.observer.ObserveQuery(sc.Key(), query, time.Since(start), len(results))
	}
	return results, nil
}

// queryScope ensures one scope and searches it. Search failures are
// infra conditions, not caller errors: they log and answer empty.
func (m *Manager) queryScope(ctx context.Context, sc scope.Scope, query string, k int) ([]searcher.Result, error) {
	idx, err := m.Ensure(ctx, sc)
	if err != nil {
		return nil, err
	}
	if idx.State() == StateEmpty {
		return []searcher.Result{}, nil
	}
	results, err := idx.searcher.Search(ctx, query, k)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.logger.Warn("search failed, answering empty", "scope", sc.Key(), "error", err)
		return []searcher.Result{}, nil
	}
	return results, nil
}

// mergeResults combines two result lists sharing the normalized score
// scale: dedupe by chunk ID keeping the better score, sort ascending,
// truncate to k.
func mergeResults(a, b []searcher.Result, k int) []searcher.Result {
	byID := make(map[string]searcher.Result, len(a)+len(b))
	for _, r := range append(append([]searcher.Result{}, a...), b...) {
		if prev, ok := byID[r.Chunk.ID]; !ok || r.Score < prev.Score {
			byID[r.Chunk.ID] = r
		}
	}
	merged := make([]searcher.Result, 0, len(byID))
	for _, r := range byID {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score < merged[j].Score
		}
		return merged[i].Chunk.ID < merged[j].Chunk.ID
	})
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged
}

// State reports the cache slot state for a scope.
func (m *Manager) State(sc scope.Scope) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.entries[sc.Key()]
	if idx == nil {
		return StateUnbuilt
	}
	return idx.State()
}

// BuildCount returns how many builds have completed for a scope key.
func (m *Manager) BuildCount(sc scope.Scope) int {
	m.buildsMu.Lock()
	defer m.buildsMu.Unlock()
	return m.builds[sc.Key()]
}

// Scopes lists the keys currently cached.
func (m *Manager) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}
