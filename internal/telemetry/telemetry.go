// Package telemetry records local retrieval metrics: per-scope query
// latency histograms, index build stats, frequent query terms, and
// zero-result queries. Everything stays in a local SQLite file; nothing
// is reported externally.
package telemetry

import (
	"strings"
	"sync"
	"time"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LatencyBucket is one histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// QueryEvent is one recorded search.
type QueryEvent struct {
	ScopeKey    string
	Query       string
	ResultCount int
	Latency     time.Duration
	Timestamp   time.Time
}

// BuildEvent is one recorded index build.
type BuildEvent struct {
	ScopeKey  string
	Chunks    int
	Duration  time.Duration
	Timestamp time.Time
}

// Recorder buffers events in memory and aggregates them per scope. It
// implements the index manager's Observer interface. Call Flush to
// persist aggregates to a Store.
type Recorder struct {
	mu sync.Mutex

	latency     map[string]map[LatencyBucket]int64
	terms       *lru.Cache[string, int64]
	zeroResults []QueryEvent
	builds      []BuildEvent
}

// maxZeroResultBuffer caps the in-memory zero-result queue.
const maxZeroResultBuffer = 100

// maxTrackedTerms bounds the term-frequency table between flushes;
// rarely seen terms are evicted first.
const maxTrackedTerms = 1024

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	terms, _ := lru.New[string, int64](maxTrackedTerms)
	return &Recorder{
		latency: make(map[string]map[LatencyBucket]int64),
		terms:   terms,
	}
}

// ObserveQuery aggregates one search event.
func (r *Recorder) ObserveQuery(scopeKey, query string, duration time.Duration, results int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buckets := r.latency[scopeKey]
	if buckets == nil {
		buckets = make(map[LatencyBucket]int64)
		r.latency[scopeKey] = buckets
	}
	buckets[LatencyToBucket(duration)]++

	for _, term := range queryTerms(query) {
		count, _ := r.terms.Get(term)
		r.terms.Add(term, count+1)
	}

	if results == 0 {
		r.zeroResults = append(r.zeroResults, QueryEvent{
			ScopeKey:    scopeKey,
			Query:       query,
			Latency:     duration,
			Timestamp:   time.Now(),
		})
		if len(r.zeroResults) > maxZeroResultBuffer {
			r.zeroResults = r.zeroResults[len(r.zeroResults)-maxZeroResultBuffer:]
		}
	}
}

// ObserveBuild records one index build.
func (r *Recorder) ObserveBuild(scopeKey string, duration time.Duration, chunks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds = append(r.builds, BuildEvent{
		ScopeKey:  scopeKey,
		Chunks:    chunks,
		Duration:  duration,
		Timestamp: time.Now(),
	})
}

// Flush persists the buffered aggregates and clears them. Safe to call
// repeatedly; an empty recorder flushes nothing.
func (r *Recorder) Flush(store *Store) error {
	r.mu.Lock()
	latency := r.latency
	terms := make(map[string]int64, r.terms.Len())
	for _, term := range r.terms.Keys() {
		if count, ok := r.terms.Get(term); ok {
			terms[term] = count
		}
	}
	zero := r.zeroResults
	builds := r.builds
	r.latency = make(map[string]map[LatencyBucket]int64)
	r.terms.Purge()
	r.zeroResults = nil
	r.builds = nil
	r.mu.Unlock()

	date := time.Now().Format("2006-01-02")
	if err := store.SaveLatencyCounts(date, latency); err != nil {
		return err
	}
	if err := store.UpsertTermCounts(terms); err != nil {
		return err
	}
	if err := store.AppendZeroResults(zero); err != nil {
		return err
	}
	return store.AppendBuilds(builds)
}

// LatencyCounts returns a copy of the buffered histogram for a scope.
func (r *Recorder) LatencyCounts(scopeKey string) map[LatencyBucket]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[LatencyBucket]int64, len(r.latency[scopeKey]))
	for b, c := range r.latency[scopeKey] {
		out[b] = c
	}
	return out
}

// queryTerms extracts lowercase terms of three or more characters. Short
// tokens are mostly articles and noise.
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}
