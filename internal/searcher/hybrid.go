package searcher

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	porterr "github.com/jacnlabs/docport/internal/errors"
)

const (
	// DefaultLexicalWeight is the lexical share of the fused score.
	DefaultLexicalWeight = 0.4

	// DefaultSemanticWeight is the semantic share of the fused score.
	DefaultSemanticWeight = 0.6

	// DefaultRRFConstant is the RRF smoothing parameter. k=60 is the
	// standard choice across search engines.
	DefaultRRFConstant = 60

	// minFetchLimit is the floor on how many candidates each leg
	// contributes before fusion.
	minFetchLimit = 20
)

// Weights splits the fused score between the two legs. Must sum to 1.
type Weights struct {
	Lexical  float64
	Semantic float64
}

// DefaultWeights returns the 40/60 lexical/semantic split.
func DefaultWeights() Weights {
	return Weights{Lexical: DefaultLexicalWeight, Semantic: DefaultSemanticWeight}
}

// HybridSearcher fuses a lexical and a semantic searcher with weighted
// Reciprocal Rank Fusion. Both legs run concurrently; when one leg fails
// the other's results are returned alone rather than failing the query.
type HybridSearcher struct {
	lexical  Searcher
	semantic Searcher
	weights  Weights
	rrfK     int
	logger   *slog.Logger
}

var _ Searcher = (*HybridSearcher)(nil)

// HybridOption configures a HybridSearcher.
type HybridOption func(*HybridSearcher)

// WithWeights overrides the default 40/60 split.
func WithWeights(w Weights) HybridOption {
	return func(h *HybridSearcher) { h.weights = w }
}

// WithRRFConstant overrides the RRF smoothing constant.
func WithRRFConstant(k int) HybridOption {
	return func(h *HybridSearcher) {
		if k > 0 {
			h.rrfK = k
		}
	}
}

// WithHybridLogger sets the logger.
func WithHybridLogger(logger *slog.Logger) HybridOption {
	return func(h *HybridSearcher) { h.logger = logger }
}

// NewHybridSearcher combines the two legs.
func NewHybridSearcher(lexical, semantic Searcher, opts ...HybridOption) *HybridSearcher {
	h := &HybridSearcher{
		lexical:  lexical,
		semantic: semantic,
		weights:  DefaultWeights(),
		rrfK:     DefaultRRFConstant,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// fusedResult accumulates per-document RRF contributions.
type fusedResult struct {
	result      Result
	rrfScore    float64
	lexRank     int
	semRank     int
	inBothLists bool
}

// Search runs both legs over an over-fetched candidate set, fuses the
// ranked lists, and returns the top k by ascending normalized distance.
func (h *HybridSearcher) Search(ctx context.Context, query string, k int) ([]Result, error) {
	fetchLimit := 2 * k
	if fetchLimit < minFetchLimit {
		fetchLimit = minFetchLimit
	}

	var lexResults, semResults []Result
	var lexErr, semErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexResults, lexErr = h.lexical.Search(gctx, query, fetchLimit)
		return nil
	})
	g.Go(func() error {
		semResults, semErr = h.semantic.Search(gctx, query, fetchLimit)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lexErr != nil && semErr != nil {
		return nil, porterr.New(porterr.ErrCodeSearchFailed, "both search legs failed", semErr)
	}
	if lexErr != nil {
		h.logger.Warn("lexical leg failed, using semantic results only", "error", lexErr)
		return capResults(semResults, k), nil
	}
	if semErr != nil {
		h.logger.Warn("semantic leg failed, using lexical results only", "error", semErr)
		return capResults(lexResults, k), nil
	}

	fused := h.fuse(lexResults, semResults)
	return capResults(fused, k), nil
}

// fuse applies weighted RRF over the two ranked lists. Documents absent
// from one list contribute at rank max(len)+1 for that leg, so appearing
// in both lists always beats appearing in one.
func (h *HybridSearcher) fuse(lex, sem []Result) []Result {
	if len(lex) == 0 && len(sem) == 0 {
		return []Result{}
	}

	scores := make(map[string]*fusedResult, len(lex)+len(sem))

	for rank, r := range lex {
		f := h.getOrCreate(scores, r)
		f.lexRank = rank + 1
		f.rrfScore += h.weights.Lexical / float64(h.rrfK+rank+1)
	}
	for rank, r := range sem {
		f := h.getOrCreate(scores, r)
		f.semRank = rank + 1
		f.rrfScore += h.weights.Semantic / float64(h.rrfK+rank+1)
		if f.lexRank > 0 {
			f.inBothLists = true
		}
	}

	missingRank := len(lex)
	if len(sem) > missingRank {
		missingRank = len(sem)
	}
	missingRank++
	for _, f := range scores {
		if f.lexRank == 0 {
			f.rrfScore += h.weights.Lexical / float64(h.rrfK+missingRank)
		}
		if f.semRank == 0 {
			f.rrfScore += h.weights.Semantic / float64(h.rrfK+missingRank)
		}
	}

	ordered := make([]*fusedResult, 0, len(scores))
	for _, f := range scores {
		ordered = append(ordered, f)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.rrfScore != b.rrfScore {
			return a.rrfScore > b.rrfScore
		}
		if a.inBothLists != b.inBothLists {
			return a.inBothLists
		}
		return a.result.Chunk.ID < b.result.Chunk.ID
	})

	results := make([]Result, len(ordered))
	for i, f := range ordered {
		results[i] = Result{Chunk: f.result.Chunk, Score: f.rrfScore}
	}
	// Fused RRF is higher-is-better; flip to the distance contract.
	normalizeScores(results, true)
	return results
}

func (h *HybridSearcher) getOrCreate(m map[string]*fusedResult, r Result) *fusedResult {
	if f, ok := m[r.Chunk.ID]; ok {
		return f
	}
	f := &fusedResult{result: r}
	m[r.Chunk.ID] = f
	return f
}

func capResults(results []Result, k int) []Result {
	if len(results) > k {
		return results[:k]
	}
	return results
}
