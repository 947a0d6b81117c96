// Package searcher runs ranked retrieval over a scope's indexes. Three
// implementations share one interface: lexical BM25, semantic vector
// search, and the hybrid fusion of both.
//
// All searchers emit scores on a single contract: per-query min-max
// normalized distance in [0,1], lower is better, results sorted
// ascending. Raw BM25 scores and cosine distances never leave this
// package, so downstream threshold filtering works identically
// regardless of which searcher produced a result.
package searcher

import (
	"context"

	"github.com/jacnlabs/docport/internal/chunk"
)

// Result is one retrieval hit.
type Result struct {
	// Chunk is the matched chunk with its provenance.
	Chunk chunk.Chunk

	// Score is the normalized distance in [0,1]. 0 is the best hit of
	// the result set, 1 the worst.
	Score float64
}

// Searcher retrieves the k best chunks for a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Result, error)
}

// normalizeScores rewrites raw scores into [0,1] distances. higherIsBetter
// flips the scale for similarity-style inputs (BM25, RRF). When all raw
// scores are equal every result gets distance 0.
func normalizeScores(results []Result, higherIsBetter bool) {
	if len(results) == 0 {
		return
	}
	min, max := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		if r.Score < min {
			min = r.Score
		}
		if r.Score > max {
			max = r.Score
		}
	}
	spread := max - min
	if spread == 0 {
		for i := range results {
			results[i].Score = 0
		}
		return
	}
	for i := range results {
		if higherIsBetter {
			results[i].Score = (max - results[i].Score) / spread
		} else {
			results[i].Score = (results[i].Score - min) / spread
		}
	}
}
