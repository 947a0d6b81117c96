package searcher

import (
	"context"
	"sort"

	"github.com/jacnlabs/docport/internal/chunk"
	porterr "github.com/jacnlabs/docport/internal/errors"
	"github.com/jacnlabs/docport/internal/store"
)

// LexicalSearcher retrieves chunks by BM25 keyword match.
type LexicalSearcher struct {
	index  *store.BleveBM25Index
	chunks map[string]chunk.Chunk
}

var _ Searcher = (*LexicalSearcher)(nil)

// NewLexicalSearcher wraps a populated BM25 index. The chunks map
// resolves document IDs back to chunk content and provenance.
func NewLexicalSearcher(index *store.BleveBM25Index, chunks map[string]chunk.Chunk) *LexicalSearcher {
	return &LexicalSearcher{index: index, chunks: chunks}
}

// Search returns up to k hits sorted by ascending normalized distance.
func (s *LexicalSearcher) Search(ctx context.Context, query string, k int) ([]Result, error) {
	hits, err := s.index.Search(ctx, query, k)
	if err != nil {
		return nil, porterr.New(porterr.ErrCodeSearchFailed, "lexical search failed", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		c, ok := s.chunks[h.DocID]
		if !ok {
			continue
		}
		results = append(results, Result{Chunk: c, Score: h.Score})
	}

	// Raw BM25 is higher-is-better; flip to the distance contract.
	normalizeScores(results, true)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	return results, nil
}
