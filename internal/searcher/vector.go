package searcher

import (
	"context"
	"sort"
	"strings"

	"github.com/jacnlabs/docport/internal/chunk"
	"github.com/jacnlabs/docport/internal/embed"
	porterr "github.com/jacnlabs/docport/internal/errors"
	"github.com/jacnlabs/docport/internal/store"
)

// VectorSearcher retrieves chunks by embedding similarity.
type VectorSearcher struct {
	store    *store.HNSWStore
	embedder embed.Embedder
	chunks   map[string]chunk.Chunk
}

var _ Searcher = (*VectorSearcher)(nil)

// NewVectorSearcher wraps a populated vector store and the embedder used
// to build it. Query vectors must come from the same model as the stored
// ones.
func NewVectorSearcher(vs *store.HNSWStore, embedder embed.Embedder, chunks map[string]chunk.Chunk) *VectorSearcher {
	return &VectorSearcher{store: vs, embedder: embedder, chunks: chunks}
}

// Search embeds the query and returns up to k hits sorted by ascending
// normalized distance.
func (s *VectorSearcher) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return []Result{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, porterr.New(porterr.ErrCodeSearchFailed, "query embedding failed", err)
	}

	hits, err := s.store.Search(ctx, queryVec, k)
	if err != nil {
		return nil, porterr.New(porterr.ErrCodeSearchFailed, "vector search failed", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		c, ok := s.chunks[h.ID]
		if !ok {
			continue
		}
		results = append(results, Result{Chunk: c, Score: float64(h.Distance)})
	}

	// Cosine distance is already lower-is-better; just rescale.
	normalizeScores(results, false)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	return results, nil
}
