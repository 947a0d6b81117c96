// Package store holds the two per-scope index primitives: a Bleve BM25
// index for keyword search and an HNSW graph for vector search. Both are
// memory-only; indexes are rebuilt from the document directory on demand
// rather than persisted.
package store

import "fmt"

// Document is the unit stored in the lexical index.
type Document struct {
	// ID is the chunk ID.
	ID string

	// Content is the chunk text.
	Content string
}

// BM25Result is one lexical search hit. Score is raw BM25, higher is
// better; callers normalize before fusing with vector results.
type BM25Result struct {
	DocID string
	Score float64
}

// VectorResult is one vector search hit. Distance is cosine distance,
// lower is better.
type VectorResult struct {
	ID       string
	Distance float32
}

// VectorStoreConfig configures the HNSW store.
type VectorStoreConfig struct {
	// Dimensions is the expected vector dimension.
	Dimensions int

	// M is the maximum number of graph neighbors per node.
	M int

	// EfSearch is the candidate list size during search.
	EfSearch int
}

// ErrDimensionMismatch is returned when a vector's dimension does not
// match the store's configuration.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
