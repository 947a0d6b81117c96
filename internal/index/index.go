// Package index owns the per-scope retrieval indexes: building them from
// a scope's document directory, caching them in memory, and serving
// queries. Indexes are built lazily on first use and rebuilt only on
// forced invalidation; nothing watches the filesystem.
package index

import (
	"time"

	"github.com/jacnlabs/docport/internal/searcher"
	"github.com/jacnlabs/docport/internal/scope"
)

// State describes what a scope's cache slot holds.
type State int

const (
	// StateUnbuilt means no build has completed for the scope yet.
	StateUnbuilt State = iota

	// StateEmpty means a build completed but the scope had no indexable
	// text. Queries succeed with zero results; no rebuild is attempted
	// until a forced invalidation.
	StateEmpty

	// StateReady means the scope has a populated index.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateReady:
		return "ready"
	default:
		return "unbuilt"
	}
}

// Index is one built generation of a scope's retrieval structures. It is
// immutable after construction; rebuilds produce a fresh Index that the
// manager swaps in atomically.
type Index struct {
	scope         scope.Scope
	searcher      searcher.Searcher
	chunkCount    int
	documentCount int
	builtAt       time.Time
}

// State reports whether the generation holds any chunks.
func (i *Index) State() State {
	if i.chunkCount == 0 {
		return StateEmpty
	}
	return StateReady
}

// Scope returns the scope this index covers.
func (i *Index) Scope() scope.Scope { return i.scope }

// ChunkCount returns the number of indexed chunks.
func (i *Index) ChunkCount() int { return i.chunkCount }

// DocumentCount returns the number of source documents.
func (i *Index) DocumentCount() int { return i.documentCount }

// BuiltAt returns when the build finished.
func (i *Index) BuiltAt() time.Time { return i.builtAt }
