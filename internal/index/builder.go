package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/jacnlabs/docport/internal/chunk"
	"github.com/jacnlabs/docport/internal/document"
	"github.com/jacnlabs/docport/internal/embed"
	porterr "github.com/jacnlabs/docport/internal/errors"
	"github.com/jacnlabs/docport/internal/scope"
	"github.com/jacnlabs/docport/internal/searcher"
	"github.com/jacnlabs/docport/internal/store"
)

// Builder produces an Index for a scope.
type Builder interface {
	Build(ctx context.Context, sc scope.Scope) (*Index, error)
}

// CorpusBuilder is the production Builder: load PDFs from the scope's
// directory, chunk them, embed the chunks, and populate both the BM25
// index and the vector store.
type CorpusBuilder struct {
	layout   scope.Layout
	loader   *document.Loader
	splitter *chunk.Splitter
	embedder embed.Embedder
	weights  searcher.Weights
	rrfK     int
	logger   *slog.Logger
}

// BuilderOption configures a CorpusBuilder.
type BuilderOption func(*CorpusBuilder)

// WithSearchWeights overrides the fusion weights.
func WithSearchWeights(w searcher.Weights) BuilderOption {
	return func(b *CorpusBuilder) { b.weights = w }
}

// WithRRFConstant overrides the RRF smoothing constant.
func WithRRFConstant(k int) BuilderOption {
	return func(b *CorpusBuilder) { b.rrfK = k }
}

// WithBuilderLogger sets the logger.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *CorpusBuilder) { b.logger = logger }
}

// NewCorpusBuilder wires the build pipeline.
func NewCorpusBuilder(layout scope.Layout, loader *document.Loader, splitter *chunk.Splitter, embedder embed.Embedder, opts ...BuilderOption) *CorpusBuilder {
	b := &CorpusBuilder{
		layout:   layout,
		loader:   loader,
		splitter: splitter,
		embedder: embedder,
		weights:  searcher.DefaultWeights(),
		rrfK:     searcher.DefaultRRFConstant,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs the full pipeline for one scope. A scope whose directory
// yields no text produces an Empty index, not an error.
func (b *CorpusBuilder) Build(ctx context.Context, sc scope.Scope) (*Index, error) {
	start := time.Now()

	dir := sc.Dir(b.layout)
	pages, err := b.loader.Load(ctx, dir)
	if err != nil {
		return nil, porterr.New(porterr.ErrCodeIndexFailed, "document load failed", err)
	}

	chunks := b.splitter.Split(pages)
	if len(chunks) == 0 {
		b.logger.Info("scope has no indexable text",
			"scope", sc.Key(), "dir", dir, "pages", len(pages))
		return &Index{scope: sc, builtAt: time.Now()}, nil
	}

	byID := make(map[string]chunk.Chunk, len(chunks))
	docs := make([]*store.Document, len(chunks))
	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	sources := make(map[string]struct{})
	for i, c := range chunks {
		byID[c.ID] = c
		docs[i] = &store.Document{ID: c.ID, Content: c.Content}
		ids[i] = c.ID
		texts[i] = c.Content
		sources[c.SourceFile] = struct{}{}
	}

	bm25, err := store.NewBleveBM25Index()
	if err != nil {
		return nil, porterr.New(porterr.ErrCodeIndexFailed, "lexical index creation failed", err)
	}
	if err := bm25.Index(ctx, docs); err != nil {
		_ = bm25.Close()
		return nil, porterr.New(porterr.ErrCodeIndexFailed, "lexical indexing failed", err)
	}

	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		_ = bm25.Close()
		return nil, porterr.New(porterr.ErrCodeIndexFailed, "chunk embedding failed", err)
	}
	vs, err := store.NewHNSWStore(store.VectorStoreConfig{Dimensions: b.embedder.Dimensions()})
	if err != nil {
		_ = bm25.Close()
		return nil, porterr.New(porterr.ErrCodeIndexFailed, "vector store creation failed", err)
	}
	if err := vs.Add(ctx, ids, vectors); err != nil {
		_ = bm25.Close()
		_ = vs.Close()
		return nil, porterr.New(porterr.ErrCodeIndexFailed, "vector indexing failed", err)
	}

	hybrid := searcher.NewHybridSearcher(
		searcher.NewLexicalSearcher(bm25, byID),
		searcher.NewVectorSearcher(vs, b.embedder, byID),
		searcher.WithWeights(b.weights),
		searcher.WithRRFConstant(b.rrfK),
		searcher.WithHybridLogger(b.logger),
	)

	b.logger.Info("index built",
		"scope", sc.Key(),
		"documents", len(sources),
		"chunks", len(chunks),
		"duration", time.Since(start))

	return &Index{
		scope:         sc,
		searcher:      hybrid,
		chunkCount:    len(chunks),
		documentCount: len(sources),
		builtAt:       time.Now(),
	}, nil
}
