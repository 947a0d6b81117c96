package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacnlabs/docport/internal/chunk"
	"github.com/jacnlabs/docport/internal/document"
	"github.com/jacnlabs/docport/internal/embed"
	"github.com/jacnlabs/docport/internal/scope"
)

// textExtractor serves each fake PDF's bytes as a single page of text.
type textExtractor struct{}

func (textExtractor) ExtractPages(path string) ([]document.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []document.Page{{Text: string(data), SourceFile: path, Number: 0}}, nil
}

func newTestBuilder(t *testing.T) (*CorpusBuilder, scope.Layout) {
	t.Helper()
	root := t.TempDir()
	layout := scope.Layout{
		DocsDir:    filepath.Join(root, "docs"),
		UploadsDir: filepath.Join(root, "uploads"),
	}
	splitter, err := chunk.NewSplitter(200, 20)
	require.NoError(t, err)

	embedder := embed.NewStaticEmbedder()
	t.Cleanup(func() { _ = embedder.Close() })

	builder := NewCorpusBuilder(layout, document.NewLoader(textExtractor{}), splitter, embedder)
	return builder, layout
}

func writeDoc(t *testing.T, dir, name, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
}

func TestCorpusBuilderBuildsReadyIndex(t *testing.T) {
	builder, layout := newTestBuilder(t)
	tenantDir := filepath.Join(layout.UploadsDir, "7_acme")
	writeDoc(t, tenantDir, "handbook.pdf", "vacation policy allows twenty days of paid leave")
	writeDoc(t, tenantDir, "finance.pdf", "expense reports are due at month end")

	idx, err := builder.Build(context.Background(), scope.Tenant("7"))
	require.NoError(t, err)
	assert.Equal(t, StateReady, idx.State())
	assert.Equal(t, 2, idx.DocumentCount())
	assert.Equal(t, 2, idx.ChunkCount())
	assert.False(t, idx.BuiltAt().IsZero())
}

func TestCorpusBuilderEmptyScope(t *testing.T) {
	builder, _ := newTestBuilder(t)

	idx, err := builder.Build(context.Background(), scope.Tenant("42"))
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, idx.State())
	assert.Zero(t, idx.ChunkCount())
}

func TestManagerQueriesBuiltCorpus(t *testing.T) {
	builder, layout := newTestBuilder(t)
	writeDoc(t, layout.DocsDir, "policies.pdf", "remote work requires manager approval and a signed agreement")

	m := NewManager(builder)
	results, err := m.Query(context.Background(), scope.Global(), "remote work approval", 3, false)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Chunk.SourceFile, "policies.pdf")
	assert.Equal(t, 0, results[0].Chunk.Page)
	assert.Equal(t, StateReady, m.State(scope.Global()))
}

func TestManagerRebuildSeesNewDocuments(t *testing.T) {
	builder, layout := newTestBuilder(t)
	sc := scope.Tenant("7")
	tenantDir := filepath.Join(layout.UploadsDir, "7")
	writeDoc(t, tenantDir, "old.pdf", "the original onboarding checklist")

	m := NewManager(builder)
	_, err := m.Query(context.Background(), sc, "onboarding", 3, false)
	require.NoError(t, err)

	// New upload is invisible until forced invalidation.
	writeDoc(t, tenantDir, "new.pdf", "severance package details for departing employees")
	results, err := m.Query(context.Background(), sc, "severance package", 3, false)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotContains(t, r.Chunk.SourceFile, "new.pdf")
	}

	_, err = m.Rebuild(context.Background(), sc)
	require.NoError(t, err)

	results, err = m.Query(context.Background(), sc, "severance package", 3, false)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Chunk.SourceFile, "new.pdf")
}

// failingEmbedder simulates an unreachable embedding service.
type failingEmbedder struct {
	embed.Embedder
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding service unavailable")
}

func TestEmbeddingOutageResolvesScopeEmpty(t *testing.T) {
	root := t.TempDir()
	layout := scope.Layout{
		DocsDir:    filepath.Join(root, "docs"),
		UploadsDir: filepath.Join(root, "uploads"),
	}
	writeDoc(t, filepath.Join(layout.UploadsDir, "7"), "handbook.pdf", "vacation policy text")

	splitter, err := chunk.NewSplitter(200, 20)
	require.NoError(t, err)
	builder := NewCorpusBuilder(layout, document.NewLoader(textExtractor{}), splitter,
		failingEmbedder{Embedder: embed.NewStaticEmbedder()})

	m := NewManager(builder)
	sc := scope.Tenant("7")

	// The outage never surfaces from query; the scope answers empty.
	results, err := m.Query(context.Background(), sc, "vacation", 3, false)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, StateEmpty, m.State(sc))
}
