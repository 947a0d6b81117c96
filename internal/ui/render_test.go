package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jacnlabs/docport/internal/chunk"
	"github.com/jacnlabs/docport/internal/rag"
	"github.com/jacnlabs/docport/internal/searcher"
)

func plainRenderer() (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewRendererWithStyles(&buf, PlainStyles()), &buf
}

func TestSearchResultsRendering(t *testing.T) {
	r, buf := plainRenderer()
	r.SearchResults([]searcher.Result{
		{
			Chunk: chunk.Chunk{Content: "vacation policy\ndetails", SourceFile: "/up/7/handbook.pdf", Page: 2},
			Score: 0.123,
		},
		{
			Chunk: chunk.Chunk{Content: "expense rules", SourceFile: "/up/7/finance_ocr.pdf", Page: 0},
			Score: 0.456,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "1. handbook.pdf (page 3)")
	assert.Contains(t, out, "score: 0.123")
	assert.Contains(t, out, "vacation policy details")
	// OCR artifact names are shown as the uploaded file.
	assert.Contains(t, out, "2. finance.pdf (page 1)")
}

func TestSearchResultsEmpty(t *testing.T) {
	r, buf := plainRenderer()
	r.SearchResults(nil)
	assert.Equal(t, "No results.\n", buf.String())
}

func TestAnswerRendering(t *testing.T) {
	r, buf := plainRenderer()
	r.Answer(&rag.Answer{
		Text:    "Twenty days.",
		Sources: []rag.Source{{File: "handbook.pdf", Page: 3}},
	})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Twenty days.\n"))
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "handbook.pdf, page 3")
}

func TestAnswerDegradedWarning(t *testing.T) {
	r, buf := plainRenderer()
	r.Answer(&rag.Answer{Text: "fallback", Degraded: true})
	assert.Contains(t, buf.String(), "answer generation unavailable")
}

func TestSnippetTruncation(t *testing.T) {
	long := strings.Repeat("palavra ", 100)
	s := snippet(long)
	assert.LessOrEqual(t, len([]rune(s)), snippetLength+1)
	assert.True(t, strings.HasSuffix(s, "…"))
}

func TestFilesRendering(t *testing.T) {
	r, buf := plainRenderer()
	r.Files("uploads/7_acme", []string{"a.pdf", "b.pdf"})
	out := buf.String()
	assert.Contains(t, out, "uploads/7_acme")
	assert.Contains(t, out, "a.pdf")

	buf.Reset()
	r.Files("uploads/9", nil)
	assert.Contains(t, buf.String(), "No documents")
}
