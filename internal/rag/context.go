// Package rag turns retrieval results into grounded answers: filter by
// score, assemble a bounded context block with citations, and ask the
// completion model to answer strictly from that context.
package rag

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jacnlabs/docport/internal/searcher"
)

const (
	// MaxContextDocs caps how many chunks enter the prompt.
	MaxContextDocs = 5

	// MaxContextChars caps the total size of chunk text in the prompt.
	MaxContextChars = 4000

	// DefaultScoreThreshold is the normalized-distance cutoff. Results
	// scoring above it are considered too weak to cite.
	DefaultScoreThreshold = 0.75

	blockSeparator = "\n\n---\n\n"
)

// Source identifies a cited document page. Page is 1-based for display.
type Source struct {
	File string
	Page int
}

func (s Source) String() string {
	return fmt.Sprintf("%s, page %d", s.File, s.Page)
}

// FilterByScore keeps results at or below the distance threshold,
// preserving order.
func FilterByScore(results []searcher.Result, threshold float64) []searcher.Result {
	kept := make([]searcher.Result, 0, len(results))
	for _, r := range results {
		if r.Score <= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

// BuildContext renders results into citation-tagged blocks:
//
//	[[SOURCE: file.pdf, PAGE: 3]]
//	chunk text...
//
// separated by "---" lines, capped at MaxContextDocs blocks and
// MaxContextChars of chunk text. It also returns the deduplicated
// sources in citation order.
func BuildContext(results []searcher.Result) (string, []Source) {
	var blocks []string
	var sources []Source
	seen := make(map[Source]bool)
	charBudget := MaxContextChars

	for _, r := range results {
		if len(blocks) >= MaxContextDocs || charBudget <= 0 {
			break
		}
		content := flatten(r.Chunk.Content)
		if len(content) > charBudget {
			// Back off to a rune boundary so the prompt stays valid UTF-8.
			cut := charBudget
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut]
		}
		charBudget -= len(content)

		src := Source{
			File: DisplayName(r.Chunk.SourceFile),
			Page: r.Chunk.Page + 1,
		}
		blocks = append(blocks, fmt.Sprintf("[[SOURCE: %s, PAGE: %d]]\n%s", src.File, src.Page, content))
		if !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}
	return strings.Join(blocks, blockSeparator), sources
}

// DisplayName reduces a source path to the name the user uploaded:
// base name with any OCR artifact suffix stripped.
func DisplayName(path string) string {
	name := filepath.Base(path)
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "_ocr.pdf") {
		name = name[:len(name)-len("_ocr.pdf")] + ".pdf"
	}
	return name
}

// flatten collapses internal newlines so each block stays one visual
// paragraph under the citation tag.
func flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
