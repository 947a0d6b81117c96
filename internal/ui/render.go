package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/jacnlabs/docport/internal/rag"
	"github.com/jacnlabs/docport/internal/searcher"
)

const snippetLength = 200

// Renderer writes formatted results to a writer.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer picks styles based on the writer.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out, styles: StylesFor(out)}
}

// NewRendererWithStyles uses explicit styles (tests).
func NewRendererWithStyles(out io.Writer, styles Styles) *Renderer {
	return &Renderer{out: out, styles: styles}
}

// SearchResults renders ranked hits with source, page, score, and a
// text snippet.
func (r *Renderer) SearchResults(results []searcher.Result) {
	if len(results) == 0 {
		fmt.Fprintln(r.out, "No results.")
		return
	}
	for i, res := range results {
		fmt.Fprintf(r.out, "%s %s\n",
			r.styles.Header.Render(fmt.Sprintf("%d.", i+1)),
			r.styles.Source.Render(fmt.Sprintf("%s (page %d)", rag.DisplayName(res.Chunk.SourceFile), res.Chunk.Page+1)),
		)
		fmt.Fprintf(r.out, "   %s\n", r.styles.Score.Render(fmt.Sprintf("score: %.3f", res.Score)))
		fmt.Fprintf(r.out, "   %s\n", r.styles.Snippet.Render(snippet(res.Chunk.Content)))
		if i < len(results)-1 {
			fmt.Fprintln(r.out, r.styles.Separator.Render(strings.Repeat("-", 40)))
		}
	}
}

// Answer renders an answer with its cited sources.
func (r *Renderer) Answer(answer *rag.Answer) {
	if answer.Degraded {
		fmt.Fprintln(r.out, r.styles.Warning.Render("answer generation unavailable"))
	}
	fmt.Fprintln(r.out, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintf(r.out, "\n%s\n", r.styles.Header.Render("Sources:"))
		for _, s := range answer.Sources {
			fmt.Fprintf(r.out, "  - %s\n", r.styles.Source.Render(s.String()))
		}
	}
}

// Files renders a document listing for a scope directory.
func (r *Renderer) Files(dir string, names []string) {
	if len(names) == 0 {
		fmt.Fprintf(r.out, "No documents in %s.\n", dir)
		return
	}
	fmt.Fprintln(r.out, r.styles.Header.Render(dir))
	for _, name := range names {
		fmt.Fprintf(r.out, "  %s\n", r.styles.Source.Render(name))
	}
}

// Errorf renders an error line.
func (r *Renderer) Errorf(format string, args ...any) {
	fmt.Fprintln(r.out, r.styles.Error.Render(fmt.Sprintf(format, args...)))
}

func snippet(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= snippetLength {
		return flat
	}
	return string(runes[:snippetLength]) + "…"
}
