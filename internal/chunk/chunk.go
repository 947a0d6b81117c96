// Package chunk splits page text into fixed-size overlapping chunks for
// indexing. Splitting is character-based and deterministic: the same pages
// always yield the same chunks with the same IDs.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jacnlabs/docport/internal/document"
	porterr "github.com/jacnlabs/docport/internal/errors"
)

const (
	// DefaultSize is the chunk window in characters.
	DefaultSize = 1000

	// DefaultOverlap is how many characters consecutive chunks share.
	DefaultOverlap = 150
)

// Chunk is one indexable unit of text with its provenance.
type Chunk struct {
	// ID uniquely identifies the chunk across the corpus.
	ID string

	// Content is the chunk text. Never blank.
	Content string

	// SourceFile is the path of the PDF the chunk came from.
	SourceFile string

	// Page is the zero-based page the chunk starts on.
	Page int
}

// Splitter produces overlapping character windows over page text.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter validates the window parameters. Overlap must be smaller
// than size or the window could never advance.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, porterr.New(porterr.ErrCodeInvalidChunking,
			fmt.Sprintf("chunk size must be positive, got %d", size), nil)
	}
	if overlap < 0 || overlap >= size {
		return nil, porterr.New(porterr.ErrCodeInvalidChunking,
			fmt.Sprintf("chunk overlap must be in [0, size), got %d for size %d", overlap, size), nil)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split chunks every page independently so no chunk spans a page boundary
// and each chunk carries an exact page number. Blank chunks are dropped.
func (s *Splitter) Split(pages []document.Page) []Chunk {
	var chunks []Chunk
	for _, p := range pages {
		chunks = append(chunks, s.splitPage(p)...)
	}
	return chunks
}

func (s *Splitter) splitPage(p document.Page) []Chunk {
	runes := []rune(p.Text)
	if len(strings.TrimSpace(p.Text)) == 0 {
		return nil
	}

	var chunks []Chunk
	step := s.size - s.overlap
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		content := string(runes[start:end])
		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, Chunk{
				ID:         chunkID(p.SourceFile, p.Number, start, content),
				Content:    content,
				SourceFile: p.SourceFile,
				Page:       p.Number,
			})
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// chunkID hashes provenance plus content so identical text at different
// positions still gets distinct IDs.
func chunkID(source string, page, offset int, content string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00", source, page, offset)
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
