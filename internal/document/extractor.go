package document

import (
	"strings"

	ledongpdf "github.com/ledongthuc/pdf"

	porterr "github.com/jacnlabs/docport/internal/errors"
)

// PDFExtractor extracts text using the pure-Go pdf reader. It only sees the
// embedded text layer; scanned documents come back with empty pages and are
// handled by the loader's OCR fallback.
type PDFExtractor struct{}

// NewPDFExtractor returns a text-layer extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractPages implements PageExtractor.
func (e *PDFExtractor) ExtractPages(path string) ([]Page, error) {
	f, r, err := ledongpdf.Open(path)
	if err != nil {
		return nil, porterr.New(porterr.ErrCodeFileCorrupt, "failed to open PDF", err)
	}
	defer func() { _ = f.Close() }()

	total := r.NumPage()
	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{SourceFile: path, Number: i - 1})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// Keep the page slot so numbering stays aligned with the file.
			pages = append(pages, Page{SourceFile: path, Number: i - 1})
			continue
		}
		pages = append(pages, Page{
			Text:       strings.TrimSpace(text),
			SourceFile: path,
			Number:     i - 1,
		})
	}
	return pages, nil
}
