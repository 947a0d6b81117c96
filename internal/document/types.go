// Package document loads page-level text from a scope's PDF directory.
//
// Loading is best-effort: unreadable files are skipped with a warning, a
// missing directory is an empty corpus, and PDFs without a text layer fall
// back to an OCR-derived sibling when an OCR engine is available.
package document

// OCRSuffix marks OCR-derived artifacts. A file "report_ocr.pdf" is the
// searchable rendition of "report.pdf" and is never scanned as a primary
// source itself.
const OCRSuffix = "_ocr.pdf"

// Page is one page of extracted text with its provenance.
type Page struct {
	// Text is the raw extracted page text. May be empty for image-only pages.
	Text string

	// SourceFile is the path of the PDF the page came from. For OCR
	// fallbacks this is the original file, not the _ocr artifact, so
	// citations point at the document the user uploaded.
	SourceFile string

	// Number is the zero-based page index within the source file.
	Number int
}

// PageExtractor extracts page text from a PDF file.
type PageExtractor interface {
	// ExtractPages returns one Page per page in the file, in order.
	// The returned pages have SourceFile set to the given path.
	ExtractPages(path string) ([]Page, error)
}
