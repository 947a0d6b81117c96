package document

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader walks a single directory (non-recursive) and extracts page text
// from every primary PDF in it.
type Loader struct {
	extractor PageExtractor
	ocr       OCREngine
	logger    *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithOCR sets the OCR engine used for text-less PDFs.
func WithOCR(engine OCREngine) LoaderOption {
	return func(l *Loader) { l.ocr = engine }
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader builds a Loader around the given extractor.
func NewLoader(extractor PageExtractor, opts ...LoaderOption) *Loader {
	l := &Loader{
		extractor: extractor,
		ocr:       DisabledOCR{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load extracts pages from every .pdf directly under dir. OCR artifacts
// (_ocr.pdf) are never primary sources; they are only consulted as the
// fallback for their text-less original. A missing directory is created
// and yields an empty result. Unreadable files are skipped with a warning
// rather than failing the whole load.
func (l *Loader) Load(ctx context.Context, dir string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, mkErr
			}
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".pdf") || IsArtifact(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var pages []Page
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		filePages, err := l.loadFile(ctx, path)
		if err != nil {
			l.logger.Warn("skipping unreadable document", "file", name, "error", err)
			continue
		}
		pages = append(pages, filePages...)
	}
	return pages, nil
}

// loadFile extracts one PDF, falling back to its OCR artifact when the
// text layer is empty.
func (l *Loader) loadFile(ctx context.Context, path string) ([]Page, error) {
	pages, err := l.extractor.ExtractPages(path)
	if err != nil {
		return nil, err
	}
	if hasText(pages) {
		return pages, nil
	}

	artifact := ArtifactPath(path)
	if _, statErr := os.Stat(artifact); os.IsNotExist(statErr) {
		if !l.ocr.Available() {
			l.logger.Warn("document has no text layer and OCR is unavailable", "file", filepath.Base(path))
			return pages, nil
		}
		l.logger.Info("running OCR on text-less document", "file", filepath.Base(path))
		if _, ocrErr := l.ocr.MakeSearchable(ctx, path); ocrErr != nil {
			l.logger.Warn("OCR failed, keeping original pages", "file", filepath.Base(path), "error", ocrErr)
			return pages, nil
		}
	}

	ocrPages, err := l.extractor.ExtractPages(artifact)
	if err != nil {
		l.logger.Warn("could not read OCR artifact, keeping original pages",
			"file", filepath.Base(artifact), "error", err)
		return pages, nil
	}
	// Cite the original upload, not the derived artifact.
	for i := range ocrPages {
		ocrPages[i].SourceFile = path
	}
	return ocrPages, nil
}

func hasText(pages []Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}
