package document

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gofrs/flock"

	porterr "github.com/jacnlabs/docport/internal/errors"
)

// OCREngine produces a searchable PDF from a scanned one.
type OCREngine interface {
	// Available reports whether the engine can run on this host.
	Available() bool

	// MakeSearchable writes an _ocr.pdf sibling of src and returns its path.
	// If the artifact already exists it is returned without re-running OCR.
	MakeSearchable(ctx context.Context, src string) (string, error)
}

// DisabledOCR is the no-op engine used when OCR is turned off or the
// host tooling is missing. Scanned documents then contribute no text.
type DisabledOCR struct{}

func (DisabledOCR) Available() bool { return false }

func (DisabledOCR) MakeSearchable(_ context.Context, src string) (string, error) {
	return "", porterr.New(porterr.ErrCodeOCRFailed, "OCR is disabled", nil)
}

// ExecOCR shells out to ocrmypdf. Concurrent callers for the same source
// serialize on a sidecar lock file so the artifact is produced once.
type ExecOCR struct {
	binary   string
	language string
}

// NewExecOCR locates ocrmypdf on PATH. The language is passed through to
// tesseract (e.g. "por", "eng", or "por+eng").
func NewExecOCR(language string) *ExecOCR {
	bin, err := exec.LookPath("ocrmypdf")
	if err != nil {
		bin = ""
	}
	if language == "" {
		language = "eng"
	}
	return &ExecOCR{binary: bin, language: language}
}

func (e *ExecOCR) Available() bool { return e.binary != "" }

func (e *ExecOCR) MakeSearchable(ctx context.Context, src string) (string, error) {
	if e.binary == "" {
		return "", porterr.New(porterr.ErrCodeOCRFailed, "ocrmypdf not found on PATH", nil)
	}
	out := ArtifactPath(src)

	lock := flock.New(out + ".lock")
	locked, err := lock.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil || !locked {
		return "", porterr.New(porterr.ErrCodeOCRFailed, "could not acquire OCR lock", err)
	}
	defer func() { _ = lock.Unlock() }()

	// Another process may have finished while we waited on the lock.
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}

	cmd := exec.CommandContext(ctx, e.binary, "--force-ocr", "-l", e.language, src, out)
	if output, err := cmd.CombinedOutput(); err != nil {
		_ = os.Remove(out)
		return "", porterr.New(porterr.ErrCodeOCRFailed,
			fmt.Sprintf("ocrmypdf failed: %s", firstLine(output)), err)
	}
	return out, nil
}

// ArtifactPath returns the _ocr.pdf sibling path for a source PDF.
func ArtifactPath(src string) string {
	return strings.TrimSuffix(src, ".pdf") + OCRSuffix
}

// IsArtifact reports whether path names an OCR-derived artifact.
func IsArtifact(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), OCRSuffix)
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
