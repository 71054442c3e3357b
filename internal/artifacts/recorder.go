package artifacts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/browser"
)

// Kind namespaces artifacts on disk.
type Kind string

const (
	KindCaptcha Kind = "captcha"
	KindDebug   Kind = "debug"
	KindError   Kind = "error"
)

var unsafeLabelChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Recorder writes diagnostic screenshots and HTML dumps. The pipeline never
// reads them back. A nil Recorder discards everything.
type Recorder struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

func NewRecorder(dir string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		dir:    dir,
		now:    time.Now,
		logger: logger.With("component", "artifacts"),
	}
}

// Screenshot captures the page and returns the written path.
func (r *Recorder) Screenshot(page browser.Page, kind Kind, label string) (string, error) {
	if r == nil || page == nil {
		return "", nil
	}

	path, err := r.path(kind, label, "png")
	if err != nil {
		return "", err
	}

	if err := page.Screenshot(path); err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	r.logger.Info("screenshot saved", "kind", kind, "path", path)
	return path, nil
}

// DumpHTML writes the current page source and returns the written path.
func (r *Recorder) DumpHTML(page browser.Page, kind Kind, label string) (string, error) {
	if r == nil || page == nil {
		return "", nil
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}

	path, err := r.path(kind, label, "html")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("failed to write html dump: %w", err)
	}

	r.logger.Info("html dump saved", "kind", kind, "path", path)
	return path, nil
}

// Capture is the best-effort form used on failure paths: both artifacts are
// attempted and errors are only logged.
func (r *Recorder) Capture(page browser.Page, kind Kind, label string) {
	if r == nil || page == nil {
		return
	}

	if _, err := r.Screenshot(page, kind, label); err != nil {
		r.logger.Warn("failed to save screenshot", "kind", kind, "error", err)
	}
	if _, err := r.DumpHTML(page, kind, label); err != nil {
		r.logger.Warn("failed to save html dump", "kind", kind, "error", err)
	}
}

func (r *Recorder) path(kind Kind, label, ext string) (string, error) {
	dir := filepath.Join(r.dir, string(kind))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	label = unsafeLabelChars.ReplaceAllString(label, "_")
	if label == "" {
		label = "page"
	}

	name := fmt.Sprintf("%s-%s.%s", label, r.now().Format("20060102-150405.000"), ext)
	return filepath.Join(dir, name), nil
}
