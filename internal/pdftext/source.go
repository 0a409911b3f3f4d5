// =============================================================================
// Invoice QC - Document Text Sources
// =============================================================================
//
// This package turns an invoice document into one UTF-8 text blob with line
// breaks intact. It is the only place that knows about PDF tooling; the
// extractor only ever sees text.
//
// BACKENDS:
//   - pdftotext : runs the poppler pdftotext binary (default)
//   - native    : pure-Go reader (github.com/ledongthuc/pdf)
//
// Files ending in .txt are treated as already-converted text by every
// backend, which keeps fixtures and pre-converted batches cheap to process.
//
// =============================================================================

package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyText means the document produced no text at all.
	ErrEmptyText = errors.New("document produced no text")

	// ErrUnsupported means the file extension has no reader.
	ErrUnsupported = errors.New("unsupported document type")
)

// =============================================================================
// SOURCE
// =============================================================================

// Source returns the full text of one document.
type Source interface {
	Text(ctx context.Context, path string) (string, error)
}

// Options selects and tunes a backend.
type Options struct {
	// Backend is "pdftotext" or "native".
	Backend string

	// PdftotextPath is the binary used by the pdftotext backend.
	PdftotextPath string

	// Layout passes -layout to pdftotext.
	Layout bool

	// MaxPages limits the pages read; 0 reads all of them.
	MaxPages int
}

// New builds the Source named by opts.Backend.
func New(opts Options, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(opts.Backend) {
	case "", "pdftotext":
		return NewPdftotext(opts, nil, logger), nil
	case "native":
		return NewNative(opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown pdf backend %q", opts.Backend)
	}
}

// =============================================================================
// TEXT NORMALIZER
// =============================================================================

// Join concatenates page texts, each followed by a newline.
func Join(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}

// Normalize unifies line endings, composes Unicode (NFC) so that umlauts
// match the extraction patterns, and trims trailing blanks on each line.
// Line structure is preserved.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = norm.NFC.String(s)

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.Join(lines, "\n")
}

// finish normalizes text and rejects documents with no content.
func finish(text string) (string, error) {
	text = Normalize(text)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

// readPlain serves .txt inputs.
func readPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return finish(Join([]string{string(data)}))
}

func isPlainText(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func limitPages(pages []string, max int) []string {
	if max > 0 && len(pages) > max {
		return pages[:max]
	}
	return pages
}
