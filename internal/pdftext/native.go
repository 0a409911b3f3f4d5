package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// NativeSource reads PDFs in-process. Each text row of a page becomes one
// line, words separated by a single space.
type NativeSource struct {
	opts   Options
	logger *slog.Logger
}

// NewNative returns a Source backed by github.com/ledongthuc/pdf.
func NewNative(opts Options, logger *slog.Logger) *NativeSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeSource{opts: opts, logger: logger}
}

// Text implements Source.
func (s *NativeSource) Text(ctx context.Context, path string) (string, error) {
	if isPlainText(path) {
		return readPlain(path)
	}
	if !isPDF(path) {
		return "", fmt.Errorf("%s: %w", path, ErrUnsupported)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i, err)
		}

		var b strings.Builder
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteByte('\n')
		}
		pages = append(pages, b.String())
	}

	pages = limitPages(pages, s.opts.MaxPages)
	s.logger.Debug("pdf read", "file", path, "pages", len(pages))
	return finish(Join(pages))
}
