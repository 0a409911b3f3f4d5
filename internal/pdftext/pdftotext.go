package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Runner executes the converter binary and returns its stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// pdftotextStatus names the documented pdftotext exit codes.
var pdftotextStatus = map[int]string{
	1: "cannot open PDF",
	2: "cannot write output",
	3: "extraction not permitted by PDF",
}

// maxStderr bounds the stderr excerpt carried in an ExitError.
const maxStderr = 512

// ExitError reports a converter that ran and exited with a non-zero status.
type ExitError struct {
	Tool   string
	Status int
	Stderr string
	err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.Status)
	if reason, ok := pdftotextStatus[e.Status]; ok {
		msg += " (" + reason + ")"
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.err }

// binaryRunner runs the converter with exec.CommandContext.
type binaryRunner struct {
	logger *slog.Logger
}

// Run executes name. A non-zero exit comes back as *ExitError; a binary
// that cannot be started, or one cancelled through ctx, comes back as is.
func (r binaryRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		r.logger.Debug("converter finished", "tool", name, "elapsed_ms", elapsed, "stdout_bytes", stdout.Len())
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		err = &ExitError{
			Tool:   filepath.Base(name),
			Status: exitErr.ExitCode(),
			Stderr: stderrExcerpt(stderr.String()),
			err:    err,
		}
		r.logger.Warn("converter failed", "tool", name, "elapsed_ms", elapsed, "error", err)
	default:
		r.logger.Error("converter error", "tool", name, "elapsed_ms", elapsed, "error", err)
	}

	return stdout.Bytes(), stderr.Bytes(), err
}

// stderrExcerpt keeps the first non-blank stderr line, clipped to maxStderr.
func stderrExcerpt(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			if len(line) > maxStderr {
				line = line[:maxStderr] + "..."
			}
			return line
		}
	}
	return ""
}

// =============================================================================
// PDFTOTEXT BACKEND
// =============================================================================

// PdftotextSource converts PDFs with the external pdftotext tool.
type PdftotextSource struct {
	opts   Options
	runner Runner
	logger *slog.Logger
}

// NewPdftotext returns a pdftotext-backed Source. A nil runner executes the
// real binary.
func NewPdftotext(opts Options, runner Runner, logger *slog.Logger) *PdftotextSource {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = binaryRunner{logger: logger}
	}
	if opts.PdftotextPath == "" {
		opts.PdftotextPath = "pdftotext"
	}
	return &PdftotextSource{opts: opts, runner: runner, logger: logger}
}

// Text implements Source.
func (s *PdftotextSource) Text(ctx context.Context, path string) (string, error) {
	if isPlainText(path) {
		return readPlain(path)
	}
	if !isPDF(path) {
		return "", fmt.Errorf("%s: %w", path, ErrUnsupported)
	}

	// pdftotext [-layout] -enc UTF-8 -eol unix <path> -
	args := make([]string, 0, 7)
	if s.opts.Layout {
		args = append(args, "-layout")
	}
	args = append(args, "-enc", "UTF-8", "-eol", "unix", path, "-")

	out, stderr, err := s.runner.Run(ctx, s.opts.PdftotextPath, args...)
	if err != nil {
		var exitErr *ExitError
		if msg := stderrExcerpt(string(stderr)); msg != "" && !errors.As(err, &exitErr) {
			return "", fmt.Errorf("convert %s: %w: %s", path, err, msg)
		}
		return "", fmt.Errorf("convert %s: %w", path, err)
	}

	pages := limitPages(splitPages(string(out)), s.opts.MaxPages)
	s.logger.Debug("pdf converted", "file", path, "pages", len(pages))
	return finish(Join(pages))
}

// splitPages splits on the form feed pdftotext emits after every page.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}
