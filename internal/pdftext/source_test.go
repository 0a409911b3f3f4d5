package pdftext

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

type stubRunner struct {
	out  string
	err  error
	name string
	args []string
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name = name
	s.args = args
	return []byte(s.out), []byte("boom"), s.err
}

func TestJoinAppendsNewlinePerPage(t *testing.T) {
	if got := Join([]string{"a", "b"}); got != "a\nb\n" {
		t.Errorf("Join = %q", got)
	}
	if got := Join(nil); got != "" {
		t.Errorf("Join(nil) = %q", got)
	}
}

func TestNormalize(t *testing.T) {
	// "u" + combining diaeresis composes to "ü".
	in := "Gewu\u0308nschtes Lieferdatum  \r\nsofort\r"
	want := "Gewünschtes Lieferdatum\nsofort\n"
	if got := Normalize(in); got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestPdftotextArgsAndPages(t *testing.T) {
	runner := &stubRunner{out: "page one\fpage two\f"}
	src := NewPdftotext(Options{Layout: true}, runner, nil)

	text, err := src.Text(context.Background(), "invoice.pdf")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "page one\npage two\n" {
		t.Errorf("text = %q", text)
	}
	if runner.name != "pdftotext" {
		t.Errorf("binary = %q", runner.name)
	}
	wantArgs := []string{"-layout", "-enc", "UTF-8", "-eol", "unix", "invoice.pdf", "-"}
	if !reflect.DeepEqual(runner.args, wantArgs) {
		t.Errorf("args = %v, want %v", runner.args, wantArgs)
	}
}

func TestPdftotextMaxPages(t *testing.T) {
	runner := &stubRunner{out: "one\ftwo\fthree\f"}
	src := NewPdftotext(Options{MaxPages: 2}, runner, nil)

	text, err := src.Text(context.Background(), "a.pdf")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "one\ntwo\n" {
		t.Errorf("text = %q", text)
	}
}

func TestPdftotextFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("exit status 1")}
	src := NewPdftotext(Options{}, runner, nil)

	_, err := src.Text(context.Background(), "a.pdf")
	if err == nil || err.Error() != "convert a.pdf: exit status 1: boom" {
		t.Fatalf("err = %v", err)
	}
}

func TestExitErrorMessage(t *testing.T) {
	tests := []struct {
		err  ExitError
		want string
	}{
		{
			ExitError{Tool: "pdftotext", Status: 3, Stderr: "Permission Error: Copying of text from this document is not allowed."},
			"pdftotext exited with status 3 (extraction not permitted by PDF): Permission Error: Copying of text from this document is not allowed.",
		},
		{ExitError{Tool: "pdftotext", Status: 1}, "pdftotext exited with status 1 (cannot open PDF)"},
		{ExitError{Tool: "pdftotext", Status: 99, Stderr: "x"}, "pdftotext exited with status 99: x"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestStderrExcerpt(t *testing.T) {
	if got := stderrExcerpt("\n  Syntax Error: Couldn't find trailer dictionary\nSyntax Error: bad xref\n"); got != "Syntax Error: Couldn't find trailer dictionary" {
		t.Errorf("excerpt = %q", got)
	}
	long := strings.Repeat("x", maxStderr+10)
	if got := stderrExcerpt(long); len(got) != maxStderr+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("long excerpt length = %d", len(got))
	}
}

// fakeConverter writes an executable script standing in for pdftotext.
func fakeConverter(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "pdftotext")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBinaryRunnerExitStatus(t *testing.T) {
	bin := fakeConverter(t, "echo 'Permission Error: Copying of text from this document is not allowed.' >&2\nexit 3")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := NewPdftotext(Options{PdftotextPath: bin}, nil, logger)

	_, err := src.Text(context.Background(), "locked.pdf")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if exitErr.Status != 3 || exitErr.Tool != "pdftotext" {
		t.Errorf("exit error = %+v", exitErr)
	}
	want := "convert locked.pdf: pdftotext exited with status 3 (extraction not permitted by PDF): " +
		"Permission Error: Copying of text from this document is not allowed."
	if err.Error() != want {
		t.Errorf("err = %q\nwant %q", err, want)
	}
	var execErr *exec.ExitError
	if !errors.As(err, &execErr) {
		t.Error("underlying *exec.ExitError not reachable")
	}
}

func TestBinaryRunnerSuccessAndMissingBinary(t *testing.T) {
	bin := fakeConverter(t, "printf 'Bestellung AUFNR1\\f'")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	text, err := NewPdftotext(Options{PdftotextPath: bin}, nil, logger).Text(context.Background(), "a.pdf")
	if err != nil || text != "Bestellung AUFNR1\n" {
		t.Fatalf("Text = %q, %v", text, err)
	}

	missing := filepath.Join(t.TempDir(), "no-such-pdftotext")
	_, err = NewPdftotext(Options{PdftotextPath: missing}, nil, logger).Text(context.Background(), "a.pdf")
	var exitErr *ExitError
	if err == nil || errors.As(err, &exitErr) {
		t.Errorf("err = %v, want a start failure", err)
	}
}

func TestEmptyTextRejected(t *testing.T) {
	runner := &stubRunner{out: "  \f\n\f"}
	src := NewPdftotext(Options{}, runner, nil)

	_, err := src.Text(context.Background(), "a.pdf")
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
}

func TestPlainTextAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inv.txt")
	if err := os.WriteFile(path, []byte("Bestellung AUFNR1"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, src := range []Source{NewPdftotext(Options{}, &stubRunner{}, nil), NewNative(Options{}, nil)} {
		text, err := src.Text(context.Background(), path)
		if err != nil {
			t.Fatalf("%T: %v", src, err)
		}
		if text != "Bestellung AUFNR1\n" {
			t.Errorf("%T: text = %q", src, text)
		}
		if _, err := src.Text(context.Background(), filepath.Join(dir, "x.docx")); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%T: err = %v, want ErrUnsupported", src, err)
		}
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(Options{Backend: "ocr"}, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	src, err := New(Options{Backend: "native"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*NativeSource); !ok {
		t.Errorf("got %T", src)
	}
}
