// =============================================================================
// Invoice QC - Pipeline
// =============================================================================
//
// This module orchestrates a full run over a directory of invoice documents.
//
// PIPELINE:
//   1. Discover documents in the input directory
//   2. Extract each document concurrently (bounded by MaxConcurrency)
//   3. Stamp each invoice with its source file name
//   4. Validate the batch in discovery order
//
// ERROR HANDLING:
//   A document that cannot be read is recorded as a FileFailure and the run
//   continues with the rest. Only an empty or unreadable directory aborts.
//
// CONCURRENCY:
//   Extraction fans out over an errgroup with a concurrency limit. Each
//   worker writes into its own slot, so results keep discovery order.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/invoice-qc/internal/extractor"
	"github.com/ginjaninja78/invoice-qc/internal/types"
	"github.com/ginjaninja78/invoice-qc/internal/validation"
	"github.com/ginjaninja78/invoice-qc/pkg/utils"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoDocuments means discovery found nothing to extract.
	ErrNoDocuments = errors.New("no invoice documents found")

	// ErrNoInvoices means every document failed to extract.
	ErrNoInvoices = errors.New("no invoices were extracted")

	// ErrInvalidInvoices means the validated batch contains invalid invoices.
	ErrInvalidInvoices = errors.New("batch contains invalid invoices")
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// FileFailure records a document that could not be extracted.
type FileFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Stats contains statistics about one run.
type Stats struct {
	// Documents is the number of files discovered.
	Documents int

	// Extracted is the number of invoices produced.
	Extracted int

	// LineItems is the number of line items across all invoices.
	LineItems int

	// Failed is the number of files that could not be read.
	Failed int

	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Extraction is the outcome of ExtractDirectory.
type Extraction struct {
	Invoices []types.Invoice
	Failures []FileFailure
	Stats    Stats
}

// Result is the outcome of Run.
type Result struct {
	Extraction
	Report types.ValidationReport
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Options configures a Pipeline.
type Options struct {
	// Patterns are glob patterns for discovery. Defaults to "*.pdf".
	Patterns []string

	// MaxConcurrency bounds parallel extraction. Values below 1 mean 1.
	MaxConcurrency int
}

// Pipeline extracts and validates invoice batches.
type Pipeline struct {
	extractor   *extractor.Extractor
	engine      *validation.Engine
	patterns    []string
	concurrency int
	logger      *slog.Logger
}

// New creates a Pipeline.
func New(ext *extractor.Extractor, engine *validation.Engine, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = []string{"*.pdf"}
	}
	return &Pipeline{
		extractor:   ext,
		engine:      engine,
		patterns:    opts.Patterns,
		concurrency: opts.MaxConcurrency,
		logger:      logger,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTIONS
// =============================================================================

// ExtractDirectory extracts every document in dir matching the patterns.
//
// RETURNS:
//   - The invoices in discovery order, each stamped with its file name.
//   - Per-file failures, also in discovery order.
//   - ErrNoDocuments if nothing matched, or the discovery error.
func (p *Pipeline) ExtractDirectory(ctx context.Context, dir string) (Extraction, error) {
	files, err := utils.NewFileManager(dir, "").DiscoverInputFiles(p.patterns...)
	if err != nil {
		return Extraction{}, fmt.Errorf("discover documents: %w", err)
	}
	if len(files) == 0 {
		return Extraction{}, fmt.Errorf("%s: %w", dir, ErrNoDocuments)
	}

	p.logger.Info("extracting documents", "dir", dir, "documents", len(files), "concurrency", p.concurrency)

	return p.ExtractFiles(ctx, files)
}

// ExtractFiles extracts the given files. Invoices are stamped with the base
// name of their file.
func (p *Pipeline) ExtractFiles(ctx context.Context, files []string) (Extraction, error) {
	start := time.Now()
	type slot struct {
		inv types.Invoice
		err error
	}
	slots := make([]slot, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				slots[i].err = err
				return nil
			}
			inv, err := p.extractor.ExtractFile(gctx, file)
			slots[i] = slot{inv: inv, err: err}
			return nil
		})
	}
	// Workers never return errors; failures are per slot.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}

	out := Extraction{Invoices: make([]types.Invoice, 0, len(files))}
	for i, s := range slots {
		name := filepath.Base(files[i])
		if s.err != nil {
			p.logger.Warn("extraction failed", "file", name, "error", s.err)
			out.Failures = append(out.Failures, FileFailure{File: name, Error: s.err.Error()})
			continue
		}
		inv := s.inv
		inv.SourceFile = types.String(name)
		out.Invoices = append(out.Invoices, inv)
		out.Stats.LineItems += len(inv.LineItems)
	}

	out.Stats.Documents = len(files)
	out.Stats.Extracted = len(out.Invoices)
	out.Stats.Failed = len(out.Failures)
	out.Stats.Elapsed = time.Since(start)

	p.logger.Info("extraction finished",
		"invoices", out.Stats.Extracted,
		"line_items", out.Stats.LineItems,
		"failures", out.Stats.Failed,
		"elapsed_ms", out.Stats.Elapsed.Milliseconds(),
	)
	return out, nil
}

// Validate validates a batch with fresh duplicate tracking.
func (p *Pipeline) Validate(invoices []types.Invoice) types.ValidationReport {
	return p.engine.ValidateBatch(invoices)
}

// KnownCurrencies returns the currencies the engine accepts.
func (p *Pipeline) KnownCurrencies() []string {
	return p.engine.KnownCurrencies()
}

// Run extracts dir and validates the result.
//
// RETURNS:
//   - The extraction and its report.
//   - ErrNoInvoices if every document failed; the extraction is still
//     returned so callers can log the failures.
func (p *Pipeline) Run(ctx context.Context, dir string) (Result, error) {
	start := time.Now()
	ext, err := p.ExtractDirectory(ctx, dir)
	if err != nil {
		return Result{}, err
	}
	if len(ext.Invoices) == 0 {
		return Result{Extraction: ext}, ErrNoInvoices
	}

	rep := p.Validate(ext.Invoices)
	ext.Stats.Elapsed = time.Since(start)

	p.logger.Info("run complete",
		"documents", ext.Stats.Documents,
		"failed", ext.Stats.Failed,
		"valid", rep.Summary.ValidInvoices,
		"invalid", rep.Summary.InvalidInvoices,
	)
	return Result{Extraction: ext, Report: rep}, nil
}

// ErrorLogEntries converts failures into file manager log entries.
func ErrorLogEntries(failures []FileFailure, at time.Time) []utils.ErrorLogEntry {
	entries := make([]utils.ErrorLogEntry, 0, len(failures))
	for _, f := range failures {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    at,
			FileName:     f.File,
			ErrorMessage: f.Error,
		})
	}
	return entries
}
