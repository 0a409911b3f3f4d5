// =============================================================================
// Invoice QC - Validation Engine
// =============================================================================
//
// This module checks invoice records against a fixed battery of data-quality
// rules and scores a whole batch.
//
// VALIDATION STRATEGY:
//   Rules run per invoice in four ordered categories:
//   1. Completeness: required scalars are present and non-blank
//   2. Format: ISO dates, known currencies, non-negative amounts
//   3. Business rules: line sum, tax arithmetic, date ordering
//   4. Anomalies: batch-wide duplicates and zero totals
//
// ERROR HANDLING:
//   - Violations are collected, never returned as Go errors
//   - Malformed content never aborts a batch
//   - Any violation, warnings included, marks the invoice invalid
//
// CONCURRENCY:
//   The Engine is immutable after construction. Duplicate tracking lives in
//   a SeenKeys value created per batch, so one Engine can serve concurrent
//   batches.
//
// =============================================================================

package validation

import (
	"log/slog"
	"strings"
	"time"

	"github.com/ginjaninja78/invoice-qc/internal/report"
	"github.com/ginjaninja78/invoice-qc/internal/types"
	"github.com/shopspring/decimal"
)

// unknownInvoiceID labels results for invoices without a number.
const unknownInvoiceID = "UNKNOWN"

// =============================================================================
// OPTIONS
// =============================================================================

// Options tunes the rule battery.
type Options struct {
	// KnownCurrencies is the accepted currency set. Others raise a warning.
	KnownCurrencies []string

	// DateSentinels are date values exempt from the ISO format check.
	DateSentinels []string

	// LineTotalTolerance is the allowed gap between the line-item sum and
	// net_total, as a fraction of net_total.
	LineTotalTolerance decimal.Decimal

	// TaxTolerance is the allowed absolute gap between net+tax and gross.
	TaxTolerance decimal.Decimal

	// Now supplies report timestamps. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the standard rule configuration.
func DefaultOptions() Options {
	return Options{
		KnownCurrencies:    []string{"EUR", "USD", "GBP", "INR", "JPY", "CHF"},
		DateSentinels:      []string{"sofort", "ASAP"},
		LineTotalTolerance: decimal.RequireFromString("0.01"),
		TaxTolerance:       decimal.RequireFromString("0.02"),
		Now:                time.Now,
	}
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine validates invoices. Construct with NewEngine.
type Engine struct {
	currencies   map[string]struct{}
	currencyList []string
	sentinels    map[string]struct{}
	lineTol      decimal.Decimal
	taxTol       decimal.Decimal
	now          func() time.Time
	logger       *slog.Logger
}

// NewEngine builds an Engine from opts. Empty currency, sentinel and clock
// fields fall back to DefaultOptions. Tolerances are taken as given, so a
// zero tolerance demands exact matches; start from DefaultOptions for the
// standard ones.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if len(opts.KnownCurrencies) == 0 {
		opts.KnownCurrencies = def.KnownCurrencies
	}
	if opts.DateSentinels == nil {
		opts.DateSentinels = def.DateSentinels
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}

	e := &Engine{
		currencies:   make(map[string]struct{}, len(opts.KnownCurrencies)),
		currencyList: append([]string(nil), opts.KnownCurrencies...),
		sentinels:    make(map[string]struct{}, len(opts.DateSentinels)),
		lineTol:      opts.LineTotalTolerance,
		taxTol:       opts.TaxTolerance,
		now:          opts.Now,
		logger:       logger,
	}
	for _, c := range opts.KnownCurrencies {
		e.currencies[c] = struct{}{}
	}
	for _, s := range opts.DateSentinels {
		e.sentinels[s] = struct{}{}
	}
	return e
}

// KnownCurrencies returns the accepted currency codes in configured order.
func (e *Engine) KnownCurrencies() []string {
	return append([]string(nil), e.currencyList...)
}

// =============================================================================
// DUPLICATE TRACKING
// =============================================================================

// SeenKeys records duplicate keys within one batch.
type SeenKeys struct {
	keys map[string]struct{}
}

// NewSeenKeys returns an empty tracker.
func NewSeenKeys() *SeenKeys {
	return &SeenKeys{keys: make(map[string]struct{})}
}

// Observe reports whether key was already seen and records it otherwise.
// Repeated keys are not re-inserted.
func (s *SeenKeys) Observe(key string) bool {
	if _, ok := s.keys[key]; ok {
		return true
	}
	s.keys[key] = struct{}{}
	return false
}

// =============================================================================
// MAIN VALIDATION FUNCTIONS
// =============================================================================

// ValidateBatch validates invoices in input order and aggregates a report.
// Duplicate detection is scoped to this call.
func (e *Engine) ValidateBatch(invoices []types.Invoice) types.ValidationReport {
	seen := NewSeenKeys()
	results := make([]types.InvoiceValidationResult, 0, len(invoices))

	for i := range invoices {
		results = append(results, e.ValidateInvoice(invoices[i], seen))
	}

	rep := report.Aggregate(results, e.now())
	e.logger.Info("batch validated",
		"invoices", rep.Summary.TotalInvoices,
		"valid", rep.Summary.ValidInvoices,
		"invalid", rep.Summary.InvalidInvoices,
	)
	return rep
}

// ValidateInvoice runs every rule category against inv. seen carries the
// batch's duplicate keys; a nil tracker disables the duplicate check.
//
// RETURNS:
//   - The result, with errors in category order.
func (e *Engine) ValidateInvoice(inv types.Invoice, seen *SeenKeys) types.InvoiceValidationResult {
	errs := make([]types.ValidationError, 0)
	errs = append(errs, e.checkCompleteness(inv)...)
	errs = append(errs, e.checkFormats(inv)...)
	errs = append(errs, e.checkBusinessRules(inv)...)
	errs = append(errs, e.checkAnomalies(inv, seen)...)

	id := types.StringValue(inv.InvoiceNumber)
	if id == "" {
		id = unknownInvoiceID
	}

	if len(errs) > 0 {
		e.logger.Debug("invoice has violations", "invoice_id", id, "violations", len(errs))
	}

	return types.InvoiceValidationResult{
		InvoiceID:  id,
		SourceFile: inv.SourceFile,
		IsValid:    len(errs) == 0,
		Errors:     errs,
	}
}

// duplicateKey returns "number|seller|date", or "" when any part is empty.
func duplicateKey(inv types.Invoice) string {
	parts := []string{
		types.StringValue(inv.InvoiceNumber),
		types.StringValue(inv.SellerName),
		types.StringValue(inv.InvoiceDate),
	}
	for _, p := range parts {
		if p == "" {
			return ""
		}
	}
	return strings.Join(parts, "|")
}
