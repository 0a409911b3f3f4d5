// =============================================================================
// Invoice QC - Extractor
// =============================================================================
//
// The extractor turns the text of one invoice document into an Invoice
// record. It combines three stages:
//   1. Scalar field rules (fields.go)
//   2. Party fallback chains (parties.go)
//   3. Line-item scanning (lineitems.go)
//
// ERROR HANDLING:
//   Extraction never fails on content. A field that cannot be recovered is
//   left nil; a line-item candidate that cannot be parsed is skipped. Only an
//   unreadable document (ExtractFile) returns an error.
//
// =============================================================================

package extractor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ginjaninja78/invoice-qc/internal/pdftext"
	"github.com/ginjaninja78/invoice-qc/internal/types"
)

// Extractor converts invoice documents into Invoice records.
type Extractor struct {
	source pdftext.Source
	logger *slog.Logger
}

// New returns an Extractor reading documents through source. source may be
// nil when only Extract is used.
func New(source pdftext.Source, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{source: source, logger: logger}
}

// Extract builds an Invoice from already-normalized document text.
//
// The returned record has its dates normalized and source_file unset; the
// caller stamps the source.
func (e *Extractor) Extract(text string) types.Invoice {
	var inv types.Invoice

	extractFields(text, &inv)

	if v, ok := buyerName(text); ok {
		inv.BuyerName = types.String(v)
	}
	if v, ok := buyerAddress(text); ok {
		inv.BuyerAddress = types.String(v)
	}
	if v, ok := sellerName(text); ok {
		inv.SellerName = types.String(v)
		if addr, ok := sellerAddress(text, v); ok {
			inv.SellerAddress = types.String(addr)
		}
	}

	inv.LineItems = extractLineItems(text, e.logger)
	inv.Normalize()

	return inv
}

// ExtractFile reads the document at path and extracts it.
//
// RETURNS:
//   - The extracted invoice.
//   - An error only when the document cannot be turned into text.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (types.Invoice, error) {
	if e.source == nil {
		return types.Invoice{}, fmt.Errorf("extract %s: no text source configured", path)
	}
	text, err := e.source.Text(ctx, path)
	if err != nil {
		return types.Invoice{}, fmt.Errorf("extract %s: %w", path, err)
	}

	inv := e.Extract(text)
	e.logger.Debug("invoice extracted",
		"file", path,
		"invoice_number", types.StringValue(inv.InvoiceNumber),
		"line_items", len(inv.LineItems),
	)
	return inv, nil
}
