// =============================================================================
// Invoice QC - Scalar Field Rules
// =============================================================================
//
// Each scalar invoice attribute owns an ordered list of candidate patterns.
// The first pattern that matches anywhere in the document wins; later
// candidates are only tried when earlier ones find nothing.
//
// All patterns are case-insensitive and may span line breaks. Capture group 1
// carries the value, which is trimmed before conversion.
//
// =============================================================================

package extractor

import (
	"regexp"
	"strings"

	"github.com/ginjaninja78/invoice-qc/internal/types"
)

// euroAmount matches a European monetary token with optional thousands
// groups, e.g. "64,00" or "1.234,56".
const euroAmount = `(\d[\d.]*(?:,\d+)?)`

// word mirrors a Unicode-aware \w.
const word = `[\p{L}\p{N}_]`

// =============================================================================
// FIELD RULE
// =============================================================================

// fieldKind selects how a captured token is converted.
type fieldKind int

const (
	textField fieldKind = iota
	numberField
	dateField
)

// fieldRule binds a field name to its candidate patterns and its setter.
type fieldRule struct {
	name       string
	kind       fieldKind
	candidates []*regexp.Regexp
	setText    func(inv *types.Invoice, v string)
	setNumber  func(inv *types.Invoice, v float64)
}

// match returns the trimmed capture of the first candidate that matches.
func (r fieldRule) match(text string) (string, bool) {
	for _, re := range r.candidates {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

func ci(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// =============================================================================
// RULE TABLE
// =============================================================================

var fieldRules = []fieldRule{
	{
		name:       "invoice_number",
		candidates: ci(`(?:Bestellung|AUFNR)\s*(` + word + `+)`),
		setText:    func(inv *types.Invoice, v string) { inv.InvoiceNumber = types.String(v) },
	},
	{
		name:       "order_reference",
		candidates: ci(`im Auftrag von\s*(\d+)`),
		setText:    func(inv *types.Invoice, v string) { inv.OrderReference = types.String(v) },
	},
	{
		name:       "customer_number",
		candidates: ci(`Unsere Kundennummer[\s\n]+(\d+)`),
		setText:    func(inv *types.Invoice, v string) { inv.CustomerNumber = types.String(v) },
	},
	{
		name:       "invoice_date",
		kind:       dateField,
		candidates: ci(`vom\s*(\d{2}\.\d{2}\.\d{4})`),
		setText: func(inv *types.Invoice, v string) {
			inv.InvoiceDate = types.String(v)
			// Due date defaults to the invoice date for this template family.
			inv.DueDate = types.String(v)
		},
	},
	{
		name:       "tax_rate",
		kind:       numberField,
		candidates: ci(`MwSt\.\s*(\d+[,.]?\d*)%`),
		setNumber:  func(inv *types.Invoice, v float64) { inv.TaxRate = types.Float(v) },
	},
	{
		name:       "net_total",
		kind:       numberField,
		candidates: ci(`Gesamtwert\s+EUR\s+` + euroAmount),
		setNumber:  func(inv *types.Invoice, v float64) { inv.NetTotal = types.Float(v) },
	},
	{
		name:       "tax_amount",
		kind:       numberField,
		candidates: ci(`MwSt\.\s+\d+[,.]?\d*%\s+EUR\s+` + euroAmount),
		setNumber:  func(inv *types.Invoice, v float64) { inv.TaxAmount = types.Float(v) },
	},
	{
		name:       "gross_total",
		kind:       numberField,
		candidates: ci(`Gesamtwert inkl\. MwSt\.\s+EUR\s+` + euroAmount),
		setNumber:  func(inv *types.Invoice, v float64) { inv.GrossTotal = types.Float(v) },
	},
	{
		name:       "payment_terms",
		candidates: ci(`Zahlungsbedingungen[\s\n]+([^\n]+)`),
		setText:    func(inv *types.Invoice, v string) { inv.PaymentTerms = types.String(v) },
	},
	{
		name:       "delivery_date",
		candidates: ci(`Gewünschtes Lieferdatum[\s\n]+([^\n]+)`),
		setText:    func(inv *types.Invoice, v string) { inv.DeliveryDate = types.String(v) },
	},
}

// extractFields applies every field rule to text and fills inv.
func extractFields(text string, inv *types.Invoice) {
	for _, rule := range fieldRules {
		raw, ok := rule.match(text)
		if !ok {
			continue
		}
		switch rule.kind {
		case numberField:
			rule.setNumber(inv, ParseEuropeanNumber(raw))
		case dateField:
			rule.setText(inv, ConvertDate(raw))
		default:
			rule.setText(inv, raw)
		}
	}

	// Every document of this template family is billed in euro.
	inv.Currency = types.String(types.DefaultCurrency)
}
