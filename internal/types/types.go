// =============================================================================
// Invoice QC - Shared Types
// =============================================================================
//
// This package contains the data model shared by the extractor, the rule
// engine, the report aggregator and the transport layers. Keeping these types
// in one leaf package avoids import cycles between:
//   - extractor
//   - validation
//   - report
//   - pipeline / server
//
// JSON SHAPE:
//   Every Invoice key is always emitted. Absent scalars are encoded as null
//   and an empty item list is encoded as [].
//
// =============================================================================

package types

import (
	"encoding/json"
	"strings"
)

// DefaultCurrency is applied when a decoded invoice carries no currency key.
const DefaultCurrency = "EUR"

// DefaultUnit is the unit of every extracted line item.
const DefaultUnit = "VE"

// =============================================================================
// LINE ITEM
// =============================================================================

// LineItem is one repeating row of an invoice.
type LineItem struct {
	// Position is 1-based and assigned in extraction order.
	Position int `json:"position"`

	// Description falls back to "Unknown item" when no text line qualifies.
	Description string `json:"description"`

	ArticleNumber *string `json:"article_number"`

	Quantity float64 `json:"quantity"`

	// Unit defaults to "VE".
	Unit string `json:"unit"`

	// UnitPrice is 0 when no price could be recovered.
	UnitPrice float64 `json:"unit_price"`

	LineTotal float64 `json:"line_total"`
}

// UnmarshalJSON applies the unit default for items decoded without one.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	type alias LineItem
	decoded := alias{Unit: DefaultUnit}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*li = LineItem(decoded)
	return nil
}

// =============================================================================
// INVOICE
// =============================================================================

// Invoice is the normalized record produced by extraction or decoded from
// JSON. All scalars are optional; nil means "not found".
//
// The field order below is the JSON key order.
type Invoice struct {
	InvoiceNumber  *string `json:"invoice_number"`
	CustomerNumber *string `json:"customer_number"`
	OrderReference *string `json:"order_reference"`

	BuyerName     *string `json:"buyer_name"`
	BuyerAddress  *string `json:"buyer_address"`
	SellerName    *string `json:"seller_name"`
	SellerAddress *string `json:"seller_address"`

	// Dates are YYYY-MM-DD when recognized, otherwise kept verbatim
	// (sentinels such as "sofort" or unparsable text).
	InvoiceDate  *string `json:"invoice_date"`
	DueDate      *string `json:"due_date"`
	DeliveryDate *string `json:"delivery_date"`

	Currency *string `json:"currency"`

	NetTotal   *float64 `json:"net_total"`
	TaxRate    *float64 `json:"tax_rate"`
	TaxAmount  *float64 `json:"tax_amount"`
	GrossTotal *float64 `json:"gross_total"`

	PaymentTerms *string `json:"payment_terms"`

	LineItems []LineItem `json:"line_items"`

	// SourceFile is stamped by the caller after extraction.
	SourceFile *string `json:"source_file"`
}

// MarshalJSON encodes a nil item list as [] instead of null.
func (inv Invoice) MarshalJSON() ([]byte, error) {
	type alias Invoice
	out := alias(inv)
	if out.LineItems == nil {
		out.LineItems = []LineItem{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an invoice and applies the construction rules:
//   - an absent currency becomes "EUR" while an explicit null stays null
//   - an absent item list becomes empty
//   - the three date fields are normalized with NormalizeDate
func (inv *Invoice) UnmarshalJSON(data []byte) error {
	type alias Invoice
	decoded := alias{Currency: String(DefaultCurrency)}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.LineItems == nil {
		decoded.LineItems = []LineItem{}
	}
	*inv = Invoice(decoded)
	inv.normalizeDates()
	return nil
}

// Normalize applies the date construction rule in place. The extractor
// calls it once the record is assembled.
func (inv *Invoice) Normalize() {
	inv.normalizeDates()
}

func (inv *Invoice) normalizeDates() {
	for _, field := range []**string{&inv.InvoiceDate, &inv.DueDate, &inv.DeliveryDate} {
		if *field != nil {
			normalized := NormalizeDate(**field)
			*field = &normalized
		}
	}
}

// =============================================================================
// DATE NORMALIZATION
// =============================================================================

// NormalizeDate rewrites "D.M.YYYY" style values to "YYYY-MM-DD".
//
// RULES:
//   - A value of length 10 with '-' at positions 4 and 7 is kept.
//   - A value with exactly three dot-separated parts becomes
//     year-month-day with month and day zero-padded to two digits.
//   - Anything else is returned verbatim.
func NormalizeDate(value string) string {
	if len(value) == 10 && value[4] == '-' && value[7] == '-' {
		return value
	}
	if !strings.Contains(value, ".") {
		return value
	}
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return value
	}
	day, month, year := parts[0], parts[1], parts[2]
	return year + "-" + zeroPad(month) + "-" + zeroPad(day)
}

func zeroPad(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}

// =============================================================================
// POINTER HELPERS
// =============================================================================

// String returns a pointer to s.
func String(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
