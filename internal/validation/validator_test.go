package validation

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/invoice-qc/internal/types"
	"github.com/shopspring/decimal"
)

var fixedNow = func() time.Time { return time.Date(2024, 1, 10, 10, 30, 0, 0, time.Local) }

func newTestEngine() *Engine {
	opts := DefaultOptions()
	opts.Now = fixedNow
	return NewEngine(opts, nil)
}

// validInvoice passes every rule.
func validInvoice() types.Invoice {
	return types.Invoice{
		InvoiceNumber: types.String("INV-1"),
		InvoiceDate:   types.String("2024-01-10"),
		DueDate:       types.String("2024-01-10"),
		DeliveryDate:  types.String("sofort"),
		BuyerName:     types.String("Buyer GmbH"),
		SellerName:    types.String("ABC Ltd"),
		Currency:      types.String("EUR"),
		NetTotal:      types.Float(100),
		TaxAmount:     types.Float(19),
		GrossTotal:    types.Float(119),
		LineItems: []types.LineItem{
			{Position: 1, Description: "Item", Quantity: 1, Unit: "VE", UnitPrice: 100, LineTotal: 100},
		},
	}
}

func messages(r types.InvoiceValidationResult) []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Rule + "|" + e.Severity + "|" + e.Message
	}
	return out
}

func TestValidInvoice(t *testing.T) {
	r := newTestEngine().ValidateInvoice(validInvoice(), NewSeenKeys())
	if !r.IsValid || len(r.Errors) != 0 {
		t.Fatalf("expected valid, got %v", messages(r))
	}
	if r.InvoiceID != "INV-1" {
		t.Errorf("invoice_id = %q", r.InvoiceID)
	}
}

func TestCompleteness(t *testing.T) {
	inv := types.Invoice{InvoiceNumber: types.String("  "), Currency: nil}
	r := newTestEngine().ValidateInvoice(inv, NewSeenKeys())

	want := []string{
		"completeness|error|invoice_number is missing or empty",
		"completeness|error|invoice_date is missing or empty",
		"completeness|error|buyer_name is missing or empty",
		"completeness|error|seller_name is missing or empty",
		"completeness|error|currency is missing or empty",
	}
	if got := messages(r); !reflect.DeepEqual(got, want) {
		t.Errorf("errors = %v\nwant %v", got, want)
	}
	if r.IsValid {
		t.Error("expected invalid")
	}
	// A blank number is still reported as-is, only nil or "" map to UNKNOWN.
	if r.InvoiceID != "  " {
		t.Errorf("invoice_id = %q", r.InvoiceID)
	}
	if got := newTestEngine().ValidateInvoice(types.Invoice{}, nil).InvoiceID; got != "UNKNOWN" {
		t.Errorf("invoice_id = %q, want UNKNOWN", got)
	}
}

func TestFormatRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Invoice)
		want   []string
	}{
		{
			name:   "bad invoice date",
			mutate: func(inv *types.Invoice) { inv.InvoiceDate = types.String("2024-13-45") },
			want:   []string{"format|error|invoice_date has invalid format: 2024-13-45"},
		},
		{
			name:   "sentinel delivery date",
			mutate: func(inv *types.Invoice) { inv.DeliveryDate = types.String("ASAP") },
			want:   nil,
		},
		{
			name:   "garbage due date",
			mutate: func(inv *types.Invoice) { inv.DueDate = types.String("bald") },
			want:   []string{"format|error|due_date has invalid format: bald"},
		},
		{
			name:   "unknown currency",
			mutate: func(inv *types.Invoice) { inv.Currency = types.String("XYZ") },
			want:   []string{"format|warning|currency 'XYZ' not in known set {'EUR', 'USD', 'GBP', 'INR', 'JPY', 'CHF'}"},
		},
		{
			name: "negative amount",
			mutate: func(inv *types.Invoice) {
				inv.TaxAmount = types.Float(-5)
				inv.GrossTotal = types.Float(95)
			},
			want: []string{"format|error|tax_amount is negative: -5"},
		},
		{
			name:   "infinite net total",
			mutate: func(inv *types.Invoice) { inv.NetTotal = types.Float(math.Inf(1)) },
			want:   []string{"format|error|net_total is not a finite number: +Inf"},
		},
		{
			name: "overflowed line total",
			mutate: func(inv *types.Invoice) {
				inv.LineItems = append(inv.LineItems, types.LineItem{Position: 2, LineTotal: math.Inf(1)})
				inv.LineItems[0].LineTotal = math.NaN()
			},
			want: []string{
				"format|error|line_items[0].line_total is not a finite number: NaN",
				"format|error|line_items[1].line_total is not a finite number: +Inf",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validInvoice()
			tt.mutate(&inv)
			r := newTestEngine().ValidateInvoice(inv, NewSeenKeys())
			got := messages(r)
			if len(tt.want) == 0 && len(got) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("errors = %v\nwant %v", got, tt.want)
			}
		})
	}
}

func TestWarningInvalidates(t *testing.T) {
	inv := validInvoice()
	inv.Currency = types.String("XYZ")
	r := newTestEngine().ValidateInvoice(inv, NewSeenKeys())
	if r.IsValid {
		t.Error("a warning must invalidate the invoice")
	}
}

func TestTaxTolerance(t *testing.T) {
	tests := []struct {
		tax   float64
		valid bool
	}{
		{19.02, true},
		{19.10, false},
		{18.98, true},
	}
	for _, tt := range tests {
		inv := validInvoice()
		inv.TaxAmount = types.Float(tt.tax)
		r := newTestEngine().ValidateInvoice(inv, NewSeenKeys())
		if r.IsValid != tt.valid {
			t.Errorf("tax %.2f: valid = %v, want %v (%v)", tt.tax, r.IsValid, tt.valid, messages(r))
		}
	}

	inv := validInvoice()
	inv.TaxAmount = types.Float(19.10)
	got := messages(newTestEngine().ValidateInvoice(inv, NewSeenKeys()))
	want := []string{"business_rule|error|tax calculation mismatch: net (100.00) + tax (19.10) != gross (119.00)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("errors = %v", got)
	}
}

func TestZeroToleranceIsExact(t *testing.T) {
	opts := DefaultOptions()
	opts.Now = fixedNow
	opts.TaxTolerance = decimal.Zero
	opts.LineTotalTolerance = decimal.Zero
	engine := NewEngine(opts, nil)

	inv := validInvoice()
	if r := engine.ValidateInvoice(inv, NewSeenKeys()); !r.IsValid {
		t.Fatalf("exact invoice rejected: %v", messages(r))
	}

	inv.TaxAmount = types.Float(19.01)
	inv.LineItems[0].LineTotal = 100.01
	want := []string{
		"business_rule|error|line_items sum (100.01) does not match net_total (100.00)",
		"business_rule|error|tax calculation mismatch: net (100.00) + tax (19.01) != gross (119.00)",
	}
	if got := messages(engine.ValidateInvoice(inv, NewSeenKeys())); !reflect.DeepEqual(got, want) {
		t.Errorf("errors = %v\nwant %v", got, want)
	}
}

func TestLineSumTolerance(t *testing.T) {
	tests := []struct {
		net   float64
		valid bool
	}{
		{64.00, true},
		{60.00, false},
	}
	for _, tt := range tests {
		inv := validInvoice()
		inv.NetTotal = types.Float(tt.net)
		inv.TaxAmount = nil
		inv.LineItems = []types.LineItem{
			{Position: 1, LineTotal: 40},
			{Position: 2, LineTotal: 23.50},
		}
		r := newTestEngine().ValidateInvoice(inv, NewSeenKeys())
		if r.IsValid != tt.valid {
			t.Errorf("net %.2f: valid = %v, want %v (%v)", tt.net, r.IsValid, tt.valid, messages(r))
		}
		if !tt.valid {
			want := "business_rule|error|line_items sum (63.50) does not match net_total (60.00)"
			if got := messages(r); len(got) != 1 || got[0] != want {
				t.Errorf("errors = %v", got)
			}
		}
	}
}

func TestDueDateBeforeInvoiceDate(t *testing.T) {
	inv := validInvoice()
	inv.DueDate = types.String("2024-01-09")
	got := messages(newTestEngine().ValidateInvoice(inv, NewSeenKeys()))
	want := []string{"business_rule|error|due_date (2024-01-09) is before invoice_date (2024-01-10)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("errors = %v", got)
	}

	// Unparsable dates are reported by the format check only.
	inv.InvoiceDate = types.String("10.01.2024x")
	got = messages(newTestEngine().ValidateInvoice(inv, NewSeenKeys()))
	if len(got) != 1 || got[0] != "format|error|invoice_date has invalid format: 10.01.2024x" {
		t.Errorf("errors = %v", got)
	}
}

func TestZeroGrossAnomaly(t *testing.T) {
	inv := validInvoice()
	inv.NetTotal, inv.TaxAmount, inv.GrossTotal = nil, nil, types.Float(0)
	got := messages(newTestEngine().ValidateInvoice(inv, NewSeenKeys()))
	want := []string{"anomaly|warning|gross_total is zero, likely extraction error"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("errors = %v", got)
	}
}

func TestDuplicatesWithinBatch(t *testing.T) {
	incomplete := validInvoice()
	incomplete.SellerName = nil

	rep := newTestEngine().ValidateBatch([]types.Invoice{validInvoice(), validInvoice(), validInvoice(), incomplete, incomplete})

	if !rep.Results[0].IsValid {
		t.Errorf("first occurrence flagged: %v", messages(rep.Results[0]))
	}
	for _, i := range []int{1, 2} {
		got := messages(rep.Results[i])
		if len(got) != 1 || got[0] != "duplicate|error|duplicate invoice detected: INV-1" {
			t.Errorf("result %d errors = %v", i, got)
		}
	}
	// No key without a seller name.
	for _, i := range []int{3, 4} {
		for _, e := range rep.Results[i].Errors {
			if e.Rule == types.RuleDuplicate {
				t.Errorf("result %d flagged as duplicate without a full key", i)
			}
		}
	}
	if rep.Summary.ErrorCounts["duplicate:duplicate"] != 2 {
		t.Errorf("error_counts = %v", rep.Summary.ErrorCounts)
	}
}

func TestBatchesAreIndependent(t *testing.T) {
	e := newTestEngine()
	batch := []types.Invoice{validInvoice()}

	first := e.ValidateBatch(batch)
	second := e.ValidateBatch(batch)
	if !second.Results[0].IsValid {
		t.Error("duplicate state leaked across batches")
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("reports differ:\n%s\n%s", a, b)
	}
	if first.Timestamp != "2024-01-10T10:30:00.000000" {
		t.Errorf("timestamp = %q", first.Timestamp)
	}
}

func TestValidateBatchDoesNotMutateInput(t *testing.T) {
	batch := []types.Invoice{validInvoice()}
	before, _ := json.Marshal(batch)
	newTestEngine().ValidateBatch(batch)
	after, _ := json.Marshal(batch)
	if string(before) != string(after) {
		t.Error("invoices mutated by validation")
	}
}

func TestEmptyBatch(t *testing.T) {
	rep := newTestEngine().ValidateBatch(nil)
	if rep.Summary.TotalInvoices != 0 || len(rep.Results) != 0 {
		t.Errorf("report = %+v", rep)
	}
	data, _ := json.Marshal(rep)
	if want := `"results":[]`; !strings.Contains(string(data), want) {
		t.Errorf("json = %s", data)
	}
}
