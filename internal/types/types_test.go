package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-10", "2024-01-10"},
		{"22.05.2024", "2024-05-22"},
		{"5.3.2024", "2024-03-05"},
		{"sofort", "sofort"},
		{"ASAP", "ASAP"},
		{"1.2", "1.2"},
		{"not-a-date", "not-a-date"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDate(tt.in); got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInvoiceUnmarshalDefaults(t *testing.T) {
	var inv Invoice
	if err := json.Unmarshal([]byte(`{"invoice_number":"INV-1","invoice_date":"10.01.2024"}`), &inv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := StringValue(inv.Currency); got != "EUR" {
		t.Errorf("currency = %q, want EUR", got)
	}
	if got := StringValue(inv.InvoiceDate); got != "2024-01-10" {
		t.Errorf("invoice_date = %q, want 2024-01-10", got)
	}
	if inv.LineItems == nil || len(inv.LineItems) != 0 {
		t.Errorf("line_items = %#v, want empty slice", inv.LineItems)
	}
}

func TestInvoiceUnmarshalExplicitNullCurrency(t *testing.T) {
	var inv Invoice
	if err := json.Unmarshal([]byte(`{"currency":null}`), &inv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if inv.Currency != nil {
		t.Errorf("currency = %q, want nil", *inv.Currency)
	}
}

func TestLineItemUnitDefault(t *testing.T) {
	var li LineItem
	if err := json.Unmarshal([]byte(`{"position":1,"description":"x","quantity":2,"unit_price":1,"line_total":2}`), &li); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if li.Unit != "VE" {
		t.Errorf("unit = %q, want VE", li.Unit)
	}
}

func TestInvoiceMarshalKeyOrder(t *testing.T) {
	data, err := json.Marshal(Invoice{InvoiceNumber: String("A1")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	keys := []string{
		"invoice_number", "customer_number", "order_reference", "buyer_name",
		"buyer_address", "seller_name", "seller_address", "invoice_date",
		"due_date", "delivery_date", "currency", "net_total", "tax_rate",
		"tax_amount", "gross_total", "payment_terms", "line_items", "source_file",
	}
	s := string(data)
	last := -1
	for _, k := range keys {
		idx := strings.Index(s, `"`+k+`":`)
		if idx < 0 {
			t.Fatalf("key %q missing from %s", k, s)
		}
		if idx < last {
			t.Errorf("key %q out of order in %s", k, s)
		}
		last = idx
	}
	if !strings.Contains(s, `"line_items":[]`) {
		t.Errorf("expected empty line_items array, got %s", s)
	}
	if !strings.Contains(s, `"currency":null`) {
		t.Errorf("expected null currency, got %s", s)
	}
}
