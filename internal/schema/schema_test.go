package schema

import (
	"errors"
	"testing"
)

func TestValidateInvoices(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		valid bool
	}{
		{"empty list", `[]`, true},
		{"minimal", `[{"invoice_number":"INV-1"}]`, true},
		{"nulls", `[{"invoice_number":null,"net_total":null,"line_items":null}]`, true},
		{"full item", `[{"line_items":[{"position":1,"description":"x","quantity":2,"unit":"VE","unit_price":1.5,"line_total":3}]}]`, true},
		{"extra keys", `[{"notes":"anything"}]`, true},
		{"object not array", `{"invoice_number":"INV-1"}`, false},
		{"string total", `[{"net_total":"64,00"}]`, false},
		{"numeric number", `[{"invoice_number":42}]`, false},
		{"bad item", `[{"line_items":[{"quantity":"four"}]}]`, false},
		{"malformed", `[{`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInvoices([]byte(tt.data))
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid {
				if err == nil {
					t.Error("expected error")
				} else if !errors.Is(err, ErrInvalidDocument) {
					t.Errorf("err = %v, want ErrInvalidDocument", err)
				}
			}
		})
	}
}
