// Package schema checks invoice JSON documents against a JSON Schema before
// they are decoded, so type mistakes in hand-edited or third-party input
// surface as a single readable error.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidDocument wraps every schema mismatch.
var ErrInvalidDocument = errors.New("json does not match invoice schema")

var (
	nullableString = map[string]any{"type": []any{"string", "null"}}
	nullableNumber = map[string]any{"type": []any{"number", "null"}}
)

// InvoiceListSchema describes a JSON array of invoices. Unknown keys are
// allowed; every known key may be null.
func InvoiceListSchema() map[string]any {
	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"position":       map[string]any{"type": "integer"},
			"description":    map[string]any{"type": "string"},
			"article_number": nullableString,
			"quantity":       map[string]any{"type": "number"},
			"unit":           map[string]any{"type": "string"},
			"unit_price":     map[string]any{"type": "number"},
			"line_total":     map[string]any{"type": "number"},
		},
	}

	props := map[string]any{
		"net_total":   nullableNumber,
		"tax_rate":    nullableNumber,
		"tax_amount":  nullableNumber,
		"gross_total": nullableNumber,
		"line_items":  map[string]any{"type": []any{"array", "null"}, "items": lineItem},
	}
	for _, k := range []string{
		"invoice_number", "customer_number", "order_reference",
		"buyer_name", "buyer_address", "seller_name", "seller_address",
		"invoice_date", "due_date", "delivery_date", "currency",
		"payment_terms", "source_file",
	} {
		props[k] = nullableString
	}

	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "array",
		"items": map[string]any{
			"type":       "object",
			"properties": props,
		},
	}
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func invoiceSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(InvoiceListSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("invoices.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("invoices.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// ValidateInvoices checks that data is a JSON array of invoice objects.
func ValidateInvoices(data []byte) error {
	s, err := invoiceSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}
