package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/invoice-qc/internal/types"
	"github.com/shopspring/decimal"
)

const isoDate = "2006-01-02"

// =============================================================================
// COMPLETENESS
// =============================================================================

func (e *Engine) checkCompleteness(inv types.Invoice) []types.ValidationError {
	required := []struct {
		name  string
		value *string
	}{
		{"invoice_number", inv.InvoiceNumber},
		{"invoice_date", inv.InvoiceDate},
		{"buyer_name", inv.BuyerName},
		{"seller_name", inv.SellerName},
		{"currency", inv.Currency},
	}

	var errs []types.ValidationError
	for _, f := range required {
		if strings.TrimSpace(types.StringValue(f.value)) == "" {
			errs = append(errs, types.ValidationError{
				Rule:     types.RuleCompleteness,
				Message:  fmt.Sprintf("%s is missing or empty", f.name),
				Severity: types.SeverityError,
			})
		}
	}
	return errs
}

// =============================================================================
// FORMAT
// =============================================================================

func (e *Engine) checkFormats(inv types.Invoice) []types.ValidationError {
	var errs []types.ValidationError

	dates := []struct {
		name  string
		value *string
	}{
		{"invoice_date", inv.InvoiceDate},
		{"due_date", inv.DueDate},
		{"delivery_date", inv.DeliveryDate},
	}
	for _, d := range dates {
		v := types.StringValue(d.value)
		if v == "" {
			continue
		}
		if _, sentinel := e.sentinels[v]; sentinel {
			continue
		}
		if _, ok := parseISODate(v); !ok {
			errs = append(errs, types.ValidationError{
				Rule:     types.RuleFormat,
				Message:  fmt.Sprintf("%s has invalid format: %s", d.name, v),
				Severity: types.SeverityError,
			})
		}
	}

	if c := types.StringValue(inv.Currency); c != "" {
		if _, ok := e.currencies[c]; !ok {
			errs = append(errs, types.ValidationError{
				Rule:     types.RuleFormat,
				Message:  fmt.Sprintf("currency '%s' not in known set %s", c, e.currencySet()),
				Severity: types.SeverityWarning,
			})
		}
	}

	amounts := []struct {
		name  string
		value *float64
	}{
		{"net_total", inv.NetTotal},
		{"tax_amount", inv.TaxAmount},
		{"gross_total", inv.GrossTotal},
	}
	for _, a := range amounts {
		if a.value == nil {
			continue
		}
		if !finite(*a.value) {
			errs = append(errs, nonFinite(a.name, *a.value))
			continue
		}
		if *a.value < 0 {
			errs = append(errs, types.ValidationError{
				Rule:     types.RuleFormat,
				Message:  fmt.Sprintf("%s is negative: %s", a.name, strconv.FormatFloat(*a.value, 'f', -1, 64)),
				Severity: types.SeverityError,
			})
		}
	}
	for i, item := range inv.LineItems {
		if !finite(item.LineTotal) {
			errs = append(errs, nonFinite(fmt.Sprintf("line_items[%d].line_total", i), item.LineTotal))
		}
	}

	return errs
}

// currencySet renders the known set as {'EUR', 'USD', ...}.
func (e *Engine) currencySet() string {
	quoted := make([]string, len(e.currencyList))
	for i, c := range e.currencyList {
		quoted[i] = "'" + c + "'"
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}

func nonFinite(name string, v float64) types.ValidationError {
	return types.ValidationError{
		Rule:     types.RuleFormat,
		Message:  fmt.Sprintf("%s is not a finite number: %s", name, strconv.FormatFloat(v, 'f', -1, 64)),
		Severity: types.SeverityError,
	}
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// finiteAll reports whether every present amount is finite.
func finiteAll(values ...*float64) bool {
	for _, v := range values {
		if v != nil && !finite(*v) {
			return false
		}
	}
	return true
}

// parseISODate accepts only YYYY-MM-DD calendar dates.
func parseISODate(s string) (time.Time, bool) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return time.Time{}, false
	}
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// =============================================================================
// BUSINESS RULES
// =============================================================================

// checkBusinessRules compares money with exact decimals so that boundary
// cases such as 100 + 19.02 against 119.00 are deterministic. Arithmetic that
// would involve a non-finite amount is skipped; checkFormats reports those.
func (e *Engine) checkBusinessRules(inv types.Invoice) []types.ValidationError {
	var errs []types.ValidationError

	if len(inv.LineItems) > 0 && inv.NetTotal != nil && finiteAll(inv.NetTotal) && lineTotalsFinite(inv.LineItems) {
		net := decimal.NewFromFloat(*inv.NetTotal)
		sum := decimal.Zero
		for _, item := range inv.LineItems {
			sum = sum.Add(decimal.NewFromFloat(item.LineTotal))
		}
		tolerance := net.Mul(e.lineTol)
		if sum.Sub(net).Abs().GreaterThan(tolerance) {
			errs = append(errs, types.ValidationError{
				Rule: types.RuleBusiness,
				Message: fmt.Sprintf("line_items sum (%s) does not match net_total (%s)",
					sum.StringFixed(2), net.StringFixed(2)),
				Severity: types.SeverityError,
			})
		}
	}

	if inv.NetTotal != nil && inv.TaxAmount != nil && inv.GrossTotal != nil &&
		finiteAll(inv.NetTotal, inv.TaxAmount, inv.GrossTotal) {
		net := decimal.NewFromFloat(*inv.NetTotal)
		tax := decimal.NewFromFloat(*inv.TaxAmount)
		gross := decimal.NewFromFloat(*inv.GrossTotal)
		if net.Add(tax).Sub(gross).Abs().GreaterThan(e.taxTol) {
			errs = append(errs, types.ValidationError{
				Rule: types.RuleBusiness,
				Message: fmt.Sprintf("tax calculation mismatch: net (%s) + tax (%s) != gross (%s)",
					net.StringFixed(2), tax.StringFixed(2), gross.StringFixed(2)),
				Severity: types.SeverityError,
			})
		}
	}

	invoiceDate, okInvoice := parseISODate(types.StringValue(inv.InvoiceDate))
	dueDate, okDue := parseISODate(types.StringValue(inv.DueDate))
	if okInvoice && okDue && dueDate.Before(invoiceDate) {
		errs = append(errs, types.ValidationError{
			Rule: types.RuleBusiness,
			Message: fmt.Sprintf("due_date (%s) is before invoice_date (%s)",
				*inv.DueDate, *inv.InvoiceDate),
			Severity: types.SeverityError,
		})
	}

	return errs
}

func lineTotalsFinite(items []types.LineItem) bool {
	for _, item := range items {
		if !finite(item.LineTotal) {
			return false
		}
	}
	return true
}

// =============================================================================
// ANOMALIES
// =============================================================================

func (e *Engine) checkAnomalies(inv types.Invoice, seen *SeenKeys) []types.ValidationError {
	var errs []types.ValidationError

	if key := duplicateKey(inv); key != "" && seen != nil && seen.Observe(key) {
		errs = append(errs, types.ValidationError{
			Rule:     types.RuleDuplicate,
			Message:  fmt.Sprintf("duplicate invoice detected: %s", *inv.InvoiceNumber),
			Severity: types.SeverityError,
		})
	}

	if inv.GrossTotal != nil && *inv.GrossTotal == 0 {
		errs = append(errs, types.ValidationError{
			Rule:     types.RuleAnomaly,
			Message:  "gross_total is zero, likely extraction error",
			Severity: types.SeverityWarning,
		})
	}

	return errs
}
