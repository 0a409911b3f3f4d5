// =============================================================================
// Invoice QC - Report Aggregator
// =============================================================================
//
// This module folds per-invoice validation results into a batch report:
// total, valid and invalid counts plus a histogram of error keys.
//
// ERROR KEY:
//   "<rule>:<first whitespace-delimited word of the message>"
//   e.g. "completeness:invoice_number", "business_rule:tax"
//   An empty message yields "<rule>:".
//
// OUTPUTS:
//   - Aggregate      : builds the ValidationReport
//   - WriteSummary   : human-readable console summary (summary.go)
//   - WriteWorkbook  : XLSX export (xlsx.go)
//
// =============================================================================

package report

import (
	"sort"
	"strings"
	"time"

	"github.com/ginjaninja78/invoice-qc/internal/types"
)

// ErrorKey returns the histogram key for one violation.
func ErrorKey(e types.ValidationError) string {
	first := ""
	if fields := strings.Fields(e.Message); len(fields) > 0 {
		first = fields[0]
	}
	return e.Rule + ":" + first
}

// Aggregate builds a report over results, keeping their order, stamped
// with now formatted as local ISO time with microseconds.
func Aggregate(results []types.InvoiceValidationResult, now time.Time) types.ValidationReport {
	if results == nil {
		results = []types.InvoiceValidationResult{}
	}

	summary := types.ValidationSummary{
		TotalInvoices: len(results),
		ErrorCounts:   make(map[string]int),
	}
	for _, r := range results {
		if r.IsValid {
			summary.ValidInvoices++
		}
		for _, e := range r.Errors {
			summary.ErrorCounts[ErrorKey(e)]++
		}
	}
	summary.InvalidInvoices = summary.TotalInvoices - summary.ValidInvoices

	return types.ValidationReport{
		Summary:   summary,
		Results:   results,
		Timestamp: now.Local().Format(types.TimestampLayout),
	}
}

// KeyCount is one histogram entry.
type KeyCount struct {
	Key   string
	Count int
}

// TopErrors returns up to n histogram entries, highest count first. Ties
// are ordered by key. n <= 0 returns all entries.
func TopErrors(summary types.ValidationSummary, n int) []KeyCount {
	out := make([]KeyCount, 0, len(summary.ErrorCounts))
	for k, c := range summary.ErrorCounts {
		out = append(out, KeyCount{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
