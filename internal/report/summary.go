package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ginjaninja78/invoice-qc/internal/types"
)

// topErrorLimit bounds the histogram printed in the console summary.
const topErrorLimit = 10

// WriteSummary prints the batch summary: counts, the most frequent error
// keys, then every invalid invoice with its violations.
//
// OUTPUT FORMAT:
//   === Validation Summary ===
//   Total invoices:   3
//   Valid:            2
//   Invalid:          1
//
//   Top errors:
//     completeness:buyer_name  1
//
//   Invalid invoices:
//     UNKNOWN (b.pdf)
//       [completeness] invoice_number is missing or empty
func WriteSummary(w io.Writer, rep types.ValidationReport) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "=== Validation Summary ===")
	fmt.Fprintf(bw, "Total invoices:   %d\n", rep.Summary.TotalInvoices)
	fmt.Fprintf(bw, "Valid:            %d\n", rep.Summary.ValidInvoices)
	fmt.Fprintf(bw, "Invalid:          %d\n", rep.Summary.InvalidInvoices)

	if top := TopErrors(rep.Summary, topErrorLimit); len(top) > 0 {
		fmt.Fprintln(bw, "\nTop errors:")
		for _, kc := range top {
			fmt.Fprintf(bw, "  %-40s %d\n", kc.Key, kc.Count)
		}
	}

	if rep.Summary.InvalidInvoices > 0 {
		fmt.Fprintln(bw, "\nInvalid invoices:")
		for _, r := range rep.Results {
			if r.IsValid {
				continue
			}
			fmt.Fprintf(bw, "  %s (%s)\n", r.InvoiceID, sourceName(r.SourceFile))
			for _, e := range r.Errors {
				fmt.Fprintf(bw, "    [%s] %s\n", e.Rule, e.Message)
			}
		}
	}

	return bw.Flush()
}

func sourceName(p *string) string {
	if p == nil || *p == "" {
		return "unknown source"
	}
	return *p
}
