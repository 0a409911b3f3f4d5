// =============================================================================
// Invoice QC - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Invoice QC CLI application. It hands
// control to the Cobra commands in the cmd package.
//
// USAGE:
//   invoiceqc extract   - Extract invoices from PDFs to JSON
//   invoiceqc validate  - Validate invoices from JSON and write a report
//   invoiceqc full-run  - Extract and validate in one go
//   invoiceqc serve     - Start the HTTP API
//   invoiceqc version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/                : CLI command definitions (Cobra)
//   - internal/pdftext    : Document to text conversion
//   - internal/extractor  : Field, party and line-item extraction
//   - internal/validation : Rule engine
//   - internal/report     : Aggregation, summaries and workbooks
//   - internal/pipeline   : Directory runs
//   - internal/server     : HTTP API (gin)
//   - pkg/utils           : File management
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/invoice-qc/cmd"
)

func main() {
	cmd.Execute()
}
