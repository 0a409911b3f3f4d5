// =============================================================================
// Invoice QC - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   invoiceqc validate --input FILE [--report FILE] [--xlsx FILE]
//
// Reads a JSON array of invoices, checks it against the input schema, runs
// the rule battery, prints a summary and saves the report. Exits with
// status 1 when any invoice is invalid.
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ginjaninja78/invoice-qc/internal/schema"
	"github.com/ginjaninja78/invoice-qc/internal/types"
	"github.com/ginjaninja78/invoice-qc/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	validateInput  string
	validateReport string
	validateXLSX   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate invoices from a JSON file and write a report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateInput, "input", "", "Input JSON file with extracted invoices")
	validateCmd.Flags().StringVar(&validateReport, "report", "", "Output report file (default: generated in output_dir)")
	validateCmd.Flags().StringVar(&validateXLSX, "xlsx", "", "Also write the report as an XLSX workbook")
	validateCmd.MarkFlagRequired("input")
}

func runValidate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating invoices from: %s\n", validateInput)

	if !utils.FileExists(validateInput) {
		return fmt.Errorf("input file not found: %s", validateInput)
	}
	data, err := os.ReadFile(validateInput)
	if err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if err := schema.ValidateInvoices(data); err != nil {
		return fmt.Errorf("%s: %w", validateInput, err)
	}

	var invoices []types.Invoice
	if err := json.Unmarshal(data, &invoices); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", validateInput, err)
	}

	rep := newEngine(appConfig).ValidateBatch(invoices)

	if err := writeReport(out, rep, resolveReportPath(appConfig, validateReport), validateXLSX); err != nil {
		return err
	}
	return invalidError(rep)
}
