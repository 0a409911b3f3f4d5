// =============================================================================
// Invoice QC - Full Run Command
// =============================================================================
//
// COMMAND USAGE:
//   invoiceqc full-run --pdf-dir DIR [--report FILE] [--save-extracted] [--xlsx FILE]
//
// PROCESSING PIPELINE:
//   1. Discover documents in the PDF directory
//   2. Extract each document concurrently
//   3. Validate the batch
//   4. Print the summary and save the report
//   5. Optionally save the extracted invoices beside the report
//   6. Log unreadable documents to the output directory
//
// Exits with status 1 when nothing was extracted or any invoice is invalid.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/ginjaninja78/invoice-qc/internal/pipeline"
	"github.com/ginjaninja78/invoice-qc/pkg/utils"
	"github.com/spf13/cobra"
)

// extractedSuffix names the companion file written by --save-extracted.
const extractedSuffix = "_extracted"

var (
	fullRunPDFDir        string
	fullRunReport        string
	fullRunXLSX          string
	fullRunSaveExtracted bool
)

var fullRunCmd = &cobra.Command{
	Use:   "full-run",
	Short: "Extract invoices from PDFs and validate them in one go",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFullRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(fullRunCmd)

	fullRunCmd.Flags().StringVar(&fullRunPDFDir, "pdf-dir", "", "Directory containing invoice PDFs (default: input_dir)")
	fullRunCmd.Flags().StringVar(&fullRunReport, "report", "", "Output report file (default: generated in output_dir)")
	fullRunCmd.Flags().StringVar(&fullRunXLSX, "xlsx", "", "Also write the report as an XLSX workbook")
	fullRunCmd.Flags().BoolVar(&fullRunSaveExtracted, "save-extracted", false, "Also save the extracted invoices as JSON")
}

func runFullRun(cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	dir := fullRunPDFDir
	if dir == "" {
		dir = appConfig.InputDir
	}

	p, err := newPipeline(appConfig)
	if err != nil {
		return err
	}
	if err := utils.NewFileManager(dir, appConfig.OutputDir).EnsureOutputDir(); err != nil {
		return err
	}

	fmt.Fprintln(out, "=== Invoice QC: Extract -> Validate ===")

	// =========================================================================
	// STEP 1: EXTRACT AND VALIDATE
	// =========================================================================

	res, err := p.Run(cmd.Context(), dir)
	writeFailureLog(out, appConfig, res.Failures)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoInvoices) {
			return fmt.Errorf("%s: %w", dir, err)
		}
		return err
	}
	fmt.Fprintf(out, "Extracted %d of %d document(s)\n", res.Stats.Extracted, res.Stats.Documents)

	// =========================================================================
	// STEP 2: WRITE OUTPUTS
	// =========================================================================

	reportPath := resolveReportPath(appConfig, fullRunReport)
	if err := writeReport(out, res.Report, reportPath, fullRunXLSX); err != nil {
		return err
	}

	if fullRunSaveExtracted {
		extractedPath := utils.SidecarPath(reportPath, extractedSuffix)
		if err := utils.WriteJSONFile(extractedPath, res.Invoices); err != nil {
			return fmt.Errorf("save extracted invoices: %w", err)
		}
		fmt.Fprintf(out, "Extracted data saved to: %s\n", extractedPath)
	}

	logger.Info("full run finished", "elapsed_ms", time.Since(startTime).Milliseconds())
	return invalidError(res.Report)
}
