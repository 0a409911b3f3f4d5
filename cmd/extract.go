// =============================================================================
// Invoice QC - Extract Command
// =============================================================================
//
// COMMAND USAGE:
//   invoiceqc extract --pdf-dir DIR --output FILE
//
// Extracts every matching document in the directory and writes the invoices
// as a JSON array. Exits with status 1 when nothing could be extracted.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/ginjaninja78/invoice-qc/internal/pipeline"
	"github.com/ginjaninja78/invoice-qc/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	extractPDFDir string
	extractOutput string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract invoice data from PDFs to JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractPDFDir, "pdf-dir", "", "Directory containing invoice PDFs (default: input_dir)")
	extractCmd.Flags().StringVar(&extractOutput, "output", "invoices.json", "Output JSON file")
}

func runExtract(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	dir := extractPDFDir
	if dir == "" {
		dir = appConfig.InputDir
	}

	p, err := newPipeline(appConfig)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Extracting invoices from: %s\n", dir)

	ext, err := p.ExtractDirectory(cmd.Context(), dir)
	if err != nil {
		return err
	}
	writeFailureLog(out, appConfig, ext.Failures)
	if len(ext.Invoices) == 0 {
		return fmt.Errorf("%s: %w", dir, pipeline.ErrNoInvoices)
	}

	if err := utils.WriteJSONFile(extractOutput, ext.Invoices); err != nil {
		return fmt.Errorf("save invoices: %w", err)
	}

	fmt.Fprintf(out, "Extracted %d invoice(s) in %s\n", len(ext.Invoices), ext.Stats.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "Saved to: %s\n", extractOutput)
	return nil
}
