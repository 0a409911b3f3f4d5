package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/invoice-qc/internal/config"
	"github.com/ginjaninja78/invoice-qc/internal/pipeline"
	"github.com/ginjaninja78/invoice-qc/internal/report"
	"github.com/ginjaninja78/invoice-qc/internal/types"
	"github.com/ginjaninja78/invoice-qc/pkg/utils"
)

// =============================================================================
// SHARED OUTPUT HELPERS
// =============================================================================

// resolveReportPath returns path, or a generated name inside output_dir.
func resolveReportPath(cfg *config.MainConfig, path string) string {
	if path != "" {
		return path
	}
	return filepath.Join(cfg.OutputDir, utils.GenerateOutputFileName(cfg.ReportNameFormat, nil))
}

// writeReport prints the summary to w and saves the JSON report, plus the
// workbook when xlsxPath is set.
func writeReport(w io.Writer, rep types.ValidationReport, reportPath, xlsxPath string) error {
	if err := report.WriteSummary(w, rep); err != nil {
		return fmt.Errorf("print summary: %w", err)
	}

	if err := utils.WriteJSONFile(reportPath, rep); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	fmt.Fprintf(w, "\nFull report saved to: %s\n", reportPath)

	if xlsxPath != "" {
		if err := report.SaveWorkbook(rep, xlsxPath); err != nil {
			return fmt.Errorf("save workbook: %w", err)
		}
		fmt.Fprintf(w, "Workbook saved to:    %s\n", xlsxPath)
	}
	return nil
}

// writeFailureLog records extraction failures in output_dir.
func writeFailureLog(w io.Writer, cfg *config.MainConfig, failures []pipeline.FileFailure) {
	if len(failures) == 0 {
		return
	}
	path, err := utils.WriteErrorLog(pipeline.ErrorLogEntries(failures, time.Now()), cfg.OutputDir)
	if err != nil {
		logger.Error("failed to write error log", "error", err)
		return
	}
	fmt.Fprintf(w, "%d document(s) could not be read, see %s\n", len(failures), path)
}

// invalidError returns ErrInvalidInvoices when the report has invalid invoices.
func invalidError(rep types.ValidationReport) error {
	if rep.Summary.InvalidInvoices > 0 {
		return fmt.Errorf("%d of %d invoice(s) failed validation: %w",
			rep.Summary.InvalidInvoices, rep.Summary.TotalInvoices, pipeline.ErrInvalidInvoices)
	}
	return nil
}
