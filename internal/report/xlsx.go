package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ginjaninja78/invoice-qc/internal/types"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetSummary = "Summary"
	SheetResults = "Results"
	SheetErrors  = "Errors"
)

// BuildWorkbook renders rep as an XLSX workbook with three sheets:
//   - Summary : batch counts followed by the error histogram
//   - Results : one row per invoice
//   - Errors  : one row per violation
func BuildWorkbook(rep types.ValidationReport) (*excelize.File, error) {
	f := excelize.NewFile()

	// NewFile starts with "Sheet1"; rename it rather than leave it empty.
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, sheet := range []string{SheetResults, SheetErrors} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}

	summaryRows := [][]any{
		{"Generated", rep.Timestamp},
		{"Total invoices", rep.Summary.TotalInvoices},
		{"Valid invoices", rep.Summary.ValidInvoices},
		{"Invalid invoices", rep.Summary.InvalidInvoices},
		{},
		{"Error key", "Count"},
	}
	for _, kc := range TopErrors(rep.Summary, 0) {
		summaryRows = append(summaryRows, []any{kc.Key, kc.Count})
	}
	if err := writeRows(f, SheetSummary, summaryRows); err != nil {
		return nil, err
	}

	resultRows := [][]any{{"Invoice ID", "Source File", "Valid", "Violations"}}
	errorRows := [][]any{{"Invoice ID", "Source File", "Rule", "Severity", "Message"}}
	for _, r := range rep.Results {
		src := types.StringValue(r.SourceFile)
		resultRows = append(resultRows, []any{r.InvoiceID, src, r.IsValid, len(r.Errors)})
		for _, e := range r.Errors {
			errorRows = append(errorRows, []any{r.InvoiceID, src, e.Rule, e.Severity, e.Message})
		}
	}
	if err := writeRows(f, SheetResults, resultRows); err != nil {
		return nil, err
	}
	if err := writeRows(f, SheetErrors, errorRows); err != nil {
		return nil, err
	}

	if err := setColumnWidths(f); err != nil {
		return nil, err
	}

	if idx, err := f.GetSheetIndex(SheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// columnWidths lists the fixed widths applied to each sheet.
var columnWidths = []struct {
	sheet, first, last string
	width              float64
}{
	{SheetSummary, "A", "A", 40},
	{SheetSummary, "B", "B", 28},
	{SheetResults, "A", "B", 24},
	{SheetErrors, "A", "B", 24},
	{SheetErrors, "C", "D", 14},
	{SheetErrors, "E", "E", 70},
}

// setColumnWidths applies columnWidths and stops at the first failure.
func setColumnWidths(f *excelize.File) error {
	for _, w := range columnWidths {
		if err := f.SetColWidth(w.sheet, w.first, w.last, w.width); err != nil {
			return fmt.Errorf("set column width %s!%s:%s: %w", w.sheet, w.first, w.last, err)
		}
	}
	return nil
}

// WriteWorkbook renders rep and returns the XLSX bytes.
func WriteWorkbook(rep types.ValidationReport) ([]byte, error) {
	f, err := BuildWorkbook(rep)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveWorkbook writes the XLSX export of rep to path.
func SaveWorkbook(rep types.ValidationReport, path string) error {
	data, err := WriteWorkbook(rep)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
