package types

// =============================================================================
// SEVERITY LEVELS
// =============================================================================

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// =============================================================================
// RULE CATEGORIES
// =============================================================================

const (
	RuleCompleteness = "completeness"
	RuleFormat       = "format"
	RuleBusiness     = "business_rule"
	RuleDuplicate    = "duplicate"
	RuleAnomaly      = "anomaly"
)

// TimestampLayout is the report timestamp format: local time with
// microseconds and no zone suffix.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// =============================================================================
// VALIDATION RESULTS
// =============================================================================

// ValidationError is one rule violation found on an invoice.
type ValidationError struct {
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// InvoiceValidationResult holds every violation found on one invoice.
type InvoiceValidationResult struct {
	// InvoiceID is the invoice number, or "UNKNOWN" when absent.
	InvoiceID  string  `json:"invoice_id"`
	SourceFile *string `json:"source_file"`

	// IsValid is true only when Errors is empty. Warnings count.
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}

// ValidationSummary carries the batch counts and the error histogram.
type ValidationSummary struct {
	TotalInvoices   int            `json:"total_invoices"`
	ValidInvoices   int            `json:"valid_invoices"`
	InvalidInvoices int            `json:"invalid_invoices"`
	ErrorCounts     map[string]int `json:"error_counts"`
}

// ValidationReport is the outcome of validating one batch.
type ValidationReport struct {
	Summary   ValidationSummary         `json:"summary"`
	Results   []InvoiceValidationResult `json:"results"`
	Timestamp string                    `json:"timestamp"`
}
