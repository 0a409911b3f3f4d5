// =============================================================================
// Invoice QC - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file and lets
// environment variables override selected settings.
//
// LOAD ORDER:
//   1. Read and parse the YAML file (optional when the path is the default)
//   2. Apply environment overrides (INVOICEQC_*)
//   3. Apply default values for anything still unset
//   4. Validate
//
// ENVIRONMENT OVERRIDES:
//   INVOICEQC_LOG_LEVEL        -> log_level
//   INVOICEQC_LOG_FORMAT       -> log_format
//   INVOICEQC_MAX_CONCURRENCY  -> max_concurrency
//   INVOICEQC_PDF_BACKEND      -> pdf.backend
//   INVOICEQC_SERVER_ADDR      -> server.addr
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is used when --config is not given.
const DefaultConfigFile = "config.yaml"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for invoice documents when --pdf-dir is omitted.
	// Default: "./pdfs"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives generated reports and error logs.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputPatterns are glob patterns matched against file names in the
	// input directory. Discovery is not recursive.
	// Default: ["*.pdf"]
	InputPatterns []string `yaml:"input_patterns"`

	// ReportNameFormat names reports written without an explicit --report.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	// Default: "report_{timestamp}_{uuid}.json"
	ReportNameFormat string `yaml:"report_name_format"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the slog handler: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of documents extracted at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// PDF configures document-to-text conversion.
	PDF PDFConfig `yaml:"pdf"`

	// Validation tunes the rule engine.
	Validation ValidationConfig `yaml:"validation"`

	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server"`
}

// PDFConfig selects the PDF text backend.
type PDFConfig struct {
	// Backend is "pdftotext" (external poppler tool) or "native".
	// Default: "pdftotext"
	Backend string `yaml:"backend"`

	// PdftotextPath is the pdftotext binary.
	// Default: "pdftotext"
	PdftotextPath string `yaml:"pdftotext_path"`

	// Layout keeps the physical layout of the page (-layout).
	// Default: true
	Layout *bool `yaml:"layout"`

	// MaxPages limits pages read per document; 0 reads all.
	MaxPages int `yaml:"max_pages"`
}

// ValidationConfig tunes the rule battery.
type ValidationConfig struct {
	// KnownCurrencies is the accepted currency set.
	// Default: [EUR, USD, GBP, INR, JPY, CHF]
	KnownCurrencies []string `yaml:"known_currencies"`

	// DateSentinels are date values exempt from the ISO check.
	// Default: [sofort, ASAP]
	DateSentinels []string `yaml:"date_sentinels"`

	// LineTotalTolerance is a fraction of net_total. An explicit 0 demands
	// an exact match.
	// Default: 0.01
	LineTotalTolerance *float64 `yaml:"line_total_tolerance"`

	// TaxTolerance is an absolute amount. An explicit 0 demands an exact
	// match.
	// Default: 0.02
	TaxTolerance *float64 `yaml:"tax_tolerance"`
}

const (
	defaultLineTotalTolerance = 0.01
	defaultTaxTolerance       = 0.02
)

// Tolerances returns the line-sum and tax tolerances, using the defaults
// for unset values.
func (v ValidationConfig) Tolerances() (line, tax float64) {
	line, tax = defaultLineTotalTolerance, defaultTaxTolerance
	if v.LineTotalTolerance != nil {
		line = *v.LineTotalTolerance
	}
	if v.TaxTolerance != nil {
		tax = *v.TaxTolerance
	}
	return line, tax
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8000"
	Addr string `yaml:"addr"`

	// AllowedOrigins lists CORS origins; "*" allows any.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxUploadMB bounds multipart uploads.
	// Default: 32
	MaxUploadMB int64 `yaml:"max_upload_mb"`
}

// LayoutEnabled reports whether pdftotext runs with -layout.
func (p PDFConfig) LayoutEnabled() bool {
	return p.Layout == nil || *p.Layout
}

// =============================================================================
// LOADING
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyEnvOverrides(cfg)
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration file.
//
// PARAMETERS:
//   - configPath: Path to the YAML file.
//   - required: When false, a missing file yields the defaults.
//
// RETURNS:
//   - The loaded configuration.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string, required bool) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if err := validateMainConfig(cfg); err != nil {
				return nil, fmt.Errorf("invalid configuration: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyMainConfigDefaults(&cfg)

	if err := validateMainConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides lets INVOICEQC_* variables replace file settings.
func applyEnvOverrides(cfg *MainConfig) {
	cfg.LogLevel = getEnv("INVOICEQC_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("INVOICEQC_LOG_FORMAT", cfg.LogFormat)
	cfg.MaxConcurrency = getEnvAsInt("INVOICEQC_MAX_CONCURRENCY", cfg.MaxConcurrency)
	cfg.PDF.Backend = getEnv("INVOICEQC_PDF_BACKEND", cfg.PDF.Backend)
	cfg.Server.Addr = getEnv("INVOICEQC_SERVER_ADDR", cfg.Server.Addr)
}

// applyMainConfigDefaults sets default values for any unset options.
func applyMainConfigDefaults(cfg *MainConfig) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./pdfs"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if len(cfg.InputPatterns) == 0 {
		cfg.InputPatterns = []string{"*.pdf"}
	}
	if cfg.ReportNameFormat == "" {
		cfg.ReportNameFormat = "report_{timestamp}_{uuid}.json"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4
	}

	if cfg.PDF.Backend == "" {
		cfg.PDF.Backend = "pdftotext"
	}
	if cfg.PDF.PdftotextPath == "" {
		cfg.PDF.PdftotextPath = "pdftotext"
	}

	if len(cfg.Validation.KnownCurrencies) == 0 {
		cfg.Validation.KnownCurrencies = []string{"EUR", "USD", "GBP", "INR", "JPY", "CHF"}
	}
	if cfg.Validation.DateSentinels == nil {
		cfg.Validation.DateSentinels = []string{"sofort", "ASAP"}
	}
	if cfg.Validation.LineTotalTolerance == nil {
		v := defaultLineTotalTolerance
		cfg.Validation.LineTotalTolerance = &v
	}
	if cfg.Validation.TaxTolerance == nil {
		v := defaultTaxTolerance
		cfg.Validation.TaxTolerance = &v
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
}

// validateMainConfig rejects settings the application cannot run with.
func validateMainConfig(cfg *MainConfig) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", cfg.LogLevel)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q must be text or json", cfg.LogFormat)
	}
	switch strings.ToLower(cfg.PDF.Backend) {
	case "pdftotext", "native":
	default:
		return fmt.Errorf("pdf.backend %q must be pdftotext or native", cfg.PDF.Backend)
	}
	if cfg.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", cfg.MaxConcurrency)
	}
	if cfg.PDF.MaxPages < 0 {
		return fmt.Errorf("pdf.max_pages must not be negative")
	}
	line, tax := cfg.Validation.Tolerances()
	for name, v := range map[string]float64{"line_total_tolerance": line, "tax_tolerance": tax} {
		if v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("validation.%s must be a finite non-negative number, got %v", name, v)
		}
	}
	if cfg.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must not be negative")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT HELPERS
// =============================================================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
