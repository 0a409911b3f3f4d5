// =============================================================================
// Invoice QC - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (invoiceqc)
//   ├── extractCmd  (invoiceqc extract)
//   ├── validateCmd (invoiceqc validate)
//   ├── fullRunCmd  (invoiceqc full-run)
//   ├── serveCmd    (invoiceqc serve)
//   └── versionCmd  (invoiceqc version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads an optional .env file
//   2. Loads config.yaml (required only when --config is given explicitly)
//   3. Sets up the slog logger on stderr
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ginjaninja78/invoice-qc/internal/config"
	"github.com/ginjaninja78/invoice-qc/internal/extractor"
	"github.com/ginjaninja78/invoice-qc/internal/pdftext"
	"github.com/ginjaninja78/invoice-qc/internal/pipeline"
	"github.com/ginjaninja78/invoice-qc/internal/validation"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// appConfig and logger are set by the root PersistentPreRunE.
var (
	appConfig *config.MainConfig
	logger    *slog.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "invoiceqc",
	Short: "Invoice QC - extract and validate invoice data from PDFs",
	Long: `Invoice QC extracts structured data from German-language B2B invoice PDFs
and checks it against a battery of data-quality rules.

Key Features:
  - Field, party and line-item extraction from invoice text
  - Completeness, format, business-rule and anomaly checks
  - Batch-scoped duplicate detection
  - JSON, text and XLSX reports
  - HTTP API for uploads and JSON validation

Example Usage:
  invoiceqc extract --pdf-dir pdfs --output invoices.json
  invoiceqc validate --input invoices.json --report report.json
  invoiceqc full-run --pdf-dir pdfs --report report.json --save-extracted
  invoiceqc serve --addr :8000`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initConfig loads .env and the configuration, then builds the logger.
func initConfig(cmd *cobra.Command) error {
	// A missing .env is normal; the process environment is used as is.
	_ = godotenv.Load()

	cfg, err := config.LoadMainConfig(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	appConfig = cfg
	logger = newLogger(cfg, verbose)
	slog.SetDefault(logger)

	logger.Debug("configuration loaded", "config", cfgFile, "backend", cfg.PDF.Backend)
	return nil
}

// newLogger builds the stderr logger described by cfg.
func newLogger(cfg *config.MainConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// =============================================================================
// COMPONENT CONSTRUCTION
// =============================================================================

// newEngine builds the rule engine from the validation settings.
func newEngine(cfg *config.MainConfig) *validation.Engine {
	line, tax := cfg.Validation.Tolerances()
	return validation.NewEngine(validation.Options{
		KnownCurrencies:    cfg.Validation.KnownCurrencies,
		DateSentinels:      cfg.Validation.DateSentinels,
		LineTotalTolerance: decimal.NewFromFloat(line),
		TaxTolerance:       decimal.NewFromFloat(tax),
	}, logger)
}

// newPipeline wires the text source, extractor and engine.
func newPipeline(cfg *config.MainConfig) (*pipeline.Pipeline, error) {
	src, err := pdftext.New(pdftext.Options{
		Backend:       cfg.PDF.Backend,
		PdftotextPath: cfg.PDF.PdftotextPath,
		Layout:        cfg.PDF.LayoutEnabled(),
		MaxPages:      cfg.PDF.MaxPages,
	}, logger)
	if err != nil {
		return nil, err
	}

	return pipeline.New(
		extractor.New(src, logger),
		newEngine(cfg),
		pipeline.Options{
			Patterns:       cfg.InputPatterns,
			MaxConcurrency: cfg.MaxConcurrency,
		},
		logger,
	), nil
}
