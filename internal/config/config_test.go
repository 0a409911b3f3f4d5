package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMainConfigDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(writeConfig(t, "input_dir: ./invoices\n"), true)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}
	if cfg.InputDir != "./invoices" {
		t.Errorf("input_dir = %q", cfg.InputDir)
	}
	if cfg.OutputDir != "./output" || cfg.MaxConcurrency != 4 || cfg.LogLevel != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.InputPatterns, []string{"*.pdf"}) {
		t.Errorf("input_patterns = %v", cfg.InputPatterns)
	}
	if !cfg.PDF.LayoutEnabled() {
		t.Error("layout should default to true")
	}
	if line, tax := cfg.Validation.Tolerances(); tax != 0.02 || line != 0.01 {
		t.Errorf("tolerances = %v, %v", line, tax)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("server.addr = %q", cfg.Server.Addr)
	}
}

func TestLoadMainConfigValues(t *testing.T) {
	body := `
log_level: debug
log_format: json
max_concurrency: 2
pdf:
  backend: native
  layout: false
validation:
  known_currencies: [EUR]
  date_sentinels: []
server:
  addr: ":9000"
  allowed_origins: ["http://localhost:3000"]
`
	cfg, err := LoadMainConfig(writeConfig(t, body), true)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}
	if cfg.PDF.Backend != "native" || cfg.PDF.LayoutEnabled() {
		t.Errorf("pdf = %+v", cfg.PDF)
	}
	if !reflect.DeepEqual(cfg.Validation.KnownCurrencies, []string{"EUR"}) {
		t.Errorf("known_currencies = %v", cfg.Validation.KnownCurrencies)
	}
	if cfg.Validation.DateSentinels == nil || len(cfg.Validation.DateSentinels) != 0 {
		t.Errorf("explicit empty sentinels replaced: %v", cfg.Validation.DateSentinels)
	}
	if cfg.Server.Addr != ":9000" || cfg.MaxConcurrency != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMainConfigMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	if _, err := LoadMainConfig(missing, true); err == nil {
		t.Error("expected error for a required missing file")
	}
	cfg, err := LoadMainConfig(missing, false)
	if err != nil {
		t.Fatalf("optional missing file: %v", err)
	}
	if cfg.PDF.Backend != "pdftotext" {
		t.Errorf("backend = %q", cfg.PDF.Backend)
	}
}

func TestLoadMainConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":      "log_level: [",
		"bad level":     "log_level: loud\n",
		"bad backend":   "pdf:\n  backend: ocr\n",
		"bad parallel":  "max_concurrency: -1\n",
		"bad tolerance": "validation:\n  tax_tolerance: -0.5\n",
		"inf tolerance": "validation:\n  line_total_tolerance: .inf\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadMainConfig(writeConfig(t, body), true); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExplicitZeroTolerance(t *testing.T) {
	cfg, err := LoadMainConfig(writeConfig(t, "validation:\n  tax_tolerance: 0\n"), true)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}
	line, tax := cfg.Validation.Tolerances()
	if tax != 0 {
		t.Errorf("explicit tax_tolerance 0 replaced by %v", tax)
	}
	if line != 0.01 {
		t.Errorf("line_total_tolerance = %v, want default 0.01", line)
	}

	if line, tax := (ValidationConfig{}).Tolerances(); line != 0.01 || tax != 0.02 {
		t.Errorf("unset tolerances = %v, %v", line, tax)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INVOICEQC_LOG_LEVEL", "warn")
	t.Setenv("INVOICEQC_SERVER_ADDR", ":7000")
	t.Setenv("INVOICEQC_MAX_CONCURRENCY", "8")

	cfg, err := LoadMainConfig(writeConfig(t, "log_level: debug\n"), true)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}
	if cfg.LogLevel != "warn" || cfg.Server.Addr != ":7000" || cfg.MaxConcurrency != 8 {
		t.Errorf("overrides not applied: level=%q addr=%q conc=%d", cfg.LogLevel, cfg.Server.Addr, cfg.MaxConcurrency)
	}
}
