package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/qdx-converter/internal/qdx"
)

func dirsYAML(root string) string {
	return "input_dir: " + filepath.Join(root, "in") + "\n" +
		"output_dir: " + filepath.Join(root, "out") + "\n" +
		"input_archive_dir: " + filepath.Join(root, "in_archive") + "\n" +
		"output_archive_dir: " + filepath.Join(root, "out_archive") + "\n"
}

func TestParseMainConfig_Defaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := ParseMainConfig([]byte(dirsYAML(root)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.MaxConcurrency != 4 || !cfg.ContinueOnError || !cfg.ArchiveInputs {
		t.Fatalf("processing defaults: %+v", cfg)
	}
	if !cfg.Parser.LoyaltyCardRequired || cfg.Parser.CouponsEnabled {
		t.Fatalf("parser defaults: %+v", cfg.Parser)
	}
	if cfg.Output.Format != "csv" || cfg.Output.Delimiter != "|" || cfg.Output.FileNameFormat != "{original}" {
		t.Fatalf("output defaults: %+v", cfg.Output)
	}
	if len(cfg.InputPatterns) != 2 || cfg.InputPatterns[0] != "*.qdx" {
		t.Fatalf("patterns = %v", cfg.InputPatterns)
	}
	for _, d := range []string{"in", "out", "in_archive", "out_archive"} {
		if _, err := os.Stat(filepath.Join(root, d)); err != nil {
			t.Errorf("directory %s not created: %v", d, err)
		}
	}
}

func TestParseMainConfig_Overrides(t *testing.T) {
	root := t.TempDir()
	yml := dirsYAML(root) + `
max_concurrency: 2
continue_on_error: false
archive_inputs: false
parser:
  loyalty_card_required: false
  coupons_enabled: true
  opcodes:
    "05": none
    "60/1b": location
output:
  format: XLSX
  delimiter: ","
  decimal_amounts: true
`
	cfg, err := ParseMainConfig([]byte(yml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.MaxConcurrency != 2 || cfg.ContinueOnError || cfg.ArchiveInputs {
		t.Fatalf("processing: %+v", cfg)
	}
	if cfg.Output.Format != "xlsx" {
		t.Fatalf("format = %q", cfg.Output.Format)
	}

	table, err := cfg.Parser.Table()
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if h := table.Lookup([]byte{qdx.OpCoupon}); h != qdx.HandlerCoupon {
		t.Errorf("coupon opcode -> %v", h)
	}
	if h := table.Lookup([]byte{qdx.OpTotal}); h != qdx.HandlerNone {
		t.Errorf("total opcode -> %v", h)
	}
	if h := table.Lookup([]byte{qdx.OpExtended, qdx.SubOpClubcard}); h != qdx.HandlerLocation {
		t.Errorf("60/1B -> %v", h)
	}

	opts, err := cfg.Parser.Options()
	if err != nil || opts.LoyaltyCardRequired {
		t.Fatalf("options: %+v, %v", opts, err)
	}

	eo, err := cfg.Output.ExportOptions()
	if err != nil || eo.Delimiter != ',' || !eo.DecimalAmounts {
		t.Fatalf("export options: %+v, %v", eo, err)
	}
}

func TestParseMainConfig_Invalid(t *testing.T) {
	root := t.TempDir()
	cases := map[string]string{
		"bad yaml":        "input_dir: [",
		"bad concurrency": "max_concurrency: -1",
		"bad format":      "output:\n  format: pdf",
		"bad delimiter":   "output:\n  delimiter: \"||\"",
		"bad opcode":      "parser:\n  opcodes:\n    \"zz\": total",
		"bad handler":     "parser:\n  opcodes:\n    \"05\": refund",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseMainConfig([]byte(dirsYAML(root) + body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadMainConfig_FromFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "config.yaml")
	if err := os.WriteFile(path, []byte(dirsYAML(root)+"log_level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadMainConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.LogMode != "dev" {
		t.Fatalf("logging = %q/%q", cfg.LogLevel, cfg.LogMode)
	}
}

func TestLoadMainConfig_Missing(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadMainConfigOrDefault_Missing(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	if err := os.Chdir(root); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := LoadMainConfigOrDefault(filepath.Join(root, "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InputDir != "./input" {
		t.Fatalf("input dir = %q", cfg.InputDir)
	}
	if _, err := os.Stat(filepath.Join(root, "input")); err != nil {
		t.Fatalf("default input dir not created: %v", err)
	}
}
