package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/qdx-converter/internal/qdx/qdxtest"
)

// execute runs the CLI with fresh flag values and captures its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	parseFile, parseFormat = "", ""
	dryRun, allTickets, withCoupons = false, false, false
	inspectFile, inspectLimit = "", 0

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// setup writes a config rooted in a temp dir and one log in its input dir.
func setup(t *testing.T) (cfgPath, logPath, root string) {
	t.Helper()
	root = t.TempDir()
	cfg := "input_dir: " + filepath.Join(root, "in") + "\n" +
		"output_dir: " + filepath.Join(root, "out") + "\n" +
		"input_archive_dir: " + filepath.Join(root, "in_archive") + "\n" +
		"output_archive_dir: " + filepath.Join(root, "out_archive") + "\n" +
		"log_level: error\n"
	cfgPath = filepath.Join(root, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "in"), 0755); err != nil {
		t.Fatal(err)
	}

	s := qdxtest.TailSpec{POSNumber: 7, TicketNumber: 70}
	upc := [7]byte{0, 0, 0, 0, 0, 0, 0x42}
	stream := qdxtest.Stream(
		qdxtest.Slot(qdxtest.Location("ST01"), s),
		qdxtest.Slot(qdxtest.LineItem(upc, 1, 250, 250), s),
		qdxtest.Slot(qdxtest.Total(qdxtest.TotalSpec{ItemCount: 1, Amount: 250}), s),
	)
	logPath = filepath.Join(root, "in", "POS7.qdx")
	if err := os.WriteFile(logPath, stream, 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, logPath, root
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil || !strings.Contains(out, "QDX Converter") || !strings.Contains(out, "Version:") {
		t.Fatalf("out = %q, err = %v", out, err)
	}
}

func TestInspect_Limit(t *testing.T) {
	cfgPath, logPath, _ := setup(t)
	out, err := execute(t, "inspect", "--config", cfgPath, "--file", logPath, "--limit", "2")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "location") || !strings.Contains(out, "7_70") {
		t.Fatalf("missing slot rows:\n%s", out)
	}
	if strings.Contains(out, "total") {
		t.Fatalf("limit not honoured:\n%s", out)
	}
	if !strings.Contains(out, "slots 2,") {
		t.Fatalf("missing stats line:\n%s", out)
	}
}

func TestParse_DryRunThenExport(t *testing.T) {
	cfgPath, logPath, root := setup(t)

	// Without a loyalty card the only ticket is rejected.
	out, err := execute(t, "parse", "--config", cfgPath, "--dry-run")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out, "POS7.qdx: 0 ticket(s), 1 rejected") {
		t.Fatalf("dry run output:\n%s", out)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Fatalf("dry run moved the log: %v", err)
	}

	out, err = execute(t, "parse", "--config", cfgPath, "--file", logPath, "--all-tickets", "--format", "xml")
	if err != nil {
		t.Fatalf("parse: %v\n%s", err, out)
	}
	body, err := os.ReadFile(filepath.Join(root, "out", "POS7.xml"))
	if err != nil {
		t.Fatalf("output missing: %v\n%s", err, out)
	}
	if !strings.Contains(string(body), "<TicketID>7_70</TicketID>") {
		t.Fatalf("xml:\n%s", body)
	}
	if _, err := os.Stat(filepath.Join(root, "in_archive", "POS7.qdx")); err != nil {
		t.Fatalf("log not archived: %v", err)
	}
	summaries, _ := filepath.Glob(filepath.Join(root, "out_archive", "processing_summary_*.txt"))
	if len(summaries) != 1 {
		t.Fatalf("summaries = %v", summaries)
	}
}

func TestParse_BadFormat(t *testing.T) {
	cfgPath, _, _ := setup(t)
	if _, err := execute(t, "parse", "--config", cfgPath, "--format", "pdf"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInspect_InvalidTimestampShowsDigits(t *testing.T) {
	cfgPath, _, root := setup(t)
	s := qdxtest.TailSpec{POSNumber: 3, TicketNumber: 9, Digits: &[12]uint8{9, 9, 1, 3, 0, 1}}
	path := filepath.Join(root, "bad.qdx")
	if err := os.WriteFile(path, qdxtest.Slot(qdxtest.Location("ST01"), s), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "inspect", "--config", cfgPath, "--file", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "invalid 991301000000") {
		t.Fatalf("missing raw digits:\n%s", out)
	}
}
