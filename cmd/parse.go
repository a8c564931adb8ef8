// =============================================================================
// QDX Converter - Parse Command
// =============================================================================
//
// This file defines the 'parse' command, which converts QDX logs into ticket
// exports.
//
// COMMAND USAGE:
//   qdx parse [flags]
//
// FLAGS:
//   --file        : Process one log instead of the input directory
//   --format      : Override output.format (csv, xlsx, xml)
//   --dry-run     : Scan and report without writing or archiving
//   --all-tickets : Keep tickets without a loyalty card
//   --coupons     : Fold coupon records into tickets
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Discover QDX logs in the input directory (or take --file)
//   3. Convert logs concurrently, max_concurrency at a time
//   4. Print per-file results
//   5. Write a processing summary to the output archive directory
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/qdx-converter/internal/config"
	"github.com/ginjaninja78/qdx-converter/internal/converter"
	"github.com/ginjaninja78/qdx-converter/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	parseFile   string
	parseFormat string
	dryRun      bool
	allTickets  bool
	withCoupons bool
)

// =============================================================================
// PARSE COMMAND DEFINITION
// =============================================================================

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract tickets from QDX logs",
	Long: `The parse command scans the input directory for QDX logs and writes one
ticket export per log to the output directory.

Logs are processed concurrently; each log is scanned sequentially. A log
that fails stays in the input directory. With continue_on_error off, the
first failure stops logs that have not started yet.

On success:
  - The export is written to the output directory
  - The log is moved to the input archive (unless archive_inputs is off)
  - A summary is written to the output archive directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runParse(cmd)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseFile, "file", "", "Process a single QDX log")
	parseCmd.Flags().StringVar(&parseFormat, "format", "", "Output format: csv, xlsx or xml (overrides output.format)")
	parseCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Scan without writing output or archiving")
	parseCmd.Flags().BoolVar(&allTickets, "all-tickets", false, "Keep tickets without a loyalty card")
	parseCmd.Flags().BoolVar(&withCoupons, "coupons", false, "Fold coupon records into tickets")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runParse(cmd *cobra.Command) error {
	startTime := time.Now()

	mainConfig, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	if err := applyParseFlags(mainConfig); err != nil {
		return err
	}

	log, err := newLogger(mainConfig)
	if err != nil {
		return err
	}
	defer log.Sync()

	// =========================================================================
	// DISCOVER INPUT FILES
	// =========================================================================

	files := []string{parseFile}
	if parseFile == "" {
		fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir,
			mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)
		files, err = fm.DiscoverInputFiles(mainConfig.InputPatterns)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No QDX logs found in the input directory.")
		return nil
	}
	log.Info("starting run", "files", len(files), "format", mainConfig.Output.Format, "dry_run", dryRun)

	// =========================================================================
	// PROCESS FILES
	// =========================================================================

	results, batchErr := converter.RunBatch(cmd.Context(), files, mainConfig, log,
		converter.BatchOptions{DryRun: dryRun})

	out := cmd.OutOrStdout()
	for _, r := range results {
		name := filepath.Base(r.FilePath)
		scan := r.Stats.Scan
		switch {
		case r.Success && dryRun:
			fmt.Fprintf(out, "  ✓ %s: %d ticket(s), %d rejected, %d unfinished\n",
				name, scan.Emitted, scan.RejectedTotal(), scan.Pending)
		case r.Success:
			fmt.Fprintf(out, "  ✓ %s -> %s (%d ticket(s))\n", name, r.OutputFile, scan.Emitted)
		default:
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, r.Error)
		}
	}

	// =========================================================================
	// SUMMARY
	// =========================================================================

	summary := converter.Summarize(results, startTime, time.Now())
	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Tickets:         %d (rejected %d)\n", summary.TicketsEmitted, summary.TicketsRejected)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	if !dryRun {
		path, err := utils.WriteSummaryLog(summary, mainConfig.OutputArchiveDir)
		if err != nil {
			log.Warn("failed to write summary", "error", err)
		} else {
			log.Info("wrote summary", "path", path)
		}
	}

	return batchErr
}

// applyParseFlags layers command-line overrides onto the configuration.
func applyParseFlags(cfg *config.MainConfig) error {
	if parseFormat != "" {
		cfg.Output.Format = parseFormat
		if _, err := cfg.Output.Writer(); err != nil {
			return err
		}
	}
	if allTickets {
		cfg.Parser.LoyaltyCardRequired = false
	}
	if withCoupons {
		cfg.Parser.CouponsEnabled = true
	}
	return nil
}
