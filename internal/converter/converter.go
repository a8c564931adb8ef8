// =============================================================================
// QDX Converter - Converter Module
// =============================================================================
//
// This module runs the conversion pipeline for a single QDX log, from the raw
// slot stream to an exported ticket file.
//
// CONVERSION PIPELINE:
//   1. Build the scanner options (dispatch table, loyalty filter, debug)
//   2. Scan the log, collecting every accepted ticket
//   3. Render the tickets with the configured writer (csv, xlsx, xml)
//   4. Write the output file
//   5. Archive the processed log
//
// CONCURRENCY:
//   A Converter handles one file and owns its own scanner and ticket store,
//   so several Converters can run concurrently. Nothing is shared between
//   them except the configuration, which is read-only.
//
// =============================================================================

package converter

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/qdx-converter/internal/config"
	"github.com/ginjaninja78/qdx-converter/internal/logger"
	"github.com/ginjaninja78/qdx-converter/internal/parser"
	"github.com/ginjaninja78/qdx-converter/internal/ticket"
	"github.com/ginjaninja78/qdx-converter/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the QDX log that was processed.
	FilePath string

	// OutputFile is the path to the exported file. Empty on failure or in a
	// dry run.
	OutputFile string

	// ArchivePath is where the log was moved, if it was archived.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Tickets are the accepted tickets, in stream order.
	Tickets []*ticket.Ticket

	// Pending lists sessions that never saw a total record.
	Pending []string

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Scan holds the scanner's counters.
	Scan parser.Stats

	// LineItems is the number of line items across accepted tickets.
	LineItems int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single QDX log.
type Converter struct {
	qdxPath    string
	mainConfig *config.MainConfig
	files      *utils.FileManager
	logger     logger.Logger

	// DryRun scans and renders but writes and archives nothing.
	DryRun bool

	// RawRecordHook, if set, is passed through to the scanner.
	RawRecordHook parser.RawRecordHook
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - qdxPath: The path to the QDX log.
//   - mainConfig: The main application configuration.
//   - log: The logger; nil discards output.
func New(qdxPath string, mainConfig *config.MainConfig, log logger.Logger) *Converter {
	if log == nil {
		log = logger.Nop()
	}
	files := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	files.ArchiveOnSuccess = mainConfig.ArchiveInputs

	return &Converter{
		qdxPath:    qdxPath,
		mainConfig: mainConfig,
		files:      files,
		logger:     logger.With(log, "file", filepath.Base(qdxPath)),
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{FilePath: c.qdxPath}

	// =========================================================================
	// STEP 1: SCANNER OPTIONS
	// =========================================================================

	opts, err := c.mainConfig.Parser.Options()
	if err != nil {
		result.Error = err
		return result
	}
	opts.Logger = c.logger
	opts.RawRecordHook = c.RawRecordHook

	writer, err := c.mainConfig.Output.Writer()
	if err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 2: SCAN THE LOG
	// =========================================================================

	c.logger.Info("processing file", "path", c.qdxPath)

	p := parser.New(opts)
	stats, err := c.scan(ctx, p, &result.Tickets)
	result.Stats.Scan = stats
	if err != nil {
		result.Error = err
		return result
	}
	result.Pending = p.Pending()

	for _, t := range result.Tickets {
		result.Stats.LineItems += len(t.LineItems)
	}
	if stats.Pending > 0 {
		c.logger.Warn("sessions without a total record", "count", stats.Pending)
	}
	if opts.Debug {
		c.logger.Debug("retained raw slots", "count", len(p.Saved()))
	}
	c.logger.Debug("scan complete",
		"slots", stats.Slots,
		"tickets", stats.Emitted,
		"rejected", stats.RejectedTotal(),
		"ignored", stats.Ignored,
		"malformed", stats.Malformed)

	if c.DryRun {
		result.Success = true
		result.Stats.ProcessingTime = time.Since(startTime)
		return result
	}

	// =========================================================================
	// STEP 3-4: RENDER AND WRITE OUTPUT
	// =========================================================================

	fileName := utils.GenerateOutputFileName(
		c.mainConfig.Output.FileNameFormat,
		writer.Extension(),
		map[string]string{"original": utils.BaseName(c.qdxPath)},
	)
	outputPath, err := utils.ReserveOutputPath(filepath.Join(c.mainConfig.OutputDir, fileName))
	if err != nil {
		result.Error = err
		return result
	}

	if err := writeOutput(outputPath, func(f *bufio.Writer) error {
		return writer.Write(f, result.Tickets)
	}); err != nil {
		os.Remove(outputPath)
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}
	result.OutputFile = outputPath
	c.logger.Info("wrote output", "path", outputPath, "tickets", len(result.Tickets))

	// =========================================================================
	// STEP 5: ARCHIVE THE LOG
	// =========================================================================

	archivePath, err := c.files.ArchiveInputFile(c.qdxPath)
	if err != nil {
		// The output exists; leave the log in place for a rerun.
		c.logger.Warn("failed to archive input", "error", err)
	} else if archivePath != c.qdxPath {
		result.ArchivePath = archivePath
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)
	return result
}

// scan runs the parser over the log file.
func (c *Converter) scan(ctx context.Context, p *parser.Parser, tickets *[]*ticket.Ticket) (parser.Stats, error) {
	f, err := os.Open(c.qdxPath)
	if err != nil {
		return parser.Stats{}, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	stats, err := p.Parse(ctx, f, func(t *ticket.Ticket) {
		*tickets = append(*tickets, t)
	})
	if err != nil {
		return stats, fmt.Errorf("failed to scan log: %w", err)
	}
	return stats, nil
}

// writeOutput writes to a temporary file beside path and renames it into
// place, so a failed render never leaves a partial output behind.
func writeOutput(path string, render func(*bufio.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	w := bufio.NewWriter(tmp)
	if err := render(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
