package converter

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/qdx-converter/internal/config"
	"github.com/ginjaninja78/qdx-converter/internal/logger"
	"github.com/ginjaninja78/qdx-converter/pkg/utils"
)

// BatchOptions tweaks a batch run beyond the configuration.
type BatchOptions struct {
	DryRun bool
}

// RunBatch converts files concurrently, at most mainConfig.MaxConcurrency at
// a time. Results come back in the order of files.
//
// With ContinueOnError off, the first failure keeps files not yet started
// from running and is returned. Files already running finish normally: they
// only see cancellation of ctx itself.
func RunBatch(ctx context.Context, files []string, mainConfig *config.MainConfig, log logger.Logger, opts BatchOptions) ([]Result, error) {
	results := make([]Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mainConfig.MaxConcurrency)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{FilePath: file, Error: err}
				return nil
			}

			conv := New(file, mainConfig, log)
			conv.DryRun = opts.DryRun
			results[i] = conv.Run(ctx)

			if results[i].Error != nil && !mainConfig.ContinueOnError {
				return fmt.Errorf("%s: %w", file, results[i].Error)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// Summarize folds batch results into a processing summary.
func Summarize(results []Result, start, end time.Time) utils.ProcessingSummary {
	s := utils.ProcessingSummary{
		StartTime:  start,
		EndTime:    end,
		TotalFiles: len(results),
	}
	for _, r := range results {
		scan := r.Stats.Scan
		s.TotalSlots += scan.Slots
		s.TicketsEmitted += scan.Emitted
		s.TicketsRejected += scan.RejectedTotal()
		s.MalformedRecords += scan.Malformed
		s.TimestampWarnings += scan.TimestampWarnings

		if !r.Success {
			s.FailedFiles++
			msg := "not processed"
			if r.Error != nil {
				msg = r.Error.Error()
			}
			s.FailedFilesList = append(s.FailedFilesList, utils.FailedFileInfo{
				InputFile:    r.FilePath,
				ErrorMessage: msg,
			})
			continue
		}

		s.SuccessfulFiles++
		s.ProcessedFiles = append(s.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   r.FilePath,
			OutputFile:  r.OutputFile,
			ArchivePath: r.ArchivePath,
			Slots:       scan.Slots,
			Tickets:     scan.Emitted,
			Rejected:    scan.RejectedTotal(),
			Pending:     scan.Pending,
			ProcessTime: r.Stats.ProcessingTime,
		})
	}
	return s
}
