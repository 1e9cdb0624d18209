// Package batch orchestrates file discovery, parallel conversion, and
// result aggregation for a single run.
package batch

import (
	"context"
	"errors"
	"os"
	"sync"

	"cr3png/internal/converter"
	"cr3png/internal/stats"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// ErrPartialFailure is returned when a run completes but at least one
// conversion failed.
var ErrPartialFailure = errors.New("some files failed to convert")

// Runner executes conversion tasks with bounded parallelism. A single
// aggregator loop consumes results, so summary counters and the progress
// bar never race against the workers.
type Runner struct {
	conv         converter.Converter
	logger       *logrus.Logger
	summary      *stats.Summary
	workers      int
	showProgress bool
}

// NewRunner returns a new Runner. workers must be >= 1.
func NewRunner(
	conv converter.Converter,
	logger *logrus.Logger,
	summary *stats.Summary,
	workers int,
	showProgress bool,
) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		conv:         conv,
		logger:       logger,
		summary:      summary,
		workers:      workers,
		showProgress: showProgress,
	}
}

// Run converts all tasks and blocks until every submitted task has a
// recorded result. One task failing never cancels or blocks the others.
// Cancelling the context stops submission of new tasks; tasks already in
// flight finish or fail naturally. Returns ErrPartialFailure if any task
// failed.
func (r *Runner) Run(ctx context.Context, tasks []converter.Task, opts converter.Options) error {
	r.summary.SetTotal(int64(len(tasks)))

	if len(tasks) == 0 {
		r.summary.Finalize()
		return nil
	}

	taskChan := make(chan converter.Task)
	results := make(chan converter.Result, len(tasks))

	var wg sync.WaitGroup
	wg.Add(r.workers)
	for w := 0; w < r.workers; w++ {
		go func() {
			defer wg.Done()
			for task := range taskChan {
				results <- r.conv.Convert(ctx, task, opts)
			}
		}()
	}

	go func() {
		defer close(taskChan)
		for _, task := range tasks {
			if ctx.Err() != nil {
				r.logger.Warn("Interrupted, no new tasks will be submitted")
				return
			}
			select {
			case <-ctx.Done():
				r.logger.Warn("Interrupted, no new tasks will be submitted")
				return
			case taskChan <- task:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	bar := r.newProgressBar(len(tasks))

	for res := range results {
		switch res.Outcome {
		case converter.OutcomeSuccess:
			r.summary.IncrementSucceeded()
			r.summary.AddBytesWritten(res.OutputBytes)
		case converter.OutcomeSkipped:
			r.summary.IncrementSkipped()
			r.logger.Infof("Skipped (exists): %s", res.Task.SourcePath)
		case converter.OutcomeFailed:
			r.summary.IncrementFailed()
			reason := res.Reason
			if res.Err != nil {
				reason = res.Err.Error()
			}
			r.summary.AddError(res.Task.SourcePath, res.Reason, reason)
			r.logger.Errorf("Error converting %s: %s", res.Task.SourcePath, reason)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	r.summary.Finalize()

	snap := r.summary.GetSnapshot()
	r.logger.Infof("Conversion complete: %d converted, %d skipped, %d failed",
		snap.Succeeded, snap.Skipped, snap.Failed)

	if snap.Failed > 0 {
		return ErrPartialFailure
	}
	return nil
}

// newProgressBar returns the progress indicator, or nil when disabled.
// The bar advances once per consumed result, independent of outcome.
func (r *Runner) newProgressBar(total int) *progressbar.ProgressBar {
	if !r.showProgress {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
