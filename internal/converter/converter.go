package converter

import (
	"context"
	"time"
)

// Outcome is the terminal classification of a conversion task.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task is one unit of work: converting exactly one input file to one
// output file. Immutable once created.
type Task struct {
	SourcePath string
	DestPath   string
}

// Options holds the conversion settings shared by all tasks in a run.
type Options struct {
	Quality   int
	Optimize  bool
	Overwrite bool
	Verbose   bool
}

// Result describes the outcome of converting a single file. A failure is
// carried as a value here, never as a panic past the converter boundary.
type Result struct {
	Task        Task
	Outcome     Outcome
	Reason      string
	Err         error
	OutputBytes int64
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Converter converts a single RAW file into a PNG file.
type Converter interface {
	// Convert processes one task according to the options and returns its
	// result. It never leaves a partial file at the destination.
	Convert(ctx context.Context, task Task, opts Options) Result
}
