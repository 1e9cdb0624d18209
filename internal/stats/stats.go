package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Summary tracks aggregate counters for a conversion run. Counter updates
// are atomic so concurrent workers never need a shared lock.
type Summary struct {
	TotalTasks   int64
	Succeeded    int64
	Skipped      int64
	Failed       int64
	BytesWritten int64

	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	FilesPerSecond float64

	Errors []ConversionError

	mutex sync.RWMutex
}

// ConversionError records a single per-file failure.
type ConversionError struct {
	FilePath  string
	Stage     string
	Message   string
	Timestamp time.Time
}

// Snapshot is an immutable copy of the summary counters, exposed at end of
// run for reporting and exit-code decisions.
type Snapshot struct {
	TotalTasks   int64
	Succeeded    int64
	Skipped      int64
	Failed       int64
	BytesWritten int64
	Duration     time.Duration
}

// NewSummary returns a new Summary with the start time set.
func NewSummary() *Summary {
	return &Summary{
		StartTime: time.Now(),
		Errors:    make([]ConversionError, 0),
	}
}

// SetTotal records the number of tasks dispatched. Set once, before results
// start arriving.
func (s *Summary) SetTotal(n int64) {
	atomic.StoreInt64(&s.TotalTasks, n)
}

// IncrementSucceeded increases the count of converted files by 1.
func (s *Summary) IncrementSucceeded() {
	atomic.AddInt64(&s.Succeeded, 1)
}

// IncrementSkipped increases the count of skipped files by 1.
func (s *Summary) IncrementSkipped() {
	atomic.AddInt64(&s.Skipped, 1)
}

// IncrementFailed increases the count of failed files by 1.
func (s *Summary) IncrementFailed() {
	atomic.AddInt64(&s.Failed, 1)
}

// AddBytesWritten adds the given number of output bytes to the total.
func (s *Summary) AddBytesWritten(bytes int64) {
	atomic.AddInt64(&s.BytesWritten, bytes)
}

// AddError records a per-file error.
func (s *Summary) AddError(filePath, stage, message string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Errors = append(s.Errors, ConversionError{
		FilePath:  filePath,
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Completed returns the number of tasks with a recorded outcome.
func (s *Summary) Completed() int64 {
	return atomic.LoadInt64(&s.Succeeded) +
		atomic.LoadInt64(&s.Skipped) +
		atomic.LoadInt64(&s.Failed)
}

// HasFailures returns true if at least one task failed.
func (s *Summary) HasFailures() bool {
	return atomic.LoadInt64(&s.Failed) > 0
}

// Finalize calculates duration and throughput. Call once, after all
// results have been consumed.
func (s *Summary) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	completed := s.Completed()
	if s.Duration.Seconds() > 0 {
		s.FilesPerSecond = float64(completed) / s.Duration.Seconds()
	}
}

// GetSnapshot returns an immutable copy of the counters.
func (s *Summary) GetSnapshot() Snapshot {
	s.mutex.RLock()
	duration := s.Duration
	s.mutex.RUnlock()

	return Snapshot{
		TotalTasks:   atomic.LoadInt64(&s.TotalTasks),
		Succeeded:    atomic.LoadInt64(&s.Succeeded),
		Skipped:      atomic.LoadInt64(&s.Skipped),
		Failed:       atomic.LoadInt64(&s.Failed),
		BytesWritten: atomic.LoadInt64(&s.BytesWritten),
		Duration:     duration,
	}
}

// GetSummary returns a formatted summary of the run.
func (s *Summary) GetSummary() string {
	s.mutex.RLock()
	duration := s.Duration
	filesPerSecond := s.FilesPerSecond
	s.mutex.RUnlock()

	return fmt.Sprintf(`Conversion Summary:
  Total:      %d
  Successful: %d
  Skipped:    %d
  Failed:     %d

  Duration:     %v
  Files/Second: %.2f
  Bytes Written: %s`,
		atomic.LoadInt64(&s.TotalTasks),
		atomic.LoadInt64(&s.Succeeded),
		atomic.LoadInt64(&s.Skipped),
		atomic.LoadInt64(&s.Failed),
		duration.Round(time.Millisecond),
		filesPerSecond,
		formatBytes(atomic.LoadInt64(&s.BytesWritten)))
}

// GetErrorSummary returns a summary of errors that occurred during the run.
func (s *Summary) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during conversion"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= 10 {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Stage,
			err.FilePath,
			err.Message)
	}
	return result
}

// formatBytes returns a human-readable string for a byte count.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
