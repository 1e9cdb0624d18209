package converter

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"time"

	"cr3png/internal/decode"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// CaptureTimer reports the capture timestamp embedded in a source file.
// Used only to enrich verbose logging; a missing timestamp is not an error.
type CaptureTimer interface {
	CaptureTime(path string) (time.Time, bool)
}

// DefaultConverter is the default implementation of the Converter interface.
type DefaultConverter struct {
	decoder decode.Decoder
	logger  *logrus.Logger
	meta    CaptureTimer
}

// NewDefaultConverter creates a new DefaultConverter instance.
func NewDefaultConverter(decoder decode.Decoder, logger *logrus.Logger) *DefaultConverter {
	return NewDefaultConverterWithMetadata(decoder, logger, nil)
}

// NewDefaultConverterWithMetadata creates a DefaultConverter that also reads
// capture timestamps for verbose per-file logging.
func NewDefaultConverterWithMetadata(decoder decode.Decoder, logger *logrus.Logger, meta CaptureTimer) *DefaultConverter {
	return &DefaultConverter{
		decoder: decoder,
		logger:  logger,
		meta:    meta,
	}
}

// Convert converts a single RAW file to PNG. The destination is written to
// a temporary path and renamed into place on success; any failure removes
// the temporary file so no partial output is left behind.
func (c *DefaultConverter) Convert(ctx context.Context, task Task, opts Options) Result {
	res := Result{
		Task:      task,
		StartedAt: time.Now(),
	}

	if !opts.Overwrite {
		if _, err := os.Stat(task.DestPath); err == nil {
			res.Outcome = OutcomeSkipped
			res.Reason = "destination exists"
			res.FinishedAt = time.Now()
			c.logger.Debugf("Skipped (exists): %s", task.SourcePath)
			return res
		}
	}

	c.logger.Debugf("Converting: %s", task.SourcePath)

	img, err := c.decoder.Decode(ctx, task.SourcePath)
	if err != nil {
		return c.fail(res, "decode", err)
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, img, imaging.PNG,
		imaging.PNGCompressionLevel(compressionLevel(opts.Quality, opts.Optimize)))
	if err != nil {
		return c.fail(res, "encode", err)
	}

	tmpPath := task.DestPath + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		_ = os.Remove(tmpPath)
		return c.fail(res, "write", err)
	}

	if err := os.Rename(tmpPath, task.DestPath); err != nil {
		_ = os.Remove(tmpPath)
		return c.fail(res, "rename", err)
	}

	res.Outcome = OutcomeSuccess
	res.OutputBytes = int64(buf.Len())
	res.FinishedAt = time.Now()

	if opts.Verbose {
		entry := c.logger.WithField("file", task.SourcePath)
		if c.meta != nil {
			if captured, ok := c.meta.CaptureTime(task.SourcePath); ok {
				entry = entry.WithField("captured", captured.Format("2006-01-02 15:04:05"))
			}
		}
		entry.Infof("Converted: %s -> %s", task.SourcePath, task.DestPath)
	}

	return res
}

// fail finalizes a Result as Failed with the given stage and cause.
func (c *DefaultConverter) fail(res Result, stage string, err error) Result {
	res.Outcome = OutcomeFailed
	res.Reason = stage
	res.Err = fmt.Errorf("%s: %w", stage, err)
	res.FinishedAt = time.Now()
	return res
}

// compressionLevel maps the 1-100 quality setting and the optimize flag to
// a PNG zlib compression level. PNG is lossless, so quality selects effort
// rather than fidelity.
func compressionLevel(quality int, optimize bool) png.CompressionLevel {
	if optimize {
		return png.BestCompression
	}
	switch {
	case quality >= 75:
		return png.DefaultCompression
	case quality >= 25:
		return png.BestSpeed
	default:
		return png.NoCompression
	}
}
