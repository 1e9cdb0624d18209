package decode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// RawDecoder decodes Canon RAW files by shelling out to a LibRaw frontend
// (dcraw_emu by default) that writes a demosaiced TIFF to stdout, then
// decoding the TIFF stream into pixels. Decode and demosaic are entirely
// the external tool's job.
type RawDecoder struct {
	command string
	logger  *logrus.Logger
}

// NewRawDecoder returns a RawDecoder using the given decoder command.
// An empty command falls back to "dcraw_emu".
func NewRawDecoder(command string, logger *logrus.Logger) *RawDecoder {
	if command == "" {
		command = "dcraw_emu"
	}
	return &RawDecoder{
		command: command,
		logger:  logger,
	}
}

// Decode runs the decoder tool against path and returns the decoded image.
func (d *RawDecoder) Decode(ctx context.Context, path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	// -T: TIFF output, -Z -: write to stdout.
	cmd := exec.CommandContext(ctx, d.command, "-T", "-Z", "-", path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errMsg := firstLine(stderr.String()); errMsg != "" {
			return nil, fmt.Errorf("%s failed: %s: %w", d.command, errMsg, err)
		}
		return nil, fmt.Errorf("%s failed: %w", d.command, err)
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no output for %s", d.command, path)
	}

	img, err := imaging.Decode(bytes.NewReader(stdout.Bytes()), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode tiff stream: %w", err)
	}

	d.logger.Debugf("Decoded %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
