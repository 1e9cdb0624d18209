package inspect

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
)

// Inspector reads metadata from source files. Describe shells out to
// exiftool for the full field dump; CaptureTime uses goexif directly and
// is strictly best-effort.
type Inspector struct {
	logger *logrus.Logger
}

// NewInspector returns a new Inspector.
func NewInspector(logger *logrus.Logger) *Inspector {
	return &Inspector{logger: logger}
}

// Describe returns all metadata fields exiftool reports for the file.
func (i *Inspector) Describe(path string) (map[string]interface{}, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	defer et.Close()

	metas := et.ExtractMetadata(path)
	if len(metas) == 0 {
		return nil, fmt.Errorf("no metadata returned for %s", path)
	}
	if metas[0].Err != nil {
		return nil, fmt.Errorf("extract metadata: %w", metas[0].Err)
	}

	return metas[0].Fields, nil
}

// FormatFields renders a metadata field map as sorted "key: value" lines.
func FormatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out string
	for _, k := range keys {
		out += fmt.Sprintf("%-32s %v\n", k+":", fields[k])
	}
	return out
}

// CaptureTime returns the capture timestamp embedded in the file, if one
// can be read. Every error path returns false; RAW containers that goexif
// cannot parse are expected and not worth reporting.
func (i *Inspector) CaptureTime(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}

	if tm, err := x.DateTime(); err == nil {
		return tm, true
	}

	if field, err := x.Get(exif.DateTimeOriginal); err == nil {
		if raw, err := field.StringVal(); err == nil {
			if tm, ok := parseEXIFDateTime(raw); ok {
				return tm, true
			}
		}
	}

	return time.Time{}, false
}

// parseEXIFDateTime parses an EXIF date time string.
func parseEXIFDateTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	formats := []string{
		"2006:01:02 15:04:05",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}
	for _, format := range formats {
		if tm, err := time.Parse(format, raw); err == nil {
			return tm, true
		}
	}
	return time.Time{}, false
}
