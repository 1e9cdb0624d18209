package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cr3png/internal/converter"

	"github.com/sirupsen/logrus"
)

// ErrNotDirectory is returned when the input path does not exist or is not
// a directory.
var ErrNotDirectory = errors.New("not a directory")

// Discover lists regular files directly inside inputDir (non-recursive)
// whose extension matches rawExt case-insensitively, and maps each to a
// conversion task with a deterministic .png destination. An empty directory
// yields an empty slice, not an error. Entries are returned in directory
// order (sorted by name).
func Discover(inputDir, outputDir, rawExt string, logger *logrus.Logger) ([]converter.Task, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, inputDir)
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var tasks []converter.Task
	seen := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !entry.Type().IsRegular() {
			continue
		}

		name := entry.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, rawExt) {
			continue
		}

		stem := strings.TrimSuffix(name, ext)
		destPath := filepath.Join(outputDir, stem+".png")

		// Sources differing only by extension case map to the same
		// destination; both stay separate tasks and natural write order
		// decides the final bytes.
		if prev, ok := seen[destPath]; ok {
			logger.Warnf("Destination collision: %s and %s both map to %s", prev, name, destPath)
		} else {
			seen[destPath] = name
		}

		tasks = append(tasks, converter.Task{
			SourcePath: filepath.Join(inputDir, name),
			DestPath:   destPath,
		})
	}

	return tasks, nil
}
