package batch

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestDiscover_MatchesExtensionCaseInsensitive(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	touch(t, filepath.Join(inputDir, "a.CR3"))
	touch(t, filepath.Join(inputDir, "b.cr3"))
	touch(t, filepath.Join(inputDir, "c.txt"))

	tasks, err := Discover(inputDir, outputDir, ".cr3", discardLogger())
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, filepath.Join(inputDir, "a.CR3"), tasks[0].SourcePath)
	assert.Equal(t, filepath.Join(outputDir, "a.png"), tasks[0].DestPath)
	assert.Equal(t, filepath.Join(inputDir, "b.cr3"), tasks[1].SourcePath)
	assert.Equal(t, filepath.Join(outputDir, "b.png"), tasks[1].DestPath)
}

func TestDiscover_EmptyDirectory(t *testing.T) {
	tasks, err := Discover(t.TempDir(), t.TempDir(), ".cr3", discardLogger())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDiscover_MissingDirectory(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), t.TempDir(), ".cr3", discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestDiscover_InputIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.cr3")
	touch(t, file)

	_, err := Discover(file, t.TempDir(), ".cr3", discardLogger())
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestDiscover_NonRecursive(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(inputDir, "nested"), 0755))
	touch(t, filepath.Join(inputDir, "nested", "deep.cr3"))
	touch(t, filepath.Join(inputDir, "top.cr3"))

	tasks, err := Discover(inputDir, outputDir, ".cr3", discardLogger())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, filepath.Join(inputDir, "top.cr3"), tasks[0].SourcePath)
}

func TestDiscover_CaseDuplicateSourcesStaySeparateTasks(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	touch(t, filepath.Join(inputDir, "dup.CR3"))
	touch(t, filepath.Join(inputDir, "dup.cr3"))

	tasks, err := Discover(inputDir, outputDir, ".cr3", discardLogger())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, tasks[0].DestPath, tasks[1].DestPath)
}

func TestDiscover_DeterministicDestination(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	touch(t, filepath.Join(inputDir, "IMG_0001.CR3"))

	first, err := Discover(inputDir, outputDir, ".cr3", discardLogger())
	require.NoError(t, err)
	second, err := Discover(inputDir, outputDir, ".cr3", discardLogger())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join(outputDir, "IMG_0001.png"), first[0].DestPath)
}
