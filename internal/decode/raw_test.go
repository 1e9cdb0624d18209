package decode

import (
	"context"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// writeFakeTool writes a shell script that emits the given file on stdout,
// standing in for the LibRaw frontend.
func writeFakeTool(t *testing.T, dir, payload string) string {
	t.Helper()
	script := filepath.Join(dir, "fake-decoder")
	body := "#!/bin/sh\ncat \"" + payload + "\"\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0755))
	return script
}

func TestRawDecoder_DecodesToolOutput(t *testing.T) {
	dir := t.TempDir()

	payload := filepath.Join(dir, "payload.png")
	require.NoError(t, imaging.Save(imaging.New(5, 3, color.NRGBA{R: 1, A: 255}), payload))

	src := filepath.Join(dir, "in.cr3")
	require.NoError(t, os.WriteFile(src, []byte("raw bytes"), 0644))

	dec := NewRawDecoder(writeFakeTool(t, dir, payload), discardLogger())

	img, err := dec.Decode(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
}

func TestRawDecoder_MissingSource(t *testing.T) {
	dec := NewRawDecoder("dcraw_emu", discardLogger())
	_, err := dec.Decode(context.Background(), filepath.Join(t.TempDir(), "gone.cr3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat source")
}

func TestRawDecoder_ToolFailureSurfacesStderr(t *testing.T) {
	dir := t.TempDir()

	script := filepath.Join(dir, "fake-decoder")
	body := "#!/bin/sh\necho 'Cannot decode file' >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0755))

	src := filepath.Join(dir, "in.cr3")
	require.NoError(t, os.WriteFile(src, []byte("raw bytes"), 0644))

	dec := NewRawDecoder(script, discardLogger())
	_, err := dec.Decode(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot decode file")
}

func TestRawDecoder_EmptyOutput(t *testing.T) {
	dir := t.TempDir()

	script := filepath.Join(dir, "fake-decoder")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0755))

	src := filepath.Join(dir, "in.cr3")
	require.NoError(t, os.WriteFile(src, []byte("raw bytes"), 0644))

	dec := NewRawDecoder(script, discardLogger())
	_, err := dec.Decode(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced no output")
}

func TestNewRawDecoder_DefaultCommand(t *testing.T) {
	dec := NewRawDecoder("", discardLogger())
	assert.Equal(t, "dcraw_emu", dec.command)
}
