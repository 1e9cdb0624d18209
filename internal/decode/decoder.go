package decode

import (
	"context"
	"image"
)

// Decoder turns a RAW file on disk into a pixel buffer. Implementations
// must return an error for anything they cannot decode; they never panic
// across this boundary.
type Decoder interface {
	Decode(ctx context.Context, path string) (image.Image, error)
}
