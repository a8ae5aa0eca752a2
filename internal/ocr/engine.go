package ocr

import (
	"context"
	"image"
)

// Engine recognizes the text in a single subtitle raster.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, img image.Image) (string, error)

// Recognize calls f.
func (f EngineFunc) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f(ctx, img)
}
