package ocr

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Default preprocessing parameters.
const (
	DefaultScaleFactor = 3
	DefaultBorder      = 20
)

// PrepareOptions controls Prepare.
type PrepareOptions struct {
	ScaleFactor int
	Border      int
}

// Prepare renders img as black text on a white background. The alpha channel
// alone decides ink: opaque pixels become black and transparent ones white,
// whatever colour the subtitle used. The result is upscaled by ScaleFactor
// with Catmull-Rom and surrounded by a white border of Border pixels.
func Prepare(img image.Image, opts PrepareOptions) *image.Gray {
	scale := opts.ScaleFactor
	if scale < 1 {
		scale = 1
	}
	border := max(opts.Border, 0)

	b := img.Bounds()
	ink := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			ink.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: 255 - uint8(a>>8)})
		}
	}

	out := image.NewGray(image.Rect(0, 0, b.Dx()*scale+2*border, b.Dy()*scale+2*border))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	target := image.Rect(border, border, border+b.Dx()*scale, border+b.Dy()*scale)
	if scale == 1 {
		draw.Draw(out, target, ink, image.Point{}, draw.Src)
	} else {
		draw.CatmullRom.Scale(out, target, ink, ink.Bounds(), draw.Src, nil)
	}
	return out
}
