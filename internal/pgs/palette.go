package pgs

import "image/color"

// Palette maps a palette index to its colour. Indices that are not present
// render as transparent black.
type Palette map[uint8]color.NRGBA

// Color returns the colour for index i.
func (p Palette) Color(i uint8) color.NRGBA {
	if c, ok := p[i]; ok {
		return c
	}
	return color.NRGBA{}
}

// Clone returns an independent copy of p.
func (p Palette) Clone() Palette {
	out := make(Palette, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// PGS stores palette entries as Y, Cr, Cb, alpha.
func yCrCbAToNRGBA(y, cr, cb, alpha uint8) color.NRGBA {
	r, g, b := color.YCbCrToRGB(y, cb, cr)
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}
