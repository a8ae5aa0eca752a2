package pgs

import (
	"fmt"
	"image"
	"image/color"
)

// RowPolicy decides what happens when an end-of-line code arrives before a
// row has width pixels.
type RowPolicy int

const (
	// PadShortRows fills the rest of the row with palette index 0. Several
	// encoders drop the trailing transparent run of a line.
	PadShortRows RowPolicy = iota
	// StrictRows rejects short rows as malformed.
	StrictRows
)

func (p RowPolicy) String() string {
	if p == StrictRows {
		return "strict"
	}
	return "pad"
}

// Bitmap is a decoded object: one palette index per pixel, row-major.
type Bitmap struct {
	Width  int
	Height int
	Pix    []uint8
}

// At returns the palette index at (x, y).
func (b *Bitmap) At(x, y int) uint8 {
	return b.Pix[y*b.Width+x]
}

// NRGBA renders the bitmap through pal.
func (b *Bitmap) NRGBA(pal Palette) *image.NRGBA {
	var lut [256]color.NRGBA
	for i, c := range pal {
		lut[i] = c
	}
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, idx := range b.Pix {
		c := lut[idx]
		o := i * 4
		img.Pix[o] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = c.A
	}
	return img
}

type rleKind uint8

const (
	rleSingle rleKind = iota // c
	rleEndOfLine             // 00 00
	rleShortZero             // 00 00LLLLLL
	rleLongZero              // 00 01LLLLLL LLLLLLLL
	rleShortColor            // 00 10LLLLLL CC
	rleLongColor             // 00 11LLLLLL LLLLLLLL CC
)

type rleCode struct {
	kind  rleKind
	run   int
	index uint8
	size  int
}

var rleCodeSize = [4]int{2, 3, 3, 4}

func readRLECode(p []byte) (rleCode, bool) {
	if p[0] != 0 {
		return rleCode{kind: rleSingle, run: 1, index: p[0], size: 1}, true
	}
	if len(p) < 2 {
		return rleCode{}, false
	}
	flag := p[1]
	if flag == 0 {
		return rleCode{kind: rleEndOfLine, size: 2}, true
	}
	sel := flag >> 6
	size := rleCodeSize[sel]
	if len(p) < size {
		return rleCode{}, false
	}
	low := int(flag & 0x3F)
	switch sel {
	case 0:
		return rleCode{kind: rleShortZero, run: low, size: size}, true
	case 1:
		return rleCode{kind: rleLongZero, run: low<<8 | int(p[2]), size: size}, true
	case 2:
		return rleCode{kind: rleShortColor, run: low, index: p[2], size: size}, true
	default:
		return rleCode{kind: rleLongColor, run: low<<8 | int(p[2]), index: p[3], size: size}, true
	}
}

// MaxObjectDimension bounds object width and height. Blu-ray objects never
// exceed 4096 pixels on either axis.
const MaxObjectDimension = 4096

// DecodeBitmap expands PGS run-length data into a width x height bitmap.
// Runs never wrap onto the next row; a run that would pass the end of its
// row, an end-of-line past the last row, or a final pixel count other than
// width*height yields ErrMalformedRLE. So does a size above
// MaxObjectDimension, before anything is allocated.
func DecodeBitmap(data []byte, width, height int, policy RowPolicy) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, rleErrorf("invalid object size %dx%d", width, height)
	}
	if width > MaxObjectDimension || height > MaxObjectDimension {
		return nil, rleErrorf("object size %dx%d exceeds %d pixels per side", width, height, MaxObjectDimension)
	}
	bm := &Bitmap{Width: width, Height: height, Pix: make([]uint8, width*height)}
	row, x := 0, 0
	for i := 0; i < len(data); {
		code, ok := readRLECode(data[i:])
		if !ok {
			return nil, rleErrorf("incomplete code at byte %d", i)
		}
		i += code.size
		if code.kind == rleEndOfLine {
			if row >= height {
				return nil, rleErrorf("line %d exceeds height %d", row+1, height)
			}
			if x < width && policy == StrictRows {
				return nil, fmt.Errorf("%w: line %d has %d of %d pixels", ErrShortRow, row, x, width)
			}
			row++
			x = 0
			continue
		}
		if code.run == 0 {
			continue
		}
		if row >= height || x+code.run > width {
			return nil, rleErrorf("run of %d at line %d column %d overflows %dx%d", code.run, row, x, width, height)
		}
		if code.index != 0 {
			line := bm.Pix[row*width+x : row*width+x+code.run]
			for j := range line {
				line[j] = code.index
			}
		}
		x += code.run
	}
	// Some encoders omit the final end-of-line.
	if x == width {
		row++
		x = 0
	}
	if row != height || x != 0 {
		return nil, rleErrorf("decoded %d of %d pixels", min(row, height)*width+x, width*height)
	}
	return bm, nil
}

const maxRun = 0x3FFF

// EncodeRLE produces the PGS run-length encoding of b, one end-of-line code
// per row.
func EncodeRLE(b *Bitmap) []byte {
	out := make([]byte, 0, len(b.Pix)/4+2*b.Height)
	for y := 0; y < b.Height; y++ {
		line := b.Pix[y*b.Width : (y+1)*b.Width]
		for x := 0; x < len(line); {
			idx := line[x]
			run := 1
			for x+run < len(line) && line[x+run] == idx && run < maxRun {
				run++
			}
			out = appendRun(out, idx, run)
			x += run
		}
		out = append(out, 0x00, 0x00)
	}
	return out
}

func appendRun(out []byte, idx uint8, run int) []byte {
	switch {
	case idx != 0 && run <= 2:
		for i := 0; i < run; i++ {
			out = append(out, idx)
		}
	case idx == 0 && run < 64:
		out = append(out, 0x00, byte(run))
	case idx == 0:
		out = append(out, 0x00, 0x40|byte(run>>8), byte(run))
	case run < 64:
		out = append(out, 0x00, 0x80|byte(run), idx)
	default:
		out = append(out, 0x00, 0xC0|byte(run>>8), byte(run), idx)
	}
	return out
}
