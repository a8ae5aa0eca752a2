package testsupport

import (
	"bytes"
	"encoding/binary"

	"tvidentify/internal/pgs"
)

// PaletteEntry is one raw PDS entry in stream order (Y, Cr, Cb, alpha).
type PaletteEntry struct {
	Index uint8
	Y     uint8
	Cr    uint8
	Cb    uint8
	Alpha uint8
}

// PlacedObject references an object from a composition.
type PlacedObject struct {
	ObjectID uint16
	WindowID uint8
	X, Y     int
	Forced   bool
}

// PGSStream builds synthetic SUP byte streams for tests.
type PGSStream struct {
	buf bytes.Buffer
}

// Bytes returns the encoded stream.
func (s *PGSStream) Bytes() []byte {
	return bytes.Clone(s.buf.Bytes())
}

// Len returns the number of bytes written so far.
func (s *PGSStream) Len() int {
	return s.buf.Len()
}

// Raw appends arbitrary bytes, e.g. to corrupt the stream.
func (s *PGSStream) Raw(b []byte) *PGSStream {
	s.buf.Write(b)
	return s
}

// Segment appends one segment with a valid header.
func (s *PGSStream) Segment(typ pgs.SegmentType, pts uint32, payload []byte) *PGSStream {
	var h [13]byte
	h[0], h[1] = 'P', 'G'
	binary.BigEndian.PutUint32(h[2:6], pts)
	h[10] = byte(typ)
	binary.BigEndian.PutUint16(h[11:13], uint16(len(payload)))
	s.buf.Write(h[:])
	s.buf.Write(payload)
	return s
}

// Composition appends a PCS. An empty object list clears the screen.
func (s *PGSStream) Composition(pts uint32, number uint16, state pgs.CompositionState, paletteID uint8, objects ...PlacedObject) *PGSStream {
	p := make([]byte, 11, 11+8*len(objects))
	binary.BigEndian.PutUint16(p[0:2], 1920)
	binary.BigEndian.PutUint16(p[2:4], 1080)
	p[4] = 0x10
	binary.BigEndian.PutUint16(p[5:7], number)
	p[7] = byte(state)
	p[9] = paletteID
	p[10] = byte(len(objects))
	for _, obj := range objects {
		var o [8]byte
		binary.BigEndian.PutUint16(o[0:2], obj.ObjectID)
		o[2] = obj.WindowID
		if obj.Forced {
			o[3] = 0x40
		}
		binary.BigEndian.PutUint16(o[4:6], uint16(obj.X))
		binary.BigEndian.PutUint16(o[6:8], uint16(obj.Y))
		p = append(p, o[:]...)
	}
	return s.Segment(pgs.SegmentPresentationComposition, pts, p)
}

// Window appends a WDS with a single window.
func (s *PGSStream) Window(pts uint32, id uint8, x, y, width, height int) *PGSStream {
	p := make([]byte, 10)
	p[0] = 1
	p[1] = id
	binary.BigEndian.PutUint16(p[2:4], uint16(x))
	binary.BigEndian.PutUint16(p[4:6], uint16(y))
	binary.BigEndian.PutUint16(p[6:8], uint16(width))
	binary.BigEndian.PutUint16(p[8:10], uint16(height))
	return s.Segment(pgs.SegmentWindowDefinition, pts, p)
}

// Palette appends a PDS.
func (s *PGSStream) Palette(pts uint32, id uint8, entries ...PaletteEntry) *PGSStream {
	p := []byte{id, 0}
	for _, e := range entries {
		p = append(p, e.Index, e.Y, e.Cr, e.Cb, e.Alpha)
	}
	return s.Segment(pgs.SegmentPalette, pts, p)
}

// Object appends the ODS segments for rle, split at the given offsets into
// the RLE data.
func (s *PGSStream) Object(pts uint32, id uint16, width, height int, rle []byte, splits ...int) *PGSStream {
	chunks := splitChunks(rle, splits)
	for i, chunk := range chunks {
		var p []byte
		flags := byte(0)
		if i == 0 {
			flags |= 0x80
		}
		if i == len(chunks)-1 {
			flags |= 0x40
		}
		p = binary.BigEndian.AppendUint16(p, id)
		p = append(p, 0, flags)
		if i == 0 {
			total := len(rle) + 4
			p = append(p, byte(total>>16), byte(total>>8), byte(total))
			p = binary.BigEndian.AppendUint16(p, uint16(width))
			p = binary.BigEndian.AppendUint16(p, uint16(height))
		}
		p = append(p, chunk...)
		s.Segment(pgs.SegmentObjectDefinition, pts, p)
	}
	return s
}

// End appends an END segment.
func (s *PGSStream) End(pts uint32) *PGSStream {
	return s.Segment(pgs.SegmentEnd, pts, nil)
}

// Caption appends a complete epoch-start display set showing bm as object 0.
func (s *PGSStream) Caption(pts uint32, number uint16, bm *pgs.Bitmap, entries ...PaletteEntry) *PGSStream {
	s.Composition(pts, number, pgs.StateEpochStart, 0, PlacedObject{ObjectID: 0, X: 100, Y: 900})
	s.Window(pts, 0, 100, 900, bm.Width, bm.Height)
	s.Palette(pts, 0, entries...)
	s.Object(pts, 0, bm.Width, bm.Height, pgs.EncodeRLE(bm))
	return s.End(pts)
}

// Clear appends a display set without objects.
func (s *PGSStream) Clear(pts uint32, number uint16) *PGSStream {
	s.Composition(pts, number, pgs.StateNormal, 0)
	s.Window(pts, 0, 100, 900, 1, 1)
	return s.End(pts)
}

// WhiteOnTransparent is a two-entry palette: 0 transparent, 1 opaque white.
func WhiteOnTransparent() []PaletteEntry {
	return []PaletteEntry{
		{Index: 0, Y: 0, Cr: 128, Cb: 128, Alpha: 0},
		{Index: 1, Y: 255, Cr: 128, Cb: 128, Alpha: 255},
	}
}

// TextBitmap returns a width x height bitmap with index 1 in a horizontal
// bar across the middle rows, enough to act as "some text".
func TextBitmap(width, height int) *pgs.Bitmap {
	bm := &pgs.Bitmap{Width: width, Height: height, Pix: make([]uint8, width*height)}
	for y := height / 3; y < 2*height/3; y++ {
		for x := 1; x < width-1; x++ {
			bm.Pix[y*width+x] = 1
		}
	}
	return bm
}

func splitChunks(data []byte, splits []int) [][]byte {
	var out [][]byte
	prev := 0
	for _, at := range splits {
		if at <= prev || at >= len(data) {
			continue
		}
		out = append(out, data[prev:at])
		prev = at
	}
	return append(out, data[prev:])
}
