package pgs

import (
	"encoding/binary"
	"fmt"
)

// SegmentType is the one-byte type code in a segment header.
type SegmentType uint8

const (
	SegmentPalette                 SegmentType = 0x14
	SegmentObjectDefinition        SegmentType = 0x15
	SegmentPresentationComposition SegmentType = 0x16
	SegmentWindowDefinition        SegmentType = 0x17
	SegmentEnd                     SegmentType = 0x80
)

func (t SegmentType) String() string {
	switch t {
	case SegmentPalette:
		return "PDS"
	case SegmentObjectDefinition:
		return "ODS"
	case SegmentPresentationComposition:
		return "PCS"
	case SegmentWindowDefinition:
		return "WDS"
	case SegmentEnd:
		return "END"
	default:
		return fmt.Sprintf("0x%02X", uint8(t))
	}
}

// Known reports whether t is one of the five standard segment types.
func (t SegmentType) Known() bool {
	switch t {
	case SegmentPalette, SegmentObjectDefinition, SegmentPresentationComposition,
		SegmentWindowDefinition, SegmentEnd:
		return true
	}
	return false
}

// Segment is one parsed PGS unit. Payload aliases the stream buffer.
type Segment struct {
	Type    SegmentType
	PTS     int64
	DTS     int64
	Offset  int
	Payload []byte
}

// CompositionState is the epoch marker carried by a presentation composition.
type CompositionState uint8

const (
	StateNormal           CompositionState = 0x00
	StateAcquisitionPoint CompositionState = 0x40
	StateEpochStart       CompositionState = 0x80
)

// CompositionObject places one object inside a window.
type CompositionObject struct {
	ObjectID uint16
	WindowID uint8
	Cropped  bool
	Forced   bool
	X, Y     int
	Crop     Rect
}

// Composition is the decoded payload of a presentation composition segment.
type Composition struct {
	VideoWidth    int
	VideoHeight   int
	FrameRate     uint8
	Number        uint16
	State         CompositionState
	PaletteUpdate bool
	PaletteID     uint8
	Objects       []CompositionObject
}

// Rect is an integer rectangle in video coordinates.
type Rect struct {
	X, Y, Width, Height int
}

// Window is one entry of a window definition segment.
type Window struct {
	ID uint8
	Rect
}

// objectFragment is the decoded payload of an object definition segment.
type objectFragment struct {
	ID       uint16
	Version  uint8
	First    bool
	Last     bool
	DataLen  int
	Width    int
	Height   int
	Fragment []byte
}

const (
	odsFirstInSequence = 0x80
	odsLastInSequence  = 0x40
	pcsObjectCropped   = 0x80
	pcsObjectForced    = 0x40
	pcsPaletteUpdate   = 0x80
)

func parseComposition(seg Segment) (Composition, error) {
	p := seg.Payload
	if len(p) < 11 {
		return Composition{}, formatErrorf(ErrTruncatedSegment, seg.Offset, seg.Type, "composition payload %d bytes", len(p))
	}
	comp := Composition{
		VideoWidth:    int(binary.BigEndian.Uint16(p[0:2])),
		VideoHeight:   int(binary.BigEndian.Uint16(p[2:4])),
		FrameRate:     p[4],
		Number:        binary.BigEndian.Uint16(p[5:7]),
		State:         CompositionState(p[7] & 0xC0),
		PaletteUpdate: p[8]&pcsPaletteUpdate != 0,
		PaletteID:     p[9],
	}
	count := int(p[10])
	pos := 11
	comp.Objects = make([]CompositionObject, 0, count)
	for i := 0; i < count; i++ {
		if pos+8 > len(p) {
			return Composition{}, formatErrorf(ErrTruncatedSegment, seg.Offset, seg.Type, "composition object %d of %d", i+1, count)
		}
		flags := p[pos+3]
		obj := CompositionObject{
			ObjectID: binary.BigEndian.Uint16(p[pos : pos+2]),
			WindowID: p[pos+2],
			Cropped:  flags&pcsObjectCropped != 0,
			Forced:   flags&pcsObjectForced != 0,
			X:        int(binary.BigEndian.Uint16(p[pos+4 : pos+6])),
			Y:        int(binary.BigEndian.Uint16(p[pos+6 : pos+8])),
		}
		pos += 8
		if obj.Cropped {
			if pos+8 > len(p) {
				return Composition{}, formatErrorf(ErrTruncatedSegment, seg.Offset, seg.Type, "crop rectangle for object %d", obj.ObjectID)
			}
			obj.Crop = Rect{
				X:      int(binary.BigEndian.Uint16(p[pos : pos+2])),
				Y:      int(binary.BigEndian.Uint16(p[pos+2 : pos+4])),
				Width:  int(binary.BigEndian.Uint16(p[pos+4 : pos+6])),
				Height: int(binary.BigEndian.Uint16(p[pos+6 : pos+8])),
			}
			pos += 8
		}
		comp.Objects = append(comp.Objects, obj)
	}
	return comp, nil
}

func parseWindows(seg Segment) ([]Window, error) {
	p := seg.Payload
	if len(p) < 1 {
		return nil, formatErrorf(ErrTruncatedSegment, seg.Offset, seg.Type, "empty window definition")
	}
	count := int(p[0])
	if len(p) < 1+count*9 {
		return nil, formatErrorf(ErrTruncatedSegment, seg.Offset, seg.Type, "%d windows in %d bytes", count, len(p))
	}
	windows := make([]Window, 0, count)
	for i := 0; i < count; i++ {
		w := p[1+i*9:]
		windows = append(windows, Window{
			ID: w[0],
			Rect: Rect{
				X:      int(binary.BigEndian.Uint16(w[1:3])),
				Y:      int(binary.BigEndian.Uint16(w[3:5])),
				Width:  int(binary.BigEndian.Uint16(w[5:7])),
				Height: int(binary.BigEndian.Uint16(w[7:9])),
			},
		})
	}
	return windows, nil
}

func parsePalette(seg Segment) (uint8, Palette, error) {
	p := seg.Payload
	if len(p) < 2 {
		return 0, nil, formatErrorf(ErrTruncatedSegment, seg.Offset, seg.Type, "palette payload %d bytes", len(p))
	}
	id := p[0]
	entries := (len(p) - 2) / 5
	pal := make(Palette, entries)
	for i := 0; i < entries; i++ {
		e := p[2+i*5:]
		pal[e[0]] = yCrCbAToNRGBA(e[1], e[2], e[3], e[4])
	}
	return id, pal, nil
}

func parseObject(seg Segment) (objectFragment, error) {
	p := seg.Payload
	var frag objectFragment
	if len(p) >= 2 {
		frag.ID = binary.BigEndian.Uint16(p[0:2])
	}
	if len(p) < 4 {
		return frag, formatErrorf(ErrTruncatedSegment, seg.Offset, seg.Type, "object payload %d bytes", len(p))
	}
	frag.Version = p[2]
	frag.First = p[3]&odsFirstInSequence != 0
	frag.Last = p[3]&odsLastInSequence != 0
	if !frag.First {
		frag.Fragment = p[4:]
		return frag, nil
	}
	if len(p) < 11 {
		return frag, formatErrorf(ErrTruncatedSegment, seg.Offset, seg.Type, "first object fragment %d bytes", len(p))
	}
	// The 24-bit length counts the width and height fields.
	declared := int(p[4])<<16 | int(p[5])<<8 | int(p[6])
	frag.DataLen = max(declared-4, 0)
	frag.Width = int(binary.BigEndian.Uint16(p[7:9]))
	frag.Height = int(binary.BigEndian.Uint16(p[9:11]))
	frag.Fragment = p[11:]
	return frag, nil
}
