package pgs

import (
	"fmt"
	"image"
	"slices"

	"golang.org/x/image/draw"
)

type objectBuffer struct {
	id       uint16
	version  uint8
	width    int
	height   int
	expected int
	data     []byte
}

type displaySet struct {
	pts     int64
	offset  int
	comp    Composition
	defined map[uint16]bool
	failed  map[uint16]bool
}

// Assembler folds segments into Events. It holds the palette, window and
// object state of a single stream and must not be shared between streams.
type Assembler struct {
	policy RowPolicy

	palettes map[uint8]Palette
	windows  map[uint8]Window
	buffers  map[uint16]*objectBuffer
	bitmaps  map[uint16]*Bitmap

	current     *displaySet
	prevObjects []uint16
	open        *Event
	opened      int

	seenPTS bool
	lastPTS int64
	maxPTS  int64

	dropped []DroppedObject
}

// AssemblerOption customizes an Assembler.
type AssemblerOption func(*Assembler)

// WithRowPolicy selects how short RLE rows are handled.
func WithRowPolicy(policy RowPolicy) AssemblerOption {
	return func(a *Assembler) {
		a.policy = policy
	}
}

// NewAssembler returns an Assembler with empty composition state.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		policy:   PadShortRows,
		palettes: make(map[uint8]Palette),
		windows:  make(map[uint8]Window),
		buffers:  make(map[uint16]*objectBuffer),
		bitmaps:  make(map[uint16]*Bitmap),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dropped returns the objects discarded so far.
func (a *Assembler) Dropped() []DroppedObject {
	return slices.Clone(a.dropped)
}

// LastPTS returns the timestamp of the most recent composition segment.
func (a *Assembler) LastPTS() (int64, bool) {
	return a.lastPTS, a.seenPTS
}

// Push consumes one segment and returns any events it closed. Errors are
// fatal for the stream; a bad object is recorded in Dropped instead.
func (a *Assembler) Push(seg Segment) ([]Event, error) {
	a.maxPTS = max(a.maxPTS, seg.PTS)
	switch seg.Type {
	case SegmentPresentationComposition:
		return a.pushComposition(seg)
	case SegmentWindowDefinition:
		windows, err := parseWindows(seg)
		if err != nil {
			return nil, err
		}
		for _, w := range windows {
			a.windows[w.ID] = w
		}
	case SegmentPalette:
		id, pal, err := parsePalette(seg)
		if err != nil {
			return nil, err
		}
		a.palettes[id] = pal
	case SegmentObjectDefinition:
		frag, err := parseObject(seg)
		if err != nil {
			// A short object costs only its own caption.
			delete(a.buffers, frag.ID)
			delete(a.bitmaps, frag.ID)
			a.drop(seg.PTS, frag.ID, fmt.Errorf("%w: %w", ErrMalformedRLE, err))
			return nil, nil
		}
		a.pushObject(seg.PTS, frag)
	case SegmentEnd:
		if a.current != nil {
			return a.finalize(), nil
		}
	}
	return nil, nil
}

// Flush finalizes a pending display set and closes the open event at the
// last timestamp seen in the stream.
func (a *Assembler) Flush() []Event {
	return a.FlushAt(a.maxPTS)
}

// FlushAt is Flush with an explicit end timestamp for the open event.
func (a *Assembler) FlushAt(pts int64) []Event {
	var out []Event
	if a.current != nil {
		out = append(out, a.finalize()...)
	}
	if a.open != nil {
		out = append(out, a.closeOpen(pts))
	}
	return out
}

func (a *Assembler) pushComposition(seg Segment) ([]Event, error) {
	if a.seenPTS && seg.PTS < a.lastPTS {
		return nil, formatErrorf(ErrOutOfOrderStream, seg.Offset, seg.Type, "pts %d follows %d", seg.PTS, a.lastPTS)
	}
	comp, err := parseComposition(seg)
	if err != nil {
		return nil, err
	}

	var out []Event
	if a.current != nil {
		// Display set without an END segment.
		out = a.finalize()
	}
	a.seenPTS = true
	a.lastPTS = seg.PTS

	if comp.State == StateEpochStart {
		clear(a.palettes)
		clear(a.windows)
		clear(a.buffers)
		clear(a.bitmaps)
	}
	a.current = &displaySet{
		pts:     seg.PTS,
		offset:  seg.Offset,
		comp:    comp,
		defined: make(map[uint16]bool),
		failed:  make(map[uint16]bool),
	}
	if len(comp.Objects) == 0 && a.open != nil {
		out = append(out, a.closeOpen(seg.PTS))
	}
	return out, nil
}

func (a *Assembler) pushObject(pts int64, frag objectFragment) {
	buf := a.buffers[frag.ID]
	if frag.First {
		if a.current != nil && outsideVideo(a.current.comp, frag.Width, frag.Height) {
			delete(a.buffers, frag.ID)
			delete(a.bitmaps, frag.ID)
			a.drop(pts, frag.ID, rleErrorf("object size %dx%d exceeds video %dx%d",
				frag.Width, frag.Height, a.current.comp.VideoWidth, a.current.comp.VideoHeight))
			return
		}
		buf = &objectBuffer{
			id:       frag.ID,
			version:  frag.Version,
			width:    frag.Width,
			height:   frag.Height,
			expected: frag.DataLen,
			data:     make([]byte, 0, frag.DataLen),
		}
		a.buffers[frag.ID] = buf
		delete(a.bitmaps, frag.ID)
	} else if buf == nil {
		a.drop(pts, frag.ID, rleErrorf("continuation fragment without a first fragment"))
		return
	}

	buf.data = append(buf.data, frag.Fragment...)
	switch {
	case len(buf.data) > buf.expected:
		delete(a.buffers, frag.ID)
		a.drop(pts, frag.ID, rleErrorf("object data %d bytes exceeds declared %d", len(buf.data), buf.expected))
	case len(buf.data) == buf.expected:
		delete(a.buffers, frag.ID)
		bm, err := DecodeBitmap(buf.data, buf.width, buf.height, a.policy)
		if err != nil {
			a.drop(pts, frag.ID, err)
			return
		}
		a.bitmaps[frag.ID] = bm
		if a.current != nil {
			a.current.defined[frag.ID] = true
		}
	case frag.Last:
		delete(a.buffers, frag.ID)
		a.drop(pts, frag.ID, rleErrorf("last fragment leaves object at %d of %d bytes", len(buf.data), buf.expected))
	}
}

// outsideVideo reports whether a width x height object cannot fit the
// composition's video frame. A zero video size is not checked.
func outsideVideo(comp Composition, width, height int) bool {
	if comp.VideoWidth <= 0 || comp.VideoHeight <= 0 {
		return false
	}
	return width > comp.VideoWidth || height > comp.VideoHeight
}

func (a *Assembler) drop(pts int64, id uint16, err error) {
	a.dropped = append(a.dropped, DroppedObject{PTS: pts, ObjectID: id, Err: err})
	if a.current != nil {
		a.current.failed[id] = true
	}
}

func (a *Assembler) finalize() []Event {
	ds := a.current
	a.current = nil

	ids := make([]uint16, 0, len(ds.comp.Objects))
	for _, obj := range ds.comp.Objects {
		ids = append(ids, obj.ObjectID)
	}
	if len(ids) == 0 {
		a.prevObjects = nil
		return nil
	}
	changed := !slices.Equal(ids, a.prevObjects) || len(ds.defined) > 0
	a.prevObjects = ids
	if !changed && a.open != nil {
		return nil
	}

	var out []Event
	if a.open != nil {
		out = append(out, a.closeOpen(ds.pts))
	}
	if ev := a.render(ds); ev != nil {
		a.open = ev
	}
	return out
}

func (a *Assembler) render(ds *displaySet) *Event {
	pal := a.palettes[ds.comp.PaletteID]
	type placed struct {
		bm *Bitmap
		r  image.Rectangle
	}
	var parts []placed
	var union image.Rectangle
	ev := &Event{StartPTS: ds.pts}
	for _, obj := range ds.comp.Objects {
		bm := a.bitmaps[obj.ObjectID]
		if bm == nil {
			if !ds.failed[obj.ObjectID] {
				a.drop(ds.pts, obj.ObjectID, rleErrorf("object %d referenced but never defined", obj.ObjectID))
			}
			continue
		}
		r := image.Rect(obj.X, obj.Y, obj.X+bm.Width, obj.Y+bm.Height)
		parts = append(parts, placed{bm: bm, r: r})
		union = union.Union(r)
		ev.ObjectIDs = append(ev.ObjectIDs, obj.ObjectID)
		ev.Forced = ev.Forced || obj.Forced
		if w, ok := a.windows[obj.WindowID]; ok && !slices.Contains(ev.Windows, w) {
			ev.Windows = append(ev.Windows, w)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	if len(parts) == 1 {
		ev.Image = parts[0].bm.NRGBA(pal)
	} else {
		canvas := image.NewNRGBA(image.Rect(0, 0, union.Dx(), union.Dy()))
		for _, p := range parts {
			dst := p.r.Sub(union.Min)
			draw.Draw(canvas, dst, p.bm.NRGBA(pal), image.Point{}, draw.Over)
		}
		ev.Image = canvas
	}
	ev.Bounds = Rect{X: union.Min.X, Y: union.Min.Y, Width: union.Dx(), Height: union.Dy()}
	ev.Index = a.opened
	a.opened++
	return ev
}

func (a *Assembler) closeOpen(pts int64) Event {
	ev := *a.open
	a.open = nil
	ev.EndPTS = max(pts, ev.StartPTS)
	return ev
}
