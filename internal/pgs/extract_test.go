package pgs_test

import (
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tvidentify/internal/pgs"
	"tvidentify/internal/testsupport"
)

const second = pgs.ClockRate

func minutes(n int) uint32 { return uint32(n * 60 * second) }

func TestExtractOrdersEventsAndClosesOnClear(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	var s testsupport.PGSStream
	s.Caption(1*second, 1, bm, testsupport.WhiteOnTransparent()...)
	s.Clear(3*second, 2)
	s.Caption(5*second, 3, bm, testsupport.WhiteOnTransparent()...)
	s.Clear(7*second, 4)

	res, err := pgs.Extract(s.Bytes(), "hdmv_pgs_subtitle", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Stop != pgs.StopEndOfStream {
		t.Fatalf("expected end of stream, got %s", res.Stop)
	}
	type span struct{ Start, End int64 }
	var got []span
	for _, ev := range res.Events {
		got = append(got, span{ev.StartPTS, ev.EndPTS})
	}
	want := []span{{1 * second, 3 * second}, {5 * second, 7 * second}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("event spans mismatch (-want +got):\n%s", diff)
	}
	for i, ev := range res.Events {
		if ev.Start() > ev.End() {
			t.Fatalf("event %d starts after it ends", i)
		}
		if i > 0 && res.Events[i-1].Start() > ev.Start() {
			t.Fatalf("events out of order at %d", i)
		}
	}
	if res.Events[0].Start() != time.Second || res.Events[1].End() != 7*time.Second {
		t.Fatalf("unexpected durations %v %v", res.Events[0].Start(), res.Events[1].End())
	}
}

func TestExtractRendersPaletteColours(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	var s testsupport.PGSStream
	s.Caption(second, 1, bm, testsupport.WhiteOnTransparent()...)

	res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(res.Events))
	}
	ev := res.Events[0]
	if ev.Bounds != (pgs.Rect{X: 100, Y: 900, Width: 12, Height: 6}) {
		t.Fatalf("unexpected bounds %+v", ev.Bounds)
	}
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if got := ev.Image.NRGBAAt(1, 2); got != white {
		t.Fatalf("text pixel = %v, want %v", got, white)
	}
	if got := ev.Image.NRGBAAt(0, 0); got.A != 0 {
		t.Fatalf("background pixel should be transparent, got %v", got)
	}
	if len(ev.Windows) != 1 || ev.Windows[0].Rect != (pgs.Rect{X: 100, Y: 900, Width: 12, Height: 6}) {
		t.Fatalf("unexpected windows %+v", ev.Windows)
	}
	// No clear follows, so the event ends at the last timestamp in the stream.
	if ev.EndPTS != second {
		t.Fatalf("expected open event to end at %d, got %d", second, ev.EndPTS)
	}
}

func TestExtractFragmentedObjectMatchesSingleSegment(t *testing.T) {
	bm := testsupport.TextBitmap(40, 9)
	rle := pgs.EncodeRLE(bm)
	build := func(splits ...int) []byte {
		var s testsupport.PGSStream
		s.Composition(second, 1, pgs.StateEpochStart, 0, testsupport.PlacedObject{ObjectID: 0, X: 100, Y: 900})
		s.Window(second, 0, 100, 900, bm.Width, bm.Height)
		s.Palette(second, 0, testsupport.WhiteOnTransparent()...)
		s.Object(second, 0, bm.Width, bm.Height, rle, splits...)
		s.End(second)
		s.Clear(2*second, 2)
		return s.Bytes()
	}

	whole, err := pgs.Extract(build(), "pgs", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract whole: %v", err)
	}
	split, err := pgs.Extract(build(3, len(rle)/2, len(rle)-1), "pgs", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract split: %v", err)
	}
	if len(whole.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(whole.Events))
	}
	if diff := cmp.Diff(whole.Events, split.Events); diff != "" {
		t.Fatalf("fragmented object decoded differently (-whole +split):\n%s", diff)
	}
	if split.Segments != whole.Segments+3 {
		t.Fatalf("expected 3 extra segments, got %d vs %d", split.Segments, whole.Segments)
	}
}

func TestExtractHonoursTimeWindow(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	var s testsupport.PGSStream
	for i, m := range []int{1, 4, 8} {
		s.Caption(minutes(m), uint16(2*i), bm, testsupport.WhiteOnTransparent()...)
		s.Clear(minutes(m)+2*second, uint16(2*i+1))
	}
	// Anything after the first out-of-window composition is never read.
	s.Raw([]byte("not a segment"))

	res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{Offset: 2 * time.Minute, Duration: 5 * time.Minute})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Stop != pgs.StopWindow {
		t.Fatalf("expected window stop, got %s", res.Stop)
	}
	if len(res.Events) != 1 {
		t.Fatalf("expected only the 4 minute event, got %d", len(res.Events))
	}
	if got := res.Events[0].Start(); got != 4*time.Minute {
		t.Fatalf("expected event at 4m, got %v", got)
	}
}

func TestExtractStopsAtMaxEvents(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	var s testsupport.PGSStream
	for i := range 10 {
		pts := uint32((i*4 + 1) * second)
		s.Caption(pts, uint16(2*i), bm, testsupport.WhiteOnTransparent()...)
		s.Clear(pts+2*second, uint16(2*i+1))
	}

	res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{MaxEvents: 3})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(res.Events))
	}
	if res.Stop != pgs.StopMaxEvents {
		t.Fatalf("expected max events stop, got %s", res.Stop)
	}
	for i, ev := range res.Events {
		if ev.Index != i {
			t.Fatalf("event %d has index %d", i, ev.Index)
		}
	}
}

func TestExtractRejectsOutOfOrderCompositions(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	var s testsupport.PGSStream
	s.Caption(5*second, 1, bm, testsupport.WhiteOnTransparent()...)
	s.Caption(2*second, 2, bm, testsupport.WhiteOnTransparent()...)

	res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{})
	if !errors.Is(err, pgs.ErrOutOfOrderStream) {
		t.Fatalf("expected ErrOutOfOrderStream, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected no result on fatal error")
	}
}

func TestExtractDropsMalformedObjectAndContinues(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	var s testsupport.PGSStream
	s.Composition(second, 1, pgs.StateEpochStart, 0, testsupport.PlacedObject{ObjectID: 0, X: 10, Y: 10})
	s.Palette(second, 0, testsupport.WhiteOnTransparent()...)
	s.Object(second, 0, 2, 1, []byte{0x00, 0x83, 0x01})
	s.End(second)
	s.Clear(2*second, 2)
	s.Caption(3*second, 3, bm, testsupport.WhiteOnTransparent()...)
	s.Clear(4*second, 4)

	res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Dropped) != 1 {
		t.Fatalf("expected 1 dropped object, got %+v", res.Dropped)
	}
	if !errors.Is(res.Dropped[0].Err, pgs.ErrMalformedRLE) || res.Dropped[0].PTS != second {
		t.Fatalf("unexpected drop %+v", res.Dropped[0])
	}
	if len(res.Events) != 1 || res.Events[0].StartPTS != 3*second {
		t.Fatalf("expected the later caption to survive, got %+v", res.Events)
	}
}

func TestExtractCompositesMultipleObjects(t *testing.T) {
	bm := testsupport.TextBitmap(10, 4)
	rle := pgs.EncodeRLE(bm)
	var s testsupport.PGSStream
	s.Composition(second, 1, pgs.StateEpochStart, 0,
		testsupport.PlacedObject{ObjectID: 0, X: 100, Y: 900},
		testsupport.PlacedObject{ObjectID: 1, WindowID: 1, X: 300, Y: 900, Forced: true},
	)
	s.Window(second, 0, 100, 900, 10, 4)
	s.Window(second, 1, 300, 900, 10, 4)
	s.Palette(second, 0, testsupport.WhiteOnTransparent()...)
	s.Object(second, 0, bm.Width, bm.Height, rle)
	s.Object(second, 1, bm.Width, bm.Height, rle)
	s.End(second)
	s.Clear(2*second, 2)

	res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Events) != 1 {
		t.Fatalf("expected 1 composited event, got %d", len(res.Events))
	}
	ev := res.Events[0]
	if ev.Bounds != (pgs.Rect{X: 100, Y: 900, Width: 210, Height: 4}) {
		t.Fatalf("unexpected union bounds %+v", ev.Bounds)
	}
	if !ev.Forced {
		t.Fatalf("expected forced flag from second object")
	}
	if diff := cmp.Diff([]uint16{0, 1}, ev.ObjectIDs); diff != "" {
		t.Fatalf("object ids mismatch (-want +got):\n%s", diff)
	}
	if len(ev.Windows) != 2 {
		t.Fatalf("expected both windows, got %+v", ev.Windows)
	}
	if ev.Image.NRGBAAt(1, 1).A != 255 || ev.Image.NRGBAAt(201, 1).A != 255 {
		t.Fatalf("expected both objects drawn")
	}
	if ev.Image.NRGBAAt(50, 1).A != 0 {
		t.Fatalf("expected gap between objects to stay transparent")
	}
}

func TestExtractContinuesEventAcrossUnchangedComposition(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	var s testsupport.PGSStream
	s.Caption(second, 1, bm, testsupport.WhiteOnTransparent()...)
	s.Composition(2*second, 2, pgs.StateNormal, 0, testsupport.PlacedObject{ObjectID: 0, X: 100, Y: 900})
	s.End(2 * second)
	s.Clear(4*second, 3)

	res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Events) != 1 {
		t.Fatalf("expected the repeat composition to extend the event, got %d events", len(res.Events))
	}
	if res.Events[0].EndPTS != 4*second {
		t.Fatalf("expected end at clear, got %d", res.Events[0].EndPTS)
	}
}

func TestExtractCorruptStreamYieldsNoEvents(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	var s testsupport.PGSStream
	s.Caption(second, 1, bm, testsupport.WhiteOnTransparent()...)
	s.Clear(2*second, 2)
	offset := s.Len()
	s.Raw([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0, 0, 0, 0, 0, 0})

	res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{})
	if !errors.Is(err, pgs.ErrCorruptStream) {
		t.Fatalf("expected ErrCorruptStream, got %v", err)
	}
	var fe *pgs.FormatError
	if !errors.As(err, &fe) || fe.Offset != offset {
		t.Fatalf("expected offset %d in error, got %v", offset, err)
	}
	if res != nil {
		t.Fatalf("expected no events from a corrupt stream")
	}
}

func TestExtractRejectsUnsupportedCodec(t *testing.T) {
	for _, codec := range []string{"subrip", "dvd_subtitle", ""} {
		if _, err := pgs.Extract(nil, codec, pgs.Options{}); !errors.Is(err, pgs.ErrUnsupportedFormat) {
			t.Fatalf("codec %q: expected ErrUnsupportedFormat, got %v", codec, err)
		}
	}
	if err := pgs.CheckCodec(" HDMV_PGS_SUBTITLE "); err != nil {
		t.Fatalf("expected case-insensitive codec match, got %v", err)
	}
}

func TestPTSConversions(t *testing.T) {
	if got := pgs.PTSToDuration(90000); got != time.Second {
		t.Fatalf("PTSToDuration(90000) = %v", got)
	}
	if got := pgs.DurationToPTS(1500 * time.Millisecond); got != 135000 {
		t.Fatalf("DurationToPTS(1.5s) = %d", got)
	}
}

func TestExtractDropsTruncatedObjectSegment(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	var s testsupport.PGSStream
	s.Composition(second, 1, pgs.StateEpochStart, 0, testsupport.PlacedObject{ObjectID: 0, X: 100, Y: 900})
	s.Window(second, 0, 100, 900, 12, 6)
	s.Palette(second, 0, testsupport.WhiteOnTransparent()...)
	// First and last fragment flags, but no size fields or data.
	s.Segment(pgs.SegmentObjectDefinition, second, []byte{0x00, 0x00, 0x00, 0xC0, 0x00, 0x00})
	s.End(second)
	s.Clear(2*second, 2)
	s.Caption(3*second, 3, bm, testsupport.WhiteOnTransparent()...)
	s.Clear(4*second, 4)

	res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Events) != 1 || res.Events[0].StartPTS != 3*second {
		t.Fatalf("expected the later caption to survive, got %+v", res.Events)
	}
	if len(res.Dropped) != 1 {
		t.Fatalf("expected 1 dropped object, got %+v", res.Dropped)
	}
	drop := res.Dropped[0]
	if !errors.Is(drop.Err, pgs.ErrMalformedRLE) || drop.PTS != second || drop.ObjectID != 0 {
		t.Fatalf("unexpected drop %+v", drop)
	}
}

func TestExtractDropsObjectLargerThanVideo(t *testing.T) {
	wide := testsupport.TextBitmap(2000, 2)
	var s testsupport.PGSStream
	s.Caption(second, 1, wide, testsupport.WhiteOnTransparent()...)
	s.Clear(2*second, 2)
	s.Caption(3*second, 3, testsupport.TextBitmap(12, 6), testsupport.WhiteOnTransparent()...)
	s.Clear(4*second, 4)

	res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Events) != 1 || res.Events[0].StartPTS != 3*second {
		t.Fatalf("expected only the fitting caption, got %+v", res.Events)
	}
	if len(res.Dropped) != 1 || !errors.Is(res.Dropped[0].Err, pgs.ErrMalformedRLE) {
		t.Fatalf("expected the oversized object to be dropped, got %+v", res.Dropped)
	}
}

func TestExtractPaletteSegmentReplacesWholePalette(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	red := testsupport.PaletteEntry{Index: 2, Y: 81, Cr: 240, Cb: 90, Alpha: 255}
	var s testsupport.PGSStream
	s.Caption(second, 1, bm, testsupport.WhiteOnTransparent()...)
	// Same palette id, but only index 2 is defined now.
	s.Composition(3*second, 2, pgs.StateNormal, 0, testsupport.PlacedObject{ObjectID: 0, X: 100, Y: 900})
	s.Palette(3*second, 0, red)
	s.Object(3*second, 0, bm.Width, bm.Height, pgs.EncodeRLE(bm))
	s.End(3 * second)
	s.Clear(4*second, 3)

	res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(res.Events))
	}
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if got := res.Events[0].Image.NRGBAAt(1, 2); got != white {
		t.Fatalf("first event text pixel = %v, want %v", got, white)
	}
	if got := res.Events[1].Image.NRGBAAt(1, 2); got != (color.NRGBA{}) {
		t.Fatalf("index 1 should be undefined after the palette update, got %v", got)
	}
}

func TestExtractEpochStartResetsState(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	tests := []struct {
		name       string
		state      pgs.CompositionState
		wantEvents int
		wantDrops  int
	}{
		{name: "normal keeps object", state: pgs.StateNormal, wantEvents: 2},
		{name: "epoch start forgets object", state: pgs.StateEpochStart, wantEvents: 1, wantDrops: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s testsupport.PGSStream
			s.Caption(second, 1, bm, testsupport.WhiteOnTransparent()...)
			s.Clear(2*second, 2)
			// Shows object 0 again without redefining it or its palette.
			s.Composition(3*second, 3, tt.state, 0, testsupport.PlacedObject{ObjectID: 0, X: 100, Y: 900})
			s.End(3 * second)
			s.Clear(4*second, 4)

			res, err := pgs.Extract(s.Bytes(), "pgs", pgs.Options{})
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(res.Events) != tt.wantEvents {
				t.Fatalf("expected %d events, got %d", tt.wantEvents, len(res.Events))
			}
			if len(res.Dropped) != tt.wantDrops {
				t.Fatalf("expected %d dropped objects, got %+v", tt.wantDrops, res.Dropped)
			}
			if tt.wantDrops > 0 && res.Dropped[0].PTS != 3*second {
				t.Fatalf("expected drop at the epoch start, got %+v", res.Dropped[0])
			}
		})
	}
}

func TestExtractSkipsUnknownSegmentTypes(t *testing.T) {
	bm := testsupport.TextBitmap(12, 6)
	build := func(extra bool) []byte {
		var s testsupport.PGSStream
		s.Composition(second, 1, pgs.StateEpochStart, 0, testsupport.PlacedObject{ObjectID: 0, X: 100, Y: 900})
		if extra {
			s.Segment(pgs.SegmentType(0x42), second, []byte{0x01, 0x02, 0x03})
		}
		s.Window(second, 0, 100, 900, bm.Width, bm.Height)
		s.Palette(second, 0, testsupport.WhiteOnTransparent()...)
		s.Object(second, 0, bm.Width, bm.Height, pgs.EncodeRLE(bm))
		s.End(second)
		s.Clear(2*second, 2)
		return s.Bytes()
	}

	plain, err := pgs.Extract(build(false), "pgs", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract plain: %v", err)
	}
	mixed, err := pgs.Extract(build(true), "pgs", pgs.Options{})
	if err != nil {
		t.Fatalf("Extract with unknown segment: %v", err)
	}
	if diff := cmp.Diff(plain.Events, mixed.Events); diff != "" {
		t.Fatalf("unknown segment changed the events (-plain +mixed):\n%s", diff)
	}
	if mixed.Segments != plain.Segments+1 {
		t.Fatalf("expected the unknown segment to be counted, got %d vs %d", mixed.Segments, plain.Segments)
	}
}
