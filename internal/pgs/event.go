package pgs

import (
	"image"
	"time"
)

// ClockRate is the PTS tick rate.
const ClockRate = 90000

// Event is one caption: the raster shown from StartPTS until EndPTS.
type Event struct {
	Index     int
	StartPTS  int64
	EndPTS    int64
	Image     *image.NRGBA
	Bounds    Rect
	Windows   []Window
	ObjectIDs []uint16
	Forced    bool
}

// Start returns StartPTS as a duration from the start of the stream.
func (e Event) Start() time.Duration { return PTSToDuration(e.StartPTS) }

// End returns EndPTS as a duration from the start of the stream.
func (e Event) End() time.Duration { return PTSToDuration(e.EndPTS) }

// DroppedObject records an object that could not be decoded. The stream
// keeps decoding past it.
type DroppedObject struct {
	PTS      int64
	ObjectID uint16
	Err      error
}

// PTSToDuration converts 90 kHz ticks to a duration.
func PTSToDuration(pts int64) time.Duration {
	return time.Duration(pts * 100000 / 9)
}

// DurationToPTS converts d to 90 kHz ticks with millisecond precision.
func DurationToPTS(d time.Duration) int64 {
	return int64(d/time.Millisecond) * (ClockRate / 1000)
}
