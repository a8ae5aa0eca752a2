package subtitles

import (
	"fmt"

	"tvidentify/internal/language"
	"tvidentify/internal/media/ffprobe"
	"tvidentify/internal/pgs"
	"tvidentify/internal/services"
)

// AutoTrack lets SelectTrack pick a stream by language.
const AutoTrack = -1

// Selection describes which subtitle stream to use.
type Selection struct {
	// Index is a container stream index, or AutoTrack.
	Index int
	// Language is the preferred language in any ISO 639 form.
	Language string
}

// SelectTrack picks a subtitle stream. An explicit index must name a
// subtitle stream. Otherwise the first stream matching the preferred
// language wins, falling back to the first subtitle stream. Streams without
// a language tag match any preference.
func SelectTrack(streams []ffprobe.Stream, sel Selection) (ffprobe.Stream, error) {
	var subs []ffprobe.Stream
	for _, s := range streams {
		if s.IsSubtitle() {
			subs = append(subs, s)
		}
	}
	if len(subs) == 0 {
		return ffprobe.Stream{}, services.Wrap(services.ErrNotFound, "subtitles", "select track", "no subtitle streams", nil)
	}
	if sel.Index >= 0 {
		for _, s := range subs {
			if s.Index == sel.Index {
				return s, nil
			}
		}
		return ffprobe.Stream{}, services.Wrap(services.ErrNotFound, "subtitles", "select track",
			fmt.Sprintf("stream %d is not a subtitle stream", sel.Index), nil)
	}
	if sel.Language != "" {
		for _, s := range subs {
			if language.Matches(s.Language(), sel.Language) {
				return s, nil
			}
		}
	}
	return subs[0], nil
}

// CheckTrack rejects streams whose codec is not PGS.
func CheckTrack(s ffprobe.Stream) error {
	if err := pgs.CheckCodec(s.CodecName); err != nil {
		return services.Wrap(services.ErrValidation, "subtitles", "check codec",
			fmt.Sprintf("stream %d", s.Index), err)
	}
	return nil
}
