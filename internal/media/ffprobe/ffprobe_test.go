package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "ac3", "codec_type": "audio", "tags": {"language": "eng"}},
    {"index": 2, "codec_name": "hdmv_pgs_subtitle", "codec_type": "subtitle",
     "tags": {"language": "fre", "title": "French"}, "disposition": {"forced": 0}},
    {"index": 3, "codec_name": "hdmv_pgs_subtitle", "codec_type": "subtitle",
     "tags": {"LANGUAGE": "eng", "title": "SDH"}, "disposition": {"forced": 1, "hearing_impaired": 1}}
  ],
  "format": {"filename": "episode.mkv", "nb_streams": 4, "duration": "1325.5", "format_name": "matroska,webm"}
}`

func TestParseSubtitleStreams(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	subs := result.SubtitleStreams()
	if len(subs) != 2 {
		t.Fatalf("expected 2 subtitle streams, got %d", len(subs))
	}
	if subs[0].Index != 2 || subs[0].Language() != "fre" || subs[0].Title() != "French" || subs[0].Forced() {
		t.Fatalf("unexpected first subtitle stream %+v", subs[0])
	}
	if subs[1].Language() != "eng" || !subs[1].Forced() || !subs[1].HearingImpaired() {
		t.Fatalf("unexpected second subtitle stream %+v", subs[1])
	}
	if _, ok := result.Stream(3); !ok {
		t.Fatal("expected stream 3 to be found")
	}
	if _, ok := result.Stream(9); ok {
		t.Fatal("expected stream 9 to be missing")
	}
	if result.DurationSeconds() != 1325.5 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
	if len(result.RawJSON()) == 0 {
		t.Fatal("expected raw JSON to be retained")
	}
}

func TestDurationHandlesInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if (Result{}).DurationSeconds() != 0 {
		t.Fatal("expected 0 for missing duration")
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "probe.json")
	if err := os.WriteFile(jsonPath, []byte(sampleJSON), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncat " + jsonPath + "\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	result, err := Inspect(context.Background(), stub, "/media/episode.mkv")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(result.Streams) != 4 {
		t.Fatalf("expected 4 streams, got %d", len(result.Streams))
	}
}

func TestInspectReportsFailure(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\necho 'No such file' >&2\nexit 1\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if _, err := Inspect(context.Background(), stub, "/missing.mkv"); err == nil {
		t.Fatal("expected error from failing ffprobe")
	}
	if _, err := Inspect(context.Background(), stub, " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
