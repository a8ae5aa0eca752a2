package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestCleanRepairsCommonMisreads(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"|t's fine.", "It's fine."},
		{"Wait.\n|know.", "Wait. Iknow."},
		{"l'm here and l'll stay.", "I'm here and I'll stay."},
		{"[DOOR SLAMS] Who's there?", "Who's there?"},
		{"(sighs) Fine.", "Fine."},
		{"♪ La la la ♪", "La la la"},
		{"  spaced    out \n\n line ", "spaced out line"},
		{"   ", ""},
		{"a | b", "a | b"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Fatalf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrepareInvertsAlphaAndPads(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 14, 12))
	src.SetNRGBA(10, 10, color.NRGBA{R: 255, G: 255, B: 0, A: 255})

	out := Prepare(src, PrepareOptions{ScaleFactor: 1, Border: 2})
	if out.Bounds().Dx() != 8 || out.Bounds().Dy() != 6 {
		t.Fatalf("unexpected size %v", out.Bounds())
	}
	if got := out.GrayAt(2, 2).Y; got != 0 {
		t.Fatalf("opaque pixel should be black, got %d", got)
	}
	if got := out.GrayAt(3, 2).Y; got != 255 {
		t.Fatalf("transparent pixel should be white, got %d", got)
	}
	if got := out.GrayAt(0, 0).Y; got != 255 {
		t.Fatalf("border should be white, got %d", got)
	}
}

func TestPrepareUpscales(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 6))
	for x := 0; x < 20; x++ {
		for y := 0; y < 6; y++ {
			src.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	out := Prepare(src, PrepareOptions{ScaleFactor: DefaultScaleFactor, Border: DefaultBorder})
	wantW := 20*DefaultScaleFactor + 2*DefaultBorder
	wantH := 6*DefaultScaleFactor + 2*DefaultBorder
	if out.Bounds().Dx() != wantW || out.Bounds().Dy() != wantH {
		t.Fatalf("unexpected size %v, want %dx%d", out.Bounds(), wantW, wantH)
	}
	if got := out.GrayAt(DefaultBorder+30, DefaultBorder+9).Y; got != 0 {
		t.Fatalf("scaled ink should stay black, got %d", got)
	}
}

func TestTesseractPipesPNGAndReturnsRawText(t *testing.T) {
	eng := NewTesseract(TesseractOptions{Language: "eng", EngineMode: 3, PageSegMode: 6}, nil)
	var gotArgs []string
	var gotSize image.Rectangle
	eng.WithCommandRunner(func(_ context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
		if name != "tesseract" {
			t.Fatalf("unexpected binary %q", name)
		}
		gotArgs = args
		img, err := png.Decode(bytes.NewReader(stdin))
		if err != nil {
			t.Fatalf("stdin is not a PNG: %v", err)
		}
		gotSize = img.Bounds()
		return []byte("|t's l'm (laughs)\n"), nil
	})

	src := image.NewNRGBA(image.Rect(0, 0, 10, 4))
	text, err := eng.Recognize(context.Background(), src)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	// Clean runs in the pipeline, not in the engine.
	if text != "|t's l'm (laughs)\n" {
		t.Fatalf("expected raw tesseract output, got %q", text)
	}
	if got := Clean(text); got != "It's I'm" {
		t.Fatalf("Clean(%q) = %q", text, got)
	}
	want := []string{"stdin", "stdout", "-l", "eng", "--oem", "3", "--psm", "6"}
	if !slices.Equal(gotArgs, want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
	if gotSize.Dx() != 10 || gotSize.Dy() != 4 {
		t.Fatalf("expected unscaled input with zero options, got %v", gotSize)
	}
}

func TestTesseractWrapsRunnerErrors(t *testing.T) {
	eng := NewTesseract(TesseractOptions{}, nil)
	sentinel := errors.New("boom")
	eng.WithCommandRunner(func(context.Context, []byte, string, ...string) ([]byte, error) {
		return nil, sentinel
	})
	_, err := eng.Recognize(context.Background(), image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
}

func TestTesseractSkipsEmptyImages(t *testing.T) {
	eng := NewTesseract(TesseractOptions{}, nil)
	eng.WithCommandRunner(func(context.Context, []byte, string, ...string) ([]byte, error) {
		t.Fatal("runner should not be called for an empty image")
		return nil, nil
	})
	text, err := eng.Recognize(context.Background(), image.NewNRGBA(image.Rectangle{}))
	if err != nil || text != "" {
		t.Fatalf("expected empty result, got %q %v", text, err)
	}
}

func TestTesseractDefaultRunnerUsesStub(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\ncat >/dev/null\necho \"$TESSDATA_PREFIX $@\"\n"
	path := filepath.Join(dir, "tesseract")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	eng := NewTesseract(TesseractOptions{Binary: path, TessdataDir: "/opt/tessdata"}, nil)
	text, err := eng.Recognize(context.Background(), image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if !strings.HasPrefix(text, "/opt/tessdata stdin stdout -l eng --oem 3 --psm 6") {
		t.Fatalf("unexpected stub output %q", text)
	}
}
