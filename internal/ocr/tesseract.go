package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"tvidentify/internal/logging"
)

const tesseractCommand = "tesseract"

// Tesseract defaults: LSTM engine, single uniform block of text. Engine mode
// 0 (legacy only) is treated as unset.
const (
	DefaultEngineMode  = 3
	DefaultPageSegMode = 6
	DefaultLanguage    = "eng"
)

// commandRunner executes name with stdin and returns its stdout.
type commandRunner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// TesseractOptions configures a Tesseract engine.
type TesseractOptions struct {
	Binary      string
	Language    string
	EngineMode  int
	PageSegMode int
	Prepare     PrepareOptions
	// TessdataDir is exported as TESSDATA_PREFIX when set.
	TessdataDir string
}

// Tesseract recognizes text by running the tesseract CLI.
type Tesseract struct {
	opts   TesseractOptions
	logger *slog.Logger
	run    commandRunner
}

// NewTesseract returns a Tesseract engine with defaults filled in.
func NewTesseract(opts TesseractOptions, logger *slog.Logger) *Tesseract {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = tesseractCommand
	}
	if strings.TrimSpace(opts.Language) == "" {
		opts.Language = DefaultLanguage
	}
	if opts.EngineMode <= 0 {
		opts.EngineMode = DefaultEngineMode
	}
	if opts.PageSegMode <= 0 {
		opts.PageSegMode = DefaultPageSegMode
	}
	t := &Tesseract{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "ocr"),
	}
	t.run = t.defaultRunner
	return t
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (t *Tesseract) WithCommandRunner(r commandRunner) {
	if t != nil && r != nil {
		t.run = r
	}
}

// Args returns the tesseract arguments used for every image.
func (t *Tesseract) Args() []string {
	return []string{
		"stdin", "stdout",
		"-l", t.opts.Language,
		"--oem", strconv.Itoa(t.opts.EngineMode),
		"--psm", strconv.Itoa(t.opts.PageSegMode),
	}
}

// Recognize prepares img, pipes it to tesseract as PNG and returns the text.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if t == nil {
		return "", fmt.Errorf("tesseract engine not initialized")
	}
	if img == nil || img.Bounds().Empty() {
		return "", nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, Prepare(img, t.opts.Prepare)); err != nil {
		return "", fmt.Errorf("encode ocr input: %w", err)
	}
	out, err := t.run(ctx, buf.Bytes(), t.opts.Binary, t.Args()...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	text := string(out)
	t.logger.Debug("ocr recognized",
		logging.Int("width", img.Bounds().Dx()),
		logging.Int("height", img.Bounds().Dy()),
		logging.String("text", text),
	)
	return text, nil
}

func (t *Tesseract) defaultRunner(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if dir := strings.TrimSpace(t.opts.TessdataDir); dir != "" {
		cmd.Env = append(os.Environ(), "TESSDATA_PREFIX="+dir)
	}
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
