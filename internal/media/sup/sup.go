// Package sup demuxes a PGS subtitle stream from a video container into raw
// SUP bytes using ffmpeg stream copy.
package sup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tvidentify/internal/logging"
)

const ffmpegCommand = "ffmpeg"

// ErrEmptyStream is returned when ffmpeg produced no subtitle data.
var ErrEmptyStream = errors.New("sup: extracted stream is empty")

type commandRunner func(ctx context.Context, name string, args ...string) error

// Extractor copies subtitle streams out of containers.
type Extractor struct {
	binary  string
	workDir string
	logger  *slog.Logger
	run     commandRunner
}

// NewExtractor returns an Extractor that writes temporary files under
// workDir (os.TempDir when empty).
func NewExtractor(binary, workDir string, logger *slog.Logger) *Extractor {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = ffmpegCommand
	}
	return &Extractor{
		binary:  binary,
		workDir: strings.TrimSpace(workDir),
		logger:  logging.NewComponentLogger(logger, "sup"),
		run:     defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *Extractor) WithCommandRunner(r commandRunner) {
	if e != nil && r != nil {
		e.run = r
	}
}

// Args builds the ffmpeg invocation. Only -t is passed so packet timestamps
// stay relative to the start of the container.
func Args(source string, streamIndex int, limit time.Duration, output string) []string {
	args := []string{"-v", "error", "-i", source}
	if limit > 0 {
		args = append(args, "-t", strconv.FormatFloat(limit.Seconds(), 'f', -1, 64))
	}
	return append(args,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-c", "copy",
		"-f", "sup",
		output,
		"-y",
	)
}

// Extract copies stream streamIndex of source, reading at most limit of the
// container (zero reads everything), and returns the SUP bytes.
func (e *Extractor) Extract(ctx context.Context, source string, streamIndex int, limit time.Duration) ([]byte, error) {
	if e == nil {
		return nil, errors.New("sup extractor not initialized")
	}
	if strings.TrimSpace(source) == "" {
		return nil, errors.New("sup extract: empty source path")
	}
	if e.workDir != "" {
		if err := os.MkdirAll(e.workDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure work directory: %w", err)
		}
	}
	dir, err := os.MkdirTemp(e.workDir, "sup-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	output := filepath.Join(dir, "stream.sup")
	args := Args(source, streamIndex, limit, output)
	e.logger.Debug("extracting subtitle stream",
		logging.String(logging.FieldSource, source),
		logging.Int("stream_index", streamIndex),
		logging.Duration("limit", limit),
	)
	started := time.Now()
	if err := e.run(ctx, e.binary, args...); err != nil {
		return nil, fmt.Errorf("ffmpeg extract stream %d: %w", streamIndex, err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrEmptyStream
		}
		return nil, fmt.Errorf("read extracted stream: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyStream
	}
	e.logger.Debug("subtitle stream extracted",
		logging.Int("bytes", len(data)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return data, nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
