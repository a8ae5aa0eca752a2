package subtitles

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"time"

	"tvidentify/internal/cache"
	"tvidentify/internal/config"
	"tvidentify/internal/language"
	"tvidentify/internal/logging"
	"tvidentify/internal/media/ffprobe"
	"tvidentify/internal/media/sup"
	"tvidentify/internal/ocr"
	"tvidentify/internal/pgs"
	"tvidentify/internal/textfilter"
)

var inspectMedia = ffprobe.Inspect

type streamExtractor interface {
	Extract(ctx context.Context, source string, streamIndex int, limit time.Duration) ([]byte, error)
}

// Request describes one extraction. Zero values take the config defaults
// through RequestFromConfig.
type Request struct {
	SourcePath string
	Track      int
	Language   string
	Offset     time.Duration
	// Duration is the scan window after Offset. Zero scans to the end.
	Duration  time.Duration
	MaxEvents int
	StrictRLE bool
	// NoCache skips both cache lookup and store.
	NoCache bool
}

// RequestFromConfig fills a Request for path from the extraction section.
func RequestFromConfig(cfg *config.Config, path string) Request {
	req := Request{SourcePath: path, Track: AutoTrack}
	if cfg == nil {
		return req
	}
	req.Track = cfg.Extraction.SubtitleTrack
	req.Language = cfg.Extraction.SubtitleLanguage
	req.Offset = cfg.Offset()
	req.Duration = cfg.ScanDuration()
	req.MaxEvents = cfg.Extraction.MaxFrames
	req.StrictRLE = cfg.Extraction.StrictRLERows
	req.NoCache = !cfg.Cache.Enabled
	return req
}

// Service runs the extraction pipeline.
type Service struct {
	config  *config.Config
	logger  *slog.Logger
	inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	streams streamExtractor
	engine  ocr.Engine
	cache   *cache.Cache
	filter  textfilter.Filter
	nowFunc func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithEngine replaces the tesseract engine.
func WithEngine(engine ocr.Engine) ServiceOption {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithCache enables result caching. The caller owns the cache.
func WithCache(c *cache.Cache) ServiceOption {
	return func(s *Service) {
		s.cache = c
	}
}

// WithStreamExtractor replaces the ffmpeg stream copier (used in tests).
func WithStreamExtractor(e streamExtractor) ServiceOption {
	return func(s *Service) {
		if e != nil {
			s.streams = e
		}
	}
}

// WithInspector replaces ffprobe (used in tests).
func WithInspector(fn func(ctx context.Context, binary, path string) (ffprobe.Result, error)) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.inspect = fn
		}
	}
}

// NewService constructs the pipeline from cfg.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...ServiceOption) *Service {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	serviceLogger := logging.NewComponentLogger(logger, "subtitles")
	svc := &Service{
		config:  cfg,
		logger:  serviceLogger,
		inspect: inspectMedia,
		streams: sup.NewExtractor(cfg.Tools.FFmpeg, cfg.Paths.WorkDir, logger),
		filter:  textfilter.New(cfg.Filter.MinLetters, cfg.Filter.MinValidRatio),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.engine == nil {
		svc.engine = ocr.NewTesseract(tesseractOptions(cfg), logger)
	}
	return svc
}

func tesseractOptions(cfg *config.Config) ocr.TesseractOptions {
	lang := strings.TrimSpace(cfg.OCR.Language)
	if lang == "" {
		lang = language.TesseractCode(cfg.Extraction.SubtitleLanguage)
	}
	return ocr.TesseractOptions{
		Binary:      cfg.Tools.Tesseract,
		Language:    lang,
		EngineMode:  cfg.OCR.EngineMode,
		PageSegMode: cfg.OCR.PageSegMode,
		Prepare: ocr.PrepareOptions{
			ScaleFactor: cfg.OCR.ScaleFactor,
			Border:      cfg.OCR.Border,
		},
		TessdataDir: cfg.OCR.TessdataDir,
	}
}

// recognize runs OCR and cleanup for a single event image.
func (s *Service) recognize(ctx context.Context, img image.Image) (string, error) {
	text, err := s.engine.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	if s.config.OCR.Cleanup {
		text = ocr.Clean(text)
	}
	return text, nil
}

func rowPolicy(strict bool) pgs.RowPolicy {
	if strict {
		return pgs.StrictRows
	}
	return pgs.PadShortRows
}
