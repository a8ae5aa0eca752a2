package subtitles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tvidentify/internal/cache"
	"tvidentify/internal/language"
	"tvidentify/internal/logging"
	"tvidentify/internal/pgs"
	"tvidentify/internal/services"
	"tvidentify/internal/textutil"
)

// Extract runs req through the pipeline and returns the accepted lines.
func (s *Service) Extract(ctx context.Context, req Request) (*Result, error) {
	if s == nil {
		return nil, services.Wrap(services.ErrConfiguration, "subtitles", "init", "service unavailable", nil)
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	key, err := cache.KeyForFile(req.SourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "subtitles", "stat source", req.SourcePath, err)
		}
		return nil, services.Wrap(services.ErrValidation, "subtitles", "stat source", req.SourcePath, err)
	}
	key.Track = req.Track
	key.Language = language.ToISO2(req.Language)
	key.Offset = req.Offset
	key.Duration = req.Duration
	key.MaxEvents = req.MaxEvents
	key.Variant = s.variant(req)
	cacheKey := key.Hash()

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithSource(ctx, key.Path)
	logger := logging.WithContext(ctx, s.logger)

	useCache := s.cache != nil && !req.NoCache
	if useCache {
		if res, ok := s.cached(ctx, cacheKey, runID); ok {
			logger.Info("subtitle extraction served from cache",
				logging.EventType("extract_cache_hit"),
				logging.Int("lines", len(res.Lines)),
				logging.Bool("cache_hit", true),
			)
			return res, nil
		}
		release, err := s.cache.Lock(ctx, cacheKey)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "subtitles", "lock", key.Path, err)
		}
		defer release()
		if res, ok := s.cached(ctx, cacheKey, runID); ok {
			return res, nil
		}
	}

	started := time.Now()
	res, err := s.run(ctx, req, key.Path)
	if err != nil {
		return nil, err
	}
	res.RunID = runID
	res.CreatedAt = s.nowFunc().UTC()

	logger.Info("subtitle extraction finished",
		logging.EventType("extract_complete"),
		logging.Int("events", res.Stats.Events),
		logging.Int("accepted", len(res.Lines)),
		logging.Int("rejected", res.Stats.Rejected),
		logging.Int("duplicates", res.Stats.Duplicates),
		logging.Int("dropped_objects", res.Stats.Dropped),
		logging.String("stop_reason", string(res.Stats.Stop)),
		logging.Bool("cache_hit", false),
		logging.Duration("elapsed", time.Since(started)),
	)

	if useCache {
		s.store(ctx, cacheKey, res)
	}
	return res, nil
}

func validateRequest(req Request) error {
	switch {
	case strings.TrimSpace(req.SourcePath) == "":
		return services.Wrap(services.ErrValidation, "subtitles", "validate", "source path is required", nil)
	case req.Offset < 0:
		return services.Wrap(services.ErrValidation, "subtitles", "validate", "offset must be non-negative", nil)
	case req.Duration < 0:
		return services.Wrap(services.ErrValidation, "subtitles", "validate", "scan duration must be non-negative", nil)
	case req.MaxEvents < 0:
		return services.Wrap(services.ErrValidation, "subtitles", "validate", "max frames must be non-negative", nil)
	case req.Track < AutoTrack:
		return services.Wrap(services.ErrValidation, "subtitles", "validate", "track must be -1 or a stream index", nil)
	}
	return nil
}

// run does the uncached work: probe, select, demux, decode, OCR, filter.
func (s *Service) run(ctx context.Context, req Request, path string) (*Result, error) {
	logger := logging.WithContext(ctx, s.logger)

	probe, err := s.inspect(ctx, s.config.Tools.FFprobe, path)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "subtitles", "ffprobe", path, err)
	}
	stream, err := SelectTrack(probe.Streams, Selection{Index: req.Track, Language: req.Language})
	if err != nil {
		return nil, err
	}
	if err := CheckTrack(stream); err != nil {
		return nil, err
	}
	ctx = logging.WithTrack(ctx, stream.Index)
	logger = logging.WithContext(ctx, s.logger)
	logger.Debug("subtitle track selected",
		logging.String("codec", stream.CodecName),
		logging.String("language", stream.Language()),
		logging.String("title", stream.Title()),
	)

	// ffmpeg only needs to read up to the end of the window.
	var limit time.Duration
	if req.Duration > 0 {
		limit = req.Offset + req.Duration
	}
	data, err := s.streams.Extract(ctx, path, stream.Index, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "subtitles", "ffmpeg", fmt.Sprintf("stream %d", stream.Index), err)
	}

	decoded, err := pgs.Extract(data, stream.CodecName, pgs.Options{
		Offset:    req.Offset,
		Duration:  req.Duration,
		MaxEvents: req.MaxEvents,
		RowPolicy: rowPolicy(req.StrictRLE),
	})
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "subtitles", "decode pgs", fmt.Sprintf("stream %d", stream.Index), err)
	}
	for _, d := range decoded.Dropped {
		logging.WarnWithContext(logger, "subtitle object dropped", "pgs_object_dropped",
			logging.Int("object_id", int(d.ObjectID)),
			logging.String("timestamp", FormatTimestamp(pgs.PTSToDuration(d.PTS))),
			logging.Error(d.Err),
			logging.Hint(droppedObjectHint(d, req.StrictRLE)),
			logging.Impact("one caption is missing from the output"),
		)
	}

	res := &Result{
		Source: path,
		Track: Track{
			Index:           stream.Index,
			Codec:           stream.CodecName,
			Language:        language.ToISO2(stream.Language()),
			Title:           stream.Title(),
			Forced:          stream.Forced(),
			HearingImpaired: stream.HearingImpaired(),
		},
		Offset:   req.Offset.Seconds(),
		Duration: req.Duration.Seconds(),
		Stats: Stats{
			Segments: decoded.Segments,
			Events:   len(decoded.Events),
			Dropped:  len(decoded.Dropped),
			Stop:     decoded.Stop,
		},
	}
	if err := s.recognizeEvents(ctx, decoded.Events, res); err != nil {
		return nil, err
	}
	res.Fingerprint = textutil.Digest(res.Texts())
	return res, nil
}

func droppedObjectHint(d pgs.DroppedObject, strict bool) string {
	if strict && errors.Is(d.Err, pgs.ErrShortRow) {
		return "set strict_rle_rows = false to pad short rows"
	}
	return "the subtitle stream may be damaged; try another track with --track"
}

// recognizeEvents runs OCR over events in order and appends accepted,
// non-duplicate lines to res.
func (s *Service) recognizeEvents(ctx context.Context, events []pgs.Event, res *Result) error {
	logger := logging.WithContext(ctx, s.logger)
	res.Lines = make([]Line, 0, len(events))
	var previous string
	var lastErr error
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := s.recognize(ctx, ev.Image)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res.Stats.OCRErrors++
			lastErr = err
			logger.Debug("ocr failed for event", logging.Int("event", ev.Index), logging.Error(err))
			continue
		}
		verdict := s.filter.Check(raw)
		if !verdict.Accepted {
			res.Stats.Rejected++
			if res.Stats.Reasons == nil {
				res.Stats.Reasons = make(map[string]int)
			}
			res.Stats.Reasons[verdict.Reason]++
			continue
		}
		if previous != "" && textutil.NearDuplicate(previous, verdict.Text, s.config.Filter.DedupeSimilarity) {
			res.Stats.Duplicates++
			continue
		}
		previous = verdict.Text
		res.Lines = append(res.Lines, Line{
			Index:     ev.Index,
			Timestamp: FormatTimestamp(ev.Start()),
			Start:     ev.Start().Seconds(),
			End:       ev.End().Seconds(),
			Text:      verdict.Text,
			Forced:    ev.Forced,
		})
	}
	if len(events) > 0 && res.Stats.OCRErrors == len(events) {
		return services.Wrap(services.ErrExternalTool, "subtitles", "ocr",
			fmt.Sprintf("all %d events failed", len(events)), lastErr)
	}
	if res.Stats.OCRErrors > 0 {
		logging.WarnWithContext(logger, "ocr failed for some events", "ocr_partial_failure",
			logging.Int("failed", res.Stats.OCRErrors),
			logging.Int("events", len(events)),
			logging.Error(lastErr),
			logging.Hint("check the tesseract language data and binary"),
			logging.Impact("some captions are missing from the output"),
		)
	}
	return nil
}

// variant captures settings that change the output but are not part of the
// window.
func (s *Service) variant(req Request) string {
	cfg := s.config
	parts := []string{
		"ocr=" + cfg.OCR.Language,
		"oem=" + strconv.Itoa(cfg.OCR.EngineMode),
		"psm=" + strconv.Itoa(cfg.OCR.PageSegMode),
		"scale=" + strconv.Itoa(cfg.OCR.ScaleFactor),
		"border=" + strconv.Itoa(cfg.OCR.Border),
		"cleanup=" + strconv.FormatBool(cfg.OCR.Cleanup),
		"letters=" + strconv.Itoa(s.filter.MinLetters),
		"ratio=" + strconv.FormatFloat(s.filter.MinValidRatio, 'f', -1, 64),
		"dedupe=" + strconv.FormatFloat(cfg.Filter.DedupeSimilarity, 'f', -1, 64),
		"strict=" + strconv.FormatBool(req.StrictRLE),
	}
	return strings.Join(parts, ";")
}

func (s *Service) cached(ctx context.Context, key, runID string) (*Result, bool) {
	logger := logging.WithContext(ctx, s.logger)
	entry, ok, err := s.cache.Lookup(ctx, key)
	if err != nil {
		logging.WarnWithContext(logger, "cache lookup failed", "cache_lookup_failed",
			logging.Error(err),
			logging.Hint("run 'tvidentify cache clear' if the database is damaged"),
			logging.Impact("extraction runs without the cache"),
		)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(entry.Payload, &res); err != nil {
		logger.Debug("discarding unreadable cache entry", logging.Error(err))
		return nil, false
	}
	res.RunID = runID
	res.CacheHit = true
	return &res, true
}

func (s *Service) store(ctx context.Context, key string, res *Result) {
	payload, err := json.Marshal(res)
	if err == nil {
		err = s.cache.Store(ctx, cache.Entry{
			Key:         key,
			SourcePath:  res.Source,
			TrackIndex:  res.Track.Index,
			Language:    res.Track.Language,
			EventCount:  res.Stats.Events,
			Fingerprint: res.Fingerprint,
			Payload:     payload,
			CreatedAt:   res.CreatedAt,
		})
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "cache store failed", "cache_store_failed",
			logging.Error(err),
			logging.Hint("check free space and permissions of the cache directory"),
			logging.Impact("the next run repeats the extraction"),
		)
	}
}
