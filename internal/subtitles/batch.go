package subtitles

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tvidentify/internal/logging"
)

// BatchItem is the outcome for one file of a batch.
type BatchItem struct {
	Request Request
	Result  *Result
	Err     error
}

// ExtractBatch runs reqs with at most jobs extractions in flight. A failing
// file does not stop the others; its error is reported in its item. Items
// keep the order of reqs. Only cancellation of ctx ends the batch early.
func (s *Service) ExtractBatch(ctx context.Context, reqs []Request, jobs int) ([]BatchItem, error) {
	if jobs <= 0 {
		jobs = 1
	}
	items := make([]BatchItem, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, req := range reqs {
		items[i].Request = req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			res, err := s.Extract(gctx, req)
			items[i].Result = res
			items[i].Err = err
			if err != nil {
				logging.ErrorWithContext(s.logger, "subtitle extraction failed", "extract_failed",
					logging.String(logging.FieldSource, req.SourcePath),
					logging.Error(err),
					logging.Hint("run 'tvidentify tracks' on the file to inspect its streams"),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	return items, ctx.Err()
}
