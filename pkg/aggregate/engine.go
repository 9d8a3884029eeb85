package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gnflore/pkg/ent/occ"
	"github.com/gnames/gnflore/pkg/retry"
	"github.com/gnames/gnflore/pkg/scratch"
	"github.com/gnames/gnfmt"
	"github.com/google/uuid"
)

// Engine pages through search results. Runs are sequential inside, but
// one Engine can serve many concurrent runs, each run uses its own
// scratch key namespace.
type Engine struct {
	cfg   Config
	src   Searcher
	store scratch.Store
	enc   gnfmt.Encoder
}

// New creates an Engine. Zero values in cfg are replaced by defaults.
func New(cfg Config, src Searcher, store scratch.Store) *Engine {
	return &Engine{
		cfg:   cfg.normalized(),
		src:   src,
		store: store,
		enc:   gnfmt.GNgob{},
	}
}

// Config returns the configuration in use.
func (e *Engine) Config() Config {
	return e.cfg
}

// Aggregate returns every record of the search in the order of the pages.
func (e *Engine) Aggregate(
	ctx context.Context,
	q occ.SearchQuery,
) ([]occ.Record, error) {
	return e.Run(ctx, q, nil)
}

// Run is Aggregate with a progress callback. The callback can be nil.
//
// Cancellation of ctx is checked between pages. A canceled or failed run
// removes its scratch batches and returns no records.
func (e *Engine) Run(
	ctx context.Context,
	q occ.SearchQuery,
	progress Progress,
) ([]occ.Record, error) {
	q = q.Normalized(e.cfg.KingdomKey)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	start := time.Now()
	log := slog.With("run", runID)

	count, err := e.probe(ctx, q)
	if err != nil {
		return nil, err
	}
	totalPages := (count + e.cfg.PageSize - 1) / e.cfg.PageSize
	log.Info("Starting occurrence aggregation",
		"count", count,
		"pages", totalPages,
		"page_size", e.cfg.PageSize,
		"batch_size", e.cfg.BatchSize,
	)
	if totalPages == 0 {
		return []occ.Record{}, nil
	}

	batches, err := e.fetch(ctx, runID, q, totalPages, progress)
	if err != nil {
		e.cleanup(ctx, runID)
		return nil, err
	}

	res, err := e.assemble(ctx, runID, batches)
	if err != nil {
		e.cleanup(ctx, runID)
		return nil, err
	}

	log.Info("Finished occurrence aggregation",
		"records", humanize.Comma(int64(len(res))),
		"batches", batches,
		"duration", time.Since(start).String(),
	)
	return res, nil
}

// probe asks for one record to learn the total count.
func (e *Engine) probe(ctx context.Context, q occ.SearchQuery) (int, error) {
	page, err := retry.DoValue(ctx, e.cfg.Retry, func() (occ.Page, error) {
		return e.src.Search(ctx, q, 1, 0)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, UpstreamUnavailableError(0, err)
	}
	return max(page.Count, 0), nil
}

// fetch requests pages in ascending order and flushes a batch every
// BatchSize pages. It returns the number of batches written.
func (e *Engine) fetch(
	ctx context.Context,
	runID string,
	q occ.SearchQuery,
	totalPages int,
	progress Progress,
) (int, error) {
	var seq int
	var buf []occ.Record
	var pagesInBuf int

	flush := func() error {
		if pagesInBuf == 0 {
			return nil
		}
		if err := e.putBatch(ctx, runID, seq, buf); err != nil {
			return err
		}
		seq++
		buf = nil
		pagesInBuf = 0
		return nil
	}

	for pageIdx := range totalPages {
		if err := ctx.Err(); err != nil {
			return seq, err
		}

		offset := pageIdx * e.cfg.PageSize
		page, err := retry.DoValue(ctx, e.cfg.Retry, func() (occ.Page, error) {
			return e.src.Search(ctx, q, e.cfg.PageSize, offset)
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return seq, ctxErr
			}
			return seq, UpstreamUnavailableError(offset, err)
		}

		// endOfRecords is unreliable, an empty page is the only stop signal
		if len(page.Results) == 0 {
			slog.Debug("Empty page ends pagination",
				"run", runID, "page", pageIdx, "offset", offset)
			break
		}

		buf = append(buf, page.Results...)
		pagesInBuf++
		if progress != nil {
			progress(pageIdx+1, totalPages)
		}

		if pagesInBuf == e.cfg.BatchSize {
			if err = flush(); err != nil {
				return seq, err
			}
		}
	}

	if err := flush(); err != nil {
		return seq, err
	}
	return seq, nil
}

func (e *Engine) putBatch(
	ctx context.Context,
	runID string,
	seq int,
	recs []occ.Record,
) error {
	key := scratch.BatchKey(runID, seq)
	data, err := e.enc.Encode(recs)
	if err != nil {
		return ScratchError("encode", key, err)
	}
	if err = e.store.Put(ctx, key, data); err != nil {
		return ScratchError("write", key, err)
	}
	slog.Debug("Batch saved", "key", key, "records", len(recs))
	return nil
}

// assemble reads batches in sequence order and deletes each of them as
// soon as it is decoded.
func (e *Engine) assemble(
	ctx context.Context,
	runID string,
	batches int,
) ([]occ.Record, error) {
	res := []occ.Record{}
	for seq := range batches {
		key := scratch.BatchKey(runID, seq)
		data, err := e.store.Get(ctx, key)
		if err != nil {
			return nil, ScratchError("read", key, err)
		}
		var recs []occ.Record
		if err = e.enc.Decode(data, &recs); err != nil {
			return nil, ScratchError("decode", key, err)
		}
		if err = e.store.Delete(ctx, key); err != nil {
			return nil, ScratchError("delete", key, err)
		}
		res = append(res, recs...)
	}
	return res, nil
}

// cleanup removes all batches of a run. It works after ctx is canceled.
func (e *Engine) cleanup(ctx context.Context, runID string) {
	ctx = context.WithoutCancel(ctx)
	keys, err := e.store.Keys(ctx, scratch.RunPrefix(runID))
	if err != nil {
		slog.Warn("Cannot list scratch batches", "run", runID, "error", err)
		return
	}
	var errs []error
	for _, k := range keys {
		errs = append(errs, e.store.Delete(ctx, k))
	}
	if err = errors.Join(errs...); err != nil {
		slog.Warn("Cannot remove scratch batches", "run", runID, "error", err)
	}
}
