package scraper

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/civisort/county-ingest/internal/extract"
	"github.com/civisort/county-ingest/internal/fetcher"
	"github.com/civisort/county-ingest/internal/links"
	"github.com/civisort/county-ingest/internal/model"
	"github.com/civisort/county-ingest/internal/ocr"
	"github.com/civisort/county-ingest/internal/store"
)

// Record is a persistable row with a natural unique key.
type Record interface {
	DedupKey() string
}

// Pipeline describes one listing page and how its links become records.
type Pipeline[R Record] struct {
	Name       string
	ListingURL string
	SiteRoot   string
	Suffix     string

	// Process turns one link into a record. A returned error is classified
	// by Drive: missing or invalid fields skip the link, per-document fetch
	// and read failures drop it, anything else aborts the run.
	Process func(ctx context.Context, link model.DocumentLink) (R, error)

	// Persist inserts the records and returns how many were new.
	Persist func(ctx context.Context, st store.Store, records []R) (int64, error)
}

type slot[R Record] struct {
	rec R
	ok  bool
}

// Drive runs a pipeline end to end. The listing fetch must succeed. Links
// are processed on env.Workers workers and collected in listing order. The
// store is opened only when at least one record was assembled, and is
// closed before Drive returns.
func Drive[R Record](ctx context.Context, env Env, p Pipeline[R]) (*Result, error) {
	log := env.logger().With(zap.String("component", "scraper.driver"), zap.String("scraper", p.Name))

	body, err := env.Fetcher.Download(ctx, p.ListingURL)
	if err != nil {
		return nil, eris.Wrapf(err, "scraper: fetch %s listing", p.Name)
	}
	found, err := links.Enumerate(body, p.SiteRoot, p.ListingURL, p.Suffix)
	body.Close() //nolint:errcheck
	if err != nil {
		return nil, eris.Wrapf(err, "scraper: enumerate %s listing", p.Name)
	}
	log.Debug("listing enumerated", zap.Int("links", len(found)))

	res := &Result{Links: len(found)}
	var skipped, failed atomic.Int64
	slots := make([]slot[R], len(found))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(env.workers())

	for i, link := range found {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			rec, err := p.Process(gctx, link)
			switch {
			case err == nil:
				slots[i] = slot[R]{rec: rec, ok: true}
			case errors.Is(err, extract.ErrNoDate):
				log.Debug("skipping document without a date", zap.String("url", link.URL))
				skipped.Add(1)
			case isValidation(err):
				log.Info("skipping document with invalid fields", zap.String("url", link.URL), zap.Error(err))
				skipped.Add(1)
			case gctx.Err() == nil && isDocumentFailure(err):
				log.Warn("skipping unreadable document", zap.String("url", link.URL), zap.Error(err))
				failed.Add(1)
			default:
				return eris.Wrapf(err, "scraper: process %s", link.URL)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrapf(err, "scraper: %s cancelled", p.Name)
	}
	res.Skipped = int(skipped.Load())
	res.Failed = int(failed.Load())

	records, dups := dedup(slots)
	res.Parsed = len(records)
	res.Duplicates = dups

	log.Info("documents parsed", zap.Int("count", len(records)))

	if len(records) == 0 {
		return res, nil
	}
	if env.DryRun {
		log.Info("dry run, not persisting", zap.Int("count", len(records)))
		return res, nil
	}

	st, err := env.OpenStore(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "scraper: open store for %s", p.Name)
	}
	defer st.Close() //nolint:errcheck

	n, err := p.Persist(ctx, st, records)
	if err != nil {
		return nil, err
	}
	res.Inserted = n

	log.Info("new rows inserted", zap.Int64("count", n))
	return res, nil
}

// dedup keeps the first record for each key, preserving order.
func dedup[R Record](slots []slot[R]) ([]R, int) {
	seen := make(map[string]bool, len(slots))
	records := make([]R, 0, len(slots))
	dups := 0
	for _, s := range slots {
		if !s.ok {
			continue
		}
		key := s.rec.DedupKey()
		if seen[key] {
			dups++
			continue
		}
		seen[key] = true
		records = append(records, s.rec)
	}
	return records, dups
}

func isValidation(err error) bool {
	var vErr *extract.ValidationError
	return errors.As(err, &vErr)
}

// isDocumentFailure reports errors confined to a single document.
func isDocumentFailure(err error) bool {
	var ocrErr *ocr.ExtractError
	return fetcher.IsNetworkError(err) || errors.As(err, &ocrErr)
}
