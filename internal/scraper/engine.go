package scraper

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentScrapers bounds how many pipelines run at once. Runs carry no
// overall deadline; only individual fetches and extractions time out.
const maxConcurrentScrapers = 2

// Engine orchestrates scraper runs.
type Engine struct {
	reg *Registry
	env Env
}

// RunOpts configures which scrapers to run and how.
type RunOpts struct {
	Sources []string // restrict to specific scraper names
	Workers int      // per-document workers; zero keeps the engine default
	DryRun  bool     // parse only
}

// NewEngine creates a new scraper engine.
func NewEngine(reg *Registry, env Env) *Engine {
	return &Engine{reg: reg, env: env}
}

// Run runs the selected scrapers. A failing scraper does not stop the
// others; the returned error names every scraper that failed.
func (e *Engine) Run(ctx context.Context, opts RunOpts) (map[string]*Result, error) {
	log := zap.L().With(zap.String("component", "scraper.engine"))

	scrapers, err := e.reg.Select(opts.Sources)
	if err != nil {
		return nil, err
	}

	if len(scrapers) == 0 {
		log.Info("no scrapers selected")
		return nil, nil
	}

	log.Info("selected scrapers", zap.Int("count", len(scrapers)), zap.Bool("dry_run", opts.DryRun))

	var (
		succeeded, failed atomic.Int64
		mu                sync.Mutex
		results           = make(map[string]*Result, len(scrapers))
		failures          = make(map[string]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScrapers)

	for _, s := range scrapers {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			runID := uuid.New().String()
			sLog := log.With(
				zap.String("scraper", s.Name()),
				zap.String("table", s.Table()),
				zap.String("run_id", runID),
			)

			env := e.env
			env.Log = sLog
			env.DryRun = env.DryRun || opts.DryRun
			if opts.Workers > 0 {
				env.Workers = opts.Workers
			}

			sLog.Info("starting scrape")
			start := time.Now()
			result, err := s.Scrape(gctx, env)
			elapsed := time.Since(start)

			if err != nil {
				sLog.Error("scrape failed", zap.Error(err), zap.Duration("elapsed", elapsed))
				mu.Lock()
				failures[s.Name()] = err
				mu.Unlock()
				failed.Add(1)
				return nil // don't abort other scrapers on individual failure
			}

			sLog.Info("scrape complete",
				zap.Int("links", result.Links),
				zap.Int("parsed", result.Parsed),
				zap.Int("skipped", result.Skipped),
				zap.Int("failed_documents", result.Failed),
				zap.Int64("inserted", result.Inserted),
				zap.Duration("elapsed", elapsed),
			)
			mu.Lock()
			results[s.Name()] = result
			mu.Unlock()
			succeeded.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	log.Info("engine run complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)

	if len(failures) > 0 {
		return results, &FailedError{Errors: failures}
	}
	return results, nil
}

// FailedError reports the scrapers that failed during an engine run.
type FailedError struct {
	Errors map[string]error
}

func (e *FailedError) Error() string {
	names := make([]string, 0, len(e.Errors))
	for name := range e.Errors {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Errors[name].Error()
	}
	return "scraper: failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *FailedError) Unwrap() []error {
	out := make([]error, 0, len(e.Errors))
	for _, err := range e.Errors {
		out = append(out, err)
	}
	return out
}
