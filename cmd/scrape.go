package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/civisort/county-ingest/internal/config"
	"github.com/civisort/county-ingest/internal/extract"
	"github.com/civisort/county-ingest/internal/fetcher"
	"github.com/civisort/county-ingest/internal/minutes"
	"github.com/civisort/county-ingest/internal/ocr"
	"github.com/civisort/county-ingest/internal/permits"
	"github.com/civisort/county-ingest/internal/scraper"
	"github.com/civisort/county-ingest/internal/store"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [name...]",
	Short: "Run document scrapers",
	Long: `Run document scrapers and insert new rows.

By default, runs every registered scraper (minutes, permits).
Name scrapers as arguments or with --sources to run a subset.
Use --dry-run to fetch and parse without touching the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		log := zap.L().With(zap.String("command", "scrape"))

		opts, err := parseScrapeOpts(cmd, args)
		if err != nil {
			return err
		}
		reg, err := buildRegistry(cfg)
		if err != nil {
			return err
		}
		engine := scraper.NewEngine(reg, scraper.Env{
			Fetcher:   newFetcher(cfg.Fetch),
			OpenStore: storeOpener(cfg),
			TempDir:   cfg.Scrape.TempDir,
			Workers:   cfg.Scrape.Workers,
		})

		log.Info("starting scrape",
			zap.Strings("sources", opts.Sources),
			zap.Int("workers", opts.Workers),
			zap.Bool("dry_run", opts.DryRun),
		)

		if _, err := engine.Run(ctx, opts); err != nil {
			return eris.Wrap(err, "scrape")
		}

		log.Info("scrape complete")
		return nil
	},
}

func init() {
	scrapeCmd.Flags().String("sources", "", "comma-separated scraper names (e.g., minutes,permits)")
	scrapeCmd.Flags().Int("workers", 0, "per-document workers (default from scrape.workers)")
	scrapeCmd.Flags().Bool("dry-run", false, "parse documents without writing to the database")
	rootCmd.AddCommand(scrapeCmd)
}

// parseScrapeOpts extracts scraper.RunOpts from the cobra command flags and
// positional arguments.
func parseScrapeOpts(cmd *cobra.Command, args []string) (scraper.RunOpts, error) {
	sourcesStr, _ := cmd.Flags().GetString("sources")
	workers, _ := cmd.Flags().GetInt("workers")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if workers < 0 {
		return scraper.RunOpts{}, eris.Errorf("--workers must not be negative, got %d", workers)
	}

	opts := scraper.RunOpts{
		Workers: workers,
		DryRun:  dryRun,
	}
	for _, a := range args {
		opts.Sources = append(opts.Sources, splitAndTrim(a)...)
	}
	if sourcesStr != "" {
		opts.Sources = append(opts.Sources, splitAndTrim(sourcesStr)...)
	}
	return opts, nil
}

// buildRegistry registers every scraper with its configured source.
func buildRegistry(c *config.Config) (*scraper.Registry, error) {
	ext, err := ocr.NewExtractor(c.OCR)
	if err != nil {
		return nil, err
	}

	reg := scraper.NewRegistry()
	reg.Register(minutes.New(c.Sources.Minutes, extract.NewMinutesDateExtractor(extract.NewMonthTable())))
	reg.Register(permits.New(c.Sources.Permits, ext))
	return reg, nil
}

func newFetcher(fc config.FetchConfig) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: fc.UserAgent,
		Timeout:   time.Duration(fc.TimeoutSecs) * time.Second,
		HostRate:  rate.Limit(fc.RatePerSec),
		HostBurst: fc.Burst,
	})
}

// storeOpener defers store validation and the database connection until a
// pipeline has rows to write.
func storeOpener(c *config.Config) scraper.StoreOpener {
	return func(ctx context.Context) (store.Store, error) {
		if err := c.Validate("store"); err != nil {
			return nil, err
		}
		return store.Open(ctx, c.Store)
	}
}

// splitAndTrim splits a comma-separated string and trims whitespace from each element.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
