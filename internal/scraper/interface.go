package scraper

import (
	"context"

	"go.uber.org/zap"

	"github.com/civisort/county-ingest/internal/fetcher"
	"github.com/civisort/county-ingest/internal/store"
)

// StoreOpener connects to the store. Pipelines call it at most once per run
// and only when there is something to persist.
type StoreOpener func(ctx context.Context) (store.Store, error)

// Env carries the collaborators a scraper run needs.
type Env struct {
	Fetcher   fetcher.Fetcher
	OpenStore StoreOpener
	TempDir   string
	Workers   int  // concurrent per-document workers, minimum 1
	DryRun    bool // parse and log, but never open the store
	Log       *zap.Logger
}

func (e Env) logger() *zap.Logger {
	if e.Log != nil {
		return e.Log
	}
	return zap.L()
}

func (e Env) workers() int {
	if e.Workers < 1 {
		return 1
	}
	return e.Workers
}

// Result holds the outcome of one scraper run.
type Result struct {
	Links      int   // document links on the listing page
	Parsed     int   // records assembled after dedup
	Skipped    int   // links dropped for missing or invalid fields
	Failed     int   // links dropped for a per-document fetch or read failure
	Duplicates int   // repeated links collapsed before persisting
	Inserted   int64 // rows newly written
}

// Scraper defines the interface each document source must implement.
type Scraper interface {
	// Name returns the unique identifier (e.g., "minutes", "permits").
	Name() string

	// Table returns the target table (e.g., "county_board_raw").
	Table() string

	// Scrape fetches, parses and persists one listing.
	Scrape(ctx context.Context, env Env) (*Result, error)
}
