// Package minutes ingests county board meeting minutes. The meeting date is
// read from each link's anchor text and URL; the PDFs themselves are never
// downloaded.
package minutes

import (
	"context"

	"github.com/civisort/county-ingest/internal/config"
	"github.com/civisort/county-ingest/internal/extract"
	"github.com/civisort/county-ingest/internal/model"
	"github.com/civisort/county-ingest/internal/scraper"
	"github.com/civisort/county-ingest/internal/store"
)

// Name is the registry name of the minutes scraper.
const Name = "minutes"

// Scraper ingests the written minutes listing into county_board_raw.
type Scraper struct {
	cfg   config.MinutesSource
	dates *extract.DateExtractor
}

// New creates a minutes scraper. dates decides how meeting dates are read.
func New(cfg config.MinutesSource, dates *extract.DateExtractor) *Scraper {
	return &Scraper{cfg: cfg, dates: dates}
}

func (s *Scraper) Name() string  { return Name }
func (s *Scraper) Table() string { return store.MinutesTable }

// Extract infers the meeting date from the link. It returns
// extract.ErrNoDate or an *extract.ValidationError when the link must be
// skipped.
func (s *Scraper) Extract(link model.DocumentLink) (model.MinutesFields, error) {
	date, err := s.dates.Extract(extract.LinkText(link))
	if err != nil {
		return model.MinutesFields{}, err
	}
	return model.MinutesFields{MeetingDate: date}, nil
}

// Assemble builds the row for a link, applying the configured committee
// and document type.
func (s *Scraper) Assemble(link model.DocumentLink, fields model.MinutesFields) model.MinutesRecord {
	return model.MinutesRecord{
		MeetingDate: fields.MeetingDate,
		Committee:   s.cfg.Committee,
		DocType:     s.cfg.DocType,
		URL:         link.URL,
	}
}

// Scrape fetches the listing and inserts one row per dated minutes PDF.
func (s *Scraper) Scrape(ctx context.Context, env scraper.Env) (*scraper.Result, error) {
	return scraper.Drive(ctx, env, scraper.Pipeline[model.MinutesRecord]{
		Name:       Name,
		ListingURL: s.cfg.ListingURL,
		SiteRoot:   s.cfg.SiteRoot,
		Suffix:     s.cfg.Suffix,
		Process: func(_ context.Context, link model.DocumentLink) (model.MinutesRecord, error) {
			fields, err := s.Extract(link)
			if err != nil {
				return model.MinutesRecord{}, err
			}
			return s.Assemble(link, fields), nil
		},
		Persist: func(ctx context.Context, st store.Store, records []model.MinutesRecord) (int64, error) {
			return st.InsertMinutes(ctx, records)
		},
	})
}
