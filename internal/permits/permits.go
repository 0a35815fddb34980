// Package permits ingests building permit PDFs. The file date comes from
// the link URL; permit number, address and description are read from the
// first page of each dated PDF.
package permits

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/civisort/county-ingest/internal/config"
	"github.com/civisort/county-ingest/internal/extract"
	"github.com/civisort/county-ingest/internal/fetcher"
	"github.com/civisort/county-ingest/internal/model"
	"github.com/civisort/county-ingest/internal/ocr"
	"github.com/civisort/county-ingest/internal/scraper"
	"github.com/civisort/county-ingest/internal/store"
)

// Name is the registry name of the permits scraper.
const Name = "permits"

// Scraper ingests the building permits listing into county_permits_raw.
type Scraper struct {
	cfg config.PermitsSource
	ocr ocr.Extractor
}

// New creates a permits scraper that reads PDFs with ext.
func New(cfg config.PermitsSource, ext ocr.Extractor) *Scraper {
	return &Scraper{cfg: cfg, ocr: ext}
}

func (s *Scraper) Name() string  { return Name }
func (s *Scraper) Table() string { return store.PermitsTable }

// Extract infers the permit fields for a link. Links whose URL carries no
// valid YYYY-MM-DD date are rejected before anything is downloaded. The
// PDF is written under dir and removed once its text has been read.
func (s *Scraper) Extract(ctx context.Context, f fetcher.Fetcher, dir string, link model.DocumentLink) (model.PermitFields, error) {
	fileDate, err := extract.FileDateFromURL(link.URL)
	if err != nil {
		return model.PermitFields{}, err
	}

	path := filepath.Join(dir, uuid.New().String()+".pdf")
	defer os.Remove(path) //nolint:errcheck

	if _, err := f.DownloadToFile(ctx, link.URL, path); err != nil {
		return model.PermitFields{}, err
	}

	text, err := s.ocr.ExtractText(ctx, path)
	if err != nil {
		return model.PermitFields{}, err
	}

	content := extract.ParsePermitText(text)
	return model.PermitFields{
		FileDate:     fileDate,
		PermitNumber: content.PermitNumber,
		Address:      content.Address,
		Description:  content.Description,
	}, nil
}

// Assemble builds the row for a link. Missing permit numbers and addresses
// are stored as NULL.
func (s *Scraper) Assemble(link model.DocumentLink, fields model.PermitFields) model.PermitRecord {
	description := fields.Description
	if description == "" {
		description = model.DescriptionPlaceholder
	}
	return model.PermitRecord{
		FileDate:     fields.FileDate,
		PermitNumber: optional(fields.PermitNumber),
		Address:      optional(fields.Address),
		Description:  description,
		PDFURL:       link.URL,
	}
}

// Scrape fetches the listing, reads each dated permit PDF and inserts the
// new rows.
func (s *Scraper) Scrape(ctx context.Context, env scraper.Env) (*scraper.Result, error) {
	if env.TempDir != "" {
		if err := os.MkdirAll(env.TempDir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "permits: create temp dir %s", env.TempDir)
		}
	}
	dir, err := os.MkdirTemp(env.TempDir, "permits-")
	if err != nil {
		return nil, eris.Wrap(err, "permits: create run dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	return scraper.Drive(ctx, env, scraper.Pipeline[model.PermitRecord]{
		Name:       Name,
		ListingURL: s.cfg.ListingURL,
		SiteRoot:   s.cfg.SiteRoot,
		Suffix:     s.cfg.Suffix,
		Process: func(ctx context.Context, link model.DocumentLink) (model.PermitRecord, error) {
			fields, err := s.Extract(ctx, env.Fetcher, dir, link)
			if err != nil {
				return model.PermitRecord{}, err
			}
			return s.Assemble(link, fields), nil
		},
		Persist: func(ctx context.Context, st store.Store, records []model.PermitRecord) (int64, error) {
			return st.InsertPermits(ctx, records)
		},
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
