package minutes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/civisort/county-ingest/internal/config"
	"github.com/civisort/county-ingest/internal/extract"
	"github.com/civisort/county-ingest/internal/fetcher"
	"github.com/civisort/county-ingest/internal/model"
	"github.com/civisort/county-ingest/internal/scraper"
	"github.com/civisort/county-ingest/internal/store"
	storemocks "github.com/civisort/county-ingest/internal/store/mocks"
)

func newTestScraper(base string) *Scraper {
	return New(config.MinutesSource{
		SiteRoot:   base,
		ListingURL: base + "/written-minutes",
		Suffix:     ".pdf",
		Committee:  "Full Board",
		DocType:    "Minutes",
	}, extract.NewMinutesDateExtractor(extract.NewMonthTable()))
}

func listingServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/written-minutes" {
			t.Errorf("unexpected request for %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testEnv(st store.Store, opens *int) scraper.Env {
	return scraper.Env{
		Fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second}),
		OpenStore: func(context.Context) (store.Store, error) {
			*opens++
			return st, nil
		},
		Workers: 2,
	}
}

func TestScrape_SingleMinutesLink(t *testing.T) {
	srv := listingServer(t, `<html><body>
		<a href="/docs/Minutes_2024-05-14.pdf">May Minutes</a>
	</body></html>`)

	want := []model.MinutesRecord{{
		MeetingDate: model.Date(2024, time.May, 14),
		Committee:   "Full Board",
		DocType:     "Minutes",
		URL:         srv.URL + "/docs/Minutes_2024-05-14.pdf",
	}}

	st := storemocks.NewMockStore(t)
	st.On("InsertMinutes", mock.Anything, want).Return(int64(1), nil).Once()
	st.On("Close").Return(nil).Once()

	var opens int
	res, err := newTestScraper(srv.URL).Scrape(context.Background(), testEnv(st, &opens))
	require.NoError(t, err)
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, res.Parsed)
	assert.Equal(t, int64(1), res.Inserted)
}

func TestScrape_UndatedLinkExcluded(t *testing.T) {
	srv := listingServer(t, `<html><body>
		<a href="/docs/agenda.pdf">Agenda</a>
		<a href="https://cdn.example.org/files/March%2011,%202025.pdf">Board meeting</a>
		<a href="/docs/minutes.docx">May 14, 2024 (Word)</a>
	</body></html>`)

	want := []model.MinutesRecord{{
		MeetingDate: model.Date(2025, time.March, 11),
		Committee:   "Full Board",
		DocType:     "Minutes",
		URL:         "https://cdn.example.org/files/March%2011,%202025.pdf",
	}}

	st := storemocks.NewMockStore(t)
	st.On("InsertMinutes", mock.Anything, want).Return(int64(0), nil).Once()
	st.On("Close").Return(nil).Once()

	var opens int
	res, err := newTestScraper(srv.URL).Scrape(context.Background(), testEnv(st, &opens))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Links)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, int64(0), res.Inserted)
}

func TestScrape_NoDocumentsNeverOpensStore(t *testing.T) {
	srv := listingServer(t, `<html><body>
		<a href="/docs/agenda.pdf">Agenda</a>
		<a href="/docs/Minutes_2024-02-30.pdf">Bad date</a>
	</body></html>`)

	var opens int
	res, err := newTestScraper(srv.URL).Scrape(context.Background(), testEnv(nil, &opens))
	require.NoError(t, err)
	assert.Equal(t, 0, opens)
	assert.Equal(t, 0, res.Parsed)
	assert.Equal(t, 2, res.Skipped)
}

func TestScrape_ListingUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var opens int
	_, err := newTestScraper(srv.URL).Scrape(context.Background(), testEnv(nil, &opens))
	require.Error(t, err)
	assert.True(t, fetcher.IsNetworkError(err))
	assert.Equal(t, 0, opens)
}

func TestExtract(t *testing.T) {
	s := newTestScraper("https://county.test")

	fields, err := s.Extract(model.DocumentLink{AnchorText: "OCT 3, 2023", URL: "https://county.test/docs/m.pdf"})
	require.NoError(t, err)
	assert.Equal(t, model.Date(2023, time.October, 3), fields.MeetingDate)

	_, err = s.Extract(model.DocumentLink{AnchorText: "Agenda", URL: "https://county.test/docs/a.pdf"})
	assert.ErrorIs(t, err, extract.ErrNoDate)
}

func TestAssemble(t *testing.T) {
	s := New(config.MinutesSource{Committee: "Finance", DocType: "Minutes"}, nil)
	link := model.DocumentLink{URL: "https://county.test/docs/m.pdf"}

	got := s.Assemble(link, model.MinutesFields{MeetingDate: model.Date(2024, time.May, 14)})
	assert.Equal(t, model.MinutesRecord{
		MeetingDate: model.Date(2024, time.May, 14),
		Committee:   "Finance",
		DocType:     "Minutes",
		URL:         "https://county.test/docs/m.pdf",
	}, got)
}

func TestNameAndTable(t *testing.T) {
	s := newTestScraper("https://county.test")
	assert.Equal(t, "minutes", s.Name())
	assert.Equal(t, "county_board_raw", s.Table())
}
