package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Empty(t, cfg.Store.DatabaseURL)
	assert.Equal(t, int32(4), cfg.Store.MaxConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.InDelta(t, 5.0, cfg.Fetch.RatePerSec, 0.001)
	assert.Equal(t, 1, cfg.Scrape.Workers)
	assert.Equal(t, "pdftotext", cfg.OCR.Provider)
	assert.Equal(t, 1, cfg.OCR.MaxPages)
	assert.Equal(t, "https://sangamonil.gov", cfg.Sources.Minutes.SiteRoot)
	assert.Equal(t, ".pdf", cfg.Sources.Minutes.Suffix)
	assert.Equal(t, "Full Board", cfg.Sources.Minutes.Committee)
	assert.Equal(t, "Minutes", cfg.Sources.Minutes.DocType)
	assert.Contains(t, cfg.Sources.Permits.ListingURL, "/building/permits")
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  database_url: file:civisort.db
log:
  level: debug
  format: console
scrape:
  workers: 4
sources:
  minutes:
    committee: Finance
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "file:civisort.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Scrape.Workers)
	assert.Equal(t, "Finance", cfg.Sources.Minutes.Committee)
	// Defaults still apply for unset values
	assert.Equal(t, "Minutes", cfg.Sources.Minutes.DocType)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CIVISORT_STORE_DRIVER", "postgres")
	t.Setenv("CIVISORT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)

	env := "CIVISORT_STORE_DATABASE_URL=postgres://civisort:secret@db/civisort\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0644))
	t.Cleanup(func() { os.Unsetenv("CIVISORT_STORE_DATABASE_URL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://civisort:secret@db/civisort", cfg.Store.DatabaseURL)
}

func TestLoadEnvBeatsDotEnv(t *testing.T) {
	dir := chdirTemp(t)

	env := "CIVISORT_SCRAPE_WORKERS=8\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0644))
	t.Setenv("CIVISORT_SCRAPE_WORKERS", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Scrape.Workers)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "postgres"
	cfg.Fetch.TimeoutSecs = 30
	cfg.Scrape.Workers = 1
	cfg.Sources.Minutes.ListingURL = "https://example.gov/minutes"
	cfg.Sources.Permits.ListingURL = "https://example.gov/permits"
	return cfg
}

func TestValidateStore_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/test"

	assert.NoError(t, cfg.Validate("store"))
}

func TestValidateStore_MissingURL(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateStore_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "mysql://localhost/test"
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `store.driver "mysql"`)
}

func TestValidateScrape(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("scrape"))

	cfg.Scrape.Workers = 0
	cfg.Sources.Permits.ListingURL = ""
	err := cfg.Validate("scrape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrape.workers must be positive")
	assert.Contains(t, err.Error(), "sources.permits.listing_url is required")
}

func TestValidateUnknownSection(t *testing.T) {
	err := validDefaults().Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown section "serve"`)
}

func TestRedacted(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://civisort:secret@db:5432/civisort"

	out := cfg.Redacted()
	assert.Equal(t, "postgres://civisort:xxxxx@db:5432/civisort", out.Store.DatabaseURL)
	assert.Equal(t, "postgres://civisort:secret@db:5432/civisort", cfg.Store.DatabaseURL)

	cfg.Store.DatabaseURL = "file:civisort.db"
	assert.Equal(t, "file:civisort.db", cfg.Redacted().Store.DatabaseURL)
}

func TestRedacted_KeywordDSN(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{
			dsn:  "dbname=civisort user=civisort host=db password=s3cret",
			want: "dbname=civisort user=civisort host=db password=xxxxx",
		},
		{
			dsn:  "host=db password='s3 cret' sslmode=disable",
			want: "host=db password=xxxxx sslmode=disable",
		},
		{
			dsn:  "host=db PASSWORD = s3cret",
			want: "host=db PASSWORD = xxxxx",
		},
		{
			dsn:  "postgres://db:5432/civisort?user=civisort&password=s3cret&sslmode=disable",
			want: "postgres://db:5432/civisort?user=civisort&password=xxxxx&sslmode=disable",
		},
	}
	for _, tt := range tests {
		cfg := validDefaults()
		cfg.Store.DatabaseURL = tt.dsn
		got := cfg.Redacted().Store.DatabaseURL
		assert.Equal(t, tt.want, got)
		assert.NotContains(t, got, "s3")
	}
}
