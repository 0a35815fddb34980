package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	OCR     OCRConfig     `yaml:"ocr" mapstructure:"ocr"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FetchConfig configures outbound HTTP requests.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
}

// ScrapeConfig configures pipeline execution.
type ScrapeConfig struct {
	Workers int    `yaml:"workers" mapstructure:"workers"`
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MaxPages      int    `yaml:"max_pages" mapstructure:"max_pages"`
}

// SourcesConfig holds the listing pages for each pipeline.
type SourcesConfig struct {
	Minutes MinutesSource `yaml:"minutes" mapstructure:"minutes"`
	Permits PermitsSource `yaml:"permits" mapstructure:"permits"`
}

// MinutesSource configures the county board minutes listing.
type MinutesSource struct {
	SiteRoot   string `yaml:"site_root" mapstructure:"site_root"`
	ListingURL string `yaml:"listing_url" mapstructure:"listing_url"`
	Suffix     string `yaml:"suffix" mapstructure:"suffix"`
	Committee  string `yaml:"committee" mapstructure:"committee"`
	DocType    string `yaml:"doc_type" mapstructure:"doc_type"`
}

// PermitsSource configures the building permits listing.
type PermitsSource struct {
	SiteRoot   string `yaml:"site_root" mapstructure:"site_root"`
	ListingURL string `yaml:"listing_url" mapstructure:"listing_url"`
	Suffix     string `yaml:"suffix" mapstructure:"suffix"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; values already in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CIVISORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.user_agent", "civisort-ingest/1.0")
	v.SetDefault("fetch.rate_per_sec", 5.0)
	v.SetDefault("fetch.burst", 5)
	v.SetDefault("scrape.workers", 1)
	v.SetDefault("scrape.temp_dir", "/tmp/civisort")
	v.SetDefault("ocr.provider", "pdftotext")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.max_pages", 1)
	v.SetDefault("sources.minutes.site_root", "https://sangamonil.gov")
	v.SetDefault("sources.minutes.listing_url", "https://sangamonil.gov/departments/a-c/county-clerk/vital-records/county-board/written-minutes")
	v.SetDefault("sources.minutes.suffix", ".pdf")
	v.SetDefault("sources.minutes.committee", "Full Board")
	v.SetDefault("sources.minutes.doc_type", "Minutes")
	v.SetDefault("sources.permits.site_root", "https://sangamonil.gov")
	v.SetDefault("sources.permits.listing_url", "https://sangamonil.gov/departments/a-c/building-and-zoning/building/permits")
	v.SetDefault("sources.permits.suffix", ".pdf")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings a command depends on are present.
// Section is "store" or "scrape".
func (c *Config) Validate(section string) error {
	var errs []string
	switch section {
	case "store":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
		if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
			errs = append(errs, fmt.Sprintf("store.driver %q is not one of postgres, sqlite", c.Store.Driver))
		}
	case "scrape":
		if c.Fetch.TimeoutSecs <= 0 {
			errs = append(errs, "fetch.timeout_secs must be positive")
		}
		if c.Scrape.Workers <= 0 {
			errs = append(errs, "scrape.workers must be positive")
		}
		if c.Sources.Minutes.ListingURL == "" {
			errs = append(errs, "sources.minutes.listing_url is required")
		}
		if c.Sources.Permits.ListingURL == "" {
			errs = append(errs, "sources.permits.listing_url is required")
		}
	default:
		return eris.Errorf("config: unknown section %q", section)
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Redacted returns a copy safe to print: the database password is masked.
func (c *Config) Redacted() Config {
	out := *c
	out.Store.DatabaseURL = redactDSN(c.Store.DatabaseURL)
	return out
}

// dsnPasswordRE matches password=value pairs in keyword/value DSNs and URL
// query strings. Values may be single-quoted with backslash escapes.
var dsnPasswordRE = regexp.MustCompile(`(?i)(\bpassword\s*=\s*)('(?:[^'\\]|\\.)*'|[^\s&]+)`)

func redactDSN(dsn string) string {
	dsn = dsnPasswordRE.ReplaceAllString(dsn, "${1}xxxxx")
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); !ok {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
