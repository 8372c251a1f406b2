package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	defaultServiceName  = "hn-links"
	defaultServicePort  = 8094
	defaultVersion      = "0.1.0"
	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"
	defaultDBHost       = "localhost"
	defaultDBPort       = 5432
	defaultDBName       = "hn_links"
	defaultDBUser       = "postgres"
	defaultDBSSLMode    = "disable"

	defaultBaseURL      = "https://news.ycombinator.com"
	defaultPostID       = "46618714"
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultScrapeEveryH = 1
	defaultFetchTimeout = 30 * time.Second
)

// Config holds the application configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"HN_LINKS_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"     yaml:"debug"`
}

// ScraperConfig holds settings for the Hacker News thread scraper.
type ScraperConfig struct {
	BaseURL      string        `env:"HN_BASE_URL"       yaml:"base_url"`
	PostID       string        `env:"HN_POST_ID"        yaml:"post_id"`
	UserAgent    string        `yaml:"user_agent"`
	Interval     time.Duration `env:"HN_SCRAPE_INTERVAL" yaml:"interval"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// ThreadURL returns the absolute URL of the scraped discussion thread.
func (s *ScraperConfig) ThreadURL() string {
	return fmt.Sprintf("%s/item?id=%s", s.BaseURL, s.PostID)
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host     string `env:"POSTGRES_HN_LINKS_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_HN_LINKS_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_HN_LINKS_USER"     yaml:"user"`
	Password string `env:"POSTGRES_HN_LINKS_PASSWORD" yaml:"password"`
	Database string `env:"POSTGRES_HN_LINKS_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_HN_LINKS_SSLMODE"  yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// URL returns the PostgreSQL URL form used by golang-migrate.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return load(path, setDefaults)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setScraperDefaults(&cfg.Scraper)
	setDatabaseDefaults(&cfg.Database)
	setLoggingDefaults(&cfg.Logging)
}

// setServiceDefaults applies default values to ServiceConfig.
func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
}

// setScraperDefaults applies default values to ScraperConfig.
func setScraperDefaults(sc *ScraperConfig) {
	if sc.BaseURL == "" {
		sc.BaseURL = defaultBaseURL
	}
	if sc.PostID == "" {
		sc.PostID = defaultPostID
	}
	if sc.UserAgent == "" {
		sc.UserAgent = defaultUserAgent
	}
	if sc.Interval == 0 {
		sc.Interval = defaultScrapeEveryH * time.Hour
	}
	if sc.FetchTimeout == 0 {
		sc.FetchTimeout = defaultFetchTimeout
	}
}

// setDatabaseDefaults applies default values to DatabaseConfig.
func setDatabaseDefaults(db *DatabaseConfig) {
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if db.Port == 0 {
		db.Port = defaultDBPort
	}
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Database == "" {
		db.Database = defaultDBName
	}
	if db.SSLMode == "" {
		db.SSLMode = defaultDBSSLMode
	}
}

// setLoggingDefaults applies default values to LoggingConfig.
func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := validateRequired("scraper.post_id", c.Scraper.PostID); err != nil {
		return err
	}
	if err := validateRequired("scraper.base_url", c.Scraper.BaseURL); err != nil {
		return err
	}
	return nil
}
