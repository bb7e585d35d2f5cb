package config

import (
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "NEWS_COLLECTOR_CONFIG"
	databaseDSNEnv  = "DATABASE_DSN"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	geminiModelEnv  = "GEMINI_MODEL"
	logLevelEnv     = "LOG_LEVEL"
	intervalEnv     = "COLLECT_INTERVAL"
)

// DefaultOverloadMarkers are the substrings Gemini puts in error bodies when it sheds load.
var DefaultOverloadMarkers = []string{"The model is overloaded", "model overloaded"}

const (
	CatalogSourceConfig   = "config"
	CatalogSourceDatabase = "database"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Fetcher   FetcherConfig   `yaml:"fetcher"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Feeds     []FeedConfig    `yaml:"feeds"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN selects the in-memory store.
type DatabaseConfig struct {
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

// SchedulerConfig defines how often collection runs.
type SchedulerConfig struct {
	Interval   time.Duration  `yaml:"interval"`
	Timezone   string         `yaml:"timezone"`
	RunOnStart *bool          `yaml:"runOnStart"`
	location   *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// ShouldRunOnStart reports whether the first collection fires immediately.
func (s SchedulerConfig) ShouldRunOnStart() bool {
	return s.RunOnStart == nil || *s.RunOnStart
}

// GeminiConfig defines how to contact the generative-text API and how hard to push it.
type GeminiConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"apiKey"`
	MaxConcurrent     int           `yaml:"maxConcurrent"`
	AcquireTimeout    time.Duration `yaml:"acquireTimeout"`
	MaxRetries        int           `yaml:"maxRetries"`
	InitialBackoff    time.Duration `yaml:"initialBackoff"`
	BackoffMultiplier float64       `yaml:"backoffMultiplier"`
	RequestTimeout    time.Duration `yaml:"requestTimeout"`
	OverloadMarkers   []string      `yaml:"overloadMarkers"`
}

// URL builds the generateContent endpoint for the configured model.
func (g GeminiConfig) URL() string {
	return strings.TrimSuffix(g.Endpoint, "/") + "/" + g.Model + ":generateContent"
}

// FetcherConfig tunes feed downloads.
type FetcherConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"userAgent"`
	HostInterval time.Duration `yaml:"hostInterval"`
	Parallelism  int           `yaml:"parallelism"`
}

// ExtractorConfig tunes article page downloads.
type ExtractorConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxChars int           `yaml:"maxChars"`
}

// CatalogConfig selects where feed descriptors come from.
type CatalogConfig struct {
	Source string `yaml:"source"`
}

// FeedConfig is one statically configured feed.
type FeedConfig struct {
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Source   string `yaml:"source"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(intervalEnv); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Scheduler.Interval = d
		} else {
			log.Printf("config: invalid %s=%q, keeping %s", intervalEnv, v, c.Scheduler.Interval)
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Migrate {
		base.Database.Migrate = true
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.RunOnStart != nil {
		base.Scheduler.RunOnStart = override.Scheduler.RunOnStart
	}

	base.Gemini = mergeGemini(base.Gemini, override.Gemini)

	if override.Fetcher.Timeout > 0 {
		base.Fetcher.Timeout = override.Fetcher.Timeout
	}
	if override.Fetcher.UserAgent != "" {
		base.Fetcher.UserAgent = override.Fetcher.UserAgent
	}
	if override.Fetcher.HostInterval > 0 {
		base.Fetcher.HostInterval = override.Fetcher.HostInterval
	}
	if override.Fetcher.Parallelism > 0 {
		base.Fetcher.Parallelism = override.Fetcher.Parallelism
	}

	if override.Extractor.Timeout > 0 {
		base.Extractor.Timeout = override.Extractor.Timeout
	}
	if override.Extractor.MaxChars > 0 {
		base.Extractor.MaxChars = override.Extractor.MaxChars
	}

	if override.Catalog.Source != "" {
		base.Catalog.Source = override.Catalog.Source
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	return base
}

func mergeGemini(base, override GeminiConfig) GeminiConfig {
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.MaxConcurrent > 0 {
		base.MaxConcurrent = override.MaxConcurrent
	}
	if override.AcquireTimeout > 0 {
		base.AcquireTimeout = override.AcquireTimeout
	}
	if override.MaxRetries > 0 {
		base.MaxRetries = override.MaxRetries
	}
	if override.InitialBackoff > 0 {
		base.InitialBackoff = override.InitialBackoff
	}
	if override.BackoffMultiplier > 1 {
		base.BackoffMultiplier = override.BackoffMultiplier
	}
	if override.RequestTimeout > 0 {
		base.RequestTimeout = override.RequestTimeout
	}
	if len(override.OverloadMarkers) > 0 {
		base.OverloadMarkers = override.OverloadMarkers
	}
	return base
}

// Default returns the built-in configuration used before file and env overrides.
func Default() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Database:  DatabaseConfig{},
		Scheduler: SchedulerConfig{Interval: 10 * time.Minute, Timezone: defaultTimezone, location: tz},
		Gemini: GeminiConfig{
			Endpoint:          "https://generativelanguage.googleapis.com/v1beta/models",
			Model:             "gemini-2.5-flash",
			MaxConcurrent:     5,
			AcquireTimeout:    30 * time.Second,
			MaxRetries:        5,
			InitialBackoff:    time.Second,
			BackoffMultiplier: 1.5,
			RequestTimeout:    60 * time.Second,
			OverloadMarkers:   slices.Clone(DefaultOverloadMarkers),
		},
		Fetcher: FetcherConfig{
			Timeout:      20 * time.Second,
			UserAgent:    "NewsCollector/1.0",
			HostInterval: 500 * time.Millisecond,
			Parallelism:  4,
		},
		Extractor: ExtractorConfig{
			Timeout:  10 * time.Second,
			MaxChars: 15000,
		},
		Catalog: CatalogConfig{Source: CatalogSourceConfig},
	}
}
