// Package config loads linky settings from an optional YAML file. Command-line
// flags are layered on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/lukemcguire/linky/crawler"
	"github.com/lukemcguire/linky/result"
)

// Config captures every setting the CLI understands.
type Config struct {
	Recursive    bool          `yaml:"recursive"`
	Verbose      bool          `yaml:"verbose"`
	Concurrency  int           `yaml:"concurrency"`
	Timeout      Duration      `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	Retries      int           `yaml:"retries"`
	RetryDelay   Duration      `yaml:"retry_delay"`
	StrictOrigin bool          `yaml:"strict_origin"`
	Format       string        `yaml:"format"`
	Plain        bool          `yaml:"plain"`
	Logging      LoggingConfig `yaml:"logging"`
}

// LoggingConfig selects where the diagnostic log goes and how verbose it is.
type LoggingConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with the crawler defaults.
func Default() Config {
	policy := crawler.DefaultRetryPolicy()
	return Config{
		Concurrency: 1,
		Timeout:     DurationFrom(10 * time.Second),
		UserAgent:   crawler.DefaultUserAgent,
		Retries:     policy.MaxRetries,
		RetryDelay:  DurationFrom(policy.BaseDelay),
		Format:      string(result.FormatText),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()

	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader. Keys that
// are absent keep their default values.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() {
	c.UserAgent = strings.TrimSpace(c.UserAgent)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

// Validate enforces the invariants the crawler relies on.
func (c Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be > 0 (got %d)", c.Concurrency)
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", c.Timeout.Duration)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be >= 0 (got %d)", c.Retries)
	}
	if c.RetryDelay.Duration < 0 {
		return fmt.Errorf("retry_delay must be >= 0 (got %s)", c.RetryDelay.Duration)
	}
	if _, err := result.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.Logging.Level != "" {
		if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	return nil
}

// CrawlerConfig converts the settings into a crawler configuration for
// startURL.
func (c Config) CrawlerConfig(startURL string, logger logrus.FieldLogger) crawler.Config {
	cfg := crawler.DefaultConfig(startURL)
	cfg.Recurse = c.Recursive
	cfg.Verbose = c.Verbose
	cfg.Concurrency = c.Concurrency
	cfg.RequestTimeout = c.Timeout.Duration
	cfg.UserAgent = c.UserAgent
	cfg.RetryPolicy.MaxRetries = c.Retries
	if c.RetryDelay.Duration > 0 {
		cfg.RetryPolicy.BaseDelay = c.RetryDelay.Duration
	}
	cfg.StrictOrigin = c.StrictOrigin
	cfg.Logger = logger
	return cfg
}
