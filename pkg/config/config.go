package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultHost is the public CDLI catalogue
const DefaultHost = "https://cdli.earth/"

// EnvPrefix prefixes every environment variable read by LoadFromEnv
const EnvPrefix = "CDLI_"

// Progress display modes
const (
	ProgressLines = "lines"
	ProgressTUI   = "tui"
	ProgressNone  = "none"
)

// Config holds all configuration options for the cdli client
type Config struct {
	Catalogue CatalogueConfig `yaml:"catalogue" json:"catalogue"`
	Export    ExportConfig    `yaml:"export" json:"export"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Progress  ProgressConfig  `yaml:"progress" json:"progress"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
}

// CatalogueConfig describes the remote service
type CatalogueConfig struct {
	Host           string        `yaml:"host" json:"host"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// ExportConfig holds export defaults
type ExportConfig struct {
	Format string `yaml:"format" json:"format"`
	// Concurrency caps simultaneously running export tasks (0 = unlimited)
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

// RetryConfig controls how gateway timeouts are retried
type RetryConfig struct {
	MaxRetries         int           `yaml:"max_retries" json:"max_retries"`
	Backoff            time.Duration `yaml:"backoff" json:"backoff"`
	Strategy           string        `yaml:"strategy" json:"strategy"`
	RetryNetworkErrors bool          `yaml:"retry_network_errors" json:"retry_network_errors"`
}

// RateLimitConfig holds client-side rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerMinute of 0 disables rate limiting
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
	Strategy          string `yaml:"strategy" json:"strategy"`
}

// ProgressConfig selects the progress display
type ProgressConfig struct {
	Mode string `yaml:"mode" json:"mode"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// MetricsConfig controls the Prometheus textfile dump
type MetricsConfig struct {
	File string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Catalogue: CatalogueConfig{
			Host:           DefaultHost,
			UserAgent:      "cdli-go",
			RequestTimeout: 5 * time.Minute,
		},
		Export: ExportConfig{
			Format:      "ntriples",
			Concurrency: 0,
		},
		Retry: RetryConfig{
			MaxRetries:         3,
			Backoff:            500 * time.Millisecond,
			Strategy:           "constant",
			RetryNetworkErrors: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			Strategy:          "token_bucket",
		},
		Progress: ProgressConfig{
			Mode: ProgressLines,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// LoadFromEnv loads configuration from CDLI_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	setString("HOST", &c.Catalogue.Host)
	setString("USER_AGENT", &c.Catalogue.UserAgent)
	setDuration("REQUEST_TIMEOUT", &c.Catalogue.RequestTimeout)
	setString("FORMAT", &c.Export.Format)
	setInt("CONCURRENCY", &c.Export.Concurrency)
	setInt("MAX_RETRIES", &c.Retry.MaxRetries)
	setDuration("RETRY_BACKOFF", &c.Retry.Backoff)
	setString("RETRY_STRATEGY", &c.Retry.Strategy)
	setInt("REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)
	setString("RATE_LIMIT_STRATEGY", &c.RateLimit.Strategy)
	setString("PROGRESS", &c.Progress.Mode)
	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)
	setString("METRICS_FILE", &c.Metrics.File)

	if v := os.Getenv(EnvPrefix + "RETRY_NETWORK_ERRORS"); v != "" {
		c.Retry.RetryNetworkErrors = strings.EqualFold(v, "true") || v == "1"
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in the standard locations
func FindConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".cdli.yaml",
		".cdli.yml",
		filepath.Join(home, ".config", "cdli", "config.yaml"),
		filepath.Join(home, ".cdli.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// DefaultPath is where `config init` writes a new file
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cdli.yaml"
	}
	return filepath.Join(home, ".config", "cdli", "config.yaml")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Catalogue.Host); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid catalogue host %q", c.Catalogue.Host))
	}
	if c.Catalogue.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout cannot be negative"))
	}
	if c.Export.Concurrency < 0 {
		errs = append(errs, errors.New("export concurrency cannot be negative"))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Retry.Backoff < 0 {
		errs = append(errs, errors.New("retry backoff cannot be negative"))
	}
	switch c.Retry.Strategy {
	case "constant", "exponential":
	default:
		errs = append(errs, fmt.Errorf("invalid retry strategy %q", c.Retry.Strategy))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	switch c.RateLimit.Strategy {
	case "token_bucket", "sliding_window":
	default:
		errs = append(errs, fmt.Errorf("invalid rate limit strategy %q", c.RateLimit.Strategy))
	}
	switch c.Progress.Mode {
	case ProgressLines, ProgressTUI, ProgressNone:
	default:
		errs = append(errs, fmt.Errorf("invalid progress mode %q", c.Progress.Mode))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources.
// Precedence: environment (including .env files) > config file > defaults.
// Command-line flags are applied by the caller afterwards.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".cdli.env"))
	}

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return cfg, nil
}
