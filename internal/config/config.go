// Package config loads the server configuration from a YAML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Environment variables.
const (
	EnvConfig     = "IMAGE_EDITOR_CONFIG"
	EnvLogLevel   = "IMAGE_EDITOR_LOG_LEVEL"
	EnvLicenseKey = "IMAGE_EDITOR_LICENSE_KEY"
	EnvDevMode    = "IMAGE_EDITOR_DEV_MODE"
	EnvWorkers    = "IMAGE_EDITOR_WORKERS"
)

// Config is the top-level configuration.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Workers  WorkersConfig `yaml:"workers"`
	License  LicenseConfig `yaml:"license"`
	Export   ExportConfig  `yaml:"export"`
	Fetch    FetchConfig   `yaml:"fetch"`
}

// WorkersConfig sizes the kernel worker pool.
type WorkersConfig struct {
	// Offload runs blur, sharpen, edge detection and pixelate on the pool.
	Offload   bool          `yaml:"offload"`
	Count     int           `yaml:"count"`
	QueueSize int           `yaml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LicenseConfig configures entitlement checks.
type LicenseConfig struct {
	Key             string        `yaml:"key"`
	APIURL          string        `yaml:"api_url"`
	OrganizationID  string        `yaml:"organization_id"`
	StoreURL        string        `yaml:"store_url"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CacheEnabled    *bool         `yaml:"cache_enabled"`
	OfflineFallback *bool         `yaml:"offline_fallback"`

	// CachePath is the SQLite cache file; empty keeps the cache in memory.
	CachePath string `yaml:"cache_path"`
	DevMode   bool   `yaml:"dev_mode"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Format  string  `yaml:"format"`
	Quality float64 `yaml:"quality"`
}

// FetchConfig controls image downloads.
type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Workers.Timeout <= 0 {
		c.Workers.Timeout = 30 * time.Second
	}
	if c.License.CacheTTL <= 0 {
		c.License.CacheTTL = 24 * time.Hour
	}
	if c.License.CacheEnabled == nil {
		on := true
		c.License.CacheEnabled = &on
	}
	if c.License.OfflineFallback == nil {
		on := true
		c.License.OfflineFallback = &on
	}
	if c.Export.Format == "" {
		c.Export.Format = "image/png"
	}
	if c.Export.Quality <= 0 || c.Export.Quality > 1 {
		c.Export.Quality = 0.92
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
}

// LoadFile reads a YAML configuration file and fills in defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// Load builds the configuration: the file at path (or $IMAGE_EDITOR_CONFIG
// when path is empty, or the defaults when both are empty), then variables
// from a .env file in the working directory, then the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("failed to read .env file")
	}

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	c := Default()
	if path != "" {
		var err error
		if c, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvLicenseKey); v != "" {
		c.License.Key = v
	}
	if v := getenv(EnvDevMode); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDevMode, v, err)
		}
		c.License.DevMode = on
	}
	if v := getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers.Count = n
		c.Workers.Offload = n > 0
	}
	return nil
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Workers.Count < 0 || c.Workers.QueueSize < 0 {
		return fmt.Errorf("workers.count and workers.queue_size must be >= 0")
	}
	switch strings.ToLower(c.Export.Format) {
	case "png", "jpg", "jpeg", "webp", "image/png", "image/jpeg", "image/webp":
	default:
		return fmt.Errorf("unsupported export.format %q", c.Export.Format)
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() logrus.Level {
	l, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}
