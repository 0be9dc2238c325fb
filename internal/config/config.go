// Package config provides configuration loading and management for the sync
// service.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/godlockin/moontv-sync/internal/registry"
)

// Defaults applied when the corresponding field is absent from the file.
const (
	DefaultListenAddress = ":8080"
	DefaultDataDir       = "data"

	DefaultFetchTimeout    = 30 * time.Second
	DefaultProbeTimeout    = 5 * time.Second
	DefaultRegistryDelay   = time.Second
	DefaultProbeSampleSize = 5
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// ListenAddress is the HTTP bind address, defaults to ":8080"
	ListenAddress string `yaml:"listenAddress,omitempty"`

	// DataDir is where snapshots and the config database live
	DataDir string `yaml:"dataDir,omitempty"`

	// SnapshotEnabled controls whether completed runs persist their source
	// list to disk. Defaults to true; set explicitly to false on read-only
	// deployments.
	SnapshotEnabled *bool `yaml:"snapshotEnabled,omitempty"`

	// Registries overrides the built-in registry catalog when non-empty
	Registries []registry.Registry `yaml:"registries,omitempty"`

	Crawler CrawlerConfig `yaml:"crawler,omitempty"`
}

// CrawlerConfig defines crawl tuning. Durations are strings ("30s", "1m")
// so the YAML stays readable.
type CrawlerConfig struct {
	// FetchTimeout bounds a single registry playlist download
	FetchTimeout string `yaml:"fetchTimeout,omitempty"`

	// ProbeTimeout bounds a single quality probe
	ProbeTimeout string `yaml:"probeTimeout,omitempty"`

	// RegistryDelay is the pacing delay between registry fetches
	RegistryDelay string `yaml:"registryDelay,omitempty"`

	// ProbeSampleSize is how many discovered URLs are probed per registry
	ProbeSampleSize *int `yaml:"probeSampleSize,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file. With no
// options it returns the built-in defaults.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var config Config
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetListenAddress returns the bind address, using ":8080" if not specified
func (c *Config) GetListenAddress() string {
	if c.ListenAddress == "" {
		return DefaultListenAddress
	}
	return c.ListenAddress
}

// GetDataDir returns the data directory, using "data" if not specified
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return DefaultDataDir
	}
	return c.DataDir
}

// GetSnapshotEnabled reports whether snapshot persistence is on. Absent
// means enabled.
func (c *Config) GetSnapshotEnabled() bool {
	if c.SnapshotEnabled == nil {
		return true
	}
	return *c.SnapshotEnabled
}

// GetRegistries returns the configured registries, falling back to the
// built-in catalog when none are configured
func (c *Config) GetRegistries() []registry.Registry {
	if len(c.Registries) == 0 {
		return registry.Catalog()
	}
	return c.Registries
}

// GetFetchTimeout returns the registry fetch timeout
func (c *CrawlerConfig) GetFetchTimeout() time.Duration {
	return durationOrDefault(c.FetchTimeout, DefaultFetchTimeout)
}

// GetProbeTimeout returns the per-probe timeout
func (c *CrawlerConfig) GetProbeTimeout() time.Duration {
	return durationOrDefault(c.ProbeTimeout, DefaultProbeTimeout)
}

// GetRegistryDelay returns the pacing delay between registry fetches
func (c *CrawlerConfig) GetRegistryDelay() time.Duration {
	return durationOrDefault(c.RegistryDelay, DefaultRegistryDelay)
}

// GetProbeSampleSize returns the probe sample size, defaulting to 5
func (c *CrawlerConfig) GetProbeSampleSize() int {
	if c.ProbeSampleSize == nil {
		return DefaultProbeSampleSize
	}
	return *c.ProbeSampleSize
}

// durationOrDefault parses a validated duration string. Validation already
// rejected unparseable values, so a parse failure here means the Config was
// built without going through LoadConfig; fall back rather than panic.
func durationOrDefault(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	registryNames := make(map[string]bool)
	for i, reg := range c.Registries {
		if reg.Name == "" {
			return fmt.Errorf("registry[%d]: name is required", i)
		}
		if registryNames[reg.Name] {
			return fmt.Errorf("registry[%d]: duplicate registry name '%s'", i, reg.Name)
		}
		registryNames[reg.Name] = true

		if reg.URL == "" {
			return fmt.Errorf("registry[%d] (%s): url is required", i, reg.Name)
		}
		if u, err := url.Parse(reg.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("registry[%d] (%s): url must be absolute, got %q", i, reg.Name, reg.URL)
		}
		if reg.Type == "" {
			return fmt.Errorf("registry[%d] (%s): type is required", i, reg.Name)
		}
		if reg.Type != registry.TypeM3U {
			return fmt.Errorf("registry[%d] (%s): unknown type %q (supported: %s)", i, reg.Name, reg.Type, registry.TypeM3U)
		}
	}

	return c.validateCrawler()
}

func (c *Config) validateCrawler() error {
	for field, value := range map[string]string{
		"crawler.fetchTimeout":  c.Crawler.FetchTimeout,
		"crawler.probeTimeout":  c.Crawler.ProbeTimeout,
		"crawler.registryDelay": c.Crawler.RegistryDelay,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s must be a valid duration (e.g., '30s', '1m'): %w", field, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", field, value)
		}
	}

	if c.Crawler.ProbeSampleSize != nil && *c.Crawler.ProbeSampleSize < 0 {
		return fmt.Errorf("crawler.probeSampleSize must not be negative, got %d", *c.Crawler.ProbeSampleSize)
	}

	return nil
}
