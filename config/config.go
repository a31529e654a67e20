// Package config holds the settings for building cats-vs-dogs example records.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/go-catsdogs/records"
	"github.com/tsawler/go-catsdogs/storage"
	miniofs "github.com/tsawler/go-catsdogs/storage/minio"
	"github.com/tsawler/go-catsdogs/vision/dataset"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendMinio = "minio"
)

// Config holds all settings.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Enumerate EnumerateConfig `yaml:"enumerate"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SourceConfig locates the extracted archive.
type SourceConfig struct {
	Root    string      `yaml:"root"`    // directory holding the extracted archive
	Backend string      `yaml:"backend"` // local, minio
	Minio   MinioConfig `yaml:"minio"`
}

// MinioConfig configures the object storage backend.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// EnumerateConfig configures the enumerator.
type EnumerateConfig struct {
	ExpectedCorrupt int `yaml:"expected_corrupt"`
}

// OutputConfig configures the record sink.
type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // proto, json
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Root:    "/data/cats_vs_dogs",
			Backend: BackendLocal,
			Minio: MinioConfig{
				Endpoint: "localhost:9000",
				Bucket:   "datasets",
			},
		},
		Enumerate: EnumerateConfig{
			ExpectedCorrupt: dataset.DefaultExpectedCorrupt,
		},
		Output: OutputConfig{
			Path:   "cats_vs_dogs.records",
			Format: "proto",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if root := os.Getenv("CATSDOGS_ROOT"); root != "" {
		c.Source.Root = root
	}

	if v := os.Getenv("CATSDOGS_MINIO_ENDPOINT"); v != "" {
		c.Source.Minio.Endpoint = v
	}
	if v := os.Getenv("CATSDOGS_MINIO_ACCESS_KEY"); v != "" {
		c.Source.Minio.AccessKey = v
	}
	if v := os.Getenv("CATSDOGS_MINIO_SECRET_KEY"); v != "" {
		c.Source.Minio.SecretKey = v
	}
	if v := os.Getenv("CATSDOGS_MINIO_BUCKET"); v != "" {
		c.Source.Minio.Bucket = v
	}

	if v := os.Getenv("CATSDOGS_EXPECTED_CORRUPT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CATSDOGS_EXPECTED_CORRUPT %q: %w", v, err)
		}
		c.Enumerate.ExpectedCorrupt = n
	}

	return nil
}

// Validate checks the configuration for inconsistent settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.Root) == "" {
		return fmt.Errorf("source.root is required")
	}

	switch c.Source.Backend {
	case BackendLocal:
	case BackendMinio:
		if c.Source.Minio.Endpoint == "" {
			return fmt.Errorf("source.minio.endpoint is required for the minio backend")
		}
		if c.Source.Minio.Bucket == "" {
			return fmt.Errorf("source.minio.bucket is required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown source.backend %q", c.Source.Backend)
	}

	if c.Enumerate.ExpectedCorrupt < 0 {
		return fmt.Errorf("enumerate.expected_corrupt must not be negative, got %d", c.Enumerate.ExpectedCorrupt)
	}

	if _, err := records.ParseFormat(c.Output.Format); err != nil {
		return err
	}

	return nil
}

// RecordFormat returns the parsed output format.
func (c *Config) RecordFormat() (records.Format, error) {
	return records.ParseFormat(c.Output.Format)
}

// OpenStorage builds the filesystem for the configured backend. For the
// local backend a relative source.root is made absolute against the working
// directory, so Source.Root may change.
func (c *Config) OpenStorage(ctx context.Context) (storage.FS, error) {
	switch c.Source.Backend {
	case BackendLocal:
		root, err := filepath.Abs(c.Source.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve source.root %q: %w", c.Source.Root, err)
		}
		c.Source.Root = root
		return storage.NewOSFS(), nil
	case BackendMinio:
		m := c.Source.Minio
		return miniofs.NewFromConfig(miniofs.Config{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
		}, miniofs.WithContext(ctx))
	default:
		return nil, fmt.Errorf("unknown source.backend %q", c.Source.Backend)
	}
}
