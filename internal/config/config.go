// Package config handles TOML configuration loading with environment
// variable substitution.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Scanner   ScannerConfig   `toml:"scanner"`
	Libraries []LibraryConfig `toml:"libraries"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type CatalogConfig struct {
	APIKey   string        `toml:"api_key"`
	BaseURL  string        `toml:"base_url"`
	CacheTTL time.Duration `toml:"cache_ttl"`
}

// LibraryConfig declares one library the daemon keeps in sync with the
// store at startup.
type LibraryConfig struct {
	Name  string   `toml:"name"`
	Type  string   `toml:"type"` // "film" or "show"
	Paths []string `toml:"paths"`
}

type ScannerConfig struct {
	// FFprobe is the probe binary; looked up on PATH when relative.
	FFprobe string `toml:"ffprobe"`
	// Watch enables the filesystem watcher for every library.
	Watch *bool `toml:"watch"`
}

// Load reads, substitutes, parses, and validates the configuration
// file. Validation failures come back as a *ConfigError.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cerr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cerr.HasErrors() {
		return nil, cerr
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file,
// skipping validation and missing-variable checks.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, missing, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/reel.db"
	}
	if c.Scanner.FFprobe == "" {
		c.Scanner.FFprobe = "ffprobe"
	}
	if c.Scanner.Watch == nil {
		watch := true
		c.Scanner.Watch = &watch
	}
}
