package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvCatalog    = "REBASE_CATALOG"
	EnvStagingDir = "REBASE_STAGING_DIR"
)

// Config captures application settings for resolution and installation runs.
type Config struct {
	Version int `yaml:"version"`
	// Catalog is the path of the TOML software catalog.
	Catalog string `yaml:"catalog"`
	// StagingDir overrides ~/Downloads/rusty_rebase.
	StagingDir string `yaml:"staging_dir,omitempty"`
	// DryRun is the default for installs when --dry-run is not given.
	DryRun      *bool    `yaml:"dry_run,omitempty"`
	UserAgent   string   `yaml:"user_agent"`
	HTTPTimeout Duration `yaml:"http_timeout"`
	// ChunkSize is the streamed download read size in bytes.
	ChunkSize int    `yaml:"chunk_size"`
	GitHubAPI string `yaml:"github_api"`
	LogLevel  string `yaml:"log_level"`
}

// Duration is a time.Duration that decodes from YAML strings such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version:     1,
		Catalog:     "software_catalog.toml",
		DryRun:      boolPtr(true),
		UserAgent:   "rusty_rebase/0.1",
		HTTPTimeout: Duration{30 * time.Second},
		ChunkSize:   8192,
		GitHubAPI:   "https://api.github.com",
		LogLevel:    "info",
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration. Environment overrides are applied last.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			cfg.applyEnv()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// ApplyDefaults ensures fields fall back to sensible defaults when the YAML
// omits or zeroes them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if strings.TrimSpace(c.Catalog) == "" {
		c.Catalog = defaults.Catalog
	}
	if c.DryRun == nil {
		c.DryRun = boolPtr(*defaults.DryRun)
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = defaults.UserAgent
	}
	if c.HTTPTimeout.Duration == 0 {
		c.HTTPTimeout = defaults.HTTPTimeout
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = defaults.ChunkSize
	}
	if strings.TrimSpace(c.GitHubAPI) == "" {
		c.GitHubAPI = defaults.GitHubAPI
	}
	c.GitHubAPI = strings.TrimRight(c.GitHubAPI, "/")
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = defaults.LogLevel
	}
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvCatalog); ok && strings.TrimSpace(v) != "" {
		c.Catalog = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvStagingDir); ok && strings.TrimSpace(v) != "" {
		c.StagingDir = strings.TrimSpace(v)
	}
}

// DryRunValue returns the effective dry-run default.
func (c Config) DryRunValue() bool {
	if c.DryRun == nil {
		return true
	}
	return *c.DryRun
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

func boolPtr(v bool) *bool {
	return &v
}
