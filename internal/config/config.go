// Package config loads the deploy file of the router.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stackdump/multidomain-router/internal/logger"
	"github.com/stackdump/multidomain-router/internal/multidomain"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "multidomain.yaml"

// SecretEnv overrides an empty admin.jwt_secret.
const SecretEnv = "MULTIDOMAIN_JWT_SECRET"

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Content     ContentConfig     `yaml:"content"`
	Log         LogConfig         `yaml:"log"`
	Admin       AdminConfig       `yaml:"admin"`
	Multidomain MultidomainConfig `yaml:"multidomain"`
	// Reload is the debounce delay of the file watcher.
	Reload time.Duration `yaml:"reload"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TrustProxy      bool          `yaml:"trust_proxy"`
}

type ContentConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

type LogConfig struct {
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	Headers    bool   `yaml:"headers"`
}

// Logger converts the section for logger.New.
func (c LogConfig) Logger() logger.Config {
	return logger.Config{
		Format:     c.Format,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

type AdminConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"`
}

// MultidomainConfig is the primary mapping source. Entries are used exactly
// as written, including incomplete ones.
type MultidomainConfig struct {
	Sites []multidomain.Entry `yaml:"sites"`
}

// SetDefaults fills unset values.
func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Content.Dir == "" {
		c.Content.Dir = "content"
	}
	if c.Content.BaseURL == "" {
		c.Content.BaseURL = "http://localhost" + c.Server.Addr
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.File != "" && c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Admin.JWTSecret == "" {
		c.Admin.JWTSecret = os.Getenv(SecretEnv)
	}
	if c.Reload == 0 {
		c.Reload = 500 * time.Millisecond
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "text", "jsonl", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Admin.Addr != "" && c.Admin.JWTSecret == "" {
		return fmt.Errorf("admin.jwt_secret (or %s) is required when admin.addr is set", SecretEnv)
	}
	if c.Admin.Addr != "" && c.Admin.Addr == c.Server.Addr {
		return errors.New("admin.addr must differ from server.addr")
	}
	return nil
}

// Parse decodes a deploy file and applies defaults. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the deploy file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Provider holds the current configuration. It is swapped atomically on
// reload and read on every request.
type Provider struct {
	cur atomic.Pointer[Config]
}

// NewProvider creates a provider holding cfg.
func NewProvider(cfg *Config) *Provider {
	p := &Provider{}
	p.Store(cfg)
	return p
}

// Load returns the current configuration.
func (p *Provider) Load() *Config {
	return p.cur.Load()
}

// Store replaces the current configuration.
func (p *Provider) Store(cfg *Config) {
	p.cur.Store(cfg)
}

// Sites returns the configured mappings.
func (p *Provider) Sites() []multidomain.Entry {
	cfg := p.cur.Load()
	if cfg == nil {
		return nil
	}
	return cfg.Multidomain.Sites
}
