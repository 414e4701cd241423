// Package config provides configuration loading for the dashboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/gssdash/dataset"
	"github.com/spektr-org/gssdash/render"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GSSDASH_"

// Config represents the complete dashboard configuration
type Config struct {
	Source SourceConfig `yaml:"source"`
	Server ServerConfig `yaml:"server"`
	Render RenderConfig `yaml:"render"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

// SourceConfig configures where the survey extract is read from
type SourceConfig struct {
	// URL is an http(s) URL or a local file path
	URL string `yaml:"url"`
	// Encoding is the byte encoding of the CSV ("cp1252" or "utf-8")
	Encoding string `yaml:"encoding"`
	// CachePath, when set, keeps a local copy of a downloaded extract
	CachePath string `yaml:"cache_path"`
	// Timeout bounds the startup fetch
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RenderConfig configures chart images
type RenderConfig struct {
	// Backend is "auto", "plot" or "gochart"
	Backend string `yaml:"backend"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	// Palette overrides the series colors ("#rrggbb") not fixed per value
	Palette []string `yaml:"palette,omitempty"`
}

// Size returns the configured image size.
func (r RenderConfig) Size() render.Size {
	return render.Size{Width: r.Width, Height: r.Height}
}

// CacheConfig configures view memoization
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	// TTL of a memoized view; zero keeps entries for the process lifetime
	TTL time.Duration `yaml:"ttl"`
	// Cleanup interval for expired entries; zero disables the janitor
	Cleanup time.Duration `yaml:"cleanup"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:      dataset.DefaultSource,
			Encoding: dataset.EncodingCP1252,
			Timeout:  time.Minute,
		},
		Server: ServerConfig{
			Addr:            ":8050",
			CORSOrigins:     []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Render: RenderConfig{
			Backend: "auto",
			Width:   render.DefaultSize.Width,
			Height:  render.DefaultSize.Height,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url is required")
	}
	switch c.Source.Encoding {
	case dataset.EncodingCP1252, dataset.EncodingUTF8, "windows-1252", "utf8":
	default:
		return fmt.Errorf("source.encoding must be %q or %q", dataset.EncodingCP1252, dataset.EncodingUTF8)
	}
	if c.Source.Timeout < 0 {
		return fmt.Errorf("source.timeout must not be negative")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Render.Backend {
	case "auto", "plot", "gochart":
	default:
		return fmt.Errorf("render.backend must be auto, plot or gochart")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render.width and render.height must be positive")
	}
	for _, color := range c.Render.Palette {
		if !isHexColor(color) {
			return fmt.Errorf("render.palette: %q is not a #rrggbb color", color)
		}
	}
	if c.Cache.TTL < 0 || c.Cache.Cleanup < 0 {
		return fmt.Errorf("cache durations must not be negative")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads path when given, else the defaults, then applies environment
// overrides and validates.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		var err error
		if config, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from GSSDASH_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("SOURCE_URL", &c.Source.URL)
	str("SOURCE_ENCODING", &c.Source.Encoding)
	str("SOURCE_CACHE_PATH", &c.Source.CachePath)
	str("SERVER_ADDR", &c.Server.Addr)
	str("RENDER_BACKEND", &c.Render.Backend)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "RENDER_PALETTE"); ok {
		c.Render.Palette = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "CACHE_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCACHE_ENABLED: %w", EnvPrefix, err)
		}
		c.Cache.Enabled = b
	}

	for name, dst := range map[string]*time.Duration{
		"SOURCE_TIMEOUT":   &c.Source.Timeout,
		"SHUTDOWN_TIMEOUT": &c.Server.ShutdownTimeout,
		"CACHE_TTL":        &c.Cache.TTL,
	} {
		if err := dur(name, dst); err != nil {
			return err
		}
	}
	if err := integer("RENDER_WIDTH", &c.Render.Width); err != nil {
		return err
	}
	return integer("RENDER_HEIGHT", &c.Render.Height)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 16, 32)
	return err == nil
}
