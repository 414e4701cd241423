package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/gssdash/dataset"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, dataset.DefaultSource, cfg.Source.URL)
	assert.Equal(t, dataset.EncodingCP1252, cfg.Source.Encoding)
	assert.Equal(t, ":8050", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Zero(t, cfg.Cache.Cleanup)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid default config", modify: func(c *Config) {}},
		{name: "missing source", modify: func(c *Config) { c.Source.URL = "" }, wantErr: true},
		{name: "utf-8 encoding", modify: func(c *Config) { c.Source.Encoding = "utf-8" }},
		{name: "unknown encoding", modify: func(c *Config) { c.Source.Encoding = "latin9" }, wantErr: true},
		{name: "missing addr", modify: func(c *Config) { c.Server.Addr = "" }, wantErr: true},
		{name: "unknown backend", modify: func(c *Config) { c.Render.Backend = "ascii" }, wantErr: true},
		{name: "zero width", modify: func(c *Config) { c.Render.Width = 0 }, wantErr: true},
		{name: "palette", modify: func(c *Config) { c.Render.Palette = []string{"#1f77b4", "#FF7F0E"} }},
		{name: "bad palette color", modify: func(c *Config) { c.Render.Palette = []string{"blue"} }, wantErr: true},
		{name: "short palette color", modify: func(c *Config) { c.Render.Palette = []string{"#fff"} }, wantErr: true},
		{name: "negative ttl", modify: func(c *Config) { c.Cache.TTL = -time.Second }, wantErr: true},
		{name: "unknown log format", modify: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gssdash.yaml")
	content := `
source:
  url: ./gss2018.csv
  encoding: utf-8
  timeout: 5s
server:
  addr: 127.0.0.1:9000
  cors_origins: [http://localhost:3000]
cache:
  ttl: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "./gss2018.csv", cfg.Source.URL)
	assert.Equal(t, "utf-8", cfg.Source.Encoding)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)

	// Unset fields keep their defaults.
	assert.Equal(t, "auto", cfg.Render.Backend)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GSSDASH_SOURCE_URL":     "/data/gss.csv",
		"GSSDASH_CORS_ORIGINS":   "https://a.example, https://b.example",
		"GSSDASH_CACHE_ENABLED":  "false",
		"GSSDASH_CACHE_TTL":      "1h",
		"GSSDASH_RENDER_WIDTH":   "640",
		"GSSDASH_LOG_LEVEL":      "debug",
		"GSSDASH_RENDER_PALETTE": "#000000,#ffffff",
		"GSSDASH_UNRELATED_NAME": "ignored",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "/data/gss.csv", cfg.Source.URL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 640, cfg.Render.Width)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"#000000", "#ffffff"}, cfg.Render.Palette)
}

func TestApplyEnv_BadValue(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "GSSDASH_SOURCE_TIMEOUT" {
			return "soon", true
		}
		return "", false
	}
	err := DefaultConfig().ApplyEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GSSDASH_SOURCE_TIMEOUT")
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "gssdash.yaml")

	cfg := DefaultConfig()
	cfg.Render.Backend = "plot"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
