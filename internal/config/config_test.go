package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://api.example.com", cfg.FallbackURL)
	assert.Equal(t, 30*time.Second, cfg.Executor.Timeout)
	assert.Equal(t, 5, cfg.Executor.MaxRedirects)
	assert.Equal(t, int64(10<<20), cfg.Executor.MaxResponseBytes)
	assert.Equal(t, 3, cfg.Fetcher.MaxRedirects)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fallback url", func(c *Config) { c.FallbackURL = "not a url" }},
		{"driver", func(c *Config) { c.Storage.Driver = "bolt" }},
		{"file driver needs dir", func(c *Config) { c.Storage.Driver = "file" }},
		{"redis driver needs addr", func(c *Config) { c.Storage.Driver = "redis" }},
		{"timeout", func(c *Config) { c.Executor.Timeout = 0 }},
		{"executor redirects", func(c *Config) { c.Executor.MaxRedirects = 0 }},
		{"fetcher redirects", func(c *Config) { c.Fetcher.MaxRedirects = 0 }},
		{"header key", func(c *Config) { c.DefaultHeaders = []HeaderConfig{{Value: "x"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_NoFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().FallbackURL, cfg.FallbackURL)
}

func TestConfig_Adapters(t *testing.T) {
	cfg := Default()
	cfg.Executor.AllowPrivateNetworks = true
	cfg.Fetcher.CacheDir = t.TempDir()

	sc := cfg.SynthConfig()
	assert.Equal(t, "https://api.example.com", sc.FallbackURL)
	assert.Equal(t, []domain.HeaderRow{
		{Enabled: true, Key: "Content-Type", Value: "application/json"},
		{Enabled: true, Key: "Accept", Value: "application/json"},
	}, sc.DefaultHeaders)

	eo := cfg.ExecutorOptions(nil)
	assert.True(t, eo.AllowPrivateNetworks)
	assert.Equal(t, uint32(5), eo.BreakerMaxFailures)

	fo, err := cfg.FetcherOptions(nil)
	require.NoError(t, err)
	assert.NotNil(t, fo.Cache)
	assert.True(t, fo.AllowPrivateNetworks)

	assert.Equal(t, "memory", cfg.StorageOptions().Driver)
}
