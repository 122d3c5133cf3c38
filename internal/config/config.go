// Package config provides configuration loading for openapi-tryit.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	configloader "github.com/GabrielNunesIT/go-libs/config-loader"
	"github.com/go-playground/validator/v10"

	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/executor"
	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/fetcher"
	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/storage"
	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
	"github.com/GabrielNunesIT/openapi-tryit/internal/synth"
)

// DefaultFile is read when no path is given and the file exists.
const DefaultFile = "config.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OPENAPI_TRYIT_"

// Config holds the application configuration.
type Config struct {
	FallbackURL    string         `koanf:"fallback_url" validate:"required,url"`
	DefaultHeaders []HeaderConfig `koanf:"default_headers" validate:"dive"`

	Executor  ExecutorConfig  `koanf:"executor"`
	Fetcher   FetcherConfig   `koanf:"fetcher"`
	Storage   StorageConfig   `koanf:"storage"`
	Server    ServerConfig    `koanf:"server"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// HeaderConfig is a header added to every synthesized request.
type HeaderConfig struct {
	Key   string `koanf:"key" validate:"required"`
	Value string `koanf:"value"`
}

// ExecutorConfig configures outgoing try-it requests.
type ExecutorConfig struct {
	Timeout              time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRedirects         int           `koanf:"max_redirects" validate:"gt=0"`
	MaxResponseBytes     int64         `koanf:"max_response_bytes" validate:"gt=0"`
	AllowPrivateNetworks bool          `koanf:"allow_private_networks"`
	Breaker              BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the per-host circuit breaker.
type BreakerConfig struct {
	MaxFailures uint32        `koanf:"max_failures" validate:"gt=0"`
	OpenTimeout time.Duration `koanf:"open_timeout" validate:"gt=0"`
}

// FetcherConfig configures remote specification downloads.
type FetcherConfig struct {
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRedirects int           `koanf:"max_redirects" validate:"gt=0"`
	MaxSpecBytes int64         `koanf:"max_spec_bytes" validate:"gt=0"`
	CacheDir     string        `koanf:"cache_dir"`
	CacheTTL     time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

// StorageConfig selects the spec store.
type StorageConfig struct {
	Driver      string `koanf:"driver" validate:"oneof=memory file redis"`
	Dir         string `koanf:"dir" validate:"required_if=Driver file"`
	RedisAddr   string `koanf:"redis_addr" validate:"required_if=Driver redis"`
	RedisPrefix string `koanf:"redis_prefix"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr  string `koanf:"addr" validate:"required"`
	Pprof bool   `koanf:"pprof"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Stdout bool `koanf:"stdout"`
}

// Default returns the built-in configuration.
func Default() Config {
	exec := executor.DefaultOptions()

	return Config{
		FallbackURL: "https://api.example.com",
		DefaultHeaders: []HeaderConfig{
			{Key: "Content-Type", Value: "application/json"},
			{Key: "Accept", Value: "application/json"},
		},
		Executor: ExecutorConfig{
			Timeout:          exec.Timeout,
			MaxRedirects:     exec.MaxRedirects,
			MaxResponseBytes: exec.MaxResponseBytes,
			Breaker: BreakerConfig{
				MaxFailures: exec.BreakerMaxFailures,
				OpenTimeout: exec.BreakerOpenTimeout,
			},
		},
		Fetcher: FetcherConfig{
			Timeout:      15 * time.Second,
			MaxRedirects: 3,
			MaxSpecBytes: 5 << 20,
			CacheTTL:     fetcher.DefaultCacheTTL,
		},
		Storage: StorageConfig{
			Driver: storage.DriverMemory,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load returns the application configuration using go-libs config-loader.
// Defaults are overlaid by the YAML file at path (DefaultFile when empty,
// skipped when absent) and then by environment variables.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	useFile := true
	if _, err := os.Stat(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		useFile = false
	}

	var (
		cfg Config
		err error
	)
	if useFile {
		cfg, err = configloader.NewConfigLoader(
			configloader.WithDefaults(Default()),
			configloader.WithFile[Config](path),
			configloader.WithEnv[Config](EnvPrefix),
		).Load()
	} else {
		cfg, err = configloader.NewConfigLoader(
			configloader.WithDefaults(Default()),
			configloader.WithEnv[Config](EnvPrefix),
		).Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SynthConfig returns the request builder defaults.
func (c Config) SynthConfig() synth.Config {
	headers := make([]domain.HeaderRow, 0, len(c.DefaultHeaders))
	for _, h := range c.DefaultHeaders {
		headers = append(headers, domain.HeaderRow{Enabled: true, Key: h.Key, Value: h.Value})
	}
	return synth.Config{FallbackURL: c.FallbackURL, DefaultHeaders: headers}
}

// ExecutorOptions returns the executor settings.
func (c Config) ExecutorOptions(log executor.Logger) executor.Options {
	return executor.Options{
		Timeout:              c.Executor.Timeout,
		MaxRedirects:         c.Executor.MaxRedirects,
		MaxResponseBytes:     c.Executor.MaxResponseBytes,
		AllowPrivateNetworks: c.Executor.AllowPrivateNetworks,
		BreakerMaxFailures:   c.Executor.Breaker.MaxFailures,
		BreakerOpenTimeout:   c.Executor.Breaker.OpenTimeout,
		Logger:               log,
	}
}

// FetcherOptions returns the fetcher settings, opening the cache when configured.
func (c Config) FetcherOptions(log fetcher.Logger) (fetcher.Options, error) {
	opts := fetcher.Options{
		Timeout:              c.Fetcher.Timeout,
		MaxRedirects:         c.Fetcher.MaxRedirects,
		MaxSpecBytes:         c.Fetcher.MaxSpecBytes,
		AllowPrivateNetworks: c.Executor.AllowPrivateNetworks,
		Logger:               log,
	}

	if c.Fetcher.CacheDir != "" {
		cache, err := fetcher.NewCache(c.Fetcher.CacheDir, c.Fetcher.CacheTTL)
		if err != nil {
			return opts, err
		}
		opts.Cache = cache
	}

	return opts, nil
}

// StorageOptions returns the spec store settings.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:      c.Storage.Driver,
		Dir:         c.Storage.Dir,
		RedisAddr:   c.Storage.RedisAddr,
		RedisPrefix: c.Storage.RedisPrefix,
	}
}
