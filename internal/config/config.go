package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds the application settings shared by the CLI and the HTTP API.
type Config struct {
	Policy struct {
		File            string `yaml:"file"`
		DefaultCategory string `yaml:"default_category"`
	} `yaml:"policy"`

	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limiting"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Output struct {
		// "noop" logs resolved gains, "applescript" drives the macOS output volume.
		Controller string `yaml:"controller"`
	} `yaml:"output"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

var (
	// DefaultAddress is the bind address of the HTTP API if not configured.
	DefaultAddress = "127.0.0.1:7070"
	// DefaultCategory is the device category used when a stream lacks the requested curve.
	DefaultCategory = "speaker"
)

// DefaultConfig returns the initial configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Policy.File = DefaultPolicyPath()
	cfg.Policy.DefaultCategory = DefaultCategory
	cfg.Server.Address = DefaultAddress
	cfg.Server.ReadTimeout = 5 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100
	cfg.Monitoring.PrometheusEnabled = true
	cfg.Output.Controller = "noop"
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "console"
	return cfg
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
