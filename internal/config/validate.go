package config

import (
	"fmt"

	"streamvol/internal/domain"
	"streamvol/internal/logging"
)

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Policy.File == "" {
		return fmt.Errorf("policy.file must not be empty")
	}
	if _, err := domain.ParseDeviceCategory(c.Policy.DefaultCategory); err != nil {
		return fmt.Errorf("policy.default_category: %w", err)
	}

	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0")
		}
	}

	switch c.Output.Controller {
	case "noop", "applescript":
	default:
		return fmt.Errorf("output.controller must be noop or applescript, got %q", c.Output.Controller)
	}

	if _, _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// DeviceCategory returns the parsed fallback device category.
func (c *Config) DeviceCategory() domain.DeviceCategory {
	cat, err := domain.ParseDeviceCategory(c.Policy.DefaultCategory)
	if err != nil {
		return domain.CategorySpeaker
	}
	return cat
}
