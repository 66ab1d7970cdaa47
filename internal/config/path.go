package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultPath returns $XDG_CONFIG_HOME/streamvol/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "streamvol", "config.yaml")
}

// DefaultPolicyPath returns $XDG_CONFIG_HOME/streamvol/policy.yaml.
func DefaultPolicyPath() string {
	return filepath.Join(xdg.ConfigHome, "streamvol", "policy.yaml")
}
