// Package config provides configuration management for releng.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDirectory returns the directory searched for config.yaml.
//
// Locations:
//   - Windows: %APPDATA%\releng
//   - Unix: $XDG_CONFIG_HOME/releng (usually ~/.config/releng)
func ConfigDirectory() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "releng")
		}
		if runtime.GOOS == "windows" {
			return filepath.Join(homeDir, "AppData", "Roaming", "releng")
		}
		return filepath.Join(homeDir, ".config", "releng")
	}
	return filepath.Join(configDir, "releng")
}

// DefaultConfigPath returns the config file used when --config is not given.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDirectory(), "config.yaml")
}
