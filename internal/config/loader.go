package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadShooter loads the server configuration.
// Search order: customPath -> ~/.skyfall/config.yaml -> ./configs/skyfall.yaml -> embedded default.
// Files overlay the built-in defaults, so a partial document only changes the keys it names.
func LoadShooter(customPath string) (ShooterConfig, error) {
	cfg := DefaultShooterConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, cfg.Validate()
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if c, ok := tryLoad(userCfgPath); ok {
			return c, nil
		}
	}

	// Try local configs directory
	if c, ok := tryLoad(filepath.Join("configs", "skyfall.yaml")); ok {
		return c, nil
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultShooterYAML, &cfg); err != nil {
		return DefaultShooterConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// tryLoad reads an optional config file. Missing, unreadable or invalid files
// are skipped so the next location in the search order is used.
func tryLoad(path string) (ShooterConfig, bool) {
	cfg := DefaultShooterConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, false
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, false
	}
	if err := cfg.Validate(); err != nil {
		return cfg, false
	}
	return cfg, true
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".skyfall", filename)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
