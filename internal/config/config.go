// Package config handles global vibekit configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the global vibekit configuration.
type Config struct {
	// Repositories are local innovation-kit repository paths, searched in
	// order when resolving kits.
	Repositories []string `toml:"repositories"`

	// BaselineSource labels where a project's baseline came from. The
	// label is recorded in the state README.
	BaselineSource string `toml:"baseline_source"`

	// InitTemplate is a repository URL whose contents init layers over a
	// new project.
	InitTemplate string `toml:"init_template"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown
	// rendering. Supported values are ANSI color codes ("0" to "255") or
	// hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown
	// code blocks. Example values: "monokai", "dracula", "github", "nord".
	CodeTheme string `toml:"code_theme"`
}

// ResolvedBaselineSource returns the baseline label, preferring the
// environment override, then the config file, then "unspecified".
func (c *Config) ResolvedBaselineSource() string {
	if v := strings.TrimSpace(os.Getenv(EnvBaselineSource)); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.BaselineSource); v != "" {
		return v
	}
	return "unspecified"
}

// ResolvedInitTemplate returns the init template URL, preferring the
// environment override. Empty means init applies no template.
func (c *Config) ResolvedInitTemplate() string {
	if v := strings.TrimSpace(os.Getenv(EnvInitRepoURL)); v != "" {
		return v
	}
	return strings.TrimSpace(c.InitTemplate)
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// ResolveConfigPath resolves the effective config path from an optional
// override.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/vibekit/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	// Prefer XDG-style ~/.config/vibekit/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "vibekit", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	// Fall back to XDG config dir or OS-specific location
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "vibekit", "config.toml")
	}

	// Last resort fallback
	return filepath.Join(".", "config.toml")
}

// XDGPath returns the XDG-style config path (~/.config/vibekit/config.toml).
func XDGPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "vibekit", "config.toml"), nil
}

// CreateDefault creates a default config file at the default path if it
// doesn't exist.
func CreateDefault() (string, error) {
	return CreateDefaultAt(DefaultPath())
}

// CreateDefaultAt creates a default config file at a specific path if it
// doesn't exist.
func CreateDefaultAt(configPath string) (string, error) {
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil // Already exists
	}

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# vibekit configuration

# Local innovation-kit repositories, searched in order.
# repositories = ["/path/to/innovation-kit-repository"]

# Label recorded when initializing project state.
# baseline_source = "team-baseline"

# Repository URL applied as a project template by 'vibekit init'.
# init_template = "https://github.com/your-org/project-template"

# Optional UI accent color for headers/links in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
