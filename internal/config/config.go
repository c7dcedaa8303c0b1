// Package config handles global proveit configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the global proveit configuration.
type Config struct {
	// TemplatesFile is a TemplateData file (YAML or JSON) used instead of the
	// bundled metadata.
	TemplatesFile string `toml:"templates_file"`

	// DefaultTemplate is the template `insert` uses when none is given.
	DefaultTemplate string `toml:"default_template"`

	// IndexPath is the SQLite database used by `index` and `search`.
	IndexPath string `toml:"index_path"`

	// Format forces "inline" or "block" when templates are rebuilt. Empty
	// means each template's own preference.
	Format string `toml:"format"`

	// Redirects maps extra template aliases to canonical names.
	Redirects map[string]string `toml:"redirects"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	// Example values: "monokai", "dracula", "github", "nord".
	CodeTheme string `toml:"code_theme"`
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
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &config, nil
}

// Validate checks values that have a fixed set of choices.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case "", "inline", "block":
	default:
		return fmt.Errorf("format must be inline or block, got %q", c.Format)
	}
	return nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/proveit/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "proveit", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "proveit", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

const defaultConfig = `# proveit configuration

# TemplateData file (YAML or JSON) replacing the bundled citation templates.
# templates_file = "~/wiki/templates.yaml"

# Template used by ` + "`proveit insert`" + ` when --template is not given.
# default_template = "Cite web"

# SQLite index for ` + "`proveit index`" + ` and ` + "`proveit search`" + `.
# index_path = "~/.cache/proveit/index.db"

# Force "inline" or "block" when templates are rebuilt.
# format = "inline"

# Extra template aliases (alias = canonical name).
# [redirects]
# "cite" = "Cite web"

# Optional UI accent color for headers in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

// CreateDefaultAt writes a commented default config to path if no file
// exists there. It returns true if a file was created.
func CreateDefaultAt(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// ResolveTemplatesFile returns the metadata file to load: override when set,
// else templates_file. Empty means the bundled defaults.
func (c *Config) ResolveTemplatesFile(override string) string {
	if strings.TrimSpace(override) != "" {
		return ExpandPath(override)
	}
	return ExpandPath(c.TemplatesFile)
}

// ResolveIndexPath returns the index database path, defaulting to
// <user cache dir>/proveit/index.db.
func (c *Config) ResolveIndexPath(override string) string {
	if strings.TrimSpace(override) != "" {
		return ExpandPath(override)
	}
	if strings.TrimSpace(c.IndexPath) != "" {
		return ExpandPath(c.IndexPath)
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "proveit", "index.db")
	}
	return filepath.Join(".", ".proveit-index.db")
}

// ExpandPath expands a leading "~/" to the home directory.
func ExpandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
