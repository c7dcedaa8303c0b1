package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/proveit/internal/atomicfile"
)

type persistedConfig struct {
	TemplatesFile   *string              `toml:"templates_file,omitempty"`
	DefaultTemplate *string              `toml:"default_template,omitempty"`
	IndexPath       *string              `toml:"index_path,omitempty"`
	Format          *string              `toml:"format,omitempty"`
	Redirects       map[string]string    `toml:"redirects,omitempty"`
	UI              *persistedUISettings `toml:"ui,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes the config to path atomically. Comments in an existing file
// are not preserved.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := persistedConfig{
		TemplatesFile:   nonEmptyPtr(cfg.TemplatesFile),
		DefaultTemplate: nonEmptyPtr(cfg.DefaultTemplate),
		IndexPath:       nonEmptyPtr(cfg.IndexPath),
		Format:          nonEmptyPtr(cfg.Format),
	}
	if len(cfg.Redirects) > 0 {
		out.Redirects = cfg.Redirects
	}

	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{
			Accent:    accent,
			CodeTheme: codeTheme,
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}

// Keys lists the settable config keys. "redirects.<alias>" is also accepted.
var Keys = []string{"templates_file", "default_template", "index_path", "format", "ui.accent", "ui.code_theme"}

// Set assigns value to a dotted key. An empty value clears it.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "templates_file":
		c.TemplatesFile = value
	case "default_template":
		c.DefaultTemplate = value
	case "index_path":
		c.IndexPath = value
	case "format":
		c.Format = strings.ToLower(value)
	case "ui.accent":
		c.UI.Accent = value
	case "ui.code_theme":
		c.UI.CodeTheme = value
	default:
		alias, ok := strings.CutPrefix(key, "redirects.")
		if !ok || strings.TrimSpace(alias) == "" {
			known := append([]string(nil), Keys...)
			sort.Strings(known)
			return fmt.Errorf("unknown config key %q (known: %s, redirects.<alias>)", key, strings.Join(known, ", "))
		}
		if c.Redirects == nil {
			c.Redirects = make(map[string]string)
		}
		if value == "" {
			delete(c.Redirects, alias)
		} else {
			c.Redirects[alias] = value
		}
	}
	return c.Validate()
}
