package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFrom(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	content := `
templates_file = "/wiki/templates.yaml"
default_template = "Cite web"
format = "block"

[redirects]
"cite" = "Cite web"

[ui]
accent = "39"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.TemplatesFile != "/wiki/templates.yaml" || cfg.DefaultTemplate != "Cite web" || cfg.Format != "block" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Redirects["cite"] != "Cite web" {
		t.Errorf("redirects = %v", cfg.Redirects)
	}
	if cfg.UI.Accent != "39" {
		t.Errorf("accent = %q", cfg.UI.Accent)
	}
}

func TestLoadFromRejectsBadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`format = "sideways"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestCreateDefaultAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	created, err := CreateDefaultAt(path)
	if err != nil || !created {
		t.Fatalf("CreateDefaultAt = %v, %v", created, err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "# templates_file") {
		t.Errorf("default config missing templates_file hint")
	}
	if _, err := LoadFrom(path); err != nil {
		t.Errorf("default config does not parse: %v", err)
	}

	created, err = CreateDefaultAt(path)
	if err != nil || created {
		t.Fatalf("second CreateDefaultAt = %v, %v; want no-op", created, err)
	}
}

func TestResolvePaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := &Config{TemplatesFile: "~/t.yaml", IndexPath: "/var/idx.db"}

	if got := cfg.ResolveTemplatesFile(""); got != filepath.Join(home, "t.yaml") {
		t.Errorf("templates file = %q", got)
	}
	if got := cfg.ResolveTemplatesFile("/flag.yaml"); got != "/flag.yaml" {
		t.Errorf("override ignored: %q", got)
	}
	if got := cfg.ResolveIndexPath(""); got != "/var/idx.db" {
		t.Errorf("index path = %q", got)
	}
	if got := (&Config{}).ResolveTemplatesFile(""); got != "" {
		t.Errorf("empty config should mean bundled defaults, got %q", got)
	}
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := &Config{}

	for key, value := range map[string]string{
		"default_template":   "Cite book",
		"format":             "INLINE",
		"ui.code_theme":      "nord",
		"redirects.cite bk":  "Cite book",
	} {
		if err := cfg.Set(key, value); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}
	if err := cfg.Set("nope", "x"); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if err := cfg.Set("format", "diagonal"); err == nil {
		t.Fatal("expected error for bad format")
	}
	cfg.Format = "inline"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.DefaultTemplate != "Cite book" || loaded.Format != "inline" || loaded.UI.CodeTheme != "nord" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Redirects["cite bk"] != "Cite book" {
		t.Errorf("redirects = %v", loaded.Redirects)
	}

	if err := cfg.Set("redirects.cite bk", ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := cfg.Redirects["cite bk"]; ok {
		t.Error("empty value should delete the redirect")
	}
}
