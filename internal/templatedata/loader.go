package templatedata

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Catalog is the decoded content of a template metadata file.
type Catalog struct {
	Templates []*Metadata
	Redirects map[string]string
}

// catalogFile accepts two layouts:
//
//	templates: {<title>: <metadata>, ...}
//	redirects: {<alias>: <title>, ...}
//
// and the shape of a MediaWiki action=templatedata response:
//
//	pages: {<page id>: {title: "Template:...", params: ..., paramOrder: ...}}
type catalogFile struct {
	Templates map[string]*Metadata `yaml:"templates"`
	Pages     map[string]*Metadata `yaml:"pages"`
	Redirects map[string]string    `yaml:"redirects"`
}

// Parse decodes a YAML or JSON metadata file.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse template metadata: %w", err)
	}

	c := &Catalog{Redirects: f.Redirects}
	if c.Redirects == nil {
		c.Redirects = make(map[string]string)
	}

	titles := make([]string, 0, len(f.Templates))
	for title := range f.Templates {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		m := f.Templates[title]
		if m == nil {
			m = &Metadata{}
		}
		if m.Title == "" {
			m.Title = title
		}
		m.Title = StripNamespace(m.Title)
		c.Templates = append(c.Templates, m)
	}

	ids := make([]string, 0, len(f.Pages))
	for id := range f.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		m := f.Pages[id]
		if m == nil || m.Title == "" {
			continue
		}
		m.Title = StripNamespace(m.Title)
		c.Templates = append(c.Templates, m)
	}

	return c, nil
}

// LoadFile reads and decodes a metadata file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("template metadata file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read template metadata %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Defaults returns the bundled metadata for the common citation templates.
func Defaults() *Catalog {
	c, err := Parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("bundled template metadata is invalid: %v", err))
	}
	return c
}

// Registry builds a registry from the catalog.
func (c *Catalog) Registry() *Registry {
	return NewRegistry(c.Templates, c.Redirects)
}
