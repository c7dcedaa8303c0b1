package templatedata

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// maxRedirectHops bounds redirect chains so that cycles terminate.
const maxRedirectHops = 8

// Registry is the set of known templates plus a redirect table.
// A Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	templates map[string]*Metadata // key: NormalizeName(title)
	titles    []string
	redirects map[string]string // key: NormalizeName(alias), value: canonical title
	aliases   []string
}

// NewRegistry builds a registry. Redirects map an alias template name to the
// template it redirects to; targets may themselves be redirects.
func NewRegistry(templates []*Metadata, redirects map[string]string) *Registry {
	r := &Registry{
		templates: make(map[string]*Metadata, len(templates)),
		redirects: make(map[string]string, len(redirects)),
	}
	for _, m := range templates {
		if m == nil || strings.TrimSpace(m.Title) == "" {
			continue
		}
		m.Title = StripNamespace(m.Title)
		key := NormalizeName(m.Title)
		if _, exists := r.templates[key]; !exists {
			r.titles = append(r.titles, m.Title)
		}
		r.templates[key] = m
	}
	for from, to := range redirects {
		from = StripNamespace(from)
		to = StripNamespace(to)
		if NormalizeName(from) == "" || NormalizeName(to) == "" {
			continue
		}
		key := NormalizeName(from)
		if _, exists := r.redirects[key]; !exists {
			r.aliases = append(r.aliases, from)
		}
		r.redirects[key] = to
	}
	sort.Strings(r.titles)
	sort.Strings(r.aliases)
	return r
}

// Merge returns a new registry containing r's templates and redirects plus
// the extra redirects. Extra redirects win on conflict.
func (r *Registry) Merge(extra map[string]string) *Registry {
	templates := make([]*Metadata, 0, len(r.templates))
	for _, title := range r.titles {
		templates = append(templates, r.templates[NormalizeName(title)])
	}
	redirects := make(map[string]string, len(r.redirects)+len(extra))
	for _, alias := range r.aliases {
		redirects[alias] = r.redirects[NormalizeName(alias)]
	}
	for from, to := range extra {
		redirects[from] = to
	}
	return NewRegistry(templates, redirects)
}

// Titles returns the canonical template names, sorted.
func (r *Registry) Titles() []string {
	return append([]string(nil), r.titles...)
}

// KnownNames returns every name that may appear in an invocation: canonical
// titles and redirect aliases.
func (r *Registry) KnownNames() []string {
	out := make([]string, 0, len(r.titles)+len(r.aliases))
	out = append(out, r.titles...)
	out = append(out, r.aliases...)
	return out
}

// AliasesOf returns the redirect names that resolve to title, sorted.
func (r *Registry) AliasesOf(title string) []string {
	canonical, ok := r.Resolve(title)
	if !ok {
		return nil
	}
	var out []string
	for _, alias := range r.aliases {
		if target, _ := r.Resolve(alias); target == canonical {
			out = append(out, alias)
		}
	}
	return out
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	return len(r.titles)
}

// Resolve maps a template name as written to its canonical title, comparing
// case-insensitively and following redirects.
func (r *Registry) Resolve(name string) (string, bool) {
	key := NormalizeName(StripNamespace(name))
	if key == "" {
		return "", false
	}
	for hop := 0; hop <= maxRedirectHops; hop++ {
		if m, ok := r.templates[key]; ok {
			return m.Title, true
		}
		target, ok := r.redirects[key]
		if !ok {
			return "", false
		}
		key = NormalizeName(target)
	}
	return "", false
}

// Lookup returns the metadata for a template name, resolving redirects.
func (r *Registry) Lookup(name string) (*Metadata, bool) {
	title, ok := r.Resolve(name)
	if !ok {
		return nil, false
	}
	return r.templates[NormalizeName(title)], true
}

// Suggest returns up to limit known names that fuzzy-match query, best first.
func (r *Registry) Suggest(query string, limit int) []string {
	names := r.KnownNames()
	matches := fuzzy.Find(query, names)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, names[m.Index])
	}
	return out
}

// NormalizeName folds a template name for comparison: underscores become
// spaces, runs of whitespace collapse, and case is ignored.
func NormalizeName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// StripNamespace removes a leading "Template:"-style namespace prefix.
func StripNamespace(title string) string {
	title = strings.TrimSpace(title)
	if i := strings.Index(title, ":"); i > 0 && !strings.ContainsAny(title[:i], "{}|[]") {
		return strings.TrimSpace(title[i+1:])
	}
	return title
}
