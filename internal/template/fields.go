package template

import (
	"time"

	"github.com/aidanlsb/proveit/internal/templatedata"
)

// Field is one editable parameter of a template, as presented by a form.
type Field struct {
	Name        string `json:"name"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Value       string `json:"value"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Suggested   bool   `json:"suggested,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`
	Textarea    bool   `json:"textarea,omitempty"`
	Registered  bool   `json:"registered"`
}

// Fields lists the fields of t in canonical order, followed by parameters
// present in t that meta does not register. Date fields get today's date as
// placeholder.
func (t *Template) Fields(meta *templatedata.Metadata, lang string, now time.Time) []Field {
	var fields []Field
	seen := make(map[string]bool)

	for _, name := range meta.ParamOrder() {
		p, _ := meta.Params.Get(name)
		f := Field{
			Name:        name,
			Label:       p.Label.In(lang),
			Description: p.Description.In(lang),
			Type:        p.Type,
			Required:    bool(p.Required),
			Suggested:   bool(p.Suggested),
			Deprecated:  bool(p.Deprecated),
			Textarea:    meta.IsTextarea(name),
			Placeholder: p.Default.In(lang),
			Registered:  true,
		}
		if f.Label == "" {
			f.Label = name
		}
		if p.Type == "date" {
			f.Placeholder = now.Format("2006-01-02")
		}
		f.Value, _ = t.Params.Get(name)
		fields = append(fields, f)
		seen[name] = true
	}

	for _, key := range t.Params.Keys() {
		name := key.String()
		if seen[name] {
			continue
		}
		seen[name] = true
		value, _ := t.Params.Get(name)
		fields = append(fields, Field{Name: name, Label: name, Value: value})
	}
	return fields
}
