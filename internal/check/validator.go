// Package check validates the references of a document.
package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aidanlsb/proveit/internal/braces"
	"github.com/aidanlsb/proveit/internal/refs"
	"github.com/aidanlsb/proveit/internal/template"
	"github.com/aidanlsb/proveit/internal/templatedata"
)

// IssueLevel indicates the severity of an issue.
type IssueLevel int

const (
	LevelError IssueLevel = iota
	LevelWarning
)

func (l IssueLevel) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARN"
	default:
		return "UNKNOWN"
	}
}

// IssueType identifies what kind of problem an issue reports.
type IssueType string

const (
	IssueOrphanCitation  IssueType = "orphan_citation"
	IssueUnnamedCitation IssueType = "unnamed_citation"
	IssueDuplicateName   IssueType = "duplicate_name"
	IssueEmptyReference  IssueType = "empty_reference"
	IssueUnknownTemplate IssueType = "unknown_template"
	IssueMissingRequired IssueType = "missing_required"
	IssueDeprecatedParam IssueType = "deprecated_param"
	IssueUnknownParam    IssueType = "unknown_param"
	IssueDuplicateParam  IssueType = "duplicate_param"
)

// Issue represents a validation issue.
type Issue struct {
	Level IssueLevel
	Type  IssueType
	// Ref is the 1-based number of the reference, 0 for citation issues.
	Ref     int
	Name    string
	Offset  int
	Param   string
	Message string
}

// Validator validates snapshots against template metadata.
type Validator struct {
	registry *templatedata.Registry
}

// NewValidator creates a new validator. registry may be nil, in which case
// template parameters are not checked.
func NewValidator(registry *templatedata.Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate returns the issues of a snapshot ordered by offset.
func (v *Validator) Validate(snap *refs.Snapshot) []Issue {
	var issues []Issue

	issues = append(issues, v.validateCitations(snap)...)
	issues = append(issues, v.validateNames(snap)...)
	for i, r := range snap.References {
		issues = append(issues, v.validateReference(i+1, r)...)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Offset < issues[j].Offset
	})
	return issues
}

func (v *Validator) validateCitations(snap *refs.Snapshot) []Issue {
	var issues []Issue
	for _, c := range snap.Orphans() {
		if c.Name == "" {
			issues = append(issues, Issue{
				Level:   LevelError,
				Type:    IssueUnnamedCitation,
				Offset:  c.Span().Start,
				Message: "Citation has no name",
			})
			continue
		}
		issues = append(issues, Issue{
			Level:   LevelError,
			Type:    IssueOrphanCitation,
			Name:    c.Name,
			Offset:  c.Span().Start,
			Message: fmt.Sprintf("Citation '%s' matches no reference", c.Name),
		})
	}
	return issues
}

// validateNames reports names defined more than once in a group. Repeating
// identical content is tolerated by renderers, so that is only a warning.
func (v *Validator) validateNames(snap *refs.Snapshot) []Issue {
	var issues []Issue
	first := make(map[string]int)
	for i, r := range snap.References {
		if r.Name == "" {
			continue
		}
		key := r.Group + "\x00" + r.Name
		j, seen := first[key]
		if !seen {
			first[key] = i
			continue
		}
		level := LevelError
		msg := fmt.Sprintf("Name '%s' is already defined by reference %d with different content", r.Name, j+1)
		if strings.TrimSpace(snap.References[j].Content) == strings.TrimSpace(r.Content) {
			level = LevelWarning
			msg = fmt.Sprintf("Name '%s' is defined again with the same content as reference %d", r.Name, j+1)
		}
		issues = append(issues, Issue{
			Level:   level,
			Type:    IssueDuplicateName,
			Ref:     i + 1,
			Name:    r.Name,
			Offset:  r.Span().Start,
			Message: msg,
		})
	}
	return issues
}

func (v *Validator) validateReference(n int, r *refs.Reference) []Issue {
	base := Issue{Ref: n, Name: r.Name, Offset: r.Span().Start}

	if strings.TrimSpace(r.Content) == "" {
		issue := base
		issue.Level = LevelError
		issue.Type = IssueEmptyReference
		issue.Message = "Reference has no content"
		return []Issue{issue}
	}

	if r.Template == nil {
		if name := firstTemplateName(r.Content); name != "" && v.registry != nil {
			issue := base
			issue.Level = LevelWarning
			issue.Type = IssueUnknownTemplate
			issue.Message = fmt.Sprintf("Template '%s' has no metadata", name)
			return []Issue{issue}
		}
		return nil
	}

	var meta *templatedata.Metadata
	if v.registry != nil {
		meta, _ = v.registry.Lookup(r.Template.Name)
	}
	if meta == nil {
		return nil
	}
	return v.validateParams(base, r.Template, meta)
}

func (v *Validator) validateParams(base Issue, t *template.Template, meta *templatedata.Metadata) []Issue {
	var issues []Issue
	add := func(level IssueLevel, typ IssueType, param, msg string) {
		issue := base
		issue.Level = level
		issue.Type = typ
		issue.Param = param
		issue.Message = msg
		issues = append(issues, issue)
	}

	// Canonical name -> keys as written, to find values given twice.
	written := make(map[string][]string)
	for _, key := range t.Params.Keys() {
		name := key.String()
		canonical, ok := meta.Canonical(name)
		if !ok {
			add(LevelWarning, IssueUnknownParam, name,
				fmt.Sprintf("%s has no parameter '%s'", t.Name, name))
			continue
		}
		written[canonical] = append(written[canonical], name)
	}

	for _, canonical := range meta.ParamOrder() {
		p, _ := meta.Params.Get(canonical)
		keys := written[canonical]
		if len(keys) > 1 {
			add(LevelWarning, IssueDuplicateParam, canonical,
				fmt.Sprintf("Parameter '%s' is given %d times (%s)", canonical, len(keys), strings.Join(keys, ", ")))
		}
		if bool(p.Deprecated) && len(keys) > 0 {
			add(LevelWarning, IssueDeprecatedParam, canonical,
				fmt.Sprintf("Parameter '%s' is deprecated", canonical))
		}
		if bool(p.Required) && !hasValue(t, keys) {
			add(LevelWarning, IssueMissingRequired, canonical,
				fmt.Sprintf("%s requires '%s'", t.Name, canonical))
		}
	}
	return issues
}

func hasValue(t *template.Template, keys []string) bool {
	for _, key := range keys {
		if v, _ := t.Params.Get(key); strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// firstTemplateName returns the name of the first {{...}} invocation in
// content, or "".
func firstTemplateName(content string) string {
	start := strings.Index(content, "{{")
	if start < 0 {
		return ""
	}
	end := braces.TemplateEnd(content, start)
	return template.Parse(content[start:end]).Name
}
