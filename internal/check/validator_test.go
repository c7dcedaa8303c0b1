package check

import (
	"testing"

	"github.com/aidanlsb/proveit/internal/refs"
	"github.com/aidanlsb/proveit/internal/template"
	"github.com/aidanlsb/proveit/internal/templatedata"
)

func scan(text string) *refs.Snapshot {
	return refs.Scan(text, template.NewLocator(templatedata.Defaults().Registry()))
}

func issueTypes(issues []Issue) []IssueType {
	out := make([]IssueType, len(issues))
	for i, issue := range issues {
		out[i] = issue.Type
	}
	return out
}

func TestValidator(t *testing.T) {
	v := NewValidator(templatedata.Defaults().Registry())

	tests := []struct {
		name  string
		text  string
		want  []IssueType
		level IssueLevel
	}{
		{
			name: "valid document",
			text: `A.<ref name="a">{{Cite web |url=http://example.org |title=Example}}</ref> B.<ref name="a" />`,
		},
		{
			name:  "orphan citation",
			text:  `A.<ref name="missing" />`,
			want:  []IssueType{IssueOrphanCitation},
			level: LevelError,
		},
		{
			name:  "citation without name",
			text:  `A.<ref />`,
			want:  []IssueType{IssueUnnamedCitation},
			level: LevelError,
		},
		{
			name:  "empty reference",
			text:  `A.<ref>  </ref>`,
			want:  []IssueType{IssueEmptyReference},
			level: LevelError,
		},
		{
			name:  "duplicate name with different content",
			text:  `<ref name="a">One</ref><ref name="a">Two</ref>`,
			want:  []IssueType{IssueDuplicateName},
			level: LevelError,
		},
		{
			name:  "duplicate name with same content",
			text:  `<ref name="a">One</ref><ref name="a"> One </ref>`,
			want:  []IssueType{IssueDuplicateName},
			level: LevelWarning,
		},
		{
			name:  "missing required parameter",
			text:  `<ref>{{Cite web |url=http://example.org}}</ref>`,
			want:  []IssueType{IssueMissingRequired},
			level: LevelWarning,
		},
		{
			name:  "required parameter given through an alias",
			text:  `<ref>{{Cite web |URL=http://example.org |title=T}}</ref>`,
		},
		{
			name:  "deprecated parameter",
			text:  `<ref>{{Cite book |title=T |year=1859}}</ref>`,
			want:  []IssueType{IssueDeprecatedParam},
			level: LevelWarning,
		},
		{
			name:  "unknown parameter",
			text:  `<ref>{{Cite book |title=T |colour=red}}</ref>`,
			want:  []IssueType{IssueUnknownParam},
			level: LevelWarning,
		},
		{
			name:  "parameter given twice",
			text:  `<ref>{{Cite book |title=T |last=Darwin |author=Wallace}}</ref>`,
			want:  []IssueType{IssueDuplicateParam},
			level: LevelWarning,
		},
		{
			name:  "unregistered template",
			text:  `<ref>{{Cite sign |title=Sign}}</ref>`,
			want:  []IssueType{IssueUnknownTemplate},
			level: LevelWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := v.Validate(scan(tt.text))
			got := issueTypes(issues)
			if len(got) != len(tt.want) {
				t.Fatalf("issues = %+v, want types %v", issues, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("issue %d type = %s, want %s", i, got[i], tt.want[i])
				}
				if issues[i].Level != tt.level {
					t.Errorf("issue %d level = %s, want %s", i, issues[i].Level, tt.level)
				}
			}
		})
	}
}

func TestValidatorOrdersByOffset(t *testing.T) {
	v := NewValidator(templatedata.Defaults().Registry())
	text := `<ref name="x" /> text <ref>{{Cite web |url=u}}</ref> <ref name="y" />`

	issues := v.Validate(scan(text))
	if len(issues) != 3 {
		t.Fatalf("issues = %+v", issues)
	}
	for i := 1; i < len(issues); i++ {
		if issues[i].Offset < issues[i-1].Offset {
			t.Errorf("issues out of order: %+v", issues)
		}
	}
	if issues[1].Ref != 1 || issues[1].Param != "title" {
		t.Errorf("middle issue = %+v", issues[1])
	}
}

func TestValidatorWithoutRegistry(t *testing.T) {
	v := NewValidator(nil)
	issues := v.Validate(refs.Scan(`<ref>{{Cite web |url=u}}</ref>`, nil))
	if len(issues) != 0 {
		t.Errorf("issues = %+v, want none", issues)
	}
}
