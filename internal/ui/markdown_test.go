package ui

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	src := "# References\n\n## 1. On the Origin of Species\n\n**Cite book** · `origin`\n\n- last: Darwin\n"
	out, err := RenderMarkdown(src, 80)
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	for _, want := range []string{"References", "On the Origin of Species", "Cite book", "origin", "last: Darwin"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") || strings.HasSuffix(out, "\n\n") {
		t.Errorf("want exactly one trailing newline, got %q", out)
	}

	if out, err := RenderMarkdown("plain", 0); err != nil || strings.TrimSpace(out) == "" {
		t.Errorf("zero width: %q, %v", out, err)
	}
}

func TestConfigureMarkdownCodeTheme(t *testing.T) {
	orig := markdownCodeTheme
	t.Cleanup(func() { markdownCodeTheme = orig })

	tests := []struct {
		in   string
		want string
	}{
		{"dracula", "dracula"},
		{"  Nord ", "nord"},
		{"", defaultCodeTheme},
		{"not-a-theme", defaultCodeTheme},
	}
	for _, tt := range tests {
		ConfigureMarkdownCodeTheme(tt.in)
		if markdownCodeTheme != tt.want {
			t.Errorf("ConfigureMarkdownCodeTheme(%q) = %q, want %q", tt.in, markdownCodeTheme, tt.want)
		}
		if got := bibliographyStyle().CodeBlock.Theme; got != tt.want {
			t.Errorf("style theme = %q, want %q", got, tt.want)
		}
	}
}
