package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// MarkdownRenderMargin is the left margin of rendered bibliographies.
const MarkdownRenderMargin = 2

const defaultCodeTheme = "monokai"

// Chroma styles accepted for ui.code_theme. The theme colours the wikitext
// source blocks of 'show' and 'export --source'.
var knownCodeThemes = []string{
	"monokai", "dracula", "github", "github-dark", "nord", "native", "vim",
	"solarized-dark", "solarized-light", "friendly", "emacs", "pygments",
	"catppuccin-mocha", "catppuccin-latte", "gruvbox", "onedark",
}

var markdownCodeTheme = defaultCodeTheme

// ConfigureMarkdownCodeTheme sets the theme for source blocks. Unknown names
// fall back to the default.
func ConfigureMarkdownCodeTheme(theme string) {
	theme = strings.ToLower(strings.TrimSpace(theme))
	for _, known := range knownCodeThemes {
		if theme == known {
			markdownCodeTheme = known
			return
		}
	}
	markdownCodeTheme = defaultCodeTheme
}

// RenderMarkdown renders a bibliography for the terminal, wrapped to width.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultTermWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(bibliographyStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(rendered, "\n") + "\n", nil
}

// bibliographyStyle covers what export.Markdown emits: a title, one heading
// per reference, a metadata line, a field list and optional source blocks.
func bibliographyStyle() ansi.StyleConfig {
	muted := strPtr("8")
	var accent *string
	if color, ok := AccentColor(); ok {
		accent = strPtr(color)
	}

	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{BlockPrefix: "\n", BlockSuffix: "\n"},
			Margin:         uintPtr(MarkdownRenderMargin),
		},
		Paragraph: ansi.StyleBlock{},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{BlockSuffix: "\n", Color: accent, Bold: boolPtr(true)},
		},
		// The title.
		H1: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Underline: boolPtr(true)},
		},
		// One per reference; the heading already starts with its number.
		H2: ansi.StyleBlock{},
		List: ansi.StyleList{LevelIndent: 2},
		Item: ansi.StylePrimitive{BlockPrefix: "  "},
		Emph: ansi.StylePrimitive{Italic: boolPtr(true), Color: muted},
		Strong: ansi.StylePrimitive{
			Bold: boolPtr(true),
		},
		Link:     ansi.StylePrimitive{Color: muted, Underline: boolPtr(true)},
		LinkText: ansi.StylePrimitive{Bold: boolPtr(true)},
		// Reference names.
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: accent},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{Color: strPtr("252")},
				Margin:         uintPtr(MarkdownRenderMargin),
			},
			Theme: markdownCodeTheme,
		},
	}
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func uintPtr(v uint) *uint { return &v }
