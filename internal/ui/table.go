package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows with space-aligned columns and no borders. Widths are
// measured with lipgloss so styled cells line up.
type Table struct {
	rows       [][]string
	colWidths  []int
	colPadding int
	maxWidth   int
}

// NewTable creates a new table with the specified number of columns
func NewTable(cols int) *Table {
	return &Table{
		colWidths:  make([]int, cols),
		colPadding: 2,
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.colWidths))
	for i := 0; i < len(t.colWidths) && i < len(cells); i++ {
		row[i] = cells[i]
		if w := lipgloss.Width(cells[i]); w > t.colWidths[i] {
			t.colWidths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

// SetMaxWidth truncates the last column so rows fit in width. Zero disables it.
func (t *Table) SetMaxWidth(width int) {
	t.maxWidth = width
}

// String renders the table as a string
func (t *Table) String() string {
	if len(t.rows) == 0 {
		return ""
	}

	var sb strings.Builder
	padding := strings.Repeat(" ", t.colPadding)

	for _, row := range t.rows {
		used := 0
		for i, cell := range row {
			if i > 0 {
				sb.WriteString(padding)
				used += t.colPadding
			}
			if i < len(row)-1 {
				sb.WriteString(cell)
				sb.WriteString(strings.Repeat(" ", t.colWidths[i]-lipgloss.Width(cell)))
				used += t.colWidths[i]
				continue
			}
			if t.maxWidth > 0 {
				cell = TruncateWithEllipsis(cell, t.maxWidth-used)
			}
			sb.WriteString(cell)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// TruncateWithEllipsis shortens plain text to maxLen runes, ending in "…".
func TruncateWithEllipsis(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}
