package diffview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"sidediff/internal/layout"
	"sidediff/internal/linediff"
)

const tabWidth = 4

type Styles struct {
	Deleted  lipgloss.Style
	Inserted lipgloss.Style
	Folded   lipgloss.Style
	Cursor   lipgloss.Style
	Filler   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Deleted:  lipgloss.NewStyle().Background(lipgloss.Color("52")).Foreground(lipgloss.Color("217")),
		Inserted: lipgloss.NewStyle().Background(lipgloss.Color("22")).Foreground(lipgloss.Color("157")),
		Folded:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
		Cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		Filler:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}

// Pane renders one side of the diff as fixed-width terminal lines.
type Pane struct {
	Side      layout.Side
	Rows      []layout.VisualRow
	Source    linediff.Revision
	Width     int
	Cursor    int // -1 hides the cursor
	MaxCount  int
	Highlight *Highlighter
	Styles    Styles
}

// Render returns rows [from, to) clipped to the available rows, one string per row.
func (p Pane) Render(from, to int) []string {
	from = max(from, 0)
	to = min(to, len(p.Rows))
	if from >= to {
		return nil
	}
	numW := max(3, digits(p.Source.Len()))
	out := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, p.renderRow(i, numW))
	}
	return out
}

func (p Pane) renderRow(i, numW int) string {
	width := max(p.Width, 1)
	row := p.Rows[i]

	cursor := " "
	if i == p.Cursor {
		cursor = p.Styles.Cursor.Render("▸")
	}
	prefix := cursor + " "
	lineWidth := max(1, width-2)

	if row.Kind == layout.RowCollapsed {
		label := fmt.Sprintf("%s ⋯ %s unchanged lines", strings.Repeat(" ", numW+1), layout.DisplayCount(row.Count, p.MaxCount))
		return prefix + p.Styles.Folded.Render(fit(label, lineWidth))
	}

	text := expandTabs(p.Source.Line(row.Line))
	marker, style, changed := p.decoration(row)
	gutter := fmt.Sprintf("%c %*d ", marker, numW, row.Line+1)
	if changed {
		return prefix + style.Render(fit(gutter+text, lineWidth))
	}
	return prefix + fit(gutter+p.Highlight.Line(text), lineWidth)
}

func (p Pane) decoration(row layout.VisualRow) (rune, lipgloss.Style, bool) {
	switch {
	case p.Side == layout.SideBase && (row.Change == linediff.KindDelete || row.Change == linediff.KindReplace):
		return '-', p.Styles.Deleted, true
	case p.Side == layout.SideTarget && (row.Change == linediff.KindInsert || row.Change == linediff.KindReplace):
		return '+', p.Styles.Inserted, true
	default:
		return ' ', lipgloss.Style{}, false
	}
}

// Message fills a pane of the given size with a single centred notice, used for empty and unavailable states.
func Message(text string, width, height int, style lipgloss.Style) []string {
	width, height = max(width, 1), max(height, 1)
	lines := make([]string, height)
	for i := range lines {
		lines[i] = strings.Repeat(" ", width)
	}
	lines[height/2] = style.Render(fit(lipgloss.PlaceHorizontal(width, lipgloss.Center, ansi.Truncate(text, width, "…")), width))
	return lines
}

// fit truncates s to width cells and pads it with spaces.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func digits(n int) int {
	if n <= 0 {
		return 1
	}
	d := 0
	for n > 0 {
		d++
		n /= 10
	}
	return d
}
