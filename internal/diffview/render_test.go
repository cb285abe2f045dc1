package diffview

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"sidediff/internal/collapse"
	"sidediff/internal/layout"
	"sidediff/internal/linediff"
)

func revision(lines ...string) linediff.Revision {
	return linediff.NewRevision(lines)
}

func TestPaneRendersMarkersAndLineNumbers(t *testing.T) {
	base := revision("keep", "gone", "old")
	target := revision("keep", "new", "added")
	segments := []linediff.Segment{
		{Kind: linediff.KindEqual, Base: linediff.Range{Start: 0, End: 1}, Target: linediff.Range{Start: 0, End: 1}},
		{Kind: linediff.KindReplace, Base: linediff.Range{Start: 1, End: 3}, Target: linediff.Range{Start: 1, End: 3}},
	}
	l := layout.Build(segments, nil)

	oldPane := Pane{Side: layout.SideBase, Rows: l.Rows(layout.SideBase), Source: base, Width: 30, Cursor: 1, Styles: DefaultStyles()}
	newPane := Pane{Side: layout.SideTarget, Rows: l.Rows(layout.SideTarget), Source: target, Width: 30, Cursor: -1, Styles: DefaultStyles()}

	oldLines := oldPane.Render(0, 10)
	newLines := newPane.Render(0, 10)
	require.Len(t, oldLines, 3)
	require.Len(t, newLines, 3)

	require.Contains(t, ansi.Strip(oldLines[0]), "    1 keep")
	require.True(t, strings.HasPrefix(ansi.Strip(oldLines[1]), "▸ -   2 gone"), "cursor and removed marker: %q", ansi.Strip(oldLines[1]))
	require.Contains(t, ansi.Strip(newLines[2]), "+   3 added")

	for i, line := range append(oldLines, newLines...) {
		require.Equal(t, 30, lipgloss.Width(line), "line %d: %q", i, line)
	}
}

func TestPaneRendersCollapsedIndicator(t *testing.T) {
	lines := make([]string, 50)
	for i := range lines {
		lines[i] = "same"
	}
	segments := []linediff.Segment{{Kind: linediff.KindEqual, Base: linediff.Range{Start: 0, End: 50}, Target: linediff.Range{Start: 0, End: 50}}}
	l := layout.Build(segments, collapse.Plan(segments, 3, 4, true))

	p := Pane{Side: layout.SideBase, Rows: l.Rows(layout.SideBase), Source: revision(lines...), Width: 40, Cursor: -1, MaxCount: 9999, Styles: DefaultStyles()}
	out := p.Render(3, 4)
	require.Len(t, out, 1)
	require.Contains(t, ansi.Strip(out[0]), "⋯ 44 unchanged lines")

	p.MaxCount = 10
	require.Contains(t, ansi.Strip(p.Render(3, 4)[0]), "⋯ 10+ unchanged lines")
}

func TestPaneTruncatesLongLinesAndExpandsTabs(t *testing.T) {
	segments := []linediff.Segment{{Kind: linediff.KindInsert, Base: linediff.Range{}, Target: linediff.Range{Start: 0, End: 1}}}
	l := layout.Build(segments, nil)
	p := Pane{Side: layout.SideTarget, Rows: l.Rows(layout.SideTarget), Source: revision("\t" + strings.Repeat("x", 100)), Width: 20, Cursor: -1, Styles: DefaultStyles()}

	out := p.Render(0, 1)
	require.Equal(t, 20, lipgloss.Width(out[0]))
	require.NotContains(t, out[0], "\t", "tabs must be expanded")
}

func TestPaneRenderClipsWindow(t *testing.T) {
	p := Pane{Rows: make([]layout.VisualRow, 2), Source: revision("a", "b"), Width: 10}
	require.Nil(t, p.Render(5, 9))
	require.Len(t, p.Render(-3, 1), 1)
}

func TestHighlighterKeepsText(t *testing.T) {
	h := NewHighlighter("main.go")
	require.NotNil(t, h, "expected a Go lexer")

	line := `func main() { fmt.Println("hi") }`
	require.Equal(t, line, ansi.Strip(h.Line(line)), "highlighting must not change the text")

	var none *Highlighter
	require.Equal(t, line, none.Line(line))
	require.Nil(t, NewHighlighter("notes.unknown-extension"))
}

func TestMessageCentresNotice(t *testing.T) {
	out := Message("no differences", 30, 5, lipgloss.NewStyle())
	require.Len(t, out, 5)
	require.Contains(t, out[2], "no differences")
	for i, line := range out {
		require.Equal(t, 30, lipgloss.Width(line), "line %d", i)
	}
}

func TestGutterMarksBlocks(t *testing.T) {
	blocks := []layout.Block{
		{Segment: 1, Kind: linediff.KindDelete, Base: linediff.Range{Start: 2, End: 4}, Target: linediff.Range{Start: 2, End: 2}},
	}
	out := Gutter(blocks, 0, 0, 5, Styles{})
	got := make([]string, len(out))
	for i, line := range out {
		got[i] = ansi.Strip(line)
	}
	require.Equal(t, []string{"   ", "   ", "━━├", "━╱ ", "   "}, got)
}
