package diffview

import (
	"github.com/charmbracelet/lipgloss"

	"sidediff/internal/layout"
	"sidediff/internal/linediff"
)

// GutterWidth is the number of cells Gutter draws per line.
const GutterWidth = 3

// Gutter draws the connector column between the panes for height lines, given the first visible row of each pane.
// Each cell marks whether the row on that side belongs to a change block; a crushed side is marked on the row where
// its missing lines would sit.
func Gutter(blocks []layout.Block, baseTop, targetTop, height int, styles Styles) []string {
	out := make([]string, max(height, 0))
	for y := range out {
		b, bCrushed := blockAt(blocks, layout.SideBase, baseTop+y)
		t, tCrushed := blockAt(blocks, layout.SideTarget, targetTop+y)

		left := sideMark(b, bCrushed, '┤')
		right := sideMark(t, tCrushed, '├')
		link := ' '
		switch {
		case b >= 0 && b == t:
			link = '━'
		case b >= 0 && t >= 0:
			link = '┼'
		case b >= 0 && t < 0:
			link = slope(blocks[b].Target.Start > targetTop+y, '╲', '╱')
		case t >= 0:
			link = slope(blocks[t].Base.Start > baseTop+y, '╱', '╲')
		}

		cell := string([]rune{left, link, right})
		switch blockKind(blocks, b, t) {
		case linediff.KindDelete:
			out[y] = styles.Deleted.Render(cell)
		case linediff.KindInsert:
			out[y] = styles.Inserted.Render(cell)
		case linediff.KindReplace:
			out[y] = lipgloss.NewStyle().Foreground(lipgloss.Color("179")).Render(cell)
		default:
			out[y] = cell
		}
	}
	return out
}

// blockAt finds the block covering row on side. crushed reports a zero-height match at the block's anchor.
func blockAt(blocks []layout.Block, side layout.Side, row int) (int, bool) {
	for i, b := range blocks {
		r := b.Base
		if side == layout.SideTarget {
			r = b.Target
		}
		if r.Contains(row) {
			return i, false
		}
		if r.Empty() && r.Start == row {
			return i, true
		}
	}
	return -1, false
}

func sideMark(block int, crushed bool, edge rune) rune {
	switch {
	case block < 0:
		return ' '
	case crushed:
		return edge
	default:
		return '━'
	}
}

// slope points the link at the other side's rows of the same block.
func slope(below bool, down, up rune) rune {
	if below {
		return down
	}
	return up
}

func blockKind(blocks []layout.Block, b, t int) linediff.Kind {
	switch {
	case b >= 0:
		return blocks[b].Kind
	case t >= 0:
		return blocks[t].Kind
	default:
		return linediff.KindEqual
	}
}
