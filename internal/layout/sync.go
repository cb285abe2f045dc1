package layout

import (
	"sort"

	"sidediff/internal/linediff"
)

// Block is the row extent of one change segment in each pane, used to draw the connector gutter. A side with no
// lines is crushed: its Range is empty and starts at the row the change would occupy.
type Block struct {
	Segment int
	Kind    linediff.Kind
	Base    linediff.Range
	Target  linediff.Range
}

// Crushed reports whether side has no rows in the block.
func (b Block) Crushed(side Side) bool {
	if side == SideBase {
		return b.Base.Empty()
	}
	return b.Target.Empty()
}

// Blocks returns the connector blocks for every change segment, in order.
func (l *Layout) Blocks() []Block {
	var blocks []Block
	for i, seg := range l.segments {
		if seg.Kind == linediff.KindEqual {
			continue
		}
		blocks = append(blocks, Block{
			Segment: i,
			Kind:    seg.Kind,
			Base:    l.rowRange(SideBase, seg.Base),
			Target:  l.rowRange(SideTarget, seg.Target),
		})
	}
	return blocks
}

// rowRange converts a line range to rows. Change lines are never collapsed so the rows are contiguous.
func (l *Layout) rowRange(side Side, lines linediff.Range) linediff.Range {
	if lines.Empty() {
		a := l.anchor(side, lines.Start)
		return linediff.Range{Start: a, End: a}
	}
	start, _ := l.LineToRow(side, lines.Start)
	last, _ := l.LineToRow(side, lines.End-1)
	return linediff.Range{Start: start, End: last + 1}
}

// anchor is the row before which line would be drawn.
func (l *Layout) anchor(side Side, line int) int {
	if row, ok := l.LineToRow(side, line); ok {
		return row
	}
	return l.Len(side)
}

// SyncRow maps a row in pane from to the matching row in the other pane. Unchanged lines map one to one, collapsed
// indicators map to their twin, and rows inside a change map proportionally (or to the crushed anchor).
func (l *Layout) SyncRow(from Side, row int) int {
	to := from.Other()
	n := l.Len(from)
	if n == 0 || l.Len(to) == 0 {
		return 0
	}
	row = min(max(row, 0), n-1)

	i, _ := l.spanAtRow(from, row)
	s := l.panes[from].spans[i]
	if s.kind == RowCollapsed {
		idx := l.indicators[s.region]
		return l.panes[to].spans[idx[to]].row
	}

	line := s.lines.Start + row - s.row
	seg := l.segmentAt(from, line)
	fromLines, toLines := seg.Base, seg.Target
	if from == SideTarget {
		fromLines, toLines = seg.Target, seg.Base
	}

	var out int
	switch {
	case seg.Kind == linediff.KindEqual:
		out, _ = l.LineToRow(to, toLines.Start+line-fromLines.Start)
	case toLines.Empty():
		out = l.anchor(to, toLines.Start)
	default:
		off := (line - fromLines.Start) * toLines.Len() / fromLines.Len()
		out, _ = l.LineToRow(to, toLines.Start+off)
	}
	return min(out, l.Len(to)-1)
}

func (l *Layout) segmentAt(side Side, line int) linediff.Segment {
	i := sort.Search(len(l.segments), func(i int) bool {
		if side == SideBase {
			return l.segments[i].Base.End > line
		}
		return l.segments[i].Target.End > line
	})
	return l.segments[i]
}
