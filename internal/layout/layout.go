package layout

import (
	"slices"
	"sort"
	"strconv"

	"sidediff/internal/collapse"
	"sidediff/internal/linediff"
)

// Side selects a pane. SideBoth only appears as a VisualRow tag for rows present in both panes.
type Side int

const (
	SideBase Side = iota
	SideTarget
	SideBoth
)

func (s Side) String() string {
	switch s {
	case SideBase:
		return "base"
	case SideTarget:
		return "target"
	default:
		return "both"
	}
}

// Other returns the opposite pane.
func (s Side) Other() Side {
	if s == SideBase {
		return SideTarget
	}
	return SideBase
}

type RowKind int

const (
	RowCode RowKind = iota
	RowCollapsed
)

// VisualRow is one row of a pane.
type VisualRow struct {
	Side   Side
	Kind   RowKind
	Line   int               // source line for RowCode; first hidden line for RowCollapsed
	Region collapse.RegionID // set for RowCollapsed
	Count  int               // hidden line count for RowCollapsed
	Change linediff.Kind     // kind of the segment the row comes from
}

// span is a run of rows in one pane: either consecutive code lines or one indicator.
type span struct {
	kind   RowKind
	side   Side
	change linediff.Kind
	lines  linediff.Range
	region collapse.RegionID
	row    int
}

func (s span) height() int {
	if s.kind == RowCollapsed {
		return 1
	}
	return s.lines.Len()
}

type pane struct {
	spans []span
	rows  []VisualRow // materialized lazily; spliced in place on expand
}

func (p *pane) totalLines() int {
	if len(p.spans) == 0 {
		return 0
	}
	return p.spans[len(p.spans)-1].lines.End
}

func (p *pane) totalRows() int {
	if len(p.spans) == 0 {
		return 0
	}
	last := p.spans[len(p.spans)-1]
	return last.row + last.height()
}

// Layout maps source lines to visual rows for both panes. It is not safe for concurrent use.
type Layout struct {
	segments   []linediff.Segment
	panes      [2]pane
	indicators map[collapse.RegionID][2]int // span index per pane
}

// Build lays out segments with the collapsed members of regions folded into indicator rows.
func Build(segments []linediff.Segment, regions []collapse.Region) *Layout {
	bySegment := make(map[int]collapse.Region, len(regions))
	for _, r := range regions {
		if r.Collapsed {
			bySegment[r.Segment] = r
		}
	}

	l := &Layout{
		segments:   segments,
		indicators: make(map[collapse.RegionID][2]int, len(bySegment)),
	}
	for i, seg := range segments {
		switch seg.Kind {
		case linediff.KindEqual:
			r, ok := bySegment[i]
			if !ok {
				l.addCode(SideBase, SideBoth, seg.Kind, seg.Base)
				l.addCode(SideTarget, SideBoth, seg.Kind, seg.Target)
				continue
			}
			l.addCode(SideBase, SideBoth, seg.Kind, linediff.Range{Start: seg.Base.Start, End: r.Base.Start})
			l.addCode(SideTarget, SideBoth, seg.Kind, linediff.Range{Start: seg.Target.Start, End: r.Target.Start})
			l.indicators[r.ID] = [2]int{
				l.add(SideBase, span{kind: RowCollapsed, side: SideBoth, change: seg.Kind, lines: r.Base, region: r.ID}),
				l.add(SideTarget, span{kind: RowCollapsed, side: SideBoth, change: seg.Kind, lines: r.Target, region: r.ID}),
			}
			l.addCode(SideBase, SideBoth, seg.Kind, linediff.Range{Start: r.Base.End, End: seg.Base.End})
			l.addCode(SideTarget, SideBoth, seg.Kind, linediff.Range{Start: r.Target.End, End: seg.Target.End})
		default:
			l.addCode(SideBase, SideBase, seg.Kind, seg.Base)
			l.addCode(SideTarget, SideTarget, seg.Kind, seg.Target)
		}
	}
	return l
}

func (l *Layout) addCode(p, tag Side, change linediff.Kind, lines linediff.Range) {
	if lines.Empty() {
		return
	}
	l.add(p, span{kind: RowCode, side: tag, change: change, lines: lines})
}

func (l *Layout) add(p Side, s span) int {
	pn := &l.panes[p]
	s.row = pn.totalRows()
	pn.spans = append(pn.spans, s)
	return len(pn.spans) - 1
}

func (l *Layout) pane(side Side) *pane {
	if side != SideBase && side != SideTarget {
		return nil
	}
	return &l.panes[side]
}

// Segments returns the edit script the layout was built from.
func (l *Layout) Segments() []linediff.Segment {
	return l.segments
}

// Len returns the number of rows in a pane.
func (l *Layout) Len(side Side) int {
	p := l.pane(side)
	if p == nil {
		return 0
	}
	return p.totalRows()
}

// Rows returns the rows of a pane. The returned slice is owned by the layout and valid until the next Expand.
func (l *Layout) Rows(side Side) []VisualRow {
	p := l.pane(side)
	if p == nil {
		return nil
	}
	if p.rows == nil {
		p.rows = make([]VisualRow, 0, p.totalRows())
		for _, s := range p.spans {
			p.rows = appendSpanRows(p.rows, s)
		}
	}
	return p.rows
}

func appendSpanRows(dst []VisualRow, s span) []VisualRow {
	if s.kind == RowCollapsed {
		return append(dst, VisualRow{Side: s.side, Kind: RowCollapsed, Line: s.lines.Start, Region: s.region, Count: s.lines.Len(), Change: s.change})
	}
	for line := s.lines.Start; line < s.lines.End; line++ {
		dst = append(dst, VisualRow{Side: s.side, Kind: RowCode, Line: line, Change: s.change})
	}
	return dst
}

// LineToRow maps a source line to its row. Lines hidden in a collapsed region map to the indicator row.
func (l *Layout) LineToRow(side Side, line int) (int, bool) {
	p := l.pane(side)
	if p == nil || line < 0 || line >= p.totalLines() {
		return 0, false
	}
	i := sort.Search(len(p.spans), func(i int) bool { return p.spans[i].lines.End > line })
	s := p.spans[i]
	if s.kind == RowCollapsed {
		return s.row, true
	}
	return s.row + line - s.lines.Start, true
}

// RowToLine maps a row back to a source line. Indicator rows map to the first hidden line.
func (l *Layout) RowToLine(side Side, row int) (int, bool) {
	i, ok := l.spanAtRow(side, row)
	if !ok {
		return 0, false
	}
	s := l.panes[side].spans[i]
	if s.kind == RowCollapsed {
		return s.lines.Start, true
	}
	return s.lines.Start + row - s.row, true
}

// RowAt returns the row at index row.
func (l *Layout) RowAt(side Side, row int) (VisualRow, bool) {
	i, ok := l.spanAtRow(side, row)
	if !ok {
		return VisualRow{}, false
	}
	s := l.panes[side].spans[i]
	if s.kind == RowCollapsed {
		return VisualRow{Side: s.side, Kind: RowCollapsed, Line: s.lines.Start, Region: s.region, Count: s.lines.Len(), Change: s.change}, true
	}
	return VisualRow{Side: s.side, Kind: RowCode, Line: s.lines.Start + row - s.row, Change: s.change}, true
}

func (l *Layout) spanAtRow(side Side, row int) (int, bool) {
	p := l.pane(side)
	if p == nil || row < 0 || row >= p.totalRows() {
		return 0, false
	}
	i := sort.Search(len(p.spans), func(i int) bool { return p.spans[i].row+p.spans[i].height() > row })
	return i, true
}

// Collapsed reports whether id is currently folded into an indicator.
func (l *Layout) Collapsed(id collapse.RegionID) bool {
	_, ok := l.indicators[id]
	return ok
}

// Expand unfolds one collapsed region in place. Only the region's rows are materialized, but later spans shift
// their start row and cached rows after the region move, so the cost is linear in what follows the region. Nothing
// is re-planned or rebuilt. It reports false when id is not currently collapsed.
func (l *Layout) Expand(id collapse.RegionID) bool {
	idx, ok := l.indicators[id]
	if !ok {
		return false
	}
	delete(l.indicators, id)

	for side := SideBase; side <= SideTarget; side++ {
		p := &l.panes[side]
		s := &p.spans[idx[side]]
		s.kind = RowCode
		delta := s.lines.Len() - 1
		for j := idx[side] + 1; j < len(p.spans); j++ {
			p.spans[j].row += delta
		}
		if p.rows != nil {
			p.rows = slices.Replace(p.rows, s.row, s.row+1, appendSpanRows(nil, *s)...)
		}
	}
	return true
}

// DisplayCount formats a hidden line count, capping it at limit ("9999+"). A limit <= 0 disables the cap.
func DisplayCount(n, limit int) string {
	if limit > 0 && n > limit {
		return strconv.Itoa(limit) + "+"
	}
	return strconv.Itoa(n)
}
