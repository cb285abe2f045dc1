package layout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sidediff/internal/collapse"
	"sidediff/internal/linediff"
)

func eq(b, t, n int) linediff.Segment {
	return linediff.Segment{Kind: linediff.KindEqual, Base: linediff.Range{Start: b, End: b + n}, Target: linediff.Range{Start: t, End: t + n}}
}

func change(kind linediff.Kind, b, bn, t, tn int) linediff.Segment {
	return linediff.Segment{Kind: kind, Base: linediff.Range{Start: b, End: b + bn}, Target: linediff.Range{Start: t, End: t + tn}}
}

// mixed has a leading, an interior and a trailing region around a delete and an insert.
func mixed() []linediff.Segment {
	return []linediff.Segment{
		eq(0, 0, 40),
		change(linediff.KindDelete, 40, 2, 40, 0),
		eq(42, 40, 25),
		change(linediff.KindInsert, 67, 0, 65, 3),
		eq(67, 68, 12),
	}
}

func build(segments []linediff.Segment) (*Layout, []collapse.Region) {
	regions := collapse.Plan(segments, collapse.DefaultContextLines, collapse.DefaultMinThreshold, true)
	return Build(segments, regions), regions
}

func TestBuild_SingleChangeInTwentyLines(t *testing.T) {
	l, _ := build([]linediff.Segment{
		eq(0, 0, 10),
		change(linediff.KindReplace, 10, 1, 10, 1),
		eq(11, 11, 9),
	})

	rows := l.Rows(SideBase)
	require.Len(t, rows, 14)
	require.Equal(t, VisualRow{Side: SideBoth, Kind: RowCollapsed, Line: 0, Region: collapse.RegionID{}, Count: 7, Change: linediff.KindEqual}, rows[0])
	for i, line := range []int{7, 8, 9} {
		require.Equal(t, RowCode, rows[1+i].Kind)
		require.Equal(t, line, rows[1+i].Line)
	}
	require.Equal(t, VisualRow{Side: SideBase, Kind: RowCode, Line: 10, Change: linediff.KindReplace}, rows[4])
	require.Equal(t, 19, rows[13].Line)
	require.Equal(t, 14, l.Len(SideTarget))

	row, ok := l.LineToRow(SideBase, 3)
	require.True(t, ok)
	require.Equal(t, 0, row)
	row, ok = l.LineToRow(SideBase, 8)
	require.True(t, ok)
	require.Equal(t, 2, row)

	line, ok := l.RowToLine(SideBase, 0)
	require.True(t, ok)
	require.Equal(t, 0, line)

	_, ok = l.LineToRow(SideBase, 20)
	require.False(t, ok)
	_, ok = l.RowToLine(SideTarget, 14)
	require.False(t, ok)
}

func TestBuild_IdenticalFile(t *testing.T) {
	l, _ := build([]linediff.Segment{eq(0, 0, 50)})

	rows := l.Rows(SideTarget)
	require.Len(t, rows, 7)
	require.Equal(t, []int{0, 1, 2}, []int{rows[0].Line, rows[1].Line, rows[2].Line})
	require.Equal(t, RowCollapsed, rows[3].Kind)
	require.Equal(t, 44, rows[3].Count)
	require.Equal(t, []int{47, 48, 49}, []int{rows[4].Line, rows[5].Line, rows[6].Line})
}

func TestBuild_FullReplaceShowsEverything(t *testing.T) {
	l, regions := build([]linediff.Segment{change(linediff.KindReplace, 0, 40, 0, 35)})
	require.Empty(t, regions)
	require.Equal(t, 40, l.Len(SideBase))
	require.Equal(t, 35, l.Len(SideTarget))
	for i, r := range l.Rows(SideTarget) {
		require.Equal(t, RowCode, r.Kind)
		require.Equal(t, SideTarget, r.Side)
		require.Equal(t, i, r.Line)
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	l := Build(nil, nil)
	require.Zero(t, l.Len(SideBase))
	require.Empty(t, l.Rows(SideBase))
	require.Empty(t, l.Blocks())
	require.Zero(t, l.SyncRow(SideBase, 3))
	_, ok := l.LineToRow(SideBase, 0)
	require.False(t, ok)
}

func TestLineRowMappingsAgree(t *testing.T) {
	l, regions := build(mixed())
	for _, side := range []Side{SideBase, SideTarget} {
		for row, r := range l.Rows(side) {
			line, ok := l.RowToLine(side, row)
			require.True(t, ok)
			require.Equal(t, r.Line, line)

			back, ok := l.LineToRow(side, line)
			require.True(t, ok)
			require.Equal(t, row, back)

			got, ok := l.RowAt(side, row)
			require.True(t, ok)
			require.Equal(t, r, got)
		}
	}

	// Every hidden line maps onto its region's indicator.
	for _, reg := range regions {
		for line := reg.Base.Start; line < reg.Base.End; line++ {
			row, ok := l.LineToRow(SideBase, line)
			require.True(t, ok)
			r := l.Rows(SideBase)[row]
			require.Equal(t, RowCollapsed, r.Kind)
			require.Equal(t, reg.ID, r.Region)
		}
	}
}

func TestChangedLinesAreNeverHidden(t *testing.T) {
	l, _ := build(mixed())
	for line := 40; line < 42; line++ {
		row, ok := l.LineToRow(SideBase, line)
		require.True(t, ok)
		require.Equal(t, RowCode, l.Rows(SideBase)[row].Kind)
		require.Equal(t, linediff.KindDelete, l.Rows(SideBase)[row].Change)
	}
	for line := 65; line < 68; line++ {
		row, ok := l.LineToRow(SideTarget, line)
		require.True(t, ok)
		require.Equal(t, RowCode, l.Rows(SideTarget)[row].Kind)
		require.Equal(t, SideTarget, l.Rows(SideTarget)[row].Side)
	}
}

func TestExpandMatchesRebuild(t *testing.T) {
	for i := range 3 {
		for _, materialized := range []bool{true, false} {
			l, regions := build(mixed())
			if materialized {
				l.Rows(SideBase)
				l.Rows(SideTarget)
			}
			id := regions[i].ID
			require.True(t, l.Collapsed(id))
			require.True(t, l.Expand(id))
			require.False(t, l.Collapsed(id))
			require.False(t, l.Expand(id), "second expand is a no-op")

			regions[i].Collapsed = false
			want := Build(mixed(), regions)

			for _, side := range []Side{SideBase, SideTarget} {
				require.Equal(t, want.Len(side), l.Len(side))
				require.Equal(t, want.Rows(side), l.Rows(side))
				require.Equal(t, want.Blocks(), l.Blocks())
				for row := range want.Len(side) {
					require.Equal(t, want.SyncRow(side, row), l.SyncRow(side, row))
				}
			}
		}
	}
}

func TestExpandUnknownRegion(t *testing.T) {
	l, _ := build(mixed())
	before := append([]VisualRow(nil), l.Rows(SideBase)...)
	require.False(t, l.Expand(collapse.RegionID{Base: 1, Target: 1}))
	require.Equal(t, before, l.Rows(SideBase))
}

func TestBlocks(t *testing.T) {
	l, _ := build(mixed())
	blocks := l.Blocks()
	require.Len(t, blocks, 2)

	// base: indicator, 37..39, delete 40..41
	require.Equal(t, Block{
		Segment: 1,
		Kind:    linediff.KindDelete,
		Base:    linediff.Range{Start: 4, End: 6},
		Target:  linediff.Range{Start: 4, End: 4},
	}, blocks[0])
	require.True(t, blocks[0].Crushed(SideTarget))
	require.False(t, blocks[0].Crushed(SideBase))

	require.Equal(t, linediff.KindInsert, blocks[1].Kind)
	require.True(t, blocks[1].Crushed(SideBase))
	require.Equal(t, 3, blocks[1].Target.Len())
}

func TestBlocks_CrushedAtEndOfFile(t *testing.T) {
	l := Build([]linediff.Segment{eq(0, 0, 2), change(linediff.KindInsert, 2, 0, 2, 3)}, nil)
	blocks := l.Blocks()
	require.Len(t, blocks, 1)
	require.Equal(t, linediff.Range{Start: 2, End: 2}, blocks[0].Base)
	require.Equal(t, linediff.Range{Start: 2, End: 5}, blocks[0].Target)
}

func TestSyncRow(t *testing.T) {
	l, _ := build(mixed())

	require.Equal(t, 0, l.SyncRow(SideBase, 0), "indicator maps to its twin")
	require.Equal(t, 2, l.SyncRow(SideTarget, 2), "context line maps one to one")
	require.Equal(t, 4, l.SyncRow(SideBase, 5), "deleted row maps to the crushed anchor")
	require.Equal(t, 6, l.SyncRow(SideTarget, 4), "line after the delete")
	require.Equal(t, l.Len(SideTarget)-1, l.SyncRow(SideBase, 1000), "clamped")

	l = Build([]linediff.Segment{change(linediff.KindReplace, 0, 4, 0, 2)}, nil)
	require.Equal(t, 0, l.SyncRow(SideBase, 1))
	require.Equal(t, 1, l.SyncRow(SideBase, 3))
	require.Equal(t, 2, l.SyncRow(SideTarget, 1))
}

func TestDisplayCount(t *testing.T) {
	require.Equal(t, "44", DisplayCount(44, 9999))
	require.Equal(t, "9999", DisplayCount(9999, 9999))
	require.Equal(t, "9999+", DisplayCount(10000, 9999))
	require.Equal(t, "12345", DisplayCount(12345, 0))
}
