package linediff

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func numbered(n int, prefix string) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return lines
}

func TestDiff_Identical(t *testing.T) {
	lines := numbered(50, "line ")
	segments, err := Diff(NewRevision(lines), NewRevision(lines))
	require.NoError(t, err)
	require.Equal(t, []Segment{
		{Kind: KindEqual, Base: Range{0, 50}, Target: Range{0, 50}},
	}, segments)
}

func TestDiff_BothEmpty(t *testing.T) {
	segments, err := Diff(NewRevision(nil), NewRevision(nil))
	require.NoError(t, err)
	require.Empty(t, segments)
}

func TestDiff_InsertIntoEmpty(t *testing.T) {
	segments, err := Diff(NewRevision(nil), NewRevision([]string{"a", "b", "c"}))
	require.NoError(t, err)
	require.Equal(t, []Segment{
		{Kind: KindInsert, Base: Range{0, 0}, Target: Range{0, 3}},
	}, segments)
}

func TestDiff_DeleteEverything(t *testing.T) {
	segments, err := Diff(NewRevision([]string{"a", "b"}), NewRevision(nil))
	require.NoError(t, err)
	require.Equal(t, []Segment{
		{Kind: KindDelete, Base: Range{0, 2}, Target: Range{0, 0}},
	}, segments)
}

func TestDiff_SingleLineChange(t *testing.T) {
	base := numbered(20, "line ")
	target := append([]string(nil), base...)
	target[10] = "changed"

	segments, err := Diff(NewRevision(base), NewRevision(target))
	require.NoError(t, err)
	require.Equal(t, []Segment{
		{Kind: KindEqual, Base: Range{0, 10}, Target: Range{0, 10}},
		{Kind: KindReplace, Base: Range{10, 11}, Target: Range{10, 11}},
		{Kind: KindEqual, Base: Range{11, 20}, Target: Range{11, 20}},
	}, segments)
}

func TestDiff_FullReplace(t *testing.T) {
	segments, err := Diff(NewRevision(numbered(12, "old ")), NewRevision(numbered(8, "new ")))
	require.NoError(t, err)
	require.Equal(t, []Segment{
		{Kind: KindReplace, Base: Range{0, 12}, Target: Range{0, 8}},
	}, segments)
}

func TestDiff_PureInsertAndDelete(t *testing.T) {
	base := []string{"a", "b", "c", "d", "e", "f"}
	target := []string{"a", "x", "b", "c", "e", "f"}

	segments, err := Diff(NewRevision(base), NewRevision(target))
	require.NoError(t, err)
	require.Equal(t, []Segment{
		{Kind: KindEqual, Base: Range{0, 1}, Target: Range{0, 1}},
		{Kind: KindInsert, Base: Range{1, 1}, Target: Range{1, 2}},
		{Kind: KindEqual, Base: Range{1, 3}, Target: Range{2, 4}},
		{Kind: KindDelete, Base: Range{3, 4}, Target: Range{4, 4}},
		{Kind: KindEqual, Base: Range{4, 6}, Target: Range{4, 6}},
	}, segments)
}

func TestDiff_DuplicateInsertPrefersLongestEqualRun(t *testing.T) {
	// The extra "b" could be aligned at index 1 or 2; index 1 leaves a 3-line equal run behind it.
	base := []string{"a", "b", "c", "d"}
	target := []string{"a", "b", "b", "c", "d"}

	segments, err := Diff(NewRevision(base), NewRevision(target))
	require.NoError(t, err)
	require.Equal(t, []Segment{
		{Kind: KindEqual, Base: Range{0, 1}, Target: Range{0, 1}},
		{Kind: KindInsert, Base: Range{1, 1}, Target: Range{1, 2}},
		{Kind: KindEqual, Base: Range{1, 4}, Target: Range{2, 5}},
	}, segments)
}

func TestSlide_TieGoesTowardEnd(t *testing.T) {
	baseIDs := []rune{1, 2, 2, 1}
	targetIDs := []rune{1, 2, 2, 2, 1}
	ops := []op{{opEqual, 1}, {opInsert, 1}, {opEqual, 3}}

	got := slide(ops, baseIDs, targetIDs)
	require.Equal(t, []op{{opEqual, 3}, {opInsert, 1}, {opEqual, 1}}, got)
}

func TestSlide_EmptiedRunMergesNeighbours(t *testing.T) {
	// base:   x a b y
	// target: x a b a b z
	// The inserted "a b" can slide down over the whole trailing equal run and then joins the y->z change.
	baseIDs := []rune{1, 2, 3, 4}
	targetIDs := []rune{1, 2, 3, 2, 3, 5}
	ops := []op{{opEqual, 1}, {opInsert, 2}, {opEqual, 2}, {opDelete, 1}, {opInsert, 1}}

	got := slide(ops, baseIDs, targetIDs)
	require.Equal(t, []op{{opEqual, 3}, {opInsert, 2}, {opDelete, 1}, {opInsert, 1}}, got)
	require.Equal(t, []Segment{
		{Kind: KindEqual, Base: Range{0, 3}, Target: Range{0, 3}},
		{Kind: KindReplace, Base: Range{3, 4}, Target: Range{3, 6}},
	}, toSegments(got))
}

func TestDiff_PartitionInvariantOnRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []string{"a", "b", "c", "d", "e", "{", "}", ""}
	gen := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return out
	}

	for i := 0; i < 200; i++ {
		base := gen(rng.Intn(40))
		target := gen(rng.Intn(40))

		segments, err := Diff(NewRevision(base), NewRevision(target))
		require.NoError(t, err)
		require.NoError(t, Validate(segments, len(base), len(target)))

		for _, s := range segments {
			if s.Kind != KindEqual {
				continue
			}
			for k := 0; k < s.Base.Len(); k++ {
				require.Equal(t, base[s.Base.Start+k], target[s.Target.Start+k])
			}
		}

		again, err := Diff(NewRevision(base), NewRevision(target))
		require.NoError(t, err)
		require.Equal(t, segments, again, "diff must be deterministic")
	}
}

func TestDiff_LargeInput(t *testing.T) {
	base := numbered(10000, "row ")
	target := append([]string(nil), base...)
	for i := 0; i < len(target); i += 500 {
		target[i] = "edited"
	}
	target = append(target[:2000], append([]string{"inserted 1", "inserted 2"}, target[2000:]...)...)

	segments, err := Diff(NewRevision(base), NewRevision(target))
	require.NoError(t, err)
	require.NoError(t, Validate(segments, len(base), len(target)))

	changes := 0
	for _, s := range segments {
		if s.Kind != KindEqual {
			changes++
		}
	}
	require.Equal(t, 20, changes)
}

func TestDiff_RejectsInvalidLines(t *testing.T) {
	_, err := Diff(NewRevision([]string{"ok", "bad\nline"}), NewRevision(nil))
	require.ErrorIs(t, err, ErrDiffComputation)

	var dce *DiffComputationError
	require.ErrorAs(t, err, &dce)
	require.Equal(t, SideBase, dce.Side)
	require.Equal(t, 1, dce.Line)

	_, err = Diff(NewRevision(nil), NewRevision([]string{"\xff"}))
	require.ErrorAs(t, err, &dce)
	require.Equal(t, SideTarget, dce.Side)
}

func TestValidate_ReportsGap(t *testing.T) {
	err := Validate([]Segment{
		{Kind: KindEqual, Base: Range{0, 2}, Target: Range{0, 2}},
		{Kind: KindDelete, Base: Range{3, 4}, Target: Range{2, 2}},
	}, 4, 2)
	require.Error(t, err)
	require.Contains(t, err.Error(), "base starts at 3")
}

func TestValidate_RejectsAdjacentChanges(t *testing.T) {
	err := Validate([]Segment{
		{Kind: KindDelete, Base: Range{0, 1}, Target: Range{0, 0}},
		{Kind: KindInsert, Base: Range{1, 1}, Target: Range{0, 1}},
	}, 1, 1)
	require.Error(t, err)
}
