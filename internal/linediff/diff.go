package linediff

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Kind classifies a segment of the edit script.
type Kind int

const (
	KindEqual Kind = iota
	KindInsert
	KindDelete
	KindReplace
)

func (k Kind) String() string {
	switch k {
	case KindEqual:
		return "equal"
	case KindInsert:
		return "insert"
	case KindDelete:
		return "delete"
	case KindReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Range is a half-open interval of line indices [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) Empty() bool {
	return r.End <= r.Start
}

func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// Segment is one maximal run of the edit script.
//
// Invariants:
//   - KindEqual: Base.Len() == Target.Len() > 0
//   - KindInsert: Base is empty, Target is not
//   - KindDelete: Target is empty, Base is not
//   - KindReplace: neither side is empty
type Segment struct {
	Kind   Kind
	Base   Range
	Target Range
}

// Diff computes the line-level edit script from base to target.
//
// The result partitions both revisions: Base ranges concatenate to [0, base.Len()) and Target ranges to
// [0, target.Len()). Identical inputs always produce identical segments. The script is minimal. For pairs of up
// to maxAnchorCells line pairs it keeps the longest contiguous equal run any minimal script can have, the one
// nearest the end on ties. Pure inserts and deletes between two equal runs are then slid toward whichever neighbour
// grows longer (ties toward the end), which is the only tie-break larger pairs get.
func Diff(base, target Revision) ([]Segment, error) {
	if err := checkLines(base, SideBase); err != nil {
		return nil, err
	}
	if err := checkLines(target, SideTarget); err != nil {
		return nil, err
	}

	baseIDs, targetIDs, err := intern(base.lines, target.lines)
	if err != nil {
		return nil, err
	}

	dmp := diffmatchpatch.New()
	// No deadline: a timed-out bisect returns a non-minimal script, which would break determinism.
	dmp.DiffTimeout = 0
	ops := align(dmp, baseIDs, targetIDs)
	ops = slide(ops, baseIDs, targetIDs)

	segments := toSegments(ops)
	if err := Validate(segments, base.Len(), target.Len()); err != nil {
		return nil, &DiffComputationError{Line: -1, Reason: err.Error()}
	}
	return segments, nil
}

func checkLines(r Revision, side Side) error {
	for i, line := range r.lines {
		if strings.IndexByte(line, '\n') >= 0 {
			return &DiffComputationError{Side: side, Line: i, Reason: "line contains a newline"}
		}
		if !utf8.ValidString(line) {
			return &DiffComputationError{Side: side, Line: i, Reason: "invalid utf-8"}
		}
	}
	return nil
}

// intern assigns every distinct line a rune so equality checks in the aligner are O(1). Surrogate code points are
// skipped: diffmatchpatch round-trips runes through strings, which would turn them into U+FFFD.
func intern(base, target []string) ([]rune, []rune, error) {
	ids := make(map[string]rune, len(base)+len(target))
	next := rune(1)

	assign := func(lines []string, side Side) ([]rune, error) {
		out := make([]rune, len(lines))
		for i, line := range lines {
			id, ok := ids[line]
			if !ok {
				if next > utf8.MaxRune {
					return nil, &DiffComputationError{Side: side, Line: i, Reason: "too many distinct lines"}
				}
				id = next
				ids[line] = id
				next++
				if next == surrogateMin {
					next = surrogateMax + 1
				}
			}
			out[i] = id
		}
		return out, nil
	}

	b, err := assign(base, SideBase)
	if err != nil {
		return nil, nil, err
	}
	t, err := assign(target, SideTarget)
	if err != nil {
		return nil, nil, err
	}
	return b, t, nil
}

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
)

func toSegments(ops []op) []Segment {
	var segments []Segment
	basePos, targetPos := 0, 0
	dels, ins := 0, 0

	flush := func() {
		if dels == 0 && ins == 0 {
			return
		}
		kind := KindReplace
		switch {
		case ins == 0:
			kind = KindDelete
		case dels == 0:
			kind = KindInsert
		}
		segments = append(segments, Segment{
			Kind:   kind,
			Base:   Range{Start: basePos, End: basePos + dels},
			Target: Range{Start: targetPos, End: targetPos + ins},
		})
		basePos += dels
		targetPos += ins
		dels, ins = 0, 0
	}

	for _, o := range ops {
		switch o.kind {
		case opEqual:
			flush()
			segments = append(segments, Segment{
				Kind:   KindEqual,
				Base:   Range{Start: basePos, End: basePos + o.n},
				Target: Range{Start: targetPos, End: targetPos + o.n},
			})
			basePos += o.n
			targetPos += o.n
		case opDelete:
			dels += o.n
		case opInsert:
			ins += o.n
		}
	}
	flush()
	return segments
}
