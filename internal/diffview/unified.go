package diffview

import (
	"bytes"

	sgdiff "github.com/sourcegraph/go-diff/diff"

	"sidediff/internal/linediff"
)

// Hunks groups change segments into unified diff hunks with context lines around each change. Changes separated by
// at most 2*context unchanged lines share a hunk.
func Hunks(base, target linediff.Revision, segments []linediff.Segment, context int) []*sgdiff.Hunk {
	context = max(context, 0)

	var hunks []*sgdiff.Hunk
	for first := 0; first < len(segments); first++ {
		if segments[first].Kind == linediff.KindEqual {
			continue
		}
		last := first
		for next := last + 2; next < len(segments); next += 2 {
			gap := segments[last+1]
			if gap.Kind != linediff.KindEqual || gap.Base.Len() > 2*context {
				break
			}
			last = next
		}
		hunks = append(hunks, buildHunk(base, target, segments, first, last, context))
		first = last
	}
	return hunks
}

func buildHunk(base, target linediff.Revision, segments []linediff.Segment, first, last, context int) *sgdiff.Hunk {
	lead, trail := 0, 0
	if first > 0 {
		lead = min(context, segments[first-1].Base.Len())
	}
	if last+1 < len(segments) {
		trail = min(context, segments[last+1].Base.Len())
	}

	origStart := segments[first].Base.Start - lead
	newStart := segments[first].Target.Start - lead
	origEnd := segments[last].Base.End + trail
	newEnd := segments[last].Target.End + trail

	var body bytes.Buffer
	writeLines(&body, ' ', base, linediff.Range{Start: origStart, End: segments[first].Base.Start})
	for _, seg := range segments[first : last+1] {
		if seg.Kind == linediff.KindEqual {
			writeLines(&body, ' ', base, seg.Base)
			continue
		}
		writeLines(&body, '-', base, seg.Base)
		writeLines(&body, '+', target, seg.Target)
	}
	writeLines(&body, ' ', base, linediff.Range{Start: segments[last].Base.End, End: origEnd})

	return &sgdiff.Hunk{
		OrigStartLine: hunkStart(origStart, origEnd-origStart),
		OrigLines:     int32(origEnd - origStart),
		NewStartLine:  hunkStart(newStart, newEnd-newStart),
		NewLines:      int32(newEnd - newStart),
		Body:          body.Bytes(),
	}
}

// hunkStart is 1-based, except that an empty range names the line before it.
func hunkStart(start, n int) int32 {
	if n == 0 {
		return int32(start)
	}
	return int32(start + 1)
}

func writeLines(buf *bytes.Buffer, prefix byte, rev linediff.Revision, r linediff.Range) {
	for i := r.Start; i < r.End; i++ {
		buf.WriteByte(prefix)
		buf.WriteString(rev.Line(i))
		buf.WriteByte('\n')
	}
}

// Unified renders the comparison as a unified patch. It returns nil when the revisions are identical.
func Unified(origName, newName string, base, target linediff.Revision, segments []linediff.Segment, context int) ([]byte, error) {
	hunks := Hunks(base, target, segments, context)
	if len(hunks) == 0 {
		return nil, nil
	}
	return sgdiff.PrintFileDiff(&sgdiff.FileDiff{
		OrigName: "a/" + origName,
		NewName:  "b/" + newName,
		Hunks:    hunks,
	})
}
