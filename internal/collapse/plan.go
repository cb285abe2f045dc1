package collapse

import (
	"fmt"

	"sidediff/internal/linediff"
)

// Defaults used when no configuration overrides them.
const (
	DefaultContextLines = 3
	DefaultMinThreshold = 4
)

// RegionID identifies a region by where its collapsible span starts on each side. Re-planning the same diff always
// yields the same ids.
type RegionID struct {
	Base   int
	Target int
}

func (id RegionID) String() string {
	return fmt.Sprintf("b%d:t%d", id.Base, id.Target)
}

// ParseRegionID parses the form produced by RegionID.String.
func ParseRegionID(s string) (RegionID, error) {
	var id RegionID
	if _, err := fmt.Sscanf(s, "b%d:t%d", &id.Base, &id.Target); err != nil {
		return RegionID{}, fmt.Errorf("parse region id %q: %w", s, err)
	}
	return id, nil
}

// Region is the collapsible middle of an unchanged run. Base and Target always have the same length.
type Region struct {
	ID        RegionID
	Base      linediff.Range
	Target    linediff.Range
	Collapsed bool
	Segment   int // index of the originating equal segment
}

// Len is the number of hidden lines when collapsed.
func (r Region) Len() int {
	return r.Base.Len()
}

// Classified is a segment tagged with whether it may be collapsed at all.
type Classified struct {
	linediff.Segment
	Collapsible bool
}

// Classify tags segments for the planner. Only equal segments are collapsible; inserts, deletes and replaces are
// always shown in full. Order and ranges are unchanged.
func Classify(segments []linediff.Segment) []Classified {
	out := make([]Classified, len(segments))
	for i, s := range segments {
		out[i] = Classified{Segment: s, Collapsible: s.Kind == linediff.KindEqual}
	}
	return out
}

// Plan returns the collapse regions for segments. With enabled false there is no plan at all (nil), which is not the
// same as a plan whose regions are all expanded (see ExpandAll).
//
// An equal segment of length L qualifies iff L >= 2*contextLines + minThreshold. contextLines lines stay visible on
// each side that touches a change. A side that touches the start or end of the file keeps no context there, except
// when the segment covers the whole file: then its head and tail are kept as context. Every region starts collapsed.
func Plan(segments []linediff.Segment, contextLines, minThreshold int, enabled bool) []Region {
	if !enabled {
		return nil
	}
	contextLines = max(contextLines, 0)
	minThreshold = max(minThreshold, 0)

	var regions []Region
	for i, c := range Classify(segments) {
		if !c.Collapsible {
			continue
		}
		n := c.Base.Len()
		if n < 2*contextLines+minThreshold {
			continue
		}

		leading := i == 0
		trailing := i == len(segments)-1
		head, tail := contextLines, contextLines
		if leading && !trailing {
			head = 0
		}
		if trailing && !leading {
			tail = 0
		}
		if n-head-tail <= 0 {
			continue
		}

		base := linediff.Range{Start: c.Base.Start + head, End: c.Base.End - tail}
		target := linediff.Range{Start: c.Target.Start + head, End: c.Target.End - tail}
		regions = append(regions, Region{
			ID:        RegionID{Base: base.Start, Target: target.Start},
			Base:      base,
			Target:    target,
			Collapsed: true,
			Segment:   i,
		})
	}
	return regions
}

// ExpandAll returns a copy of regions with every region expanded.
func ExpandAll(regions []Region) []Region {
	if regions == nil {
		return nil
	}
	out := make([]Region, len(regions))
	for i, r := range regions {
		r.Collapsed = false
		out[i] = r
	}
	return out
}

// Find returns the index of the region with id, or -1.
func Find(regions []Region, id RegionID) int {
	for i, r := range regions {
		if r.ID == id {
			return i
		}
	}
	return -1
}
