package linediff

import "fmt"

// Validate checks that segments partition [0, baseLen) and [0, targetLen) in order, that every segment honours its
// kind's shape, and that no two neighbouring segments could have been merged. It returns the first violation.
func Validate(segments []Segment, baseLen, targetLen int) error {
	basePos, targetPos := 0, 0
	for i, s := range segments {
		if s.Base.Start != basePos {
			return fmt.Errorf("segment[%d]: base starts at %d, want %d", i, s.Base.Start, basePos)
		}
		if s.Target.Start != targetPos {
			return fmt.Errorf("segment[%d]: target starts at %d, want %d", i, s.Target.Start, targetPos)
		}
		if s.Base.End < s.Base.Start || s.Target.End < s.Target.Start {
			return fmt.Errorf("segment[%d]: negative range", i)
		}

		switch s.Kind {
		case KindEqual:
			if s.Base.Empty() || s.Base.Len() != s.Target.Len() {
				return fmt.Errorf("segment[%d]: equal requires same non-zero length on both sides", i)
			}
		case KindInsert:
			if !s.Base.Empty() || s.Target.Empty() {
				return fmt.Errorf("segment[%d]: insert requires empty base and non-empty target", i)
			}
		case KindDelete:
			if s.Base.Empty() || !s.Target.Empty() {
				return fmt.Errorf("segment[%d]: delete requires non-empty base and empty target", i)
			}
		case KindReplace:
			if s.Base.Empty() || s.Target.Empty() {
				return fmt.Errorf("segment[%d]: replace requires both sides non-empty", i)
			}
		default:
			return fmt.Errorf("segment[%d]: unknown kind %d", i, s.Kind)
		}

		if i > 0 {
			prevEqual := segments[i-1].Kind == KindEqual
			if prevEqual == (s.Kind == KindEqual) {
				return fmt.Errorf("segment[%d]: %s follows %s", i, s.Kind, segments[i-1].Kind)
			}
		}

		basePos = s.Base.End
		targetPos = s.Target.End
	}

	if basePos != baseLen {
		return fmt.Errorf("base ranges end at %d, want %d", basePos, baseLen)
	}
	if targetPos != targetLen {
		return fmt.Errorf("target ranges end at %d, want %d", targetPos, targetLen)
	}
	return nil
}
