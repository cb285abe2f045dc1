package linediff

import (
	"errors"
	"fmt"
)

// ErrDiffComputation is matched (via errors.Is) by every *DiffComputationError.
var ErrDiffComputation = errors.New("diff computation failed")

// DiffComputationError reports input that is not a valid line sequence, or a diff result that broke the
// partition invariant. No partial result accompanies it.
type DiffComputationError struct {
	Side   Side   // Side whose input was rejected; SideNone when not attributable to one side.
	Line   int    // 0-indexed line of the problem, or -1 when unknown.
	Reason string // Human readable cause.
}

func (e *DiffComputationError) Error() string {
	prefix := "linediff"
	if e.Side != SideNone {
		prefix += ": " + e.Side.String() + " revision"
	}
	if e.Line >= 0 {
		return fmt.Sprintf("%s: line %d: %s", prefix, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Reason)
}

func (e *DiffComputationError) Is(target error) bool {
	return target == ErrDiffComputation
}

// Side names one of the two revisions being compared.
type Side int

const (
	SideNone Side = iota
	SideBase
	SideTarget
)

func (s Side) String() string {
	switch s {
	case SideBase:
		return "base"
	case SideTarget:
		return "target"
	default:
		return "none"
	}
}
