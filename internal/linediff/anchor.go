package linediff

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxAnchorCells bounds the table behind longestRun. Pairs with more line pairs than this keep the aligner's script
// and only get the local slide.
const maxAnchorCells = 1 << 21

// align returns a minimal script from a to b. When the pair is small enough, the longest equal run that any minimal
// script can keep is pinned first and both remaining sides are aligned around it.
func align(dmp *diffmatchpatch.DiffMatchPatch, a, b []rune) []op {
	i, j, n, ok := longestRun(a, b)
	if !ok {
		return myers(dmp, a, b)
	}
	ops := myers(dmp, a[:i], b[:j])
	ops = append(ops, op{kind: opEqual, n: n})
	ops = append(ops, myers(dmp, a[i+n:], b[j+n:])...)
	return normalize(ops)
}

func myers(dmp *diffmatchpatch.DiffMatchPatch, a, b []rune) []op {
	switch {
	case len(a) == 0 && len(b) == 0:
		return nil
	case len(a) == 0:
		return []op{{kind: opInsert, n: len(b)}}
	case len(b) == 0:
		return []op{{kind: opDelete, n: len(a)}}
	}
	diffs := dmp.DiffMainRunes(a, b, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	ops := make([]op, 0, len(diffs))
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		if n == 0 {
			continue
		}
		ops = append(ops, op{kind: opKind(d.Type), n: n})
	}
	return normalize(ops)
}

// longestRun finds the longest block a[i:i+n] == b[j:j+n] that some minimal script keeps as one equal run. Ties go
// to the block nearest the end. ok is false when nothing matches or the pair exceeds maxAnchorCells.
//
// A maximal diagonal of matches starting at (i, j) with length n fits a minimal script iff
// lcs(a[:i], b[:j]) + n + lcs(a[i+n:], b[j+n:]) == lcs(a, b). Any shorter block on that diagonal scores the same, so
// only diagonal starts need checking.
func longestRun(a, b []rune) (i, j, n int, ok bool) {
	rows, cols := len(a)+1, len(b)+1
	if len(a) == 0 || len(b) == 0 || rows*cols > maxAnchorCells {
		return 0, 0, 0, false
	}

	// suffix[x*cols+y] = lcs(a[x:], b[y:])
	suffix := make([]int32, rows*cols)
	for x := len(a) - 1; x >= 0; x-- {
		for y := len(b) - 1; y >= 0; y-- {
			if a[x] == b[y] {
				suffix[x*cols+y] = suffix[(x+1)*cols+y+1] + 1
			} else {
				suffix[x*cols+y] = max(suffix[(x+1)*cols+y], suffix[x*cols+y+1])
			}
		}
	}
	total := suffix[0]

	// prefix[y] = lcs(a[:x], b[:y]) for the current row x.
	prefix := make([]int32, cols)
	next := make([]int32, cols)
	for x := range a {
		for y := range b {
			if a[x] != b[y] || (x > 0 && y > 0 && a[x-1] == b[y-1]) {
				continue
			}
			run := 1
			for x+run < len(a) && y+run < len(b) && a[x+run] == b[y+run] {
				run++
			}
			if run >= n && prefix[y]+int32(run)+suffix[(x+run)*cols+y+run] == total {
				i, j, n = x, y, run
			}
		}

		next[0] = 0
		for y := range b {
			if a[x] == b[y] {
				next[y+1] = prefix[y] + 1
			} else {
				next[y+1] = max(prefix[y+1], next[y])
			}
		}
		prefix, next = next, prefix
	}
	return i, j, n, n > 0
}
