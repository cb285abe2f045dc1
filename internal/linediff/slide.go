package linediff

import "github.com/sergi/go-diff/diffmatchpatch"

type opType int

const (
	opEqual opType = iota
	opDelete
	opInsert
)

// op is a run of n lines sharing one diffmatchpatch operation.
type op struct {
	kind opType
	n    int
}

func opKind(t diffmatchpatch.Operation) opType {
	switch t {
	case diffmatchpatch.DiffDelete:
		return opDelete
	case diffmatchpatch.DiffInsert:
		return opInsert
	default:
		return opEqual
	}
}

// normalize drops empty runs and merges neighbours of the same kind.
func normalize(ops []op) []op {
	out := ops[:0]
	for _, o := range ops {
		if o.n <= 0 {
			continue
		}
		if len(out) > 0 && out[len(out)-1].kind == o.kind {
			out[len(out)-1].n += o.n
			continue
		}
		out = append(out, o)
	}
	return out
}

// slide moves every pure insert or delete that sits between two equal runs to the position producing the longest
// single equal run. Ties slide toward the end of the file. A run emptied by a slide disappears and its neighbours
// merge, which is why the scan restarts after each move.
func slide(ops []op, baseIDs, targetIDs []rune) []op {
	limit := len(ops) + len(baseIDs) + len(targetIDs)
	for pass := 0; pass <= limit; pass++ {
		if !slideOnce(ops, baseIDs, targetIDs) {
			return ops
		}
		ops = normalize(ops)
	}
	return ops
}

func slideOnce(ops []op, baseIDs, targetIDs []rune) bool {
	basePos, targetPos := 0, 0
	for i, o := range ops {
		if i > 0 && i+1 < len(ops) && o.kind != opEqual && ops[i-1].kind == opEqual && ops[i+1].kind == opEqual {
			ids, pos := baseIDs, basePos
			if o.kind == opInsert {
				ids, pos = targetIDs, targetPos
			}
			a, k, b := ops[i-1].n, o.n, ops[i+1].n

			down := 0
			for down < b && ids[pos+down] == ids[pos+k+down] {
				down++
			}
			up := 0
			for up < a && ids[pos-1-up] == ids[pos+k-1-up] {
				up++
			}

			scoreNone := max(a, b)
			scoreDown := max(a+down, b-down)
			scoreUp := max(a-up, b+up)
			switch {
			case down > 0 && scoreDown >= scoreUp && scoreDown >= scoreNone:
				ops[i-1].n += down
				ops[i+1].n -= down
				return true
			case up > 0 && scoreUp > scoreNone && scoreUp > scoreDown:
				ops[i-1].n -= up
				ops[i+1].n += up
				return true
			}
		}

		switch o.kind {
		case opEqual:
			basePos += o.n
			targetPos += o.n
		case opDelete:
			basePos += o.n
		case opInsert:
			targetPos += o.n
		}
	}
	return false
}
