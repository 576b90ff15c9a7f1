// Package predict implements the per-pair conflict predictor: cheap
// piecewise-constant lower bounds on the hard conflict value an item
// would incur from its partners at any candidate start.
package predict

import (
	"sort"

	"github.com/elektrokombinacija/repairsched/internal/core"
)

// BeforeBlock is active for t <= End.
type BeforeBlock struct {
	Conflict int
	Unknown  int
	End      int
}

// MiddleBlock is active for Start <= t <= End.
type MiddleBlock struct {
	Conflict int
	Unknown  int
	Start    int
	End      int
}

// AfterBlock is active for t >= Start.
type AfterBlock struct {
	Conflict int
	Unknown  int
	Start    int
}

// Blocks is a piecewise-constant function over integer time: an
// unbounded before block, zero or more contiguous middle blocks, and
// an unbounded after block. Invariant: Before.End+1 equals the first
// middle's Start (or After.Start when no middles exist), and block
// ranges are contiguous.
type Blocks struct {
	Before  *BeforeBlock
	Middles []*MiddleBlock
	After   *AfterBlock
}

// ValueAt returns the (conflict, unknown) pair at t.
func (b *Blocks) ValueAt(t int) (int, int) {
	if b == nil {
		return 0, 0
	}
	if t <= b.Before.End {
		return b.Before.Conflict, b.Before.Unknown
	}
	if t >= b.After.Start {
		return b.After.Conflict, b.After.Unknown
	}
	i := sort.Search(len(b.Middles), func(i int) bool { return b.Middles[i].End >= t })
	if i < len(b.Middles) && b.Middles[i].Start <= t {
		return b.Middles[i].Conflict, b.Middles[i].Unknown
	}
	return 0, 0
}

// boundaries appends every region start of b (the first t of each
// constant segment except the unbounded before) to dst.
func (b *Blocks) boundaries(dst []int) []int {
	dst = append(dst, b.Before.End+1)
	for _, m := range b.Middles {
		dst = append(dst, m.Start, m.End+1)
	}
	return append(dst, b.After.Start)
}

// shift returns the function translated right by delta, with blocks
// interned in the store.
func (b *Blocks) shift(delta int, st *Store) *Blocks {
	if delta == 0 {
		return b
	}
	out := &Blocks{
		Before: st.Before(b.Before.Conflict, b.Before.Unknown, b.Before.End+delta),
		After:  st.After(b.After.Conflict, b.After.Unknown, b.After.Start+delta),
	}
	if len(b.Middles) > 0 {
		out.Middles = make([]*MiddleBlock, len(b.Middles))
		for i, m := range b.Middles {
			out.Middles[i] = st.Middle(m.Conflict, m.Unknown, m.Start+delta, m.End+delta)
		}
	}
	return out
}

// stateValues maps a prediction state and its value onto the
// (conflict, unknown) pair a block carries. A certain conflict counts
// toward both bounds; an unknown one only toward the unknown bound.
func stateValues(s core.ConflictState, v int) (int, int) {
	switch s {
	case core.Conflict:
		return v, v
	case core.UnknownConflict:
		return 0, v
	default:
		return 0, 0
	}
}

// blocksForPrediction translates one pair prediction into a function
// of t = moved.start - fixed.start. The before region ends at
// -moved.maxDuration, the after region starts at fixed.maxDuration,
// and the overlap region in between carries the together value at the
// single point t=0. The open edge sub-regions around t=0 describe
// partial overlaps the three-way prediction cannot decide, so they
// contribute only to the unknown bound.
func blocksForPrediction(p core.Prediction, movedMax, fixedMax int, st *Store) *Blocks {
	bc, bu := stateValues(p.Before, p.ConflictValue)
	tc, tu := stateValues(p.Together, p.ConflictValue)
	ac, au := stateValues(p.After, p.ConflictValue)

	out := &Blocks{
		Before: st.Before(bc, bu, -movedMax),
		After:  st.After(ac, au, fixedMax),
	}
	leftUnknown := maxInt(bu, tu)
	rightUnknown := maxInt(tu, au)
	if movedMax >= 2 {
		out.Middles = append(out.Middles, st.Middle(0, leftUnknown, -movedMax+1, -1))
	}
	out.Middles = append(out.Middles, st.Middle(tc, tu, 0, 0))
	if fixedMax >= 2 {
		out.Middles = append(out.Middles, st.Middle(0, rightUnknown, 1, fixedMax-1))
	}
	return out
}

// zeroBlocks is the constant-zero function.
func zeroBlocks(st *Store) *Blocks {
	return &Blocks{
		Before: st.Before(0, 0, -1),
		After:  st.After(0, 0, 0),
	}
}

// negate returns the function with all values negated. Used to back a
// stale contribution out of an aggregate before re-adding it.
func (b *Blocks) negate(st *Store) *Blocks {
	out := &Blocks{
		Before: st.Before(-b.Before.Conflict, -b.Before.Unknown, b.Before.End),
		After:  st.After(-b.After.Conflict, -b.After.Unknown, b.After.Start),
	}
	if len(b.Middles) > 0 {
		out.Middles = make([]*MiddleBlock, len(b.Middles))
		for i, m := range b.Middles {
			out.Middles[i] = st.Middle(-m.Conflict, -m.Unknown, m.Start, m.End)
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
