package predict

import "sort"

// sweep combines piecewise functions by walking the sorted union of
// their segment boundaries: a new before block, one middle block per
// segment between consecutive boundaries, and a new after block.
// Adjacent middle blocks with identical values are coalesced.
func sweep(fns []*Blocks, combine func(t int) (int, int), st *Store) *Blocks {
	var cuts []int
	for _, fn := range fns {
		if fn != nil {
			cuts = fn.boundaries(cuts)
		}
	}
	if len(cuts) == 0 {
		return zeroBlocks(st)
	}
	sort.Ints(cuts)
	cuts = dedupInts(cuts)

	bc, bu := combine(cuts[0] - 1)
	out := &Blocks{Before: st.Before(bc, bu, cuts[0]-1)}
	for i := 0; i+1 < len(cuts); i++ {
		c, u := combine(cuts[i])
		n := len(out.Middles)
		if n > 0 && out.Middles[n-1].Conflict == c && out.Middles[n-1].Unknown == u {
			prev := out.Middles[n-1]
			out.Middles[n-1] = st.Middle(c, u, prev.Start, cuts[i+1]-1)
			continue
		}
		out.Middles = append(out.Middles, st.Middle(c, u, cuts[i], cuts[i+1]-1))
	}
	last := cuts[len(cuts)-1]
	ac, au := combine(last)
	out.After = st.After(ac, au, last)
	return out
}

func dedupInts(xs []int) []int {
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

// addBlocks returns the pointwise sum of the given functions.
func addBlocks(fns []*Blocks, st *Store) *Blocks {
	return sweep(fns, func(t int) (int, int) {
		c, u := 0, 0
		for _, fn := range fns {
			fc, fu := fn.ValueAt(t)
			c += fc
			u += fu
		}
		return c, u
	}, st)
}

// mergeMax returns the pointwise maximum of the given functions. This
// keeps the strongest prediction among a pair's constraints.
func mergeMax(fns []*Blocks, st *Store) *Blocks {
	return sweep(fns, func(t int) (int, int) {
		c, u := 0, 0
		for _, fn := range fns {
			fc, fu := fn.ValueAt(t)
			if fc > c {
				c = fc
			}
			if fu > u {
				u = fu
			}
		}
		return c, u
	}, st)
}
