package plan

import "github.com/google/btree"

// timeCount is one key of the start-value multiset: an integer time
// point with the number of scheduled starts and lane ends referencing
// it.
type timeCount struct {
	t int
	n int
}

// timeMultiset is a count-keyed ordered multiset of time points. Every
// scheduled item's start and every per-lane end is counted, so that
// removing one contributor among several at the same time does not
// erase the key.
type timeMultiset struct {
	tree *btree.BTreeG[timeCount]
}

func newTimeMultiset() *timeMultiset {
	return &timeMultiset{
		tree: btree.NewG(16, func(a, b timeCount) bool { return a.t < b.t }),
	}
}

func (m *timeMultiset) add(t int) {
	cur, ok := m.tree.Get(timeCount{t: t})
	if !ok {
		cur = timeCount{t: t}
	}
	cur.n++
	m.tree.ReplaceOrInsert(cur)
}

func (m *timeMultiset) remove(t int) {
	cur, ok := m.tree.Get(timeCount{t: t})
	if !ok {
		return
	}
	cur.n--
	if cur.n <= 0 {
		m.tree.Delete(cur)
		return
	}
	m.tree.ReplaceOrInsert(cur)
}

// count returns the reference count of the given time point.
func (m *timeMultiset) count(t int) int {
	cur, ok := m.tree.Get(timeCount{t: t})
	if !ok {
		return 0
	}
	return cur.n
}

// max returns the largest time point, or 0 when the multiset is empty.
func (m *timeMultiset) max() int {
	cur, ok := m.tree.Max()
	if !ok {
		return 0
	}
	return cur.t
}

// keys returns all distinct time points in ascending order.
func (m *timeMultiset) keys() []int {
	out := make([]int, 0, m.tree.Len())
	m.tree.Ascend(func(tc timeCount) bool {
		out = append(out, tc.t)
		return true
	})
	return out
}

// clone returns an independent copy. The underlying tree is
// copy-on-write, so cloning is cheap and both copies may be mutated.
func (m *timeMultiset) clone() *timeMultiset {
	return &timeMultiset{tree: m.tree.Clone()}
}
