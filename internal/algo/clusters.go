package algo

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/repairsched/internal/core"
	"github.com/elektrokombinacija/repairsched/internal/plan"
)

// unionFind is a disjoint-set over item indices with path compression
// and union by rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}

// partitionClusters groups items (and fixed placements) into
// connected components of the needs-checking relation. Two items land
// in the same cluster when any pair constraint says their pair needs
// checking.
func partitionClusters(items []*core.Item, fixed []*core.ScheduledItem, pairs []core.ItemPairConstraint) ([][]*core.Item, [][]*core.ScheduledItem) {
	all := make([]*core.Item, 0, len(items)+len(fixed))
	all = append(all, items...)
	fixedOffset := len(items)
	for _, f := range fixed {
		all = append(all, f.Item)
	}

	uf := newUnionFind(len(all))
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			for _, c := range pairs {
				if c.NeedsChecking(all[i], all[j]) {
					uf.union(i, j)
					break
				}
			}
		}
	}

	groups := make(map[int][]int)
	for i := range all {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}
	roots := make([]int, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Ints(roots)

	clusters := make([][]*core.Item, 0, len(groups))
	clusterFixed := make([][]*core.ScheduledItem, 0, len(groups))
	for _, r := range roots {
		var ci []*core.Item
		var cf []*core.ScheduledItem
		for _, idx := range groups[r] {
			if idx >= fixedOffset {
				cf = append(cf, fixed[idx-fixedOffset])
			} else {
				ci = append(ci, items[idx])
			}
		}
		clusters = append(clusters, ci)
		clusterFixed = append(clusterFixed, cf)
	}
	return clusters, clusterFixed
}

// scheduleClusters runs an independent worker scheduler per cluster
// and merges the resulting plans. Workers share only the immutable
// constraint lists; the relative order of items across clusters is
// unspecified.
func (s *Scheduler) scheduleClusters(clusters [][]*core.Item, clusterFixed [][]*core.ScheduledItem) (*plan.Plan, error) {
	workers := make([]*Scheduler, len(clusters))
	plans := make([]*plan.Plan, len(clusters))

	g := new(errgroup.Group)
	for i := range clusters {
		i := i
		w := NewWithConstraints(s.singles, s.pairs)
		w.UsePrediction = s.UsePrediction
		w.CacheResultPlan = false
		w.logger = s.logger
		workers[i] = w
		g.Go(func() error {
			p, err := w.solve(clusters[i], clusterFixed[i])
			plans[i] = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := plan.New()
	for i, cp := range plans {
		for _, sc := range cp.Items() {
			if err := merged.Schedule(sc); err != nil {
				return nil, err
			}
			if cp.IsFixed(sc.Item.ID) {
				if err := merged.Fixate(sc); err != nil {
					return nil, err
				}
			}
		}
		s.backsteps += workers[i].backsteps
	}
	s.snapshot(merged)
	return merged, nil
}
