package algo

import (
	"github.com/elektrokombinacija/repairsched/internal/core"
	"github.com/elektrokombinacija/repairsched/internal/plan"
)

// cachedPlacement remembers one item's placement from the previous
// result plan for warm starts.
type cachedPlacement struct {
	item  *core.Item
	start int
}

// buildStartPlan constructs the start assignment: fixed items first,
// then warm-started items from the cached result plan, then the
// remaining items greedily at the earliest start at or after the
// latest end observed on each lane they touch.
func (s *Scheduler) buildStartPlan(items []*core.Item, fixed []*core.ScheduledItem) (*plan.Plan, error) {
	p := plan.New()
	for _, f := range fixed {
		if err := p.Schedule(f); err != nil {
			return nil, err
		}
		if err := p.Fixate(f); err != nil {
			return nil, err
		}
	}

	useCache := s.CacheResultPlan && !s.ParallelScheduling
	remaining := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if ce, ok := s.cache[it.ID]; ok && useCache && sameDurations(ce.item, it) {
			if _, err := p.Add(it, ce.start); err != nil {
				return nil, err
			}
			continue
		}
		remaining = append(remaining, it)
	}

	laneEnds := make(map[core.LaneID]int)
	for _, sc := range p.Items() {
		bumpLaneEnds(laneEnds, sc)
	}
	for _, it := range remaining {
		start := 0
		for _, l := range it.Lanes() {
			if laneEnds[l] > start {
				start = laneEnds[l]
			}
		}
		sc, err := p.Add(it, start)
		if err != nil {
			return nil, err
		}
		bumpLaneEnds(laneEnds, sc)
	}
	return p, nil
}

func bumpLaneEnds(laneEnds map[core.LaneID]int, sc *core.ScheduledItem) {
	for _, l := range sc.Item.Lanes() {
		if e := sc.End(l); e > laneEnds[l] {
			laneEnds[l] = e
		}
	}
}

// sameDurations reports whether two items have identical active
// lane-duration mappings. A cached placement is only reused when the
// item's identity still matches.
func sameDurations(a, b *core.Item) bool {
	da, db := a.Durations(), b.Durations()
	if len(da) != len(db) {
		return false
	}
	for l, d := range da {
		if db[l] != d {
			return false
		}
	}
	return true
}
