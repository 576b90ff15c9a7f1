package algo

import (
	"errors"
	"sort"

	"github.com/elektrokombinacija/repairsched/internal/core"
	"github.com/elektrokombinacija/repairsched/internal/plan"
	"github.com/elektrokombinacija/repairsched/internal/violations"
)

// escape tries the three local-optimum strategies in order, collects
// their candidate plans, and adopts the best one if it improves on
// the current plan. A detected constraint cycle aborts immediately.
func (s *Scheduler) escape(p *plan.Plan, m *violations.Manager, v *violations.Violator, cfgs *configurations) (*plan.Plan, error) {
	s.logger.Info("escaping local optimum", "item", v.ID(), "hard", v.Hard, "soft", v.Soft)

	cfgs.resetPlans()
	cfgs.addPlan(p)

	if cand, err := s.rescheduleDependencyCone(p, m, v); err == nil {
		cfgs.addPlan(cand)
	}
	cand, err := s.shiftAndLockRight(p, m, v)
	if err != nil {
		if errors.Is(err, ErrCircularConstraint) {
			return nil, err
		}
	} else {
		cfgs.addPlan(cand)
	}
	cand, err = s.shiftAndLockLeft(p, m, v)
	if err != nil {
		if errors.Is(err, ErrCircularConstraint) {
			return nil, err
		}
	} else {
		cfgs.addPlan(cand)
	}

	best := cfgs.bestPlanConfiguration()
	if best == nil || best == p {
		s.logger.Warn("no escape strategy improved the plan", "item", v.ID())
		return nil, ErrUnableToEscape
	}
	m.PlanHasBeenUpdated(best)
	s.logger.Info("escaped", "makespan", best.Makespan())
	return best, nil
}

// rescheduleDependencyCone clones the plan, collects the violator and
// all its movable transitive dependents tagged with their traversal
// depth, unschedules them, and re-schedules them in (depth, start)
// order, each at the candidate start with the fewest violations
// against the partial plan.
func (s *Scheduler) rescheduleDependencyCone(p *plan.Plan, m *violations.Manager, v *violations.Violator) (*plan.Plan, error) {
	clone := p.Clone()
	seed := clone.Get(v.ID())
	if seed == nil || !clone.CanBeMoved(seed) {
		return nil, ErrUnableToEscape
	}

	depths := map[core.ItemID]int{seed.Item.ID: 0}
	queue := []*core.ScheduledItem{seed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		next := depths[cur.Item.ID] + 1
		if next > clone.Len() {
			// Deeper than the item count means a requirement cycle;
			// the depths collected so far are enough to reorder.
			continue
		}
		for _, d := range clone.Dependents(cur.Item) {
			if !clone.CanBeMoved(d) {
				continue
			}
			// Keep the maximum depth when reached multiple times.
			if old, seen := depths[d.Item.ID]; seen && old >= next {
				continue
			}
			depths[d.Item.ID] = next
			queue = append(queue, d)
		}
	}

	type tagged struct {
		scheduled *core.ScheduledItem
		depth     int
	}
	cone := make([]tagged, 0, len(depths))
	for id, depth := range depths {
		cone = append(cone, tagged{scheduled: clone.Get(id), depth: depth})
	}
	sort.Slice(cone, func(i, j int) bool {
		if cone[i].depth != cone[j].depth {
			return cone[i].depth < cone[j].depth
		}
		if cone[i].scheduled.Start != cone[j].scheduled.Start {
			return cone[i].scheduled.Start < cone[j].scheduled.Start
		}
		return cone[i].scheduled.Item.ID < cone[j].scheduled.Item.ID
	})

	for _, t := range cone {
		if err := clone.Unschedule(t.scheduled); err != nil {
			return nil, err
		}
	}
	for _, t := range cone {
		item := t.scheduled.Item
		bestStart, bestHard, bestSoft := 0, -1, -1
		for _, cand := range clone.StartCandidates() {
			hard, soft := m.CheckItemAt(core.NewScheduledItem(item, cand), clone)
			if bestHard < 0 || hard < bestHard || (hard == bestHard && soft < bestSoft) {
				bestStart, bestHard, bestSoft = cand, hard, soft
			}
		}
		if _, err := clone.Add(item, bestStart); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

// shiftAndLockRight clones the plan and pushes the violator, and
// transitively every item it newly hard-conflicts with, rightward by
// the clone's current makespan, locking each moved item. A locked
// item re-entering the violated set means a constraint cycle.
func (s *Scheduler) shiftAndLockRight(p *plan.Plan, m *violations.Manager, v *violations.Violator) (*plan.Plan, error) {
	clone := p.Clone()
	seed := clone.Get(v.ID())
	if err := shiftAndLock(clone, m, seed, func() int { return clone.Makespan() }); err != nil {
		return nil, err
	}
	return clone, nil
}

// shiftAndLockLeft shifts every non-fixed item rightward by the
// makespan to create room on the left, then applies the symmetric
// shift-and-lock with the negated delta on the violator.
func (s *Scheduler) shiftAndLockLeft(p *plan.Plan, m *violations.Manager, v *violations.Violator) (*plan.Plan, error) {
	clone := p.Clone()
	ms := clone.Makespan()
	clone.ShiftAll(ms)
	seed := clone.Get(v.ID())
	if err := shiftAndLock(clone, m, seed, func() int { return -ms }); err != nil {
		return nil, err
	}
	return clone, nil
}

// shiftAndLock moves the working set by delta, locks it, and recurses
// on the items that became hard-violated by the move, minus those
// already known. Returns ErrCircularConstraint when a locked item
// re-enters the violated set.
func shiftAndLock(clone *plan.Plan, m *violations.Manager, seed *core.ScheduledItem, delta func() int) error {
	if seed == nil {
		return ErrUnableToEscape
	}
	locked := make(map[core.ItemID]struct{})
	known := make(map[core.ItemID]struct{})
	work := []*core.ScheduledItem{seed}

	for len(work) > 0 {
		for _, w := range work {
			for _, hv := range m.HardViolatedPartners(w, clone) {
				known[hv.Item.ID] = struct{}{}
			}
		}

		d := delta()
		moved := make([]*core.ScheduledItem, 0, len(work))
		for _, w := range work {
			nw, err := clone.Move(w.Item, w.Start+d)
			if err != nil {
				return err
			}
			locked[nw.Item.ID] = struct{}{}
			moved = append(moved, nw)
		}

		next := make(map[core.ItemID]*core.ScheduledItem)
		for _, w := range moved {
			for _, hv := range m.HardViolatedPartners(w, clone) {
				if _, ok := known[hv.Item.ID]; ok {
					continue
				}
				next[hv.Item.ID] = hv
			}
		}

		work = work[:0]
		for id, hv := range next {
			if _, ok := locked[id]; ok {
				return ErrCircularConstraint
			}
			work = append(work, hv)
		}
		sort.Slice(work, func(i, j int) bool { return work[i].Item.ID < work[j].Item.ID })
	}
	return nil
}
