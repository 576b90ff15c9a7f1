package constraint

import "github.com/elektrokombinacija/repairsched/internal/core"

// Dependencies is the hard ordering constraint: an item must not start
// before every item it requires has ended on all of its lanes.
// Required items absent from the current run are treated as absent.
type Dependencies struct {
	// requiredBy caches the direct requirement relation for the
	// current run so the pair-graph build does not rescan the
	// required lists for every candidate pair.
	requiredBy map[core.ItemID]map[core.ItemID]struct{}
}

// NewDependencies creates the dependency constraint.
func NewDependencies() *Dependencies { return &Dependencies{} }

// PrepareRun rebuilds the requirement lookup for the run's items.
func (c *Dependencies) PrepareRun(items []*core.Item) {
	c.requiredBy = make(map[core.ItemID]map[core.ItemID]struct{}, len(items))
	for _, it := range items {
		for _, req := range it.Required() {
			m := c.requiredBy[it.ID]
			if m == nil {
				m = make(map[core.ItemID]struct{})
				c.requiredBy[it.ID] = m
			}
			m[req] = struct{}{}
		}
	}
}

// Check sums the ordering violations in both directions of the pair.
func (c *Dependencies) Check(a, b *core.ScheduledItem) core.Decision {
	value := violationAmount(a, b) + violationAmount(b, a)
	return core.Decision{Hard: true, Fulfilled: value == 0, Value: value}
}

// violationAmount returns how far the dependent starts before its
// required item ends, or 0 when the relation holds or does not apply.
func violationAmount(dependent, required *core.ScheduledItem) int {
	if !dependent.Item.Requires(required.Item.ID) {
		return 0
	}
	if gap := required.MaxEnd() - dependent.Start; gap > 0 {
		return gap
	}
	return 0
}

// NeedsChecking reports whether either item requires the other.
func (c *Dependencies) NeedsChecking(a, b *core.Item) bool {
	if c.requiredBy != nil {
		_, ab := c.requiredBy[a.ID][b.ID]
		_, ba := c.requiredBy[b.ID][a.ID]
		return ab || ba
	}
	return a.Requires(b.ID) || b.Requires(a.ID)
}

// PredictDecision classifies relative placements of moved against
// fixed. Starting together always violates whichever direction of the
// requirement applies, since durations are positive.
func (c *Dependencies) PredictDecision(moved, fixed *core.Item) core.Prediction {
	movedNeedsFixed := moved.Requires(fixed.ID)
	fixedNeedsMoved := fixed.Requires(moved.ID)
	if !movedNeedsFixed && !fixedNeedsMoved {
		return core.Prediction{Before: core.NoConflict, Together: core.NoConflict, After: core.NoConflict}
	}
	p := core.Prediction{Together: core.Conflict, ConflictValue: 1}
	if movedNeedsFixed {
		// moved must start at or after fixed's end.
		p.Before = core.Conflict
		p.After = core.NoConflict
	}
	if fixedNeedsMoved {
		// fixed must start at or after moved's end.
		p.After = core.Conflict
		if !movedNeedsFixed {
			p.Before = core.NoConflict
		}
	}
	return p
}
