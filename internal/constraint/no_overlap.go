package constraint

import "github.com/elektrokombinacija/repairsched/internal/core"

// NoOverlap is the hard disjunctive constraint: two items must not
// occupy the same lane at the same time. Each item holds a lane for
// the half-open interval [start, start+duration).
type NoOverlap struct{}

// NewNoOverlap creates the no-overlap constraint.
func NewNoOverlap() *NoOverlap { return &NoOverlap{} }

// Check counts the lanes on which the two items overlap.
func (c *NoOverlap) Check(a, b *core.ScheduledItem) core.Decision {
	overlaps := 0
	for _, l := range a.Item.Lanes() {
		if _, ok := b.Item.Duration(l); !ok {
			continue
		}
		if a.Start < b.End(l) && b.Start < a.End(l) {
			overlaps++
		}
	}
	return core.Decision{Hard: true, Fulfilled: overlaps == 0, Value: overlaps}
}

// NeedsChecking reports whether the items share a lane.
func (c *NoOverlap) NeedsChecking(a, b *core.Item) bool {
	return sharedLanes(a, b) > 0
}

// PredictDecision classifies relative placements. Items starting
// exactly together always overlap on every shared lane, since
// durations are positive; strictly-before and strictly-after
// placements never overlap.
func (c *NoOverlap) PredictDecision(moved, fixed *core.Item) core.Prediction {
	shared := sharedLanes(moved, fixed)
	if shared == 0 {
		return core.Prediction{Before: core.NoConflict, Together: core.NoConflict, After: core.NoConflict}
	}
	return core.Prediction{
		Before:        core.NoConflict,
		Together:      core.Conflict,
		After:         core.NoConflict,
		ConflictValue: shared,
	}
}

func sharedLanes(a, b *core.Item) int {
	shared := 0
	for _, l := range a.Lanes() {
		if _, ok := b.Duration(l); ok {
			shared++
		}
	}
	return shared
}
