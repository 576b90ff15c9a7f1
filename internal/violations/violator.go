// Package violations maintains the incremental bookkeeping of
// per-item and per-pair constraint violations: the pair-interaction
// graph with shared violation containers, and the ordered violator
// set the solver repairs from the top of.
package violations

import "github.com/elektrokombinacija/repairsched/internal/core"

// Container holds the current hard and soft violation values of one
// pair-interaction edge. The same container is referenced from both
// endpoints, so one update reflects in both violators.
type Container struct {
	Hard int
	Soft int
}

// Partner is one endpoint's view of a pair-interaction edge: the
// other item, the shared container, and the constraints that need
// checking for this pair.
type Partner struct {
	Item        *core.Item
	Container   *Container
	Constraints []core.ItemPairConstraint
}

// Violator is a scheduled item annotated with its current aggregate
// hard and soft violation load: its single-constraint values plus the
// values of all its partner containers.
type Violator struct {
	Scheduled *core.ScheduledItem
	Hard      int
	Soft      int
}

// ID returns the violator's item id.
func (v *Violator) ID() core.ItemID { return v.Scheduled.Item.ID }

// violatorLess orders violators by (hard asc, soft asc, duration sum
// desc, id asc). The biggest violator under this order is repaired
// first.
func violatorLess(a, b *Violator) bool {
	if a.Hard != b.Hard {
		return a.Hard < b.Hard
	}
	if a.Soft != b.Soft {
		return a.Soft < b.Soft
	}
	da, db := a.Scheduled.Item.DurationSum(), b.Scheduled.Item.DurationSum()
	if da != db {
		return da > db
	}
	return a.ID() < b.ID()
}

// PartnerUpdate carries the recomputed pair values for one partner
// edge of a trial update.
type PartnerUpdate struct {
	Partner *Partner
	Hard    int
	Soft    int
}

// ViolatorUpdate is a successful trial update: the violator at its
// candidate placement and the per-partner container updates to apply
// on commit.
type ViolatorUpdate struct {
	Violator *Violator
	Partners []PartnerUpdate
}
