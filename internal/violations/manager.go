package violations

import (
	"github.com/google/btree"

	"github.com/elektrokombinacija/repairsched/internal/core"
	"github.com/elektrokombinacija/repairsched/internal/plan"
	"github.com/elektrokombinacija/repairsched/internal/predict"
)

// Manager owns the pair-interaction graph and the ordered violator
// set for one plan. All methods run on the solver's goroutine.
type Manager struct {
	singles []core.SingleItemConstraint
	pairs   []core.ItemPairConstraint

	partners map[core.ItemID][]*Partner
	tree     *btree.BTreeG[*Violator]
	byItem   map[core.ItemID]*Violator

	predictor     *predict.Predictor
	usePrediction bool
}

// NewManager creates a manager for the given constraint sets.
func NewManager(singles []core.SingleItemConstraint, pairs []core.ItemPairConstraint, usePrediction bool) *Manager {
	return &Manager{
		singles:       singles,
		pairs:         pairs,
		predictor:     predict.New(),
		usePrediction: usePrediction,
	}
}

// Initialize builds the pair-interaction graph for the plan's items,
// computes the container values, and fills the violator tree with
// every non-fixed scheduled item.
func (m *Manager) Initialize(p *plan.Plan) {
	items := p.Items()

	m.partners = make(map[core.ItemID][]*Partner, len(items))
	for _, s := range items {
		m.partners[s.Item.ID] = nil
	}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			a, b := items[i], items[j]
			var relevant []core.ItemPairConstraint
			for _, c := range m.pairs {
				if c.NeedsChecking(a.Item, b.Item) {
					relevant = append(relevant, c)
				}
			}
			if len(relevant) == 0 {
				continue
			}
			container := &Container{}
			for _, c := range relevant {
				d := c.Check(a, b)
				if d.Fulfilled {
					continue
				}
				if d.Hard {
					container.Hard += d.Value
				} else {
					container.Soft += d.Value
				}
			}
			m.partners[a.Item.ID] = append(m.partners[a.Item.ID], &Partner{Item: b.Item, Container: container, Constraints: relevant})
			m.partners[b.Item.ID] = append(m.partners[b.Item.ID], &Partner{Item: a.Item, Container: container, Constraints: relevant})
		}
	}

	m.tree = btree.NewG(16, violatorLess)
	m.byItem = make(map[core.ItemID]*Violator, len(items))
	for _, s := range items {
		if !p.CanBeMoved(s) {
			continue
		}
		hard, soft := m.singleValues(s)
		for _, pt := range m.partners[s.Item.ID] {
			hard += pt.Container.Hard
			soft += pt.Container.Soft
		}
		v := &Violator{Scheduled: s, Hard: hard, Soft: soft}
		m.tree.ReplaceOrInsert(v)
		m.byItem[s.Item.ID] = v
	}

	m.predictor.Reset(p, m.predictPartners())
}

func (m *Manager) predictPartners() map[core.ItemID][]predict.Partner {
	out := make(map[core.ItemID][]predict.Partner, len(m.partners))
	for id, pts := range m.partners {
		converted := make([]predict.Partner, len(pts))
		for i, pt := range pts {
			converted[i] = predict.Partner{Item: pt.Item, Constraints: pt.Constraints}
		}
		out[id] = converted
	}
	return out
}

func (m *Manager) singleValues(s *core.ScheduledItem) (int, int) {
	hard, soft := 0, 0
	for _, c := range m.singles {
		d := c.Check(s)
		if d.Fulfilled {
			continue
		}
		if d.Hard {
			hard += d.Value
		} else {
			soft += d.Value
		}
	}
	return hard, soft
}

// stillImprovable reports whether an accumulating (hard, soft) pair
// can still end up strictly below the reference in the lexicographic
// order. Values only grow during accumulation, so a failure here is
// final.
func stillImprovable(hard, soft, refHard, refSoft int) bool {
	if hard < refHard {
		return true
	}
	return hard == refHard && soft < refSoft
}

// TryViolatorUpdate evaluates the item at its candidate placement
// against the partners' current positions in the plan. It fails fast
// as soon as the accumulated values cannot beat the item's current
// violator. The returned update is only valid until the plan changes.
func (m *Manager) TryViolatorUpdate(moved *core.ScheduledItem, p *plan.Plan) (*ViolatorUpdate, bool) {
	ref := m.byItem[moved.Item.ID]
	if ref == nil {
		return nil, false
	}

	hard, soft := m.singleValues(moved)
	if !stillImprovable(hard, soft, ref.Hard, ref.Soft) {
		return nil, false
	}

	if m.usePrediction && !moved.Item.IsLaneSwitcher() {
		predicted := m.predictor.DefinedConflictValue(moved.Item, moved.Start)
		if !stillImprovable(hard+predicted, soft, ref.Hard, ref.Soft) {
			return nil, false
		}
	}

	partners := m.partners[moved.Item.ID]
	updates := make([]PartnerUpdate, 0, len(partners))
	for _, pt := range partners {
		ps := p.Get(pt.Item.ID)
		if ps == nil {
			continue
		}
		ph, psoft := 0, 0
		for _, c := range pt.Constraints {
			d := c.Check(moved, ps)
			if d.Fulfilled {
				continue
			}
			if d.Hard {
				ph += d.Value
			} else {
				psoft += d.Value
			}
		}
		hard += ph
		soft += psoft
		updates = append(updates, PartnerUpdate{Partner: pt, Hard: ph, Soft: psoft})
		if !stillImprovable(hard, soft, ref.Hard, ref.Soft) {
			return nil, false
		}
	}

	return &ViolatorUpdate{
		Violator: &Violator{Scheduled: moved, Hard: hard, Soft: soft},
		Partners: updates,
	}, true
}

// UpdateViolator commits a trial update: container values are applied,
// affected partner violators are re-keyed in the tree, the item's own
// violator is replaced, and the predictor learns about the move.
func (m *Manager) UpdateViolator(u *ViolatorUpdate) {
	id := u.Violator.ID()
	for _, pu := range u.Partners {
		container := pu.Partner.Container
		dHard := pu.Hard - container.Hard
		dSoft := pu.Soft - container.Soft
		container.Hard = pu.Hard
		container.Soft = pu.Soft
		if dHard == 0 && dSoft == 0 {
			continue
		}
		if pv := m.byItem[pu.Partner.Item.ID]; pv != nil {
			m.tree.Delete(pv)
			next := &Violator{Scheduled: pv.Scheduled, Hard: pv.Hard + dHard, Soft: pv.Soft + dSoft}
			m.tree.ReplaceOrInsert(next)
			m.byItem[pu.Partner.Item.ID] = next
		}
	}
	if old := m.byItem[id]; old != nil {
		m.tree.Delete(old)
	}
	m.tree.ReplaceOrInsert(u.Violator)
	m.byItem[id] = u.Violator
	m.predictor.ItemMoved(u.Violator.Scheduled.Item)
}

// BiggestViolator returns the largest violator strictly below the
// bound, or the absolute largest when bound is nil. Returns nil when
// no such violator exists.
func (m *Manager) BiggestViolator(bound *Violator) *Violator {
	if m.tree == nil || m.tree.Len() == 0 {
		return nil
	}
	if bound == nil {
		v, _ := m.tree.Max()
		return v
	}
	var found *Violator
	m.tree.DescendLessOrEqual(bound, func(v *Violator) bool {
		if violatorLess(v, bound) {
			found = v
			return false
		}
		return true
	})
	return found
}

// CheckViolationsForPlan sums all single violations and all pair
// violations over every partner edge of the plan. Pair values are
// counted once per direction; the measure is only used to compare
// candidate plans against each other.
func (m *Manager) CheckViolationsForPlan(p *plan.Plan) (int, int) {
	hard, soft := 0, 0
	for _, s := range p.Items() {
		sh, ss := m.CheckItemAt(s, p)
		hard += sh
		soft += ss
	}
	return hard, soft
}

// CheckItemAt sums the single and pair-partner violations for the
// item placed as given, skipping partners absent from the plan.
func (m *Manager) CheckItemAt(s *core.ScheduledItem, p *plan.Plan) (int, int) {
	hard, soft := m.singleValues(s)
	for _, pt := range m.partners[s.Item.ID] {
		ps := p.Get(pt.Item.ID)
		if ps == nil || ps.Item.ID == s.Item.ID {
			continue
		}
		for _, c := range pt.Constraints {
			d := c.Check(s, ps)
			if d.Fulfilled {
				continue
			}
			if d.Hard {
				hard += d.Value
			} else {
				soft += d.Value
			}
		}
	}
	return hard, soft
}

// HardViolatedPartners returns the partner scheduled items whose pair
// decision with the given item is an unfulfilled hard violation.
func (m *Manager) HardViolatedPartners(s *core.ScheduledItem, p *plan.Plan) []*core.ScheduledItem {
	var out []*core.ScheduledItem
	for _, pt := range m.partners[s.Item.ID] {
		ps := p.Get(pt.Item.ID)
		if ps == nil || ps.Item.ID == s.Item.ID {
			continue
		}
		for _, c := range pt.Constraints {
			d := c.Check(s, ps)
			if d.Hard && !d.Fulfilled {
				out = append(out, ps)
				break
			}
		}
	}
	return out
}

// PlanHasBeenUpdated discards all bookkeeping and rebuilds it from
// the replacement plan.
func (m *Manager) PlanHasBeenUpdated(p *plan.Plan) {
	m.Initialize(p)
}

// Partners exposes the partner edges of one item.
func (m *Manager) Partners(id core.ItemID) []*Partner {
	return m.partners[id]
}
