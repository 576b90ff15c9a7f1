// Package plan implements the mutable schedule assignment: item
// placements, the fixed set, dependent-item lookups, and the ordered
// multiset of interesting time points the solver relocates items to.
package plan

import (
	"sort"

	"github.com/elektrokombinacija/repairsched/internal/core"
)

// Plan holds the current assignment of start times to items. At most
// one scheduled item exists per item id. The makespan is derived from
// the start-value multiset, never tracked separately.
type Plan struct {
	scheduled  map[core.ItemID]*core.ScheduledItem
	fixed      map[core.ItemID]struct{}
	dependents map[core.ItemID][]*core.Item
	starts     *timeMultiset
}

// New creates an empty plan.
func New() *Plan {
	return &Plan{
		scheduled:  make(map[core.ItemID]*core.ScheduledItem),
		fixed:      make(map[core.ItemID]struct{}),
		dependents: make(map[core.ItemID][]*core.Item),
		starts:     newTimeMultiset(),
	}
}

// Add schedules an item at the given start. It fails if the item id is
// already present.
func (p *Plan) Add(item *core.Item, start int) (*core.ScheduledItem, error) {
	s := core.NewScheduledItem(item, start)
	if err := p.Schedule(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Schedule inserts a pre-built scheduled item. It fails on duplicates.
func (p *Plan) Schedule(s *core.ScheduledItem) error {
	id := s.Item.ID
	if _, ok := p.scheduled[id]; ok {
		return ErrDuplicateItem
	}
	p.scheduled[id] = s
	for _, req := range s.Item.Required() {
		p.dependents[req] = append(p.dependents[req], s.Item)
	}
	p.addTimes(s)
	return nil
}

// Fixate marks an already scheduled item as immovable.
func (p *Plan) Fixate(s *core.ScheduledItem) error {
	if _, ok := p.scheduled[s.Item.ID]; !ok {
		return ErrNotScheduled
	}
	p.fixed[s.Item.ID] = struct{}{}
	return nil
}

// CanBeMoved reports whether the scheduled item is not fixed.
func (p *Plan) CanBeMoved(s *core.ScheduledItem) bool {
	_, fixed := p.fixed[s.Item.ID]
	return !fixed
}

// IsFixed reports whether the item id is in the fixed set.
func (p *Plan) IsFixed(id core.ItemID) bool {
	_, ok := p.fixed[id]
	return ok
}

// Move reschedules an item to a new start. It fails if the item is
// absent or fixed.
func (p *Plan) Move(item *core.Item, newStart int) (*core.ScheduledItem, error) {
	old, ok := p.scheduled[item.ID]
	if !ok {
		return nil, ErrNotScheduled
	}
	if p.IsFixed(item.ID) {
		return nil, ErrFixedItem
	}
	p.removeTimes(old)
	moved := old.WithStart(newStart)
	p.scheduled[item.ID] = moved
	p.addTimes(moved)
	return moved, nil
}

// Exchange atomically replaces a scheduled item with a new scheduled
// item of the same id, typically after a lane switch or a relocation.
func (p *Plan) Exchange(old, new *core.ScheduledItem) error {
	if !old.Same(new) {
		return ErrNotScheduled
	}
	cur, ok := p.scheduled[old.Item.ID]
	if !ok {
		return ErrNotScheduled
	}
	if p.IsFixed(old.Item.ID) {
		return ErrFixedItem
	}
	p.removeTimes(cur)
	p.scheduled[new.Item.ID] = new
	p.addTimes(new)
	return nil
}

// ShiftAll moves every non-fixed item by delta. Resulting starts are
// not checked for negativity; callers shifting left must ensure room
// exists.
func (p *Plan) ShiftAll(delta int) {
	for id, s := range p.scheduled {
		if p.IsFixed(id) {
			continue
		}
		p.removeTimes(s)
		shifted := s.WithStart(s.Start + delta)
		p.scheduled[id] = shifted
		p.addTimes(shifted)
	}
}

// Unschedule removes an item from the plan. Fixed items cannot be
// unscheduled.
func (p *Plan) Unschedule(s *core.ScheduledItem) error {
	id := s.Item.ID
	cur, ok := p.scheduled[id]
	if !ok {
		return ErrNotScheduled
	}
	if p.IsFixed(id) {
		return ErrFixedItem
	}
	delete(p.scheduled, id)
	for _, req := range cur.Item.Required() {
		p.dependents[req] = removeItem(p.dependents[req], id)
		if len(p.dependents[req]) == 0 {
			delete(p.dependents, req)
		}
	}
	p.removeTimes(cur)
	return nil
}

func removeItem(items []*core.Item, id core.ItemID) []*core.Item {
	for i, it := range items {
		if it.ID == id {
			return append(items[:i:i], items[i+1:]...)
		}
	}
	return items
}

// Get returns the scheduled item for the given id, or nil.
func (p *Plan) Get(id core.ItemID) *core.ScheduledItem {
	return p.scheduled[id]
}

// Len returns the number of scheduled items.
func (p *Plan) Len() int { return len(p.scheduled) }

// Items returns all scheduled items ordered by (start, id).
func (p *Plan) Items() []*core.ScheduledItem {
	out := make([]*core.ScheduledItem, 0, len(p.scheduled))
	for _, s := range p.scheduled {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

// FixedItems returns the scheduled items marked as fixed, ordered by
// (start, id).
func (p *Plan) FixedItems() []*core.ScheduledItem {
	out := make([]*core.ScheduledItem, 0, len(p.fixed))
	for id := range p.fixed {
		if s, ok := p.scheduled[id]; ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

// Dependents returns the currently scheduled items that declared the
// given item as required, ordered by (start, id).
func (p *Plan) Dependents(item *core.Item) []*core.ScheduledItem {
	deps := p.dependents[item.ID]
	out := make([]*core.ScheduledItem, 0, len(deps))
	for _, d := range deps {
		if s, ok := p.scheduled[d.ID]; ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

// Makespan returns the largest time point in the start-value multiset,
// or 0 for an empty plan.
func (p *Plan) Makespan() int { return p.starts.max() }

// StartCandidates returns {0} together with every distinct start and
// lane end in the plan, in ascending order. These are the start times
// the solver tries when relocating an item.
func (p *Plan) StartCandidates() []int {
	keys := p.starts.keys()
	if len(keys) == 0 || keys[0] > 0 {
		withZero := make([]int, 0, len(keys)+1)
		withZero = append(withZero, 0)
		return append(withZero, keys...)
	}
	if keys[0] == 0 {
		return keys
	}
	// Negative time points exist; insert 0 at its sorted position.
	i := sort.SearchInts(keys, 0)
	if i < len(keys) && keys[i] == 0 {
		return keys
	}
	out := make([]int, 0, len(keys)+1)
	out = append(out, keys[:i]...)
	out = append(out, 0)
	return append(out, keys[i:]...)
}

// TimeCount returns how many scheduled starts and lane ends reference
// the given time point.
func (p *Plan) TimeCount(t int) int { return p.starts.count(t) }

// Clone returns a deep copy of the plan. The fixed set is preserved.
func (p *Plan) Clone() *Plan {
	c := &Plan{
		scheduled:  make(map[core.ItemID]*core.ScheduledItem, len(p.scheduled)),
		fixed:      make(map[core.ItemID]struct{}, len(p.fixed)),
		dependents: make(map[core.ItemID][]*core.Item, len(p.dependents)),
		starts:     p.starts.clone(),
	}
	for id, s := range p.scheduled {
		c.scheduled[id] = s
	}
	for id := range p.fixed {
		c.fixed[id] = struct{}{}
	}
	for id, deps := range p.dependents {
		c.dependents[id] = append([]*core.Item(nil), deps...)
	}
	return c
}

func (p *Plan) addTimes(s *core.ScheduledItem) {
	p.starts.add(s.Start)
	for _, l := range s.Item.Lanes() {
		p.starts.add(s.End(l))
	}
}

func (p *Plan) removeTimes(s *core.ScheduledItem) {
	p.starts.remove(s.Start)
	for _, l := range s.Item.Lanes() {
		p.starts.remove(s.End(l))
	}
}
