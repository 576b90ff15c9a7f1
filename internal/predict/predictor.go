package predict

import (
	"github.com/elektrokombinacija/repairsched/internal/core"
	"github.com/elektrokombinacija/repairsched/internal/plan"
)

// Partner is one endpoint of a pair-interaction edge as seen from the
// moved item: the partner item and the constraints on the edge.
type Partner struct {
	Item        *core.Item
	Constraints []core.ItemPairConstraint
}

type pairKey struct {
	moved core.ItemID
	fixed core.ItemID
}

// aggState caches the aggregated function for one item: the sum of
// its partners' shifted functions, the per-partner contributions that
// sum was built from, and the partners that moved since.
type aggState struct {
	agg     *Blocks
	contrib map[core.ItemID]*Blocks
	dirty   map[core.ItemID]struct{}
}

// Predictor lower-bounds the hard conflict value an item would incur
// from its partners at any candidate start. Per-pair functions over
// the relative start offset are merged across the pair's constraints,
// shifted to each partner's current absolute start, and summed per
// item. The bound is admissible: it never exceeds the value the pair
// constraints would actually report.
type Predictor struct {
	store    *Store
	plan     *plan.Plan
	partners map[core.ItemID][]Partner
	pairFns  map[pairKey]*Blocks
	states   map[core.ItemID]*aggState
}

// New creates an empty predictor.
func New() *Predictor {
	return &Predictor{store: NewStore()}
}

// Reset binds the predictor to a plan and its pair-interaction graph,
// discarding all cached functions.
func (p *Predictor) Reset(pl *plan.Plan, partners map[core.ItemID][]Partner) {
	p.plan = pl
	p.partners = partners
	p.pairFns = make(map[pairKey]*Blocks)
	p.states = make(map[core.ItemID]*aggState)
}

// ItemMoved records that an item was rescheduled (or lane-switched):
// every partner marks it dirty, and cached functions involving it are
// dropped since its durations may have changed.
func (p *Predictor) ItemMoved(item *core.Item) {
	if p.partners == nil {
		return
	}
	for _, pt := range p.partners[item.ID] {
		if st := p.states[pt.Item.ID]; st != nil {
			st.dirty[item.ID] = struct{}{}
		}
	}
	for key := range p.pairFns {
		if key.moved == item.ID || key.fixed == item.ID {
			delete(p.pairFns, key)
		}
	}
	delete(p.states, item.ID)
}

// DefinedConflictValue returns the certain part of the conflict lower
// bound for the item placed at the given absolute start.
func (p *Predictor) DefinedConflictValue(item *core.Item, start int) int {
	c, _ := p.ValueAt(item, start)
	return c
}

// ValueAt returns the (conflict, unknown) lower bounds for the item
// placed at the given absolute start. The unknown bound is retained
// for forward compatibility and not consulted by trial updates.
func (p *Predictor) ValueAt(item *core.Item, start int) (int, int) {
	st := p.ensure(item)
	if st == nil {
		return 0, 0
	}
	return st.agg.ValueAt(start)
}

// ensure returns an up-to-date aggregate state for the item,
// refreshing dirty partners incrementally when fewer than half the
// partners moved, and rebuilding from scratch otherwise.
func (p *Predictor) ensure(item *core.Item) *aggState {
	if p.plan == nil {
		return nil
	}
	partners := p.partners[item.ID]
	if len(partners) == 0 {
		return nil
	}
	st := p.states[item.ID]
	if st == nil {
		st = p.build(item, partners)
		p.states[item.ID] = st
		return st
	}
	if len(st.dirty) == 0 {
		return st
	}
	if len(st.dirty)*2 >= len(partners) {
		st = p.build(item, partners)
		p.states[item.ID] = st
		return st
	}
	// Incremental: back out the dirty partners' previous
	// contributions and re-add them at their new absolute starts.
	fns := []*Blocks{st.agg}
	for id := range st.dirty {
		if old := st.contrib[id]; old != nil {
			fns = append(fns, old.negate(p.store))
		}
		delete(st.contrib, id)
		fresh := p.contribution(item, p.partnerByID(item, id))
		if fresh != nil {
			st.contrib[id] = fresh
			fns = append(fns, fresh)
		}
	}
	st.agg = addBlocks(fns, p.store)
	st.dirty = make(map[core.ItemID]struct{})
	return st
}

func (p *Predictor) partnerByID(item *core.Item, id core.ItemID) *Partner {
	for i := range p.partners[item.ID] {
		if p.partners[item.ID][i].Item.ID == id {
			return &p.partners[item.ID][i]
		}
	}
	return nil
}

// build assembles the aggregate from scratch.
func (p *Predictor) build(item *core.Item, partners []Partner) *aggState {
	st := &aggState{
		contrib: make(map[core.ItemID]*Blocks, len(partners)),
		dirty:   make(map[core.ItemID]struct{}),
	}
	fns := make([]*Blocks, 0, len(partners))
	for i := range partners {
		if fn := p.contribution(item, &partners[i]); fn != nil {
			st.contrib[partners[i].Item.ID] = fn
			fns = append(fns, fn)
		}
	}
	if len(fns) == 0 {
		st.agg = zeroBlocks(p.store)
		return st
	}
	st.agg = addBlocks(fns, p.store)
	return st
}

// contribution returns the partner's function shifted to its current
// absolute start, or nil when the partner is not scheduled.
func (p *Predictor) contribution(item *core.Item, pt *Partner) *Blocks {
	if pt == nil {
		return nil
	}
	fixed := p.plan.Get(pt.Item.ID)
	if fixed == nil {
		return nil
	}
	rel := p.pairFn(item, fixed.Item, pt.Constraints)
	return rel.shift(fixed.Start, p.store)
}

// pairFn returns the merged relative function for (moved, fixed),
// caching it per ordered pair.
func (p *Predictor) pairFn(moved, fixed *core.Item, constraints []core.ItemPairConstraint) *Blocks {
	key := pairKey{moved: moved.ID, fixed: fixed.ID}
	if fn, ok := p.pairFns[key]; ok {
		return fn
	}
	fns := make([]*Blocks, 0, len(constraints))
	for _, c := range constraints {
		pred := c.PredictDecision(moved, fixed)
		fns = append(fns, blocksForPrediction(pred, moved.MaxDuration(), fixed.MaxDuration(), p.store))
	}
	fn := mergeMax(fns, p.store)
	p.pairFns[key] = fn
	return fn
}
