package violations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/repairsched/internal/constraint"
	"github.com/elektrokombinacija/repairsched/internal/core"
	"github.com/elektrokombinacija/repairsched/internal/plan"
)

func item(t *testing.T, id core.ItemID, durations map[core.LaneID]int, required ...core.ItemID) *core.Item {
	t.Helper()
	it, err := core.NewItem(id, durations, required...)
	require.NoError(t, err)
	return it
}

func defaultManager(usePrediction bool) *Manager {
	singles, pairs := constraint.Defaults()
	return NewManager(singles, pairs, usePrediction)
}

func TestInitializeBuildsSharedContainers(t *testing.T) {
	p := plan.New()
	a := item(t, 1, map[core.LaneID]int{0: 100})
	b := item(t, 2, map[core.LaneID]int{0: 100})
	c := item(t, 3, map[core.LaneID]int{5: 10})
	for _, it := range []*core.Item{a, b, c} {
		_, err := p.Add(it, 0)
		require.NoError(t, err)
	}

	m := defaultManager(false)
	m.Initialize(p)

	pa := m.Partners(1)
	pb := m.Partners(2)
	require.Len(t, pa, 1, "items 1 and 2 share a lane")
	require.Len(t, pb, 1)
	assert.Empty(t, m.Partners(3), "item 3 interacts with nobody")

	// Both endpoints must reference the same container object.
	assert.Same(t, pa[0].Container, pb[0].Container)
	// Full overlap on one lane.
	assert.Equal(t, 1, pa[0].Container.Hard)
}

func TestBiggestViolatorOrderingAndBound(t *testing.T) {
	p := plan.New()
	a := item(t, 1, map[core.LaneID]int{0: 100})
	b := item(t, 2, map[core.LaneID]int{0: 100})
	c := item(t, 3, map[core.LaneID]int{1: 100})
	_, err := p.Add(a, 0)
	require.NoError(t, err)
	_, err = p.Add(b, 0)
	require.NoError(t, err)
	_, err = p.Add(c, 50)
	require.NoError(t, err)

	m := defaultManager(false)
	m.Initialize(p)

	// Items 1 and 2 carry the shared hard overlap; 3 only soft.
	top := m.BiggestViolator(nil)
	require.NotNil(t, top)
	assert.Equal(t, 1, top.Hard)
	assert.Equal(t, core.ItemID(2), top.ID(), "equal loads break ties toward the larger id")

	next := m.BiggestViolator(top)
	require.NotNil(t, next)
	assert.Equal(t, core.ItemID(1), next.ID())

	next = m.BiggestViolator(next)
	require.NotNil(t, next)
	assert.Equal(t, core.ItemID(3), next.ID())
	assert.Equal(t, 0, next.Hard)
	assert.Equal(t, 50, next.Soft)

	assert.Nil(t, m.BiggestViolator(next))
}

func TestFixedItemsAreNotViolators(t *testing.T) {
	p := plan.New()
	a := item(t, 1, map[core.LaneID]int{0: 100})
	b := item(t, 2, map[core.LaneID]int{0: 100})
	sa, err := p.Add(a, 0)
	require.NoError(t, err)
	_, err = p.Add(b, 0)
	require.NoError(t, err)
	require.NoError(t, p.Fixate(sa))

	m := defaultManager(false)
	m.Initialize(p)

	top := m.BiggestViolator(nil)
	require.NotNil(t, top)
	assert.Equal(t, core.ItemID(2), top.ID())
	assert.Nil(t, m.BiggestViolator(top), "fixed item must not appear as violator")
	// The fixed item still participates in the pair graph.
	assert.Len(t, m.Partners(1), 1)
}

func TestTryViolatorUpdateImprovesAndCommits(t *testing.T) {
	p := plan.New()
	a := item(t, 1, map[core.LaneID]int{0: 100})
	b := item(t, 2, map[core.LaneID]int{0: 100})
	_, err := p.Add(a, 0)
	require.NoError(t, err)
	sb, err := p.Add(b, 0)
	require.NoError(t, err)

	m := defaultManager(false)
	m.Initialize(p)

	// Moving b clear of a removes the hard overlap: improving.
	upd, ok := m.TryViolatorUpdate(sb.WithStart(100), p)
	require.True(t, ok)
	assert.Equal(t, 0, upd.Violator.Hard)
	assert.Equal(t, 100, upd.Violator.Soft)

	_, err = p.Move(b, 100)
	require.NoError(t, err)
	m.UpdateViolator(upd)

	// The partner's aggregate follows the shared container.
	top := m.BiggestViolator(nil)
	require.NotNil(t, top)
	assert.Equal(t, 0, top.Hard)
	assert.Equal(t, core.ItemID(2), top.ID())
	one := m.byItem[1]
	require.NotNil(t, one)
	assert.Equal(t, 0, one.Hard)
}

func TestTryViolatorUpdateRejectsNonImproving(t *testing.T) {
	p := plan.New()
	a := item(t, 1, map[core.LaneID]int{0: 100})
	b := item(t, 2, map[core.LaneID]int{0: 100})
	_, err := p.Add(a, 0)
	require.NoError(t, err)
	sb, err := p.Add(b, 100)
	require.NoError(t, err)

	m := defaultManager(false)
	m.Initialize(p)

	// b currently has (0 hard, 100 soft). Equal soft is not strictly
	// better; overlapping is strictly worse.
	_, ok := m.TryViolatorUpdate(sb.WithStart(100), p)
	assert.False(t, ok)
	_, ok = m.TryViolatorUpdate(sb.WithStart(50), p)
	assert.False(t, ok)
	// Moving later only raises soft.
	_, ok = m.TryViolatorUpdate(sb.WithStart(200), p)
	assert.False(t, ok)
}

func TestPredictionPrunesImpossibleMoves(t *testing.T) {
	p := plan.New()
	a := item(t, 1, map[core.LaneID]int{0: 100})
	b := item(t, 2, map[core.LaneID]int{0: 100})
	_, err := p.Add(a, 0)
	require.NoError(t, err)
	sb, err := p.Add(b, 100)
	require.NoError(t, err)

	m := defaultManager(true)
	m.Initialize(p)

	// Starting together with a is a certain conflict; the predictor
	// must reject before any pair evaluation.
	_, ok := m.TryViolatorUpdate(sb.WithStart(0), p)
	assert.False(t, ok)
}

func TestCheckViolationsForPlanDoubleCountsPairs(t *testing.T) {
	p := plan.New()
	a := item(t, 1, map[core.LaneID]int{0: 100})
	b := item(t, 2, map[core.LaneID]int{0: 100})
	_, err := p.Add(a, 0)
	require.NoError(t, err)
	_, err = p.Add(b, 0)
	require.NoError(t, err)

	m := defaultManager(false)
	m.Initialize(p)

	hard, soft := m.CheckViolationsForPlan(p)
	// One overlapping lane counted once per direction.
	assert.Equal(t, 2, hard)
	assert.Equal(t, 0, soft)
}

func TestCheckItemAtSkipsAbsentPartners(t *testing.T) {
	p := plan.New()
	a := item(t, 1, map[core.LaneID]int{0: 100})
	b := item(t, 2, map[core.LaneID]int{0: 100})
	_, err := p.Add(a, 0)
	require.NoError(t, err)
	sb, err := p.Add(b, 0)
	require.NoError(t, err)

	m := defaultManager(false)
	m.Initialize(p)

	require.NoError(t, p.Unschedule(sb))
	hard, soft := m.CheckItemAt(core.NewScheduledItem(a, 0), p)
	assert.Equal(t, 0, hard)
	assert.Equal(t, 0, soft)
}

func TestHardViolatedPartners(t *testing.T) {
	p := plan.New()
	a := item(t, 1, map[core.LaneID]int{0: 100})
	b := item(t, 2, map[core.LaneID]int{0: 100})
	c := item(t, 3, map[core.LaneID]int{0: 100})
	sa, err := p.Add(a, 0)
	require.NoError(t, err)
	_, err = p.Add(b, 50)
	require.NoError(t, err)
	_, err = p.Add(c, 200)
	require.NoError(t, err)

	m := defaultManager(false)
	m.Initialize(p)

	violated := m.HardViolatedPartners(sa, p)
	require.Len(t, violated, 1)
	assert.Equal(t, core.ItemID(2), violated[0].Item.ID)
}

func TestPlanHasBeenUpdatedRebuilds(t *testing.T) {
	p := plan.New()
	a := item(t, 1, map[core.LaneID]int{0: 100})
	b := item(t, 2, map[core.LaneID]int{0: 100})
	_, err := p.Add(a, 0)
	require.NoError(t, err)
	_, err = p.Add(b, 0)
	require.NoError(t, err)

	m := defaultManager(false)
	m.Initialize(p)
	require.Equal(t, 1, m.BiggestViolator(nil).Hard)

	replacement := plan.New()
	_, err = replacement.Add(a, 0)
	require.NoError(t, err)
	_, err = replacement.Add(b, 100)
	require.NoError(t, err)

	m.PlanHasBeenUpdated(replacement)
	top := m.BiggestViolator(nil)
	require.NotNil(t, top)
	assert.Equal(t, 0, top.Hard)
	assert.Equal(t, 100, top.Soft)
}
