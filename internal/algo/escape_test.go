package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/repairsched/internal/constraint"
	"github.com/elektrokombinacija/repairsched/internal/core"
	"github.com/elektrokombinacija/repairsched/internal/plan"
	"github.com/elektrokombinacija/repairsched/internal/violations"
)

func TestRescheduleDependencyConeOrdersChain(t *testing.T) {
	// Reversed chain: 1 requires 2 requires 3, all on one lane,
	// greedily stacked in declaration order.
	items := []*core.Item{
		item(t, 1, map[core.LaneID]int{0: 100}, 2),
		item(t, 2, map[core.LaneID]int{0: 100}, 3),
		item(t, 3, map[core.LaneID]int{0: 100}),
	}
	p := plan.New()
	for i, it := range items {
		_, err := p.Add(it, i*100)
		require.NoError(t, err)
	}

	singles, pairs := constraint.Defaults()
	m := violations.NewManager(singles, pairs, false)
	m.Initialize(p)

	s := New()
	// The cone is traversed from the chain's root item 3: both
	// dependents follow transitively.
	seed := m.BiggestViolator(nil)
	var v3 *violations.Violator
	for v := seed; v != nil; v = m.BiggestViolator(v) {
		if v.ID() == 3 {
			v3 = v
		}
	}
	require.NotNil(t, v3)

	cand, err := s.rescheduleDependencyCone(p, m, v3)
	require.NoError(t, err)

	requireHardFeasible(t, cand)
	assert.Equal(t, 0, cand.Get(3).Start)
	assert.Equal(t, 100, cand.Get(2).Start)
	assert.Equal(t, 200, cand.Get(1).Start)
	// The original plan is untouched.
	assert.Equal(t, 0, p.Get(1).Start)
}

func TestShiftAndLockRightPushesDependents(t *testing.T) {
	// A's shift breaks its dependent B, which then shifts too.
	items := []*core.Item{
		item(t, 1, map[core.LaneID]int{0: 10}),
		item(t, 2, map[core.LaneID]int{1: 10}, 1),
	}
	p := plan.New()
	_, err := p.Add(items[0], 0)
	require.NoError(t, err)
	_, err = p.Add(items[1], 10)
	require.NoError(t, err)

	singles, pairs := constraint.Defaults()
	m := violations.NewManager(singles, pairs, false)
	m.Initialize(p)

	s := New()
	v := &violations.Violator{Scheduled: p.Get(1)}
	cand, err := s.shiftAndLockRight(p, m, v)
	require.NoError(t, err)

	// A moved right by the makespan; B followed because A's new end
	// overran its start.
	assert.Equal(t, 20, cand.Get(1).Start)
	assert.Greater(t, cand.Get(2).Start, cand.Get(1).Start)
	requireHardFeasible(t, cand)
	assert.Equal(t, 0, p.Get(1).Start, "clone only")
}

// zonePair drives shift-and-lock into its cycle detector: moving item
// 1 into the upper zone recruits 2 and 3, and moving those two makes
// them conflict with each other, re-violating locked items.
type zonePair struct{}

func (zonePair) NeedsChecking(a, b *core.Item) bool {
	return a.ID <= 3 && b.ID <= 3
}

func (zonePair) Check(a, b *core.ScheduledItem) core.Decision {
	inZone := func(s *core.ScheduledItem) bool { return s.Start >= 100 }
	violated := false
	if a.Item.ID == 1 || b.Item.ID == 1 {
		violated = inZone(a) != inZone(b)
	} else {
		violated = inZone(a) && inZone(b)
	}
	value := 0
	if violated {
		value = 1
	}
	return core.Decision{Hard: true, Fulfilled: !violated, Value: value}
}

func (zonePair) PredictDecision(moved, fixed *core.Item) core.Prediction {
	return core.Prediction{
		Before:        core.UnknownConflict,
		Together:      core.UnknownConflict,
		After:         core.UnknownConflict,
		ConflictValue: 1,
	}
}

func TestShiftAndLockDetectsCircularConstraint(t *testing.T) {
	items := []*core.Item{
		item(t, 1, map[core.LaneID]int{7: 10}),
		item(t, 2, map[core.LaneID]int{8: 10}),
		item(t, 3, map[core.LaneID]int{9: 10}),
		item(t, 4, map[core.LaneID]int{5: 100}), // sets the makespan
	}
	p := plan.New()
	for _, it := range items {
		_, err := p.Add(it, 0)
		require.NoError(t, err)
	}

	m := violations.NewManager(nil, []core.ItemPairConstraint{zonePair{}}, false)
	m.Initialize(p)

	s := New()
	v := &violations.Violator{Scheduled: p.Get(1)}
	_, err := s.shiftAndLockRight(p, m, v)
	assert.ErrorIs(t, err, ErrCircularConstraint)
}

func TestShiftAndLockLeftKeepsStartsNonNegative(t *testing.T) {
	items := []*core.Item{
		item(t, 1, map[core.LaneID]int{0: 50}),
		item(t, 2, map[core.LaneID]int{1: 50}),
	}
	p := plan.New()
	_, err := p.Add(items[0], 0)
	require.NoError(t, err)
	_, err = p.Add(items[1], 50)
	require.NoError(t, err)

	singles, pairs := constraint.Defaults()
	m := violations.NewManager(singles, pairs, false)
	m.Initialize(p)

	s := New()
	v := &violations.Violator{Scheduled: p.Get(1)}
	cand, err := s.shiftAndLockLeft(p, m, v)
	require.NoError(t, err)

	for _, sc := range cand.Items() {
		assert.GreaterOrEqual(t, sc.Start, 0)
	}
	assert.Equal(t, 0, cand.Get(1).Start, "seed lands back at its pre-shift start")
}
