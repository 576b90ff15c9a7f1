package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/repairsched/internal/core"
)

func mustItem(t *testing.T, id core.ItemID, durations map[core.LaneID]int, required ...core.ItemID) *core.Item {
	t.Helper()
	it, err := core.NewItem(id, durations, required...)
	require.NoError(t, err)
	return it
}

func TestAddTracksTimesAndMakespan(t *testing.T) {
	p := New()
	a := mustItem(t, 1, map[core.LaneID]int{0: 100, 1: 40})

	s, err := p.Add(a, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Start)
	assert.Equal(t, 110, p.Makespan())

	assert.Equal(t, 1, p.TimeCount(10))  // start
	assert.Equal(t, 1, p.TimeCount(110)) // end lane 0
	assert.Equal(t, 1, p.TimeCount(50))  // end lane 1

	_, err = p.Add(a, 50)
	assert.ErrorIs(t, err, ErrDuplicateItem)
}

func TestSharedTimePointsKeepCounts(t *testing.T) {
	p := New()
	a := mustItem(t, 1, map[core.LaneID]int{0: 100})
	b := mustItem(t, 2, map[core.LaneID]int{1: 50})

	_, err := p.Add(a, 0)
	require.NoError(t, err)
	sb, err := p.Add(b, 50)
	require.NoError(t, err)

	// 100 is referenced by a's end and b's end.
	assert.Equal(t, 2, p.TimeCount(100))
	assert.Equal(t, 100, p.Makespan())

	require.NoError(t, p.Unschedule(sb))
	assert.Equal(t, 1, p.TimeCount(100))
	assert.Equal(t, 100, p.Makespan(), "removing one contributor must not shrink the shared key")
}

func TestMoveUpdatesMultiset(t *testing.T) {
	p := New()
	a := mustItem(t, 1, map[core.LaneID]int{0: 100})
	_, err := p.Add(a, 0)
	require.NoError(t, err)

	moved, err := p.Move(a, 200)
	require.NoError(t, err)
	assert.Equal(t, 200, moved.Start)
	assert.Equal(t, 0, p.TimeCount(0))
	assert.Equal(t, 0, p.TimeCount(100))
	assert.Equal(t, 1, p.TimeCount(200))
	assert.Equal(t, 1, p.TimeCount(300))
	assert.Equal(t, 300, p.Makespan())

	b := mustItem(t, 2, map[core.LaneID]int{0: 10})
	_, err = p.Move(b, 5)
	assert.ErrorIs(t, err, ErrNotScheduled)
}

func TestFixedItemsCannotBeTouched(t *testing.T) {
	p := New()
	a := mustItem(t, 1, map[core.LaneID]int{0: 100})
	s, err := p.Add(a, 0)
	require.NoError(t, err)
	require.NoError(t, p.Fixate(s))

	assert.False(t, p.CanBeMoved(s))
	_, err = p.Move(a, 50)
	assert.ErrorIs(t, err, ErrFixedItem)
	assert.ErrorIs(t, p.Unschedule(s), ErrFixedItem)
	assert.ErrorIs(t, p.Exchange(s, s.WithStart(50)), ErrFixedItem)

	// ShiftAll leaves fixed items in place.
	b := mustItem(t, 2, map[core.LaneID]int{1: 10})
	_, err = p.Add(b, 0)
	require.NoError(t, err)
	p.ShiftAll(30)
	assert.Equal(t, 0, p.Get(1).Start)
	assert.Equal(t, 30, p.Get(2).Start)
}

func TestExchangeSwapsScheduledItem(t *testing.T) {
	p := New()
	a := mustItem(t, 1, map[core.LaneID]int{0: 100})
	s, err := p.Add(a, 0)
	require.NoError(t, err)

	replacement := s.WithStart(250)
	require.NoError(t, p.Exchange(s, replacement))
	assert.Equal(t, 250, p.Get(1).Start)
	assert.Equal(t, 350, p.Makespan())
	assert.Equal(t, 0, p.TimeCount(0))

	other := core.NewScheduledItem(mustItem(t, 2, map[core.LaneID]int{0: 5}), 0)
	assert.ErrorIs(t, p.Exchange(s, other), ErrNotScheduled)
}

func TestDependentsOrdering(t *testing.T) {
	p := New()
	base := mustItem(t, 1, map[core.LaneID]int{0: 10})
	d1 := mustItem(t, 2, map[core.LaneID]int{1: 10}, 1)
	d2 := mustItem(t, 3, map[core.LaneID]int{2: 10}, 1)

	_, err := p.Add(base, 0)
	require.NoError(t, err)
	_, err = p.Add(d2, 40)
	require.NoError(t, err)
	sd1, err := p.Add(d1, 80)
	require.NoError(t, err)

	deps := p.Dependents(base)
	require.Len(t, deps, 2)
	assert.Equal(t, core.ItemID(3), deps[0].Item.ID, "ordered by current start")
	assert.Equal(t, core.ItemID(2), deps[1].Item.ID)

	require.NoError(t, p.Unschedule(sd1))
	deps = p.Dependents(base)
	require.Len(t, deps, 1)
	assert.Equal(t, core.ItemID(3), deps[0].Item.ID)
}

func TestStartCandidates(t *testing.T) {
	p := New()
	assert.Equal(t, []int{0}, p.StartCandidates())

	a := mustItem(t, 1, map[core.LaneID]int{0: 100})
	b := mustItem(t, 2, map[core.LaneID]int{0: 50})
	_, err := p.Add(a, 20)
	require.NoError(t, err)
	_, err = p.Add(b, 120)
	require.NoError(t, err)

	// {0} plus starts 20, 120 and ends 120, 170.
	assert.Equal(t, []int{0, 20, 120, 170}, p.StartCandidates())
}

func TestCloneIsIndependent(t *testing.T) {
	p := New()
	a := mustItem(t, 1, map[core.LaneID]int{0: 100})
	b := mustItem(t, 2, map[core.LaneID]int{0: 100})
	sa, err := p.Add(a, 0)
	require.NoError(t, err)
	_, err = p.Add(b, 100)
	require.NoError(t, err)
	require.NoError(t, p.Fixate(sa))

	c := p.Clone()
	assert.False(t, c.CanBeMoved(sa), "fixed set is preserved")

	_, err = c.Move(b, 300)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Get(2).Start, "clone mutation must not leak")
	assert.Equal(t, 200, p.Makespan())
	assert.Equal(t, 400, c.Makespan())
}

func TestShiftAllRekeysMultiset(t *testing.T) {
	p := New()
	a := mustItem(t, 1, map[core.LaneID]int{0: 100})
	b := mustItem(t, 2, map[core.LaneID]int{0: 100})
	_, err := p.Add(a, 0)
	require.NoError(t, err)
	_, err = p.Add(b, 100)
	require.NoError(t, err)

	p.ShiftAll(200)
	assert.Equal(t, 200, p.Get(1).Start)
	assert.Equal(t, 300, p.Get(2).Start)
	assert.Equal(t, 400, p.Makespan())
	assert.Equal(t, 0, p.TimeCount(0))
	assert.Equal(t, 2, p.TimeCount(300))
}
