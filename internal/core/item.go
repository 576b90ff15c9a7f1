package core

import "sort"

// Item represents a unit of work to be scheduled. An item occupies one
// or more lanes, each for a known positive duration, and may declare
// other items it requires to be finished before it starts. Items are
// immutable after construction; identity is the ID.
type Item struct {
	ID ItemID

	durations    map[LaneID]int
	required     []ItemID
	alternatives []map[LaneID]int // non-nil only for switch-lane items

	maxDuration int
	durationSum int
}

// NewItem creates an item with the given lane durations and required
// item ids. The durations map is copied.
func NewItem(id ItemID, durations map[LaneID]int, required ...ItemID) (*Item, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	d, maxDur, sum, err := copyDurations(durations)
	if err != nil {
		return nil, err
	}
	return &Item{
		ID:          id,
		durations:   d,
		required:    append([]ItemID(nil), required...),
		maxDuration: maxDur,
		durationSum: sum,
	}, nil
}

// NewSwitchLaneItem creates an item that may switch its active lane
// durations to one of the given alternatives at solver discretion.
func NewSwitchLaneItem(id ItemID, durations map[LaneID]int, alternatives []map[LaneID]int, required ...ItemID) (*Item, error) {
	if len(alternatives) == 0 {
		return nil, ErrNoAlternatives
	}
	it, err := NewItem(id, durations, required...)
	if err != nil {
		return nil, err
	}
	alts := make([]map[LaneID]int, len(alternatives))
	for i, a := range alternatives {
		d, _, _, err := copyDurations(a)
		if err != nil {
			return nil, err
		}
		alts[i] = d
	}
	it.alternatives = alts
	return it, nil
}

func copyDurations(durations map[LaneID]int) (map[LaneID]int, int, int, error) {
	if len(durations) == 0 {
		return nil, 0, 0, ErrNoLanes
	}
	d := make(map[LaneID]int, len(durations))
	maxDur, sum := 0, 0
	for l, dur := range durations {
		if dur <= 0 {
			return nil, 0, 0, ErrNonPositiveDuration
		}
		d[l] = dur
		sum += dur
		if dur > maxDur {
			maxDur = dur
		}
	}
	return d, maxDur, sum, nil
}

// Duration returns the item's duration on the given lane.
func (it *Item) Duration(l LaneID) (int, bool) {
	d, ok := it.durations[l]
	return d, ok
}

// Lanes returns the item's lanes in ascending order.
func (it *Item) Lanes() []LaneID {
	lanes := make([]LaneID, 0, len(it.durations))
	for l := range it.durations {
		lanes = append(lanes, l)
	}
	sort.Slice(lanes, func(i, j int) bool { return lanes[i] < lanes[j] })
	return lanes
}

// Durations returns a copy of the active lane-duration mapping.
func (it *Item) Durations() map[LaneID]int {
	d := make(map[LaneID]int, len(it.durations))
	for l, dur := range it.durations {
		d[l] = dur
	}
	return d
}

// Required returns the ids of the items this item requires, in
// declaration order. Callers must not modify the returned slice.
func (it *Item) Required() []ItemID {
	return it.required
}

// Requires reports whether the item declared id as required.
func (it *Item) Requires(id ItemID) bool {
	for _, r := range it.required {
		if r == id {
			return true
		}
	}
	return false
}

// MaxDuration returns the maximum duration over the item's lanes.
func (it *Item) MaxDuration() int { return it.maxDuration }

// DurationSum returns the sum of durations over the item's lanes.
func (it *Item) DurationSum() int { return it.durationSum }

// IsLaneSwitcher reports whether the item carries alternative lane
// durations.
func (it *Item) IsLaneSwitcher() bool { return it.alternatives != nil }

// AlternativeCount returns the number of alternative duration
// mappings.
func (it *Item) AlternativeCount() int { return len(it.alternatives) }

// Alternative returns a copy of the k-th alternative mapping.
func (it *Item) Alternative(k int) (map[LaneID]int, error) {
	if k < 0 || k >= len(it.alternatives) {
		return nil, ErrAlternativeIndex
	}
	a := it.alternatives[k]
	d := make(map[LaneID]int, len(a))
	for l, dur := range a {
		d[l] = dur
	}
	return d, nil
}

// Switch returns a new item whose active durations are the k-th
// alternative. The new item's alternatives are the old active mapping
// followed by the remaining alternatives in order, so the list length
// is preserved and the active mapping is never offered back.
func (it *Item) Switch(k int) (*Item, error) {
	if k < 0 || k >= len(it.alternatives) {
		return nil, ErrAlternativeIndex
	}
	next := &Item{
		ID:       it.ID,
		required: it.required,
	}
	active := it.alternatives[k]
	next.durations = active
	for _, dur := range active {
		next.durationSum += dur
		if dur > next.maxDuration {
			next.maxDuration = dur
		}
	}
	alts := make([]map[LaneID]int, 0, len(it.alternatives))
	alts = append(alts, it.durations)
	for i, a := range it.alternatives {
		if i != k {
			alts = append(alts, a)
		}
	}
	next.alternatives = alts
	return next, nil
}
