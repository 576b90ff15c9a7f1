package core

// Decision is the outcome of checking a constraint against one or two
// scheduled items. Value carries the violation weight and is zero when
// the constraint is fulfilled.
type Decision struct {
	Hard      bool
	Fulfilled bool
	Value     int
}

// ConflictState classifies a predicted relative placement.
type ConflictState int

const (
	NoConflict ConflictState = iota
	Conflict
	UnknownConflict
)

func (c ConflictState) String() string {
	return [...]string{"NoConflict", "Conflict", "UnknownConflict"}[c]
}

// Prediction classifies whether a pair constraint would be violated
// for a moved item placed strictly before its partner, starting
// exactly together with it, or strictly after it. ConflictValue is
// the violation weight a Conflict classification guarantees.
type Prediction struct {
	Before        ConflictState
	Together      ConflictState
	After         ConflictState
	ConflictValue int
}

// SingleItemConstraint checks one scheduled item in isolation.
type SingleItemConstraint interface {
	Check(s *ScheduledItem) Decision
}

// ItemPairConstraint checks an unordered pair of scheduled items.
// Check must account for both directions of the relation it models.
type ItemPairConstraint interface {
	Check(a, b *ScheduledItem) Decision

	// NeedsChecking reports whether the pair can interact at all.
	// False positives are safe; false negatives are not.
	NeedsChecking(a, b *Item) bool

	// PredictDecision classifies the relative placements of moved
	// against fixed without evaluating concrete starts.
	PredictDecision(moved, fixed *Item) Prediction
}

// UpdateableConstraint is an optional interface for constraints that
// refresh internal state before every scheduling run.
type UpdateableConstraint interface {
	PrepareRun(items []*Item)
}
