package plan

import "errors"

var (
	// ErrDuplicateItem indicates an item id already present in the plan.
	ErrDuplicateItem = errors.New("plan: item already scheduled")
	// ErrNotScheduled indicates an operation on an item absent from the plan.
	ErrNotScheduled = errors.New("plan: item not scheduled")
	// ErrFixedItem indicates an attempt to move or unschedule a fixed item.
	ErrFixedItem = errors.New("plan: item is fixed")
)
