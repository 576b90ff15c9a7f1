package constraint

import "github.com/elektrokombinacija/repairsched/internal/core"

// StartNow is the soft preference for scheduling items as early as
// possible: the violation value is the item's start time, so zero is
// best.
type StartNow struct{}

// NewStartNow creates the start-now preference.
func NewStartNow() *StartNow { return &StartNow{} }

// Check reports the item's start as the soft violation value.
func (c *StartNow) Check(s *core.ScheduledItem) core.Decision {
	return core.Decision{Hard: false, Fulfilled: s.Start == 0, Value: s.Start}
}
