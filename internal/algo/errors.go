package algo

import (
	"errors"
	"fmt"

	"github.com/elektrokombinacija/repairsched/internal/plan"
)

var (
	// ErrDuplicateID indicates the same item id appeared twice in
	// the input.
	ErrDuplicateID = errors.New("algo: duplicate item id in input")
	// ErrUnableToEscape indicates that no escape strategy improved
	// the plan at a local optimum.
	ErrUnableToEscape = errors.New("algo: unable to escape local optimum")
	// ErrCircularConstraint indicates that shift-and-lock re-visited
	// an item it already locked, which points at a constraint cycle.
	ErrCircularConstraint = errors.New("algo: circular constraint detected")
)

// SchedulingError is a solver failure together with the partially
// built plan for diagnostics.
type SchedulingError struct {
	Plan *plan.Plan
	Err  error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scheduling failed: %v", e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }
