// Package constraint implements the built-in scheduling constraints:
// no lane overlap, dependency ordering, and the start-now preference.
package constraint

import "github.com/elektrokombinacija/repairsched/internal/core"

// Defaults returns the constraint sets a scheduler uses when the
// caller supplies none.
func Defaults() ([]core.SingleItemConstraint, []core.ItemPairConstraint) {
	return []core.SingleItemConstraint{NewStartNow()},
		[]core.ItemPairConstraint{NewNoOverlap(), NewDependencies()}
}
