package algo

import (
	"github.com/elektrokombinacija/repairsched/internal/core"
	"github.com/elektrokombinacija/repairsched/internal/plan"
)

// Finding is one unfulfilled hard constraint in a plan. B is zero for
// single-item findings.
type Finding struct {
	A     core.ItemID
	B     core.ItemID
	Value int
}

// VerifyPlan checks every hard constraint against the plan and
// returns the violations found. An empty result means the plan is
// hard-feasible.
func VerifyPlan(p *plan.Plan, singles []core.SingleItemConstraint, pairs []core.ItemPairConstraint) []Finding {
	var findings []Finding
	items := p.Items()
	for _, s := range items {
		for _, c := range singles {
			d := c.Check(s)
			if d.Hard && !d.Fulfilled {
				findings = append(findings, Finding{A: s.Item.ID, Value: d.Value})
			}
		}
	}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			for _, c := range pairs {
				if !c.NeedsChecking(items[i].Item, items[j].Item) {
					continue
				}
				d := c.Check(items[i], items[j])
				if d.Hard && !d.Fulfilled {
					findings = append(findings, Finding{A: items[i].Item.ID, B: items[j].Item.ID, Value: d.Value})
				}
			}
		}
	}
	return findings
}
