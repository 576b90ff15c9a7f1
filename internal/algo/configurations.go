package algo

import (
	"github.com/elektrokombinacija/repairsched/internal/core"
	"github.com/elektrokombinacija/repairsched/internal/plan"
	"github.com/elektrokombinacija/repairsched/internal/violations"
)

// configuration is one accepted candidate relocation for the current
// violator: the candidate placement (possibly with switched lanes),
// the trial update to commit, and the makespan the plan would have.
type configuration struct {
	scheduled *core.ScheduledItem
	update    *violations.ViolatorUpdate
	makespan  int
}

// betterConfiguration orders candidates by (makespan, hard, soft,
// duration sum), smallest first.
func betterConfiguration(a, b *configuration) bool {
	if a.makespan != b.makespan {
		return a.makespan < b.makespan
	}
	if a.update.Violator.Hard != b.update.Violator.Hard {
		return a.update.Violator.Hard < b.update.Violator.Hard
	}
	if a.update.Violator.Soft != b.update.Violator.Soft {
		return a.update.Violator.Soft < b.update.Violator.Soft
	}
	return a.scheduled.Item.DurationSum() < b.scheduled.Item.DurationSum()
}

// planConfiguration is one candidate replacement plan produced by an
// escape strategy, with its plan-wide violation totals.
type planConfiguration struct {
	plan     *plan.Plan
	hard     int
	makespan int
	soft     int
}

// betterPlan orders candidate plans by (hard, makespan, soft),
// smallest first.
func betterPlan(a, b *planConfiguration) bool {
	if a.hard != b.hard {
		return a.hard < b.hard
	}
	if a.makespan != b.makespan {
		return a.makespan < b.makespan
	}
	return a.soft < b.soft
}

// configurations collects candidate relocations for the current
// violator and candidate replacement plans during escapes, keeping
// the best of each.
type configurations struct {
	manager   *violations.Manager
	reference *core.ScheduledItem
	best      *configuration
	bestPlan  *planConfiguration
}

func newConfigurations(m *violations.Manager) *configurations {
	return &configurations{manager: m}
}

// reset binds the collector to the violator's current placement.
func (c *configurations) reset(v *violations.Violator, p *plan.Plan) {
	c.reference = p.Get(v.ID())
	c.best = nil
}

// add tries the violator at the candidate start. When the violator's
// current placement contributes to the makespan, the plan is mutated
// so later trials see an up-to-date makespan; applyReference undoes
// this when no candidate wins. For switch-lane items whose plain
// trial fails, every alternative duration mapping is tried as well.
// Reports whether any configuration was registered.
func (c *configurations) add(p *plan.Plan, start int) (bool, error) {
	cur := p.Get(c.reference.Item.ID)
	if start == c.reference.Start || start == cur.Start {
		return false, nil
	}

	var trial *core.ScheduledItem
	if cur.MaxEnd() == p.Makespan() && p.CanBeMoved(cur) {
		moved, err := p.Move(cur.Item, start)
		if err != nil {
			return false, err
		}
		trial = moved
	} else {
		trial = cur.WithStart(start)
	}

	if upd, ok := c.manager.TryViolatorUpdate(trial, p); ok {
		c.register(trial, upd, p, start)
		return true, nil
	}
	if !trial.Item.IsLaneSwitcher() {
		return false, nil
	}
	found := false
	for k := 0; k < trial.Item.AlternativeCount(); k++ {
		switched, err := trial.Item.Switch(k)
		if err != nil {
			return found, err
		}
		strial := core.NewScheduledItem(switched, start)
		if upd, ok := c.manager.TryViolatorUpdate(strial, p); ok {
			c.register(strial, upd, p, start)
			found = true
		}
	}
	return found, nil
}

func (c *configurations) register(trial *core.ScheduledItem, upd *violations.ViolatorUpdate, p *plan.Plan, start int) {
	makespan := p.Makespan()
	if end := start + trial.Item.MaxDuration(); end > makespan {
		makespan = end
	}
	cfg := &configuration{scheduled: trial, update: upd, makespan: makespan}
	if c.best == nil || betterConfiguration(cfg, c.best) {
		c.best = cfg
	}
}

// applyBest exchanges the violator's current placement for the best
// candidate and commits its trial update. Reports false when no
// candidate was registered.
func (c *configurations) applyBest(p *plan.Plan) (bool, error) {
	if c.best == nil {
		return false, nil
	}
	cur := p.Get(c.reference.Item.ID)
	if err := p.Exchange(cur, c.best.scheduled); err != nil {
		return false, err
	}
	c.manager.UpdateViolator(c.best.update)
	return true, nil
}

// applyReference moves the violator back to its reference placement,
// undoing any physical trial moves.
func (c *configurations) applyReference(p *plan.Plan) error {
	cur := p.Get(c.reference.Item.ID)
	if cur.Start == c.reference.Start && cur.Item == c.reference.Item {
		return nil
	}
	return p.Exchange(cur, c.reference)
}

// resetPlans clears the plan-candidate collector for a new escape.
func (c *configurations) resetPlans() {
	c.bestPlan = nil
}

// addPlan registers a candidate replacement plan.
func (c *configurations) addPlan(p *plan.Plan) {
	hard, soft := c.manager.CheckViolationsForPlan(p)
	pc := &planConfiguration{plan: p, hard: hard, makespan: p.Makespan(), soft: soft}
	if c.bestPlan == nil || betterPlan(pc, c.bestPlan) {
		c.bestPlan = pc
	}
}

// bestPlanConfiguration returns the best candidate plan seen since
// the last resetPlans, or nil.
func (c *configurations) bestPlanConfiguration() *plan.Plan {
	if c.bestPlan == nil {
		return nil
	}
	return c.bestPlan.plan
}
