// Package algo implements the heuristic-repair scheduling driver: the
// start-plan construction, the min-conflicts repair loop, the
// local-optimum escapes, and optional parallel scheduling over
// disconnected clusters.
package algo

import (
	"log/slog"

	"github.com/elektrokombinacija/repairsched/internal/constraint"
	"github.com/elektrokombinacija/repairsched/internal/core"
	"github.com/elektrokombinacija/repairsched/internal/logging"
	"github.com/elektrokombinacija/repairsched/internal/plan"
	"github.com/elektrokombinacija/repairsched/internal/violations"
)

// Scheduler is the heuristic-repair solver. One instance schedules
// one problem at a time; a Schedule call blocks until it returns.
// Toggles must not be changed while a call is in flight.
type Scheduler struct {
	singles []core.SingleItemConstraint
	pairs   []core.ItemPairConstraint

	// CacheResultPlan reuses the previous result plan as a warm
	// start for the next call. Ignored while ParallelScheduling is
	// on: the cache is a whole-plan structure and its validity would
	// depend on the cluster partition.
	CacheResultPlan bool
	// ParallelScheduling schedules disconnected item clusters
	// concurrently. Constraints must be thread-safe and free of
	// shared mutable state.
	ParallelScheduling bool
	// UsePrediction prunes candidate starts whose partners must
	// conflict, using the pair predictor.
	UsePrediction bool

	logger *slog.Logger

	cache     map[core.ItemID]cachedPlacement
	snapshots [][]*core.ScheduledItem
	backsteps int
}

// New creates a scheduler with the default constraints: start-now,
// no-overlapping, and dependencies.
func New() *Scheduler {
	singles, pairs := constraint.Defaults()
	return NewWithConstraints(singles, pairs)
}

// NewWithConstraints creates a scheduler with caller-supplied
// constraint lists.
func NewWithConstraints(singles []core.SingleItemConstraint, pairs []core.ItemPairConstraint) *Scheduler {
	return &Scheduler{
		singles:         singles,
		pairs:           pairs,
		CacheResultPlan: true,
		UsePrediction:   true,
		logger:          logging.Discard(),
	}
}

// SetLogger installs a logger. The default discards everything.
func (s *Scheduler) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Snapshots returns the chronological per-step copies of the
// scheduled items recorded during the last call: one after start-plan
// construction and one after every accepted move. When the call
// scheduled several clusters in parallel, only the merged plan is
// recorded.
func (s *Scheduler) Snapshots() [][]*core.ScheduledItem { return s.snapshots }

// Backsteps returns how many loop iterations of the last call failed
// to find an improving relocation and narrowed the search bound or
// triggered an escape.
func (s *Scheduler) Backsteps() int { return s.backsteps }

// ClearCachedResultPlan drops the warm-start cache.
func (s *Scheduler) ClearCachedResultPlan() { s.cache = nil }

// Schedule assigns start times to the given items.
func (s *Scheduler) Schedule(items []*core.Item) (*plan.Plan, error) {
	return s.ScheduleWithFixed(items, nil)
}

// ScheduleWithFixed assigns start times to the given items while
// keeping the fixed placements untouched.
func (s *Scheduler) ScheduleWithFixed(items []*core.Item, fixed []*core.ScheduledItem) (*plan.Plan, error) {
	s.snapshots = nil
	s.backsteps = 0

	all, err := collectRunItems(items, fixed)
	if err != nil {
		return nil, err
	}
	s.prepareConstraints(all)

	if s.ParallelScheduling {
		clusters, clusterFixed := partitionClusters(items, fixed, s.pairs)
		if len(clusters) > 1 {
			s.logger.Info("scheduling clusters in parallel", "clusters", len(clusters))
			return s.scheduleClusters(clusters, clusterFixed)
		}
	}

	p, err := s.solve(items, fixed)
	if err != nil {
		return p, err
	}
	if s.CacheResultPlan && !s.ParallelScheduling {
		s.storeCache(p)
	}
	return p, nil
}

func collectRunItems(items []*core.Item, fixed []*core.ScheduledItem) ([]*core.Item, error) {
	all := make([]*core.Item, 0, len(items)+len(fixed))
	seen := make(map[core.ItemID]struct{}, len(items)+len(fixed))
	for _, f := range fixed {
		if _, dup := seen[f.Item.ID]; dup {
			return nil, ErrDuplicateID
		}
		seen[f.Item.ID] = struct{}{}
		all = append(all, f.Item)
	}
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			return nil, ErrDuplicateID
		}
		seen[it.ID] = struct{}{}
		all = append(all, it)
	}
	return all, nil
}

// prepareConstraints lets updateable constraints refresh their state
// for this run.
func (s *Scheduler) prepareConstraints(items []*core.Item) {
	for _, c := range s.singles {
		if u, ok := c.(core.UpdateableConstraint); ok {
			u.PrepareRun(items)
		}
	}
	for _, c := range s.pairs {
		if u, ok := c.(core.UpdateableConstraint); ok {
			u.PrepareRun(items)
		}
	}
}

// solve runs the repair loop on one cluster of items.
func (s *Scheduler) solve(items []*core.Item, fixed []*core.ScheduledItem) (*plan.Plan, error) {
	p, err := s.buildStartPlan(items, fixed)
	if err != nil {
		return nil, err
	}
	m := violations.NewManager(s.singles, s.pairs, s.UsePrediction)
	m.Initialize(p)
	s.snapshot(p)

	cfgs := newConfigurations(m)

	violator := m.BiggestViolator(nil)
	hardSatisfied := false
	if violator != nil && violator.Hard == 0 {
		hardSatisfied = true
		if violator.Soft == 0 {
			violator = nil
		}
	}

	for violator != nil {
		cfgs.reset(violator, p)
		if p.CanBeMoved(violator.Scheduled) {
			found := false
			maxDur := violator.Scheduled.Item.MaxDuration()
			for _, t := range p.StartCandidates() {
				// Candidates are ascending: once one improving
				// configuration exists, a later start cannot beat
				// the best-known makespan anymore.
				if found && p.Makespan() < maxDur+t {
					break
				}
				ok, err := cfgs.add(p, t)
				if err != nil {
					return p, err
				}
				if ok {
					found = true
				}
			}
		}

		applied, err := cfgs.applyBest(p)
		if err != nil {
			return p, err
		}
		if !applied {
			if err := cfgs.applyReference(p); err != nil {
				return p, err
			}
			s.backsteps++
			next := m.BiggestViolator(violator)
			if next == nil && hardSatisfied {
				break
			}
			if next == nil {
				// Escape relative to the overall biggest violator:
				// that is where the remaining hard violations live,
				// not at the small violator the bound walked down to.
				escaped, err := s.escape(p, m, m.BiggestViolator(nil), cfgs)
				if err != nil {
					return p, &SchedulingError{Plan: p, Err: err}
				}
				p = escaped
				violator = m.BiggestViolator(nil)
				if violator != nil && violator.Hard == 0 {
					hardSatisfied = true
					if violator.Soft == 0 {
						violator = nil
					}
				}
				continue
			}
			violator = next
			continue
		}

		s.logger.Debug("accepted move",
			"item", violator.ID(),
			"start", p.Get(violator.ID()).Start,
			"makespan", p.Makespan())
		s.snapshot(p)
		violator = m.BiggestViolator(nil)
		if violator == nil || (!hardSatisfied && violator.Hard == 0) {
			hardSatisfied = true
		}
	}
	return p, nil
}

// snapshot records a copy of the current scheduled items for external
// inspection.
func (s *Scheduler) snapshot(p *plan.Plan) {
	s.snapshots = append(s.snapshots, p.Items())
}

func (s *Scheduler) storeCache(p *plan.Plan) {
	s.cache = make(map[core.ItemID]cachedPlacement, p.Len())
	for _, sc := range p.Items() {
		s.cache[sc.Item.ID] = cachedPlacement{item: sc.Item, start: sc.Start}
	}
}
