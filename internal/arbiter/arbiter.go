// Package arbiter implements conflict resolution between agent
// proposals and the safety gate on the resulting plan. The engine is
// stateless: every Resolve call is a pure function of the proposals
// and the context snapshot, which makes the whole package trivially
// reentrant and deterministic.
package arbiter

import (
	"strings"
	"time"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// Engine resolves same-resource conflicts between proposals.
type Engine struct{}

// New returns an arbitration engine.
func New() *Engine { return &Engine{} }

// Resolve flattens every action from every proposal, groups them by
// target resource, resolves contested targets through the priority
// cascade, and returns the execution plan with its conflict log.
//
// Grouping preserves encounter order: candidates append in flatten
// order and group keys are visited in first-seen order, so ties always
// fall to the earliest candidate and the output is reproducible for a
// fixed proposal slice.
func (e *Engine) Resolve(proposals []action.Proposal, snap *snapshot.Snapshot) *action.Plan {
	plan := &action.Plan{
		CreatedAt: time.Now(),
		Metrics:   make(map[string]int),
	}

	groups := make(map[string][]action.Candidate)
	var order []string
	total := 0

	for _, p := range proposals {
		for _, a := range p.Actions {
			total++
			if _, seen := groups[a.Target]; !seen {
				order = append(order, a.Target)
			}
			groups[a.Target] = append(groups[a.Target], action.Candidate{Action: a, Agent: p.Agent})
		}
	}

	emergencies := 0
	for _, target := range order {
		group := groups[target]
		if len(group) == 1 {
			plan.Actions = append(plan.Actions, group[0])
			if group[0].Action.Type == action.Emergency {
				emergencies++
			}
			continue
		}

		win, strategy := resolveGroup(group, snap)
		winner := group[win]
		losers := make([]action.Candidate, 0, len(group)-1)
		for i, c := range group {
			if i != win {
				losers = append(losers, c)
			}
		}

		plan.Actions = append(plan.Actions, winner)
		plan.Conflicts = append(plan.Conflicts, action.Conflict{
			Target:   target,
			Winner:   winner,
			Losers:   losers,
			Strategy: strategy,
		})
		if winner.Action.Type == action.Emergency {
			emergencies++
		}
	}

	plan.Metrics[action.MetricProposals] = len(proposals)
	plan.Metrics[action.MetricTotalActions] = total
	plan.Metrics[action.MetricConflicts] = len(plan.Conflicts)
	plan.Metrics[action.MetricEmergencyActions] = emergencies
	return plan
}

// resolveGroup picks the winner of a contested target, returning its
// index in the group and the strategy label. The cascade is evaluated
// in order and the first matching rule decides.
func resolveGroup(group []action.Candidate, snap *snapshot.Snapshot) (int, string) {
	// 1. An emergency action wins outright.
	for i, c := range group {
		if c.Action.Type == action.Emergency {
			return i, action.StrategyEmergency
		}
	}

	// 2. Battery safety outranks every other critical concern.
	for i, c := range group {
		if c.Action.Type == action.Critical && referencesBattery(c.Action.Reason) {
			return i, action.StrategyCritical
		}
	}

	// 3/4. User intent steers the remaining candidates.
	var intent snapshot.Intent
	if snap != nil {
		intent = snap.Intent
	}
	switch intent {
	case snapshot.IntentMaxPerformance, snapshot.IntentGaming:
		return pickBest(group, PerformanceScore), action.StrategyPerformance
	case snapshot.IntentBatterySaving, snapshot.IntentQuiet:
		return pickBest(group, func(a action.Action) float64 {
			return -PowerScore(a)
		}), action.StrategyEfficiency
	}

	// 5. Highest action-type ordinal wins.
	win := 0
	for i, c := range group[1:] {
		if c.Action.Type > group[win].Action.Type {
			win = i + 1
		}
	}
	return win, action.StrategyActionType
}

// pickBest returns the index of the candidate with the highest score.
// Strict comparison keeps the first-encountered candidate on ties.
func pickBest(group []action.Candidate, score func(action.Action) float64) int {
	best := 0
	bestScore := score(group[0].Action)
	for i, c := range group[1:] {
		if s := score(c.Action); s > bestScore {
			best, bestScore = i+1, s
		}
	}
	return best
}

// referencesBattery reports whether a reason string mentions the
// battery, marking a battery-safety action.
func referencesBattery(reason string) bool {
	return strings.Contains(strings.ToLower(reason), "battery")
}
