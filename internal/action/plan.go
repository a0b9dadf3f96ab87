package action

import "time"

// Candidate is a flattened action tagged with the proposal that
// produced it. Arbitration, the executor, and the conflict log all
// operate on candidates so the originating agent is never lost.
type Candidate struct {
	Action Action
	Agent  string
}

// Resolution-strategy labels recorded on conflicts.
const (
	StrategyEmergency   = "Emergency Override"
	StrategyCritical    = "Critical Priority"
	StrategyPerformance = "User Intent: Performance"
	StrategyEfficiency  = "User Intent: Efficiency"
	StrategyActionType  = "Action Type Priority"
)

// Conflict records one resolved same-target contention.
type Conflict struct {
	Target   string
	Winner   Candidate
	Losers   []Candidate
	Strategy string
}

// Plan metric keys.
const (
	MetricProposals        = "proposals"
	MetricTotalActions     = "total_actions"
	MetricConflicts        = "conflicts_resolved"
	MetricEmergencyActions = "emergency_actions"
)

// Plan is the arbitration engine's output for one cycle: the winning
// action per contested target plus every uncontested action, the full
// conflict history, and cycle metrics.
type Plan struct {
	CreatedAt time.Time
	Actions   []Candidate
	Conflicts []Conflict
	Metrics   map[string]int
}

// Find returns the plan's action for the given target, if any.
func (p *Plan) Find(target string) (Candidate, bool) {
	for _, c := range p.Actions {
		if c.Action.Target == target {
			return c, true
		}
	}
	return Candidate{}, false
}
