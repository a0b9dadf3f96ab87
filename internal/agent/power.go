package agent

import (
	"context"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/bus"
	"github.com/vivekchamoli/legionaid/internal/executor"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// Power-limit presets in watts, keyed by how aggressive the system
// should be. Values sit inside the scoring-table maxima.
type powerPreset struct {
	pl1 action.Watts
	pl2 action.Watts
}

var powerPresets = map[string]powerPreset{
	"saver":    {pl1: 25, pl2: 45},
	"balanced": {pl1: 45, pl2: 90},
	"boost":    {pl1: 65, pl2: 130},
}

// highDrawWatts is the system draw above which the agent flags high
// power consumption on the bus.
const highDrawWatts = 120

// PowerAgent tunes CPU package power limits to the workload and user
// intent, and tells the rest of the system when total draw runs hot.
type PowerAgent struct {
	bus   *bus.Bus
	stats stats
}

// NewPowerAgent returns the power-limit agent.
func NewPowerAgent(b *bus.Bus) *PowerAgent {
	return &PowerAgent{bus: b}
}

func (a *PowerAgent) Name() string      { return "power" }
func (a *PowerAgent) Tier() action.Tier { return action.TierHigh }

func (a *PowerAgent) Propose(ctx context.Context, snap *snapshot.Snapshot) (action.Proposal, error) {
	p := action.Proposal{Agent: a.Name(), Tier: a.Tier()}

	if snap.Power.TotalDrawW > highDrawWatts && snap.Battery.OnBattery {
		a.bus.Broadcast(bus.Signal{
			Type:    bus.SignalHighPower,
			Source:  a.Name(),
			Context: "system draw exceeds battery budget",
		})
	}

	preset, kind := a.pickPreset(snap)
	if snap.Power.CPULongTermW != int(preset.pl1) {
		p.Actions = append(p.Actions, action.Action{
			Type:   kind,
			Target: action.TargetCPULongTerm,
			Value:  preset.pl1,
			Reason: "match sustained power limit to workload",
		})
	}
	if snap.Power.CPUShortTermW != int(preset.pl2) {
		p.Actions = append(p.Actions, action.Action{
			Type:   kind,
			Target: action.TargetCPUShortTerm,
			Value:  preset.pl2,
			Reason: "match burst power limit to workload",
		})
	}

	a.stats.proposed += len(p.Actions)
	return p, nil
}

// pickPreset maps bus mode, intent, and workload to a preset and the
// urgency of applying it.
func (a *PowerAgent) pickPreset(snap *snapshot.Snapshot) (powerPreset, action.Type) {
	switch a.bus.CurrentMode() {
	case bus.ModeEmergency, bus.ModeBatterySaving:
		return powerPresets["saver"], action.Reactive
	case bus.ModePowerOptimization:
		return powerPresets["saver"], action.Reactive
	case bus.ModeThermalManagement:
		return powerPresets["balanced"], action.Reactive
	}

	switch snap.Intent {
	case snapshot.IntentMaxPerformance, snapshot.IntentGaming:
		return powerPresets["boost"], action.Proactive
	case snapshot.IntentBatterySaving, snapshot.IntentQuiet:
		return powerPresets["saver"], action.Proactive
	}

	switch snap.Workload.Type {
	case snapshot.WorkloadGaming:
		return powerPresets["boost"], action.Opportunistic
	case snapshot.WorkloadIdle:
		return powerPresets["saver"], action.Opportunistic
	default:
		return powerPresets["balanced"], action.Opportunistic
	}
}

func (a *PowerAgent) Notify(res *executor.Result) {
	a.stats.record(a.Name(), res)
	a.bus.UpdateState(a.Name(), bus.AgentState{
		Proposed:    a.stats.proposed,
		Executed:    a.stats.executed,
		SuccessRate: a.stats.successRate(),
	})
}
