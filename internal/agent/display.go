package agent

import (
	"context"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/bus"
	"github.com/vivekchamoli/legionaid/internal/executor"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// DisplayAgent trades panel brightness and refresh rate against
// battery life. Everything it proposes is opportunistic; it never
// fights a critical action.
type DisplayAgent struct {
	bus   *bus.Bus
	stats stats
}

// NewDisplayAgent returns the display agent.
func NewDisplayAgent(b *bus.Bus) *DisplayAgent {
	return &DisplayAgent{bus: b}
}

func (a *DisplayAgent) Name() string      { return "display" }
func (a *DisplayAgent) Tier() action.Tier { return action.TierLow }

func (a *DisplayAgent) Propose(ctx context.Context, snap *snapshot.Snapshot) (action.Proposal, error) {
	p := action.Proposal{Agent: a.Name(), Tier: a.Tier()}

	brightness, refresh := a.targets(snap)
	p.Actions = append(p.Actions,
		action.Action{
			Type:   action.Opportunistic,
			Target: action.TargetDisplayBrightness,
			Value:  brightness,
			Reason: "brightness for current power source and intent",
		},
		action.Action{
			Type:   action.Opportunistic,
			Target: action.TargetDisplayRefresh,
			Value:  refresh,
			Reason: "refresh rate for current workload",
		})

	if !snap.Workload.UserActive && snap.Battery.OnBattery {
		p.Actions = append(p.Actions, action.Action{
			Type:   action.Opportunistic,
			Target: action.TargetKeyboardLight,
			Value:  action.Percent(0),
			Reason: "idle on battery, backlight off",
		})
	}

	a.stats.proposed += len(p.Actions)
	return p, nil
}

// targets picks brightness and refresh for the snapshot. Bus mode
// overrides intent: battery-saving mode dims regardless of preference.
func (a *DisplayAgent) targets(snap *snapshot.Snapshot) (action.Percent, action.Hertz) {
	mode := a.bus.CurrentMode()
	if mode == bus.ModeBatterySaving || mode == bus.ModeEmergency {
		return action.Percent(35), action.Hertz(60)
	}

	switch snap.Intent {
	case snapshot.IntentGaming, snapshot.IntentMaxPerformance:
		if !snap.Battery.OnBattery {
			return action.Percent(90), action.Hertz(165)
		}
		return action.Percent(70), action.Hertz(120)
	case snapshot.IntentBatterySaving, snapshot.IntentQuiet:
		return action.Percent(40), action.Hertz(60)
	}

	if snap.Battery.OnBattery {
		return action.Percent(55), action.Hertz(60)
	}
	return action.Percent(75), action.Hertz(120)
}

func (a *DisplayAgent) Notify(res *executor.Result) {
	a.stats.record(a.Name(), res)
	a.bus.UpdateState(a.Name(), bus.AgentState{
		Proposed:    a.stats.proposed,
		Executed:    a.stats.executed,
		SuccessRate: a.stats.successRate(),
	})
}
