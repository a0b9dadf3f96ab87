package agent

import (
	"context"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/bus"
	"github.com/vivekchamoli/legionaid/internal/executor"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// GPU power budgets in watts.
const (
	gpuBudgetFull     = 140
	gpuBudgetBalanced = 100
	gpuBudgetLow      = 60
)

// GPUAgent manages the discrete GPU: its power budget while in use and
// powering it down when nothing needs it.
type GPUAgent struct {
	bus   *bus.Bus
	stats stats
}

// NewGPUAgent returns the GPU agent.
func NewGPUAgent(b *bus.Bus) *GPUAgent {
	return &GPUAgent{bus: b}
}

func (a *GPUAgent) Name() string      { return "gpu" }
func (a *GPUAgent) Tier() action.Tier { return action.TierNormal }

func (a *GPUAgent) Propose(ctx context.Context, snap *snapshot.Snapshot) (action.Proposal, error) {
	p := action.Proposal{Agent: a.Name(), Tier: a.Tier()}
	g := snap.GPU

	// Nothing to manage without a discrete GPU in the machine.
	if !g.DiscreteActive && len(g.Processes) == 0 {
		if snap.Battery.OnBattery {
			p.Actions = append(p.Actions, action.Action{
				Type:   action.Opportunistic,
				Target: action.TargetGPUPowerState,
				Value:  action.Flag(false),
				Reason: "no GPU clients, keep dGPU powered off",
			})
			a.stats.proposed += len(p.Actions)
		}
		return p, nil
	}

	if g.DiscreteActive && len(g.Processes) == 0 && g.Utilization < 5 {
		p.Actions = append(p.Actions, action.Action{
			Type:   action.Proactive,
			Target: action.TargetGPUPowerState,
			Value:  action.Flag(false),
			Reason: "dGPU idle with no clients, power it down",
		})
		a.stats.proposed += len(p.Actions)
		return p, nil
	}

	budget := action.Watts(gpuBudgetBalanced)
	kind := action.Opportunistic
	switch {
	case a.bus.CurrentMode() == bus.ModeThermalManagement:
		budget, kind = action.Watts(gpuBudgetLow), action.Reactive
	case snap.Intent == snapshot.IntentGaming || snap.Workload.Type == snapshot.WorkloadGaming:
		budget, kind = action.Watts(gpuBudgetFull), action.Proactive
	case snap.Battery.OnBattery:
		budget = action.Watts(gpuBudgetLow)
	}

	if snap.Power.GPUPowerW != int(budget) {
		p.Actions = append(p.Actions, action.Action{
			Type:   kind,
			Target: action.TargetGPUPower,
			Value:  budget,
			Reason: "match GPU power budget to load",
		})
	}

	a.stats.proposed += len(p.Actions)
	return p, nil
}

func (a *GPUAgent) Notify(res *executor.Result) {
	a.stats.record(a.Name(), res)
	a.bus.UpdateState(a.Name(), bus.AgentState{
		Proposed:    a.stats.proposed,
		Executed:    a.stats.executed,
		SuccessRate: a.stats.successRate(),
	})
}
