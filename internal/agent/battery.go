package agent

import (
	"context"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/bus"
	"github.com/vivekchamoli/legionaid/internal/executor"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// Battery thresholds in percent.
const (
	batteryCriticalPct = 15
	batteryLowPct      = 30
	conservationPct    = 60
)

// BatteryAgent protects the battery: it forces low-power operation
// when charge runs critical and manages the charging policy on AC.
type BatteryAgent struct {
	bus   *bus.Bus
	stats stats
}

// NewBatteryAgent returns the battery agent.
func NewBatteryAgent(b *bus.Bus) *BatteryAgent {
	return &BatteryAgent{bus: b}
}

func (a *BatteryAgent) Name() string      { return "battery" }
func (a *BatteryAgent) Tier() action.Tier { return action.TierCritical }

func (a *BatteryAgent) Propose(ctx context.Context, snap *snapshot.Snapshot) (action.Proposal, error) {
	p := action.Proposal{Agent: a.Name(), Tier: a.Tier()}
	b := snap.Battery

	switch {
	case b.OnBattery && b.ChargePercent <= batteryCriticalPct:
		a.bus.Broadcast(bus.Signal{
			Type:    bus.SignalBatteryCritical,
			Source:  a.Name(),
			Context: "charge critically low",
		})
		p.Actions = append(p.Actions,
			action.Action{
				Type:   action.Critical,
				Target: action.TargetPowerMode,
				Value:  action.PowerModeQuiet,
				Reason: "battery critically low, minimize draw",
			},
			action.Action{
				Type:   action.Critical,
				Target: action.TargetCPULongTerm,
				Value:  action.Watts(15),
				Reason: "battery critically low, cap sustained power",
			},
			action.Action{
				Type:   action.Critical,
				Target: action.TargetDisplayBrightness,
				Value:  action.Percent(30),
				Reason: "battery critically low, dim panel",
			})

	case b.OnBattery && b.ChargePercent <= batteryLowPct:
		p.Actions = append(p.Actions, action.Action{
			Type:   action.Proactive,
			Target: action.TargetPowerMode,
			Value:  action.PowerModeBalanced,
			Reason: "battery low, avoid performance mode",
		})

	case !b.OnBattery && b.Mode != snapshot.ChargingConservation && b.ChargePercent >= conservationPct:
		// Long stretches on AC age the cells; hold the charge
		// instead of topping up.
		p.Actions = append(p.Actions, action.Action{
			Type:   action.Opportunistic,
			Target: action.TargetBatteryMode,
			Value:  action.ChargeRate{LimitPercent: conservationPct, Conservation: true},
			Reason: "on AC, conserve battery health",
		})
	}

	a.stats.proposed += len(p.Actions)
	return p, nil
}

func (a *BatteryAgent) Notify(res *executor.Result) {
	a.stats.record(a.Name(), res)
	a.bus.UpdateState(a.Name(), bus.AgentState{
		Proposed:    a.stats.proposed,
		Executed:    a.stats.executed,
		SuccessRate: a.stats.successRate(),
	})
}
