package agent

import (
	"context"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/bus"
	"github.com/vivekchamoli/legionaid/internal/executor"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// Thermal thresholds in degrees C.
const (
	thermalEmergencyTemp = 95.0
	thermalThrottleTemp  = 85.0
	thermalRelaxTemp     = 70.0
)

// ThermalAgent keeps die temperatures in check: fan curve escalation,
// emergency power cuts, and throttle signals for the other agents.
type ThermalAgent struct {
	bus   *bus.Bus
	stats stats
}

// NewThermalAgent returns the thermal agent.
func NewThermalAgent(b *bus.Bus) *ThermalAgent {
	return &ThermalAgent{bus: b}
}

func (a *ThermalAgent) Name() string      { return "thermal" }
func (a *ThermalAgent) Tier() action.Tier { return action.TierCritical }

func (a *ThermalAgent) Propose(ctx context.Context, snap *snapshot.Snapshot) (action.Proposal, error) {
	p := action.Proposal{Agent: a.Name(), Tier: a.Tier()}
	hottest := snap.Thermal.CPUTemp
	if snap.Thermal.GPUTemp > hottest {
		hottest = snap.Thermal.GPUTemp
	}

	switch {
	case hottest >= thermalEmergencyTemp:
		a.bus.Broadcast(bus.Signal{
			Type:    bus.SignalEmergency,
			Source:  a.Name(),
			Context: "die temperature at emergency threshold",
		})
		p.Actions = append(p.Actions,
			action.Action{
				Type:   action.Emergency,
				Target: action.TargetFanProfile,
				Value:  action.FanAggressive,
				Reason: "emergency cooling, die at limit",
			},
			action.Action{
				Type:   action.Emergency,
				Target: action.TargetCPUShortTerm,
				Value:  action.Watts(45),
				Reason: "emergency power cut, die at limit",
			},
			action.Action{
				Type:   action.Emergency,
				Target: action.TargetCoordinateEmerg,
				Value:  action.Flag(true),
				Reason: "thermal emergency, all agents back off",
			})

	case hottest >= thermalThrottleTemp:
		a.bus.Broadcast(bus.Signal{
			Type:    bus.SignalThermalThrottling,
			Source:  a.Name(),
			Context: "sustained high die temperature",
		})
		p.Actions = append(p.Actions,
			action.Action{
				Type:   action.Critical,
				Target: action.TargetFanProfile,
				Value:  action.FanPerformance,
				Reason: "raise cooling before throttle point",
			},
			action.Action{
				Type:   action.Critical,
				Target: action.TargetCPULongTerm,
				Value:  action.Watts(35),
				Reason: "shed sustained power to cool down",
			})

	case snap.Thermal.Trend == snapshot.TrendRisingRapidly:
		p.Actions = append(p.Actions, action.Action{
			Type:   action.Proactive,
			Target: action.TargetFanProfile,
			Value:  action.FanPerformance,
			Reason: "temperature rising rapidly, spin up early",
		})

	case hottest <= thermalRelaxTemp && snap.Thermal.Trend == snapshot.TrendCooling:
		p.Actions = append(p.Actions, action.Action{
			Type:   action.Opportunistic,
			Target: action.TargetFanProfile,
			Value:  action.FanBalanced,
			Reason: "thermals comfortable, relax fan curve",
		})
	}

	a.stats.proposed += len(p.Actions)
	return p, nil
}

func (a *ThermalAgent) Notify(res *executor.Result) {
	a.stats.record(a.Name(), res)
	a.bus.UpdateState(a.Name(), bus.AgentState{
		Proposed:    a.stats.proposed,
		Executed:    a.stats.executed,
		SuccessRate: a.stats.successRate(),
	})
}
