package agent

import (
	"context"
	"testing"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/bus"
	"github.com/vivekchamoli/legionaid/internal/executor"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

func findAction(t *testing.T, p action.Proposal, target string) action.Action {
	t.Helper()
	for _, a := range p.Actions {
		if a.Target == target {
			return a
		}
	}
	t.Fatalf("proposal has no action for %s", target)
	return action.Action{}
}

func hasAction(p action.Proposal, target string) bool {
	for _, a := range p.Actions {
		if a.Target == target {
			return true
		}
	}
	return false
}

func TestThermalAgentEmergency(t *testing.T) {
	b := bus.New()
	a := NewThermalAgent(b)

	snap := &snapshot.Snapshot{Thermal: snapshot.Thermal{CPUTemp: 96}}
	p, err := a.Propose(context.Background(), snap)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	fan := findAction(t, p, action.TargetFanProfile)
	if fan.Type != action.Emergency || fan.Value != action.FanAggressive {
		t.Errorf("fan action = %v %v, want emergency aggressive", fan.Type, fan.Value)
	}
	cut := findAction(t, p, action.TargetCPUShortTerm)
	if cut.Type != action.Emergency || cut.Value != action.Watts(45) {
		t.Errorf("power cut = %v %v, want emergency 45W", cut.Type, cut.Value)
	}
	if !hasAction(p, action.TargetCoordinateEmerg) {
		t.Error("no emergency coordination action")
	}

	sigs := b.ActiveSignalsFor("power")
	if len(sigs) != 1 || sigs[0].Type != bus.SignalEmergency {
		t.Errorf("signals = %v, want one emergency broadcast", sigs)
	}
}

func TestThermalAgentHotGPUCountsToo(t *testing.T) {
	a := NewThermalAgent(bus.New())
	snap := &snapshot.Snapshot{Thermal: snapshot.Thermal{CPUTemp: 60, GPUTemp: 96}}
	p, _ := a.Propose(context.Background(), snap)
	if !hasAction(p, action.TargetCoordinateEmerg) {
		t.Error("hot GPU alone did not trigger the emergency path")
	}
}

func TestThermalAgentThrottleBand(t *testing.T) {
	b := bus.New()
	a := NewThermalAgent(b)

	snap := &snapshot.Snapshot{Thermal: snapshot.Thermal{CPUTemp: 88}}
	p, _ := a.Propose(context.Background(), snap)

	fan := findAction(t, p, action.TargetFanProfile)
	if fan.Type != action.Critical || fan.Value != action.FanPerformance {
		t.Errorf("fan action = %v %v, want critical performance", fan.Type, fan.Value)
	}
	shed := findAction(t, p, action.TargetCPULongTerm)
	if shed.Value != action.Watts(35) {
		t.Errorf("shed = %v, want 35W", shed.Value)
	}

	sigs := b.ActiveSignalsFor("power")
	if len(sigs) != 1 || sigs[0].Type != bus.SignalThermalThrottling {
		t.Errorf("signals = %v, want one throttling broadcast", sigs)
	}
}

func TestThermalAgentRisingTrend(t *testing.T) {
	a := NewThermalAgent(bus.New())
	snap := &snapshot.Snapshot{Thermal: snapshot.Thermal{CPUTemp: 75, Trend: snapshot.TrendRisingRapidly}}
	p, _ := a.Propose(context.Background(), snap)

	fan := findAction(t, p, action.TargetFanProfile)
	if fan.Type != action.Proactive || fan.Value != action.FanPerformance {
		t.Errorf("fan action = %v %v, want proactive performance", fan.Type, fan.Value)
	}
}

func TestThermalAgentRelaxesWhenCooling(t *testing.T) {
	a := NewThermalAgent(bus.New())

	cooling := &snapshot.Snapshot{Thermal: snapshot.Thermal{CPUTemp: 65, Trend: snapshot.TrendCooling}}
	p, _ := a.Propose(context.Background(), cooling)
	fan := findAction(t, p, action.TargetFanProfile)
	if fan.Type != action.Opportunistic || fan.Value != action.FanBalanced {
		t.Errorf("fan action = %v %v, want opportunistic balanced", fan.Type, fan.Value)
	}

	// Stable at the same temperature proposes nothing.
	stable := &snapshot.Snapshot{Thermal: snapshot.Thermal{CPUTemp: 65, Trend: snapshot.TrendStable}}
	p, _ = a.Propose(context.Background(), stable)
	if !p.Empty() {
		t.Errorf("stable comfortable thermals proposed %d actions, want none", len(p.Actions))
	}
}

func TestBatteryAgentCritical(t *testing.T) {
	b := bus.New()
	a := NewBatteryAgent(b)

	snap := &snapshot.Snapshot{Battery: snapshot.Battery{OnBattery: true, ChargePercent: 10}}
	p, err := a.Propose(context.Background(), snap)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	mode := findAction(t, p, action.TargetPowerMode)
	if mode.Type != action.Critical || mode.Value != action.PowerModeQuiet {
		t.Errorf("mode action = %v %v, want critical quiet", mode.Type, mode.Value)
	}
	limit := findAction(t, p, action.TargetCPULongTerm)
	if limit.Value != action.Watts(15) {
		t.Errorf("power cap = %v, want 15W", limit.Value)
	}
	dim := findAction(t, p, action.TargetDisplayBrightness)
	if dim.Value != action.Percent(30) {
		t.Errorf("brightness = %v, want 30%%", dim.Value)
	}

	sigs := b.ActiveSignalsFor("power")
	if len(sigs) != 1 || sigs[0].Type != bus.SignalBatteryCritical {
		t.Errorf("signals = %v, want one battery-critical broadcast", sigs)
	}
}

func TestBatteryAgentLowBand(t *testing.T) {
	a := NewBatteryAgent(bus.New())
	snap := &snapshot.Snapshot{Battery: snapshot.Battery{OnBattery: true, ChargePercent: 25}}
	p, _ := a.Propose(context.Background(), snap)

	mode := findAction(t, p, action.TargetPowerMode)
	if mode.Type != action.Proactive || mode.Value != action.PowerModeBalanced {
		t.Errorf("mode action = %v %v, want proactive balanced", mode.Type, mode.Value)
	}
}

func TestBatteryAgentConservationOnAC(t *testing.T) {
	a := NewBatteryAgent(bus.New())

	snap := &snapshot.Snapshot{Battery: snapshot.Battery{
		OnBattery:     false,
		ChargePercent: 80,
		Mode:          snapshot.ChargingNormal,
	}}
	p, _ := a.Propose(context.Background(), snap)

	cons := findAction(t, p, action.TargetBatteryMode)
	rate, ok := cons.Value.(action.ChargeRate)
	if !ok || !rate.Conservation {
		t.Errorf("value = %v, want conservation charge rate", cons.Value)
	}

	// Already conserving: nothing to do.
	snap.Battery.Mode = snapshot.ChargingConservation
	p, _ = a.Propose(context.Background(), snap)
	if !p.Empty() {
		t.Errorf("already-conserving battery proposed %d actions, want none", len(p.Actions))
	}
}

func TestPowerAgentFollowsIntent(t *testing.T) {
	a := NewPowerAgent(bus.New())

	snap := &snapshot.Snapshot{
		Intent: snapshot.IntentMaxPerformance,
		Power:  snapshot.Power{CPULongTermW: 45, CPUShortTermW: 90},
	}
	p, _ := a.Propose(context.Background(), snap)

	pl1 := findAction(t, p, action.TargetCPULongTerm)
	if pl1.Value != action.Watts(65) {
		t.Errorf("PL1 = %v, want boost 65W", pl1.Value)
	}
	pl2 := findAction(t, p, action.TargetCPUShortTerm)
	if pl2.Value != action.Watts(130) {
		t.Errorf("PL2 = %v, want boost 130W", pl2.Value)
	}
}

func TestPowerAgentSkipsMatchingLimits(t *testing.T) {
	a := NewPowerAgent(bus.New())

	// Limits already at the balanced preset: no actions.
	snap := &snapshot.Snapshot{
		Intent: snapshot.IntentBalanced,
		Power:  snapshot.Power{CPULongTermW: 45, CPUShortTermW: 90},
	}
	p, _ := a.Propose(context.Background(), snap)
	if !p.Empty() {
		t.Errorf("matching limits proposed %d actions, want none", len(p.Actions))
	}
}

func TestPowerAgentBusModeOverridesIntent(t *testing.T) {
	b := bus.New()
	b.Broadcast(bus.Signal{Type: bus.SignalBatteryCritical, Source: "battery"})
	a := NewPowerAgent(b)

	snap := &snapshot.Snapshot{
		Intent: snapshot.IntentMaxPerformance,
		Power:  snapshot.Power{CPULongTermW: 65, CPUShortTermW: 130},
	}
	p, _ := a.Propose(context.Background(), snap)

	pl1 := findAction(t, p, action.TargetCPULongTerm)
	if pl1.Value != action.Watts(25) || pl1.Type != action.Reactive {
		t.Errorf("PL1 = %v %v, want reactive saver 25W", pl1.Type, pl1.Value)
	}
}

func TestPowerAgentFlagsHighDraw(t *testing.T) {
	b := bus.New()
	a := NewPowerAgent(b)

	snap := &snapshot.Snapshot{
		Power:   snapshot.Power{TotalDrawW: 135, CPULongTermW: 45, CPUShortTermW: 90},
		Battery: snapshot.Battery{OnBattery: true, ChargePercent: 50},
	}
	a.Propose(context.Background(), snap)

	sigs := b.ActiveSignalsFor("display")
	if len(sigs) != 1 || sigs[0].Type != bus.SignalHighPower {
		t.Errorf("signals = %v, want one high-power broadcast", sigs)
	}

	// Same draw on AC is fine.
	b2 := bus.New()
	a2 := NewPowerAgent(b2)
	snap.Battery.OnBattery = false
	a2.Propose(context.Background(), snap)
	if got := b2.ActiveSignalsFor("display"); len(got) != 0 {
		t.Errorf("AC high draw broadcast %d signals, want 0", len(got))
	}
}

func TestGPUAgentPowersDownIdleDGPU(t *testing.T) {
	a := NewGPUAgent(bus.New())

	snap := &snapshot.Snapshot{
		GPU: snapshot.GPU{DiscreteActive: true, Utilization: 2},
	}
	p, _ := a.Propose(context.Background(), snap)

	st := findAction(t, p, action.TargetGPUPowerState)
	if st.Type != action.Proactive || st.Value != action.Flag(false) {
		t.Errorf("power state = %v %v, want proactive off", st.Type, st.Value)
	}

	// A low-utilization dGPU with live clients stays powered.
	snap.GPU.Processes = []string{"gamescope"}
	p, _ = a.Propose(context.Background(), snap)
	if hasAction(p, action.TargetGPUPowerState) {
		t.Error("proposed power-down while a client holds the GPU")
	}
}

func TestGPUAgentGamingBudget(t *testing.T) {
	a := NewGPUAgent(bus.New())

	snap := &snapshot.Snapshot{
		Intent: snapshot.IntentGaming,
		GPU:    snapshot.GPU{DiscreteActive: true, Utilization: 80},
		Power:  snapshot.Power{GPUPowerW: 100},
	}
	p, _ := a.Propose(context.Background(), snap)

	budget := findAction(t, p, action.TargetGPUPower)
	if budget.Value != action.Watts(gpuBudgetFull) {
		t.Errorf("budget = %v, want %dW", budget.Value, gpuBudgetFull)
	}
}

func TestGPUAgentThermalModeCutsBudget(t *testing.T) {
	b := bus.New()
	b.Broadcast(bus.Signal{Type: bus.SignalThermalThrottling, Source: "thermal"})
	a := NewGPUAgent(b)

	snap := &snapshot.Snapshot{
		Intent: snapshot.IntentGaming,
		GPU:    snapshot.GPU{DiscreteActive: true, Utilization: 80},
		Power:  snapshot.Power{GPUPowerW: 140},
	}
	p, _ := a.Propose(context.Background(), snap)

	budget := findAction(t, p, action.TargetGPUPower)
	if budget.Value != action.Watts(gpuBudgetLow) || budget.Type != action.Reactive {
		t.Errorf("budget = %v %v, want reactive %dW", budget.Type, budget.Value, gpuBudgetLow)
	}
}

func TestDisplayAgentTargets(t *testing.T) {
	a := NewDisplayAgent(bus.New())

	// Gaming on AC: bright and fast.
	snap := &snapshot.Snapshot{
		Intent:   snapshot.IntentGaming,
		Workload: snapshot.Workload{UserActive: true},
	}
	p, _ := a.Propose(context.Background(), snap)
	if b := findAction(t, p, action.TargetDisplayBrightness); b.Value != action.Percent(90) {
		t.Errorf("gaming brightness = %v, want 90%%", b.Value)
	}
	if r := findAction(t, p, action.TargetDisplayRefresh); r.Value != action.Hertz(165) {
		t.Errorf("gaming refresh = %v, want 165Hz", r.Value)
	}

	// Battery saving intent dims.
	snap = &snapshot.Snapshot{
		Intent:   snapshot.IntentBatterySaving,
		Workload: snapshot.Workload{UserActive: true},
		Battery:  snapshot.Battery{OnBattery: true, ChargePercent: 50},
	}
	p, _ = a.Propose(context.Background(), snap)
	if b := findAction(t, p, action.TargetDisplayBrightness); b.Value != action.Percent(40) {
		t.Errorf("saving brightness = %v, want 40%%", b.Value)
	}
	if r := findAction(t, p, action.TargetDisplayRefresh); r.Value != action.Hertz(60) {
		t.Errorf("saving refresh = %v, want 60Hz", r.Value)
	}
}

func TestDisplayAgentBusModeOverridesIntent(t *testing.T) {
	b := bus.New()
	b.Broadcast(bus.Signal{Type: bus.SignalBatteryCritical, Source: "battery"})
	a := NewDisplayAgent(b)

	snap := &snapshot.Snapshot{
		Intent:   snapshot.IntentGaming,
		Workload: snapshot.Workload{UserActive: true},
	}
	p, _ := a.Propose(context.Background(), snap)
	if br := findAction(t, p, action.TargetDisplayBrightness); br.Value != action.Percent(35) {
		t.Errorf("brightness = %v, want bus-forced 35%%", br.Value)
	}
}

func TestDisplayAgentIdleKillsBacklight(t *testing.T) {
	a := NewDisplayAgent(bus.New())

	snap := &snapshot.Snapshot{
		Workload: snapshot.Workload{UserActive: false},
		Battery:  snapshot.Battery{OnBattery: true, ChargePercent: 50},
	}
	p, _ := a.Propose(context.Background(), snap)
	if kb := findAction(t, p, action.TargetKeyboardLight); kb.Value != action.Percent(0) {
		t.Errorf("keyboard light = %v, want 0%%", kb.Value)
	}
}

func TestNotifyUpdatesBusState(t *testing.T) {
	b := bus.New()
	a := NewThermalAgent(b)

	snap := &snapshot.Snapshot{Thermal: snapshot.Thermal{CPUTemp: 88}}
	p, _ := a.Propose(context.Background(), snap)

	res := &executor.Result{Success: true}
	for _, act := range p.Actions {
		res.Executed = append(res.Executed, action.Candidate{Agent: a.Name(), Action: act})
	}
	a.Notify(res)

	st, ok := b.StateOf("thermal")
	if !ok {
		t.Fatal("no bus state for thermal agent")
	}
	if st.Proposed != 2 || st.Executed != 2 {
		t.Errorf("state = %d/%d, want 2/2", st.Proposed, st.Executed)
	}
	if st.SuccessRate != 1.0 {
		t.Errorf("success rate = %.2f, want 1.0", st.SuccessRate)
	}
}

func TestStatsFailedResult(t *testing.T) {
	var s stats
	s.proposed = 4
	s.record("power", &executor.Result{Success: false, Err: "eio"})
	if s.failed != 1 || s.executed != 0 {
		t.Errorf("stats = failed:%d executed:%d, want 1/0", s.failed, s.executed)
	}
	if got := s.successRate(); got != 0 {
		t.Errorf("success rate = %.2f, want 0", got)
	}
}
