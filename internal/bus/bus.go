// Package bus implements the coordination-signal bus: a short-lived,
// time-decayed broadcast channel plus last-known state per agent. The
// bus is the only structure agents share, and every read-modify-write
// on it happens under one mutex so broadcast, eviction, and the
// emergency scan are observed atomically.
package bus

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// SignalType classifies a coordination signal.
type SignalType string

const (
	SignalNormal            SignalType = "normal"
	SignalEmergency         SignalType = "emergency"
	SignalBatteryCritical   SignalType = "battery_critical"
	SignalThermalThrottling SignalType = "thermal_throttling"
	SignalHighPower         SignalType = "high_power_consumption"
	SignalUserOverride      SignalType = "user_override"
	SignalWorkloadChange    SignalType = "workload_change"
)

// Signal is one broadcast coordination event. An empty Targets slice
// means the signal is addressed to every agent.
type Signal struct {
	ID      string
	Type    SignalType
	Source  string
	Targets []string
	Time    time.Time
	Context string
	Data    map[string]any
}

// targeted reports whether the signal is addressed to the given agent.
func (s Signal) targeted(agent string) bool {
	if len(s.Targets) == 0 {
		return true
	}
	for _, t := range s.Targets {
		if t == agent {
			return true
		}
	}
	return false
}

// AgentState is per-agent coordination bookkeeping, last-write-wins.
type AgentState struct {
	Name        string
	UpdatedAt   time.Time
	Proposed    int
	Executed    int
	SuccessRate float64
	Data        map[string]any
}

// Retention windows.
const (
	signalRetention = 5 * time.Minute
	recentWindow    = 2 * time.Minute
)

// Bus owns signal and agent-state storage. All methods are safe for
// concurrent use; one mutex guards everything.
type Bus struct {
	mu      sync.Mutex
	signals []Signal
	states  map[string]AgentState
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{states: make(map[string]AgentState)}
}

// Broadcast appends a signal and evicts everything older than the
// retention window in the same critical section. A zero Time is
// stamped with the current time; a missing ID is assigned.
func (b *Bus) Broadcast(sig Signal) {
	if sig.Time.IsZero() {
		sig.Time = time.Now()
	}
	if sig.ID == "" {
		sig.ID = uuid.New().String()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.signals = append(b.signals, sig)
	b.evictLocked(time.Now())
}

// evictLocked drops expired signals. Must be called with mu held.
func (b *Bus) evictLocked(now time.Time) {
	kept := b.signals[:0]
	for _, s := range b.signals {
		if now.Sub(s.Time) <= signalRetention {
			kept = append(kept, s)
		}
	}
	b.signals = kept
}

// ActiveSignalsFor returns all non-expired signals addressed to the
// agent (broadcast or targeted), excluding signals the agent itself
// authored.
func (b *Bus) ActiveSignalsFor(agent string) []Signal {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Signal
	for _, s := range b.signals {
		if now.Sub(s.Time) > signalRetention {
			continue
		}
		if s.Source == agent {
			continue
		}
		if !s.targeted(agent) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// UpdateState records an agent's coordination state, stamping the
// update time server-side.
func (b *Bus) UpdateState(agent string, state AgentState) {
	state.Name = agent
	state.UpdatedAt = time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[agent] = state
}

// StateOf returns the last known state for the agent. The data is
// best-effort and may be up to one cycle stale.
func (b *Bus) StateOf(agent string) (AgentState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.states[agent]
	return s, ok
}

// IsEmergency reports whether at least two distinct agents have
// broadcast Emergency signals inside the recent window. A single
// source cannot corroborate itself, which keeps one misbehaving agent
// from flipping the whole system into emergency mode.
func (b *Bus) IsEmergency() bool {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	sources := make(map[string]struct{})
	for _, s := range b.signals {
		if s.Type != SignalEmergency {
			continue
		}
		if now.Sub(s.Time) > recentWindow {
			continue
		}
		sources[s.Source] = struct{}{}
	}
	return len(sources) >= 2
}

// recentTypesLocked returns the signal types seen in the recent
// window. Must be called with mu held.
func (b *Bus) recentTypesLocked(now time.Time) map[SignalType]int {
	counts := make(map[SignalType]int)
	for _, s := range b.signals {
		if now.Sub(s.Time) > recentWindow {
			continue
		}
		counts[s.Type]++
	}
	return counts
}

// Mode is the bus-derived coordination mode. Exactly one is active.
type Mode string

const (
	ModeNormal            Mode = "normal"
	ModeEmergency         Mode = "emergency"
	ModeBatterySaving     Mode = "battery_saving"
	ModePowerOptimization Mode = "power_optimization"
	ModeThermalManagement Mode = "thermal_management"
)

// CurrentMode scans the recent window and returns the first matching
// mode in fixed precedence order: emergency, battery saving, power
// optimization, thermal management, normal.
func (b *Bus) CurrentMode() Mode {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	counts := b.recentTypesLocked(now)
	switch {
	case counts[SignalEmergency] > 0:
		return ModeEmergency
	case counts[SignalBatteryCritical] > 0:
		return ModeBatterySaving
	case counts[SignalHighPower] > 0:
		return ModePowerOptimization
	case counts[SignalThermalThrottling] > 0:
		return ModeThermalManagement
	default:
		return ModeNormal
	}
}

// Priority is the advisory global optimization-priority vector. Each
// weight is in [0,1]. It does not alter arbitration; downstream
// consumers (agents, diagnostics) read it.
type Priority struct {
	BatteryConservation float64 `json:"battery_conservation"`
	Performance         float64 `json:"performance"`
	ThermalManagement   float64 `json:"thermal_management"`
	UserExperience      float64 `json:"user_experience"`
}

var priorityTable = map[Mode]Priority{
	ModeEmergency:         {BatteryConservation: 0.8, Performance: 0.1, ThermalManagement: 1.0, UserExperience: 0.2},
	ModeBatterySaving:     {BatteryConservation: 1.0, Performance: 0.1, ThermalManagement: 0.5, UserExperience: 0.4},
	ModePowerOptimization: {BatteryConservation: 0.8, Performance: 0.3, ThermalManagement: 0.6, UserExperience: 0.5},
	ModeThermalManagement: {BatteryConservation: 0.4, Performance: 0.3, ThermalManagement: 1.0, UserExperience: 0.5},
	ModeNormal:            {BatteryConservation: 0.5, Performance: 0.6, ThermalManagement: 0.4, UserExperience: 0.8},
}

// GlobalPriority returns the weight vector for the current mode. A
// discharging battery below 20% forces the battery-saving weights
// regardless of what the signals say.
func (b *Bus) GlobalPriority(snap *snapshot.Snapshot) Priority {
	if snap != nil && snap.Battery.OnBattery && snap.Battery.ChargePercent < 20 {
		return priorityTable[ModeBatterySaving]
	}
	return priorityTable[b.CurrentMode()]
}
