// Package action defines the resource-action data model shared by the
// agents, the arbitration engine, and the hardware executor.
package action

import "fmt"

// Type is the urgency class attached to a single action. Conflict
// resolution compares these ordinals directly, so the declaration
// order matters: later constants outrank earlier ones.
type Type int

const (
	Opportunistic Type = iota
	Reactive
	Proactive
	Critical
	Emergency
)

// String returns the human-readable name of the action type.
func (t Type) String() string {
	switch t {
	case Opportunistic:
		return "opportunistic"
	case Reactive:
		return "reactive"
	case Proactive:
		return "proactive"
	case Critical:
		return "critical"
	case Emergency:
		return "emergency"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Known target-resource identifiers. Unknown targets are legal; the
// arbiter scores them neutrally and the executor skips them.
const (
	TargetCPULongTerm       = "CPU_PL1"
	TargetCPUShortTerm      = "CPU_PL2"
	TargetGPUPower          = "GPU_TGP"
	TargetPowerMode         = "POWER_MODE"
	TargetFanProfile        = "FAN_PROFILE"
	TargetGPUOverclock      = "GPU_OC"
	TargetGPUPowerState     = "GPU_POWER_STATE"
	TargetDisplayBrightness = "DISPLAY_BRIGHTNESS"
	TargetDisplayRefresh    = "DISPLAY_REFRESH"
	TargetKeyboardLight     = "KEYBOARD_LIGHT"
	TargetBatteryMode       = "BATTERY_MODE"
	TargetHybridMode        = "HYBRID_MODE"
	TargetCoordinateEmerg   = "COORDINATE_EMERGENCY_MODE"
)

// Action is a single requested change to one hardware resource.
type Action struct {
	Type    Type
	Target  string
	Value   Value
	Reason  string
	Context map[string]any // optional scratch data, may be nil
}

// Tier is an agent's declared priority band. It is informational
// bookkeeping only; conflict resolution uses the per-action Type.
type Tier int

const (
	TierLow Tier = iota
	TierNormal
	TierHigh
	TierCritical
)

// String returns the human-readable name of the tier.
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierNormal:
		return "normal"
	case TierHigh:
		return "high"
	case TierCritical:
		return "critical"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Proposal is one agent's requested actions for a single cycle.
// Proposals are created fresh each cycle and never persisted.
type Proposal struct {
	Agent   string
	Tier    Tier
	Actions []Action
}

// Empty reports whether the proposal requests nothing.
func (p Proposal) Empty() bool { return len(p.Actions) == 0 }
