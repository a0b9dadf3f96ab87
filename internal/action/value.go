package action

import "fmt"

// Value is the payload of an action. It is a closed union over the
// small set of value shapes the hardware surface actually has, so the
// scoring and validation switches stay exhaustive.
type Value interface {
	valueKind() string
	String() string
}

// Watts is an absolute power budget in watts (CPU PL1/PL2, GPU TGP).
type Watts int

func (Watts) valueKind() string { return "watts" }
func (w Watts) String() string  { return fmt.Sprintf("%dW", int(w)) }

// PowerMode is the platform power profile.
type PowerMode string

const (
	PowerModeQuiet       PowerMode = "quiet"
	PowerModeBalanced    PowerMode = "balanced"
	PowerModePerformance PowerMode = "performance"
	PowerModeCustom      PowerMode = "custom"
)

func (PowerMode) valueKind() string { return "power_mode" }
func (m PowerMode) String() string  { return string(m) }

// FanProfile selects a firmware fan curve.
type FanProfile string

const (
	FanQuiet       FanProfile = "quiet"
	FanBalanced    FanProfile = "balanced"
	FanPerformance FanProfile = "performance"
	FanAggressive  FanProfile = "aggressive"
)

func (FanProfile) valueKind() string { return "fan_profile" }
func (f FanProfile) String() string  { return string(f) }

// Flag is a boolean toggle (GPU overclock, discrete GPU power state,
// hybrid graphics mode).
type Flag bool

func (Flag) valueKind() string { return "flag" }
func (f Flag) String() string {
	if f {
		return "on"
	}
	return "off"
}

// Percent is a 0-100 value (display brightness, keyboard backlight).
type Percent int

func (Percent) valueKind() string { return "percent" }
func (p Percent) String() string  { return fmt.Sprintf("%d%%", int(p)) }

// Hertz is a display refresh rate.
type Hertz int

func (Hertz) valueKind() string { return "hertz" }
func (h Hertz) String() string  { return fmt.Sprintf("%dHz", int(h)) }

// ChargeRate describes a battery charging policy.
type ChargeRate struct {
	LimitPercent int  // stop-charge threshold, 0 = firmware default
	Conservation bool // hold charge around the limit instead of topping up
}

func (ChargeRate) valueKind() string { return "charge_rate" }
func (r ChargeRate) String() string {
	if r.Conservation {
		return fmt.Sprintf("conserve@%d%%", r.LimitPercent)
	}
	return fmt.Sprintf("charge@%d%%", r.LimitPercent)
}
