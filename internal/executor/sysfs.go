// sysfs.go implements the hardware handlers that write through the
// legion_laptop kernel interface and the generic Linux sysfs trees.
package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vivekchamoli/legionaid/internal/action"
)

// Sysfs paths relative to the configured root ("/" on real hardware,
// a temp dir in tests).
const (
	legionCPULongTerm  = "sys/kernel/legion_laptop/cpu_longterm_powerlimit"
	legionCPUShortTerm = "sys/kernel/legion_laptop/cpu_shortterm_powerlimit"
	legionGPUPower     = "sys/kernel/legion_laptop/gpu_ctgp_powerlimit"
	legionFanMode      = "sys/kernel/legion_laptop/fan_mode"
	platformProfile    = "sys/firmware/acpi/platform_profile"
	backlightDir       = "sys/class/backlight"
	kbdBacklight       = "sys/class/leds/platform::kbd_backlight/brightness"
	conservationMode   = "sys/bus/platform/drivers/ideapad_acpi/VPC2004:00/conservation_mode"
)

// writeSysfs writes a value to one sysfs attribute.
func writeSysfs(path, value string) error {
	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		return fmt.Errorf("sysfs write %s: %w", path, err)
	}
	return nil
}

// CPUPowerHandler writes CPU package power limits.
type CPUPowerHandler struct {
	Root string
}

func (h *CPUPowerHandler) Family() string { return "cpu_power" }

func (h *CPUPowerHandler) Targets() []string {
	return []string{action.TargetCPULongTerm, action.TargetCPUShortTerm}
}

func (h *CPUPowerHandler) Apply(c action.Candidate) error {
	w, ok := c.Action.Value.(action.Watts)
	if !ok {
		return fmt.Errorf("cpu power limit wants watts, got %T", c.Action.Value)
	}
	path := legionCPULongTerm
	if c.Action.Target == action.TargetCPUShortTerm {
		path = legionCPUShortTerm
	}
	return writeSysfs(filepath.Join(h.Root, path), strconv.Itoa(int(w)))
}

// GPUHandler writes the discrete-GPU power budget, overclock flag, and
// power state.
type GPUHandler struct {
	Root string
}

func (h *GPUHandler) Family() string { return "gpu" }

func (h *GPUHandler) Targets() []string {
	return []string{action.TargetGPUPower, action.TargetGPUOverclock, action.TargetGPUPowerState}
}

func (h *GPUHandler) Apply(c action.Candidate) error {
	switch c.Action.Target {
	case action.TargetGPUPower:
		w, ok := c.Action.Value.(action.Watts)
		if !ok {
			return fmt.Errorf("gpu power wants watts, got %T", c.Action.Value)
		}
		return writeSysfs(filepath.Join(h.Root, legionGPUPower), strconv.Itoa(int(w)))
	case action.TargetGPUOverclock, action.TargetGPUPowerState:
		f, ok := c.Action.Value.(action.Flag)
		if !ok {
			return fmt.Errorf("%s wants a flag, got %T", c.Action.Target, c.Action.Value)
		}
		// The overclock and dGPU power toggles live behind the
		// same legion sysfs switch family.
		name := "gpu_oc"
		if c.Action.Target == action.TargetGPUPowerState {
			name = "gpu_power_state"
		}
		v := "0"
		if f {
			v = "1"
		}
		return writeSysfs(filepath.Join(h.Root, "sys/kernel/legion_laptop", name), v)
	}
	return fmt.Errorf("gpu handler: unknown target %s", c.Action.Target)
}

// FanHandler writes the firmware fan mode.
type FanHandler struct {
	Root string
}

func (h *FanHandler) Family() string { return "fan" }

func (h *FanHandler) Targets() []string { return []string{action.TargetFanProfile} }

var fanModeValues = map[action.FanProfile]string{
	action.FanQuiet:       "0",
	action.FanBalanced:    "1",
	action.FanPerformance: "2",
	action.FanAggressive:  "3",
}

func (h *FanHandler) Apply(c action.Candidate) error {
	f, ok := c.Action.Value.(action.FanProfile)
	if !ok {
		return fmt.Errorf("fan profile wants a profile, got %T", c.Action.Value)
	}
	v, ok := fanModeValues[f]
	if !ok {
		return fmt.Errorf("unknown fan profile %q", f)
	}
	return writeSysfs(filepath.Join(h.Root, legionFanMode), v)
}

// PowerModeHandler writes the ACPI platform profile.
type PowerModeHandler struct {
	Root string
}

func (h *PowerModeHandler) Family() string { return "power_mode" }

func (h *PowerModeHandler) Targets() []string { return []string{action.TargetPowerMode} }

var platformProfileValues = map[action.PowerMode]string{
	action.PowerModeQuiet:       "quiet",
	action.PowerModeBalanced:    "balanced",
	action.PowerModePerformance: "performance",
	action.PowerModeCustom:      "balanced-performance",
}

func (h *PowerModeHandler) Apply(c action.Candidate) error {
	m, ok := c.Action.Value.(action.PowerMode)
	if !ok {
		return fmt.Errorf("power mode wants a mode, got %T", c.Action.Value)
	}
	v, ok := platformProfileValues[m]
	if !ok {
		return fmt.Errorf("unknown power mode %q", m)
	}
	return writeSysfs(filepath.Join(h.Root, platformProfile), v)
}

// BatteryHandler writes the charging policy.
type BatteryHandler struct {
	Root string
}

func (h *BatteryHandler) Family() string { return "battery" }

func (h *BatteryHandler) Targets() []string { return []string{action.TargetBatteryMode} }

func (h *BatteryHandler) Apply(c action.Candidate) error {
	r, ok := c.Action.Value.(action.ChargeRate)
	if !ok {
		return fmt.Errorf("battery mode wants a charge rate, got %T", c.Action.Value)
	}
	v := "0"
	if r.Conservation {
		v = "1"
	}
	return writeSysfs(filepath.Join(h.Root, conservationMode), v)
}

// DisplayHandler writes panel brightness and, through the hybrid mode
// switch, the mux state. Brightness percent is scaled against the
// panel's max_brightness.
type DisplayHandler struct {
	Root string
}

func (h *DisplayHandler) Family() string { return "display" }

func (h *DisplayHandler) Targets() []string {
	return []string{action.TargetDisplayBrightness, action.TargetDisplayRefresh, action.TargetHybridMode}
}

func (h *DisplayHandler) Apply(c action.Candidate) error {
	switch c.Action.Target {
	case action.TargetDisplayBrightness:
		p, ok := c.Action.Value.(action.Percent)
		if !ok {
			return fmt.Errorf("brightness wants a percent, got %T", c.Action.Value)
		}
		return h.setBrightness(int(p))
	case action.TargetDisplayRefresh:
		hz, ok := c.Action.Value.(action.Hertz)
		if !ok {
			return fmt.Errorf("refresh rate wants hertz, got %T", c.Action.Value)
		}
		// Refresh switching goes through the compositor, not
		// sysfs; recorded for the session helper to pick up. The
		// runtime dir does not survive reboots, so create it here.
		path := filepath.Join(h.Root, "var/run/legionaid/refresh_hz")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create runtime dir: %w", err)
		}
		return writeSysfs(path, strconv.Itoa(int(hz)))
	case action.TargetHybridMode:
		f, ok := c.Action.Value.(action.Flag)
		if !ok {
			return fmt.Errorf("hybrid mode wants a flag, got %T", c.Action.Value)
		}
		v := "0"
		if f {
			v = "1"
		}
		return writeSysfs(filepath.Join(h.Root, "sys/kernel/legion_laptop/hybrid_mode"), v)
	}
	return fmt.Errorf("display handler: unknown target %s", c.Action.Target)
}

func (h *DisplayHandler) setBrightness(percent int) error {
	dirs, err := filepath.Glob(filepath.Join(h.Root, backlightDir, "*"))
	if err != nil || len(dirs) == 0 {
		return fmt.Errorf("no backlight device under %s", backlightDir)
	}
	dev := dirs[0]

	raw, err := os.ReadFile(filepath.Join(dev, "max_brightness"))
	if err != nil {
		return fmt.Errorf("read max_brightness: %w", err)
	}
	max, err := strconv.Atoi(trimNL(raw))
	if err != nil {
		return fmt.Errorf("parse max_brightness: %w", err)
	}

	val := max * percent / 100
	return writeSysfs(filepath.Join(dev, "brightness"), strconv.Itoa(val))
}

// KeyboardHandler writes the keyboard backlight level.
type KeyboardHandler struct {
	Root string
}

func (h *KeyboardHandler) Family() string { return "keyboard" }

func (h *KeyboardHandler) Targets() []string { return []string{action.TargetKeyboardLight} }

func (h *KeyboardHandler) Apply(c action.Candidate) error {
	p, ok := c.Action.Value.(action.Percent)
	if !ok {
		return fmt.Errorf("keyboard light wants a percent, got %T", c.Action.Value)
	}
	// kbd_backlight exposes levels 0-2.
	level := 0
	switch {
	case p >= 67:
		level = 2
	case p >= 34:
		level = 1
	}
	return writeSysfs(filepath.Join(h.Root, kbdBacklight), strconv.Itoa(level))
}

func trimNL(b []byte) string {
	s := string(b)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
