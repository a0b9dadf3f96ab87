package arbiter

import (
	"errors"
	"fmt"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// Safety thresholds. Temperatures in degrees C, power in watts,
// consistent with the scoring tables.
const (
	cpuTempLimit    = 90.0
	gpuTempLimit    = 85.0
	powerRaiseLimit = 120
	criticalBattery = 20
)

// Rejection reasons, surfaced to diagnostics by the cycle driver.
var (
	ErrThermalRisk = errors.New("plan raises power while thermally saturated")
	ErrBatteryRisk = errors.New("plan sets performance mode on a critical battery")
)

// Validator is the final gate before execution. It is stateless; every
// check takes the plan and snapshot as parameters.
type Validator struct{}

// NewValidator returns a safety validator.
func NewValidator() *Validator { return &Validator{} }

// Validate returns nil if the plan is safe to execute, or a wrapped
// ErrThermalRisk/ErrBatteryRisk describing the first violated
// invariant. A rejected plan must be discarded whole; it is never
// partially applied.
func (v *Validator) Validate(plan *action.Plan, snap *snapshot.Snapshot) error {
	if plan == nil || snap == nil {
		return nil
	}

	// Raising power budgets while a die is already saturated
	// compounds thermal risk.
	if snap.Thermal.CPUTemp > cpuTempLimit || snap.Thermal.GPUTemp > gpuTempLimit {
		for _, c := range plan.Actions {
			switch c.Action.Target {
			case action.TargetCPULongTerm, action.TargetCPUShortTerm, action.TargetGPUPower:
				if w, ok := c.Action.Value.(action.Watts); ok && int(w) > powerRaiseLimit {
					return fmt.Errorf("%w: %s=%s at cpu=%.0fC gpu=%.0fC",
						ErrThermalRisk, c.Action.Target, c.Action.Value,
						snap.Thermal.CPUTemp, snap.Thermal.GPUTemp)
				}
			}
		}
	}

	// Performance mode on an already-critical battery drains it
	// faster.
	if snap.Battery.OnBattery && snap.Battery.ChargePercent < criticalBattery {
		for _, c := range plan.Actions {
			if c.Action.Target != action.TargetPowerMode {
				continue
			}
			if m, ok := c.Action.Value.(action.PowerMode); ok && m == action.PowerModePerformance {
				return fmt.Errorf("%w: battery at %d%%",
					ErrBatteryRisk, snap.Battery.ChargePercent)
			}
		}
	}

	return nil
}
