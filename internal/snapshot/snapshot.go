// Package snapshot defines the per-cycle system context. A snapshot is
// built once per cycle by the collector and is read-only afterwards:
// agents and the arbiter consume it, none of them mutate it.
package snapshot

import (
	"time"

	"github.com/vivekchamoli/legionaid/internal/action"
)

// Trend classifies recent temperature movement.
type Trend int

const (
	TrendStable Trend = iota
	TrendRisingRapidly
	TrendCooling
)

// String returns the human-readable trend name.
func (t Trend) String() string {
	switch t {
	case TrendRisingRapidly:
		return "rising-rapidly"
	case TrendCooling:
		return "cooling"
	default:
		return "stable"
	}
}

// Thermal holds per-component temperatures and fan state.
type Thermal struct {
	CPUTemp float64
	GPUTemp float64
	Temps   map[string]float64 // other sensors by hwmon label
	FanRPM  map[string]int
	Trend   Trend
}

// Power holds the active power configuration and draw.
type Power struct {
	Mode          action.PowerMode
	CPULongTermW  int // PL1
	CPUShortTermW int // PL2
	GPUPowerW     int
	TotalDrawW    float64
	ACConnected   bool
}

// GPU holds discrete-GPU activity.
type GPU struct {
	DiscreteActive bool
	Utilization    float64
	MemUtilization float64
	Processes      []string
}

// ChargingMode is the battery charging policy currently in effect.
type ChargingMode string

const (
	ChargingNormal       ChargingMode = "normal"
	ChargingConservation ChargingMode = "conservation"
	ChargingRapid        ChargingMode = "rapid"
)

// Battery holds charge state. ChargeRateW is signed: positive while
// charging, negative while discharging.
type Battery struct {
	OnBattery        bool
	ChargePercent    int
	ChargeRateW      float64
	TimeRemaining    time.Duration
	DesignCapacityWh float64
	FullCapacityWh   float64
	Mode             ChargingMode
}

// WorkloadType is the coarse classification of what the machine is
// doing right now.
type WorkloadType string

const (
	WorkloadIdle         WorkloadType = "idle"
	WorkloadProductivity WorkloadType = "productivity"
	WorkloadDevelopment  WorkloadType = "development"
	WorkloadMedia        WorkloadType = "media"
	WorkloadGaming       WorkloadType = "gaming"
)

// Workload holds the classified workload and its supporting signals.
type Workload struct {
	Type       WorkloadType
	CPUUtil    float64
	GPUUtil    float64
	ActiveApps []string
	UserActive bool
	Duration   time.Duration
	Confidence float64 // 0..1
}

// Intent is the user's declared optimization preference.
type Intent string

const (
	IntentBalanced       Intent = "balanced"
	IntentMaxPerformance Intent = "max-performance"
	IntentBatterySaving  Intent = "battery-saving"
	IntentQuiet          Intent = "quiet"
	IntentGaming         Intent = "gaming"
	IntentProductivity   Intent = "productivity"
	IntentCustom         Intent = "custom"
)

// Snapshot is the immutable-per-cycle context record.
type Snapshot struct {
	Thermal   Thermal
	Power     Power
	GPU       GPU
	Battery   Battery
	Workload  Workload
	Intent    Intent
	Timestamp time.Time
	Uptime    time.Duration
	Extra     map[string]any // agent-specific scratch data
}
