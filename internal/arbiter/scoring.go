package arbiter

import "github.com/vivekchamoli/legionaid/internal/action"

// neutralScore is used for targets or value shapes outside the known
// tables, so arbitration still produces a deterministic choice instead
// of failing on an unrecognized action.
const neutralScore = 50

// Known wattage maxima for proportional scoring. Units match the
// safety validator's thresholds.
var wattMaxima = map[string]float64{
	action.TargetCPULongTerm:  90,
	action.TargetCPUShortTerm: 140,
	action.TargetGPUPower:     175,
}

var powerModePerf = map[action.PowerMode]float64{
	action.PowerModeQuiet:       20,
	action.PowerModeBalanced:    50,
	action.PowerModeCustom:      60,
	action.PowerModePerformance: 90,
}

var powerModeDraw = map[action.PowerMode]float64{
	action.PowerModeQuiet:       15,
	action.PowerModeBalanced:    45,
	action.PowerModeCustom:      55,
	action.PowerModePerformance: 90,
}

var fanProfilePerf = map[action.FanProfile]float64{
	action.FanQuiet:       30,
	action.FanBalanced:    50,
	action.FanPerformance: 80,
	action.FanAggressive:  95,
}

var fanProfileDraw = map[action.FanProfile]float64{
	action.FanQuiet:       10,
	action.FanBalanced:    20,
	action.FanPerformance: 35,
	action.FanAggressive:  45,
}

// PerformanceScore maps an action value to a 0-100 estimate of how
// much performance it buys.
func PerformanceScore(a action.Action) float64 {
	switch a.Target {
	case action.TargetCPULongTerm, action.TargetCPUShortTerm, action.TargetGPUPower:
		if w, ok := a.Value.(action.Watts); ok {
			return clampScore(float64(w) / wattMaxima[a.Target] * 100)
		}
	case action.TargetPowerMode:
		if m, ok := a.Value.(action.PowerMode); ok {
			if s, ok := powerModePerf[m]; ok {
				return s
			}
		}
	case action.TargetFanProfile:
		if f, ok := a.Value.(action.FanProfile); ok {
			if s, ok := fanProfilePerf[f]; ok {
				return s
			}
		}
	case action.TargetGPUOverclock:
		if f, ok := a.Value.(action.Flag); ok {
			if f {
				return 95
			}
			return 40
		}
	case action.TargetGPUPowerState:
		if f, ok := a.Value.(action.Flag); ok {
			if f {
				return 90
			}
			return 20
		}
	}
	return neutralScore
}

// PowerScore maps an action value to a 0-100 estimate of its power
// draw. Lower is more efficient; a powered-down discrete GPU scores
// near zero.
func PowerScore(a action.Action) float64 {
	switch a.Target {
	case action.TargetCPULongTerm, action.TargetCPUShortTerm, action.TargetGPUPower:
		if w, ok := a.Value.(action.Watts); ok {
			return clampScore(float64(w) / wattMaxima[a.Target] * 100)
		}
	case action.TargetPowerMode:
		if m, ok := a.Value.(action.PowerMode); ok {
			if s, ok := powerModeDraw[m]; ok {
				return s
			}
		}
	case action.TargetFanProfile:
		if f, ok := a.Value.(action.FanProfile); ok {
			if s, ok := fanProfileDraw[f]; ok {
				return s
			}
		}
	case action.TargetGPUOverclock:
		if f, ok := a.Value.(action.Flag); ok {
			if f {
				return 85
			}
			return 40
		}
	case action.TargetGPUPowerState:
		if f, ok := a.Value.(action.Flag); ok {
			if f {
				return 80
			}
			return 2
		}
	}
	return neutralScore
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
