package snapshot

// Trend thresholds in degrees C across the sample window.
const (
	risingThreshold  = 3.0
	coolingThreshold = -1.5
)

// DeriveTrend classifies temperature movement from a window of recent
// samples, oldest first. Fewer than two samples is always stable.
func DeriveTrend(samples []float64) Trend {
	if len(samples) < 2 {
		return TrendStable
	}
	delta := samples[len(samples)-1] - samples[0]
	switch {
	case delta >= risingThreshold:
		return TrendRisingRapidly
	case delta <= coolingThreshold:
		return TrendCooling
	default:
		return TrendStable
	}
}
