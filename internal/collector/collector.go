// Package collector builds the per-cycle context snapshot from procfs
// and sysfs. A collector is safe for use from the single cycle driver
// goroutine plus concurrent capability queries.
package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// tempWindow is how many recent CPU temperature samples feed the trend
// derivation.
const tempWindow = 10

// Capabilities describes what hardware surfaces probing found.
type Capabilities struct {
	Hwmon       bool
	Battery     bool
	DiscreteGPU bool
	LegionSysfs bool
}

// Collector reads the machine state. Root is prepended to every path
// so tests can point it at a fabricated tree.
type Collector struct {
	root  string
	start time.Time

	mu            sync.Mutex
	intent        snapshot.Intent
	tempHistory   []float64
	prevBusy      uint64
	prevTotal     uint64
	lastWorkload  snapshot.WorkloadType
	workloadSince time.Time
	probed        bool
	caps          Capabilities
}

// New returns a collector rooted at the given filesystem prefix
// (normally "/").
func New(root string) *Collector {
	return &Collector{
		root:   root,
		start:  time.Now(),
		intent: snapshot.IntentBalanced,
	}
}

// SetIntent records the user's declared optimization preference; it is
// copied into every subsequent snapshot.
func (c *Collector) SetIntent(i snapshot.Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intent = i
}

// Probe detects hardware capabilities once and caches the result.
func (c *Collector) Probe() Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.probed {
		return c.caps
	}

	c.caps = Capabilities{
		Hwmon:       exists(filepath.Join(c.root, "sys/class/hwmon")),
		Battery:     exists(filepath.Join(c.root, "sys/class/power_supply/BAT0")),
		LegionSysfs: exists(filepath.Join(c.root, "sys/kernel/legion_laptop")),
	}
	if matches, _ := filepath.Glob(filepath.Join(c.root, "sys/class/drm/card[0-9]")); len(matches) > 1 {
		c.caps.DiscreteGPU = true
	}
	c.probed = true
	return c.caps
}

// ResetProbe clears the cached capability detection so the next Probe
// re-examines the hardware.
func (c *Collector) ResetProbe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probed = false
	c.caps = Capabilities{}
}

// Collect builds a fully-populated snapshot, or an error if the
// machine state cannot be read, in which case the cycle is skipped.
func (c *Collector) Collect() (*snapshot.Snapshot, error) {
	cpuTemp, gpuTemp, temps, fans, err := c.readThermal()
	if err != nil {
		return nil, fmt.Errorf("thermal: %w", err)
	}

	c.mu.Lock()
	c.tempHistory = append(c.tempHistory, cpuTemp)
	if len(c.tempHistory) > tempWindow {
		c.tempHistory = c.tempHistory[len(c.tempHistory)-tempWindow:]
	}
	history := make([]float64, len(c.tempHistory))
	copy(history, c.tempHistory)
	intent := c.intent
	c.mu.Unlock()

	battery := c.readBattery()
	power := c.readPower(battery.OnBattery)
	gpu := c.readGPU()
	cpuUtil := c.cpuUtilization()

	workload := c.classify(cpuUtil, gpu)
	now := time.Now()
	c.mu.Lock()
	if workload.Type != c.lastWorkload || c.workloadSince.IsZero() {
		c.lastWorkload = workload.Type
		c.workloadSince = now
	}
	workload.Duration = now.Sub(c.workloadSince)
	c.mu.Unlock()

	snap := &snapshot.Snapshot{
		Thermal: snapshot.Thermal{
			CPUTemp: cpuTemp,
			GPUTemp: gpuTemp,
			Temps:   temps,
			FanRPM:  fans,
			Trend:   snapshot.DeriveTrend(history),
		},
		Power:     power,
		GPU:       gpu,
		Battery:   battery,
		Workload:  workload,
		Intent:    intent,
		Timestamp: now,
		Uptime:    time.Since(c.start),
		Extra:     make(map[string]any),
	}
	return snap, nil
}

// classify is a deliberately coarse workload classifier; the real
// signal for agents is utilization, and confidence reflects how thin
// the evidence is.
func (c *Collector) classify(cpuUtil float64, gpu snapshot.GPU) snapshot.Workload {
	w := snapshot.Workload{
		CPUUtil:    cpuUtil,
		GPUUtil:    gpu.Utilization,
		UserActive: true,
		Confidence: 0.5,
	}
	switch {
	case gpu.Utilization > 60:
		w.Type = snapshot.WorkloadGaming
		w.Confidence = 0.7
	case cpuUtil > 70:
		w.Type = snapshot.WorkloadDevelopment
	case cpuUtil < 10 && gpu.Utilization < 5:
		w.Type = snapshot.WorkloadIdle
		w.UserActive = false
		w.Confidence = 0.8
	default:
		w.Type = snapshot.WorkloadProductivity
	}
	return w
}

// readPower reads the active power mode and limits.
func (c *Collector) readPower(onBattery bool) snapshot.Power {
	p := snapshot.Power{
		Mode:        action.PowerModeBalanced,
		ACConnected: !onBattery,
	}

	if s, err := readString(filepath.Join(c.root, "sys/firmware/acpi/platform_profile")); err == nil {
		switch s {
		case "quiet", "low-power":
			p.Mode = action.PowerModeQuiet
		case "performance":
			p.Mode = action.PowerModePerformance
		case "balanced-performance":
			p.Mode = action.PowerModeCustom
		}
	}

	p.CPULongTermW = readInt(filepath.Join(c.root, "sys/kernel/legion_laptop/cpu_longterm_powerlimit"))
	p.CPUShortTermW = readInt(filepath.Join(c.root, "sys/kernel/legion_laptop/cpu_shortterm_powerlimit"))
	p.GPUPowerW = readInt(filepath.Join(c.root, "sys/kernel/legion_laptop/gpu_ctgp_powerlimit"))
	return p
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// readString reads a one-line sysfs attribute.
func readString(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// readInt reads a numeric sysfs attribute, 0 if absent or malformed.
func readInt(path string) int {
	s, err := readString(path)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
