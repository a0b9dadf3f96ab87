// battery.go reads /sys/class/power_supply for charge state and the
// drm tree for discrete-GPU activity.
package collector

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// readBattery reads BAT0 and the mains adapter. Machines without a
// battery report AC-connected with a full, inert battery block.
func (c *Collector) readBattery() snapshot.Battery {
	dir := filepath.Join(c.root, "sys/class/power_supply/BAT0")
	b := snapshot.Battery{ChargePercent: 100, Mode: snapshot.ChargingNormal}

	if !exists(dir) {
		return b
	}

	b.ChargePercent = readInt(filepath.Join(dir, "capacity"))
	status, _ := readString(filepath.Join(dir, "status"))
	b.OnBattery = status == "Discharging"

	// power_now is in microwatts, energy files in microwatt-hours.
	rate := float64(readInt(filepath.Join(dir, "power_now"))) / 1e6
	if b.OnBattery {
		rate = -rate
	}
	b.ChargeRateW = rate

	energyNow := float64(readInt(filepath.Join(dir, "energy_now"))) / 1e6
	b.FullCapacityWh = float64(readInt(filepath.Join(dir, "energy_full"))) / 1e6
	b.DesignCapacityWh = float64(readInt(filepath.Join(dir, "energy_full_design"))) / 1e6

	if b.OnBattery && rate < 0 {
		hours := energyNow / -rate
		b.TimeRemaining = time.Duration(hours * float64(time.Hour))
	}

	if readInt(filepath.Join(c.root, "sys/bus/platform/drivers/ideapad_acpi/VPC2004:00/conservation_mode")) == 1 {
		b.Mode = snapshot.ChargingConservation
	}
	return b
}

// readGPU reports discrete-GPU state. Utilization comes from the
// amdgpu busy file when present; the nvidia proprietary path has no
// sysfs equivalent, so activation state alone is reported there.
func (c *Collector) readGPU() snapshot.GPU {
	g := snapshot.GPU{}

	cards, _ := filepath.Glob(filepath.Join(c.root, "sys/class/drm/card[0-9]"))
	if len(cards) < 2 {
		return g
	}

	dev := filepath.Join(cards[len(cards)-1], "device")
	if s, err := readString(filepath.Join(dev, "power_state")); err == nil {
		g.DiscreteActive = s == "D0"
	}
	g.Utilization = float64(readInt(filepath.Join(dev, "gpu_busy_percent")))
	g.MemUtilization = float64(readInt(filepath.Join(dev, "mem_busy_percent")))
	g.Processes = c.gpuClients()
	return g
}

// gpuClients names the processes holding a DRM render node open. Sysfs
// has no per-card client list, so this walks /proc fd tables; any
// render client counts, which errs on the side of keeping the dGPU
// powered.
func (c *Collector) gpuClients() []string {
	procs, _ := filepath.Glob(filepath.Join(c.root, "proc/[0-9]*"))
	var out []string
	for _, p := range procs {
		fds, err := os.ReadDir(filepath.Join(p, "fd"))
		if err != nil {
			continue
		}
		for _, fd := range fds {
			dest, err := os.Readlink(filepath.Join(p, "fd", fd.Name()))
			if err != nil || !strings.Contains(dest, "/dri/renderD") {
				continue
			}
			name, err := readString(filepath.Join(p, "comm"))
			if err != nil {
				name = filepath.Base(p)
			}
			out = append(out, name)
			break
		}
	}
	return out
}
