// hwmon.go scans /sys/class/hwmon for die temperatures and fan
// speeds, and /proc/stat for CPU utilization.
package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sensor names that identify the CPU and GPU packages across vendors.
var (
	cpuSensorNames = map[string]bool{"k10temp": true, "coretemp": true, "cpu_thermal": true, "acpitz": true}
	gpuSensorNames = map[string]bool{"amdgpu": true, "nouveau": true, "nvidia": true}
)

// readThermal walks the hwmon tree. CPU temperature is mandatory; a
// machine whose die temperature cannot be read is a machine this
// system must not drive, so the cycle is skipped upstream.
func (c *Collector) readThermal() (cpu, gpu float64, temps map[string]float64, fans map[string]int, err error) {
	temps = make(map[string]float64)
	fans = make(map[string]int)
	cpu = -1

	hwmons, _ := filepath.Glob(filepath.Join(c.root, "sys/class/hwmon/hwmon*"))
	for _, dir := range hwmons {
		name, nameErr := readString(filepath.Join(dir, "name"))
		if nameErr != nil {
			continue
		}

		if milli := readInt(filepath.Join(dir, "temp1_input")); milli != 0 {
			t := float64(milli) / 1000
			temps[name] = t
			switch {
			case cpuSensorNames[name] && cpu < 0:
				cpu = t
			case gpuSensorNames[name] && gpu == 0:
				gpu = t
			}
		}

		if rpm := readInt(filepath.Join(dir, "fan1_input")); rpm != 0 {
			fans[name] = rpm
		}
	}

	if cpu < 0 {
		return 0, 0, nil, nil, fmt.Errorf("no CPU temperature sensor under %s",
			filepath.Join(c.root, "sys/class/hwmon"))
	}
	return cpu, gpu, temps, fans, nil
}

// cpuUtilization computes busy percent from consecutive /proc/stat
// samples. The first call after start has no baseline and reports 0.
func (c *Collector) cpuUtilization() float64 {
	b, err := os.ReadFile(filepath.Join(c.root, "proc/stat"))
	if err != nil {
		return 0
	}
	line, _, _ := strings.Cut(string(b), "\n")
	fields := strings.Fields(line)
	if len(fields) < 5 || fields[0] != "cpu" {
		return 0
	}

	var total, idle uint64
	for i, f := range fields[1:] {
		v, convErr := strconv.ParseUint(f, 10, 64)
		if convErr != nil {
			return 0
		}
		total += v
		// fields 4 and 5 are idle and iowait
		if i == 3 || i == 4 {
			idle += v
		}
	}
	busy := total - idle

	c.mu.Lock()
	defer c.mu.Unlock()
	dBusy := busy - c.prevBusy
	dTotal := total - c.prevTotal
	first := c.prevTotal == 0
	c.prevBusy, c.prevTotal = busy, total

	if first || dTotal == 0 {
		return 0
	}
	return float64(dBusy) / float64(dTotal) * 100
}
