package collector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// fakeMachine lays down a minimal believable sysfs/procfs tree.
func fakeMachine(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFixture(t, root, "sys/class/hwmon/hwmon0/name", "k10temp\n")
	writeFixture(t, root, "sys/class/hwmon/hwmon0/temp1_input", "62000\n")
	writeFixture(t, root, "sys/class/hwmon/hwmon1/name", "amdgpu\n")
	writeFixture(t, root, "sys/class/hwmon/hwmon1/temp1_input", "54000\n")
	writeFixture(t, root, "sys/class/hwmon/hwmon1/fan1_input", "2300\n")

	writeFixture(t, root, "sys/class/power_supply/BAT0/capacity", "85\n")
	writeFixture(t, root, "sys/class/power_supply/BAT0/status", "Discharging\n")
	writeFixture(t, root, "sys/class/power_supply/BAT0/power_now", "15000000\n")
	writeFixture(t, root, "sys/class/power_supply/BAT0/energy_now", "60000000\n")
	writeFixture(t, root, "sys/class/power_supply/BAT0/energy_full", "75000000\n")
	writeFixture(t, root, "sys/class/power_supply/BAT0/energy_full_design", "80000000\n")

	writeFixture(t, root, "sys/firmware/acpi/platform_profile", "performance\n")
	writeFixture(t, root, "sys/kernel/legion_laptop/cpu_longterm_powerlimit", "45\n")
	writeFixture(t, root, "sys/kernel/legion_laptop/cpu_shortterm_powerlimit", "90\n")
	writeFixture(t, root, "sys/kernel/legion_laptop/gpu_ctgp_powerlimit", "140\n")

	writeFixture(t, root, "sys/class/drm/card0/device/power_state", "D0\n")
	writeFixture(t, root, "sys/class/drm/card1/device/power_state", "D0\n")
	writeFixture(t, root, "sys/class/drm/card1/device/gpu_busy_percent", "72\n")
	writeFixture(t, root, "sys/class/drm/card1/device/mem_busy_percent", "40\n")

	writeFixture(t, root, "proc/stat", "cpu  100 0 100 800 0 0 0 0 0 0\n")
	return root
}

func TestCollectBuildsFullSnapshot(t *testing.T) {
	root := fakeMachine(t)
	c := New(root)

	snap, err := c.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if snap.Thermal.CPUTemp != 62 {
		t.Errorf("cpu temp = %.1f, want 62", snap.Thermal.CPUTemp)
	}
	if snap.Thermal.GPUTemp != 54 {
		t.Errorf("gpu temp = %.1f, want 54", snap.Thermal.GPUTemp)
	}
	if snap.Thermal.FanRPM["amdgpu"] != 2300 {
		t.Errorf("fan rpm = %d, want 2300", snap.Thermal.FanRPM["amdgpu"])
	}

	if !snap.Battery.OnBattery {
		t.Error("battery status Discharging not reflected")
	}
	if snap.Battery.ChargePercent != 85 {
		t.Errorf("charge = %d, want 85", snap.Battery.ChargePercent)
	}
	if snap.Battery.ChargeRateW != -15 {
		t.Errorf("charge rate = %.1f, want -15 (discharging)", snap.Battery.ChargeRateW)
	}
	if snap.Battery.TimeRemaining != 4*time.Hour {
		t.Errorf("time remaining = %s, want 4h", snap.Battery.TimeRemaining)
	}

	if snap.Power.Mode != action.PowerModePerformance {
		t.Errorf("power mode = %s, want performance", snap.Power.Mode)
	}
	if snap.Power.CPUShortTermW != 90 {
		t.Errorf("PL2 = %d, want 90", snap.Power.CPUShortTermW)
	}
	if snap.Power.ACConnected {
		t.Error("AC reported connected while discharging")
	}

	if !snap.GPU.DiscreteActive {
		t.Error("dGPU in D0 not reported active")
	}
	if snap.GPU.Utilization != 72 {
		t.Errorf("gpu util = %.0f, want 72", snap.GPU.Utilization)
	}

	// 72% GPU busy classifies as gaming.
	if snap.Workload.Type != snapshot.WorkloadGaming {
		t.Errorf("workload = %s, want gaming", snap.Workload.Type)
	}
	if snap.Intent != snapshot.IntentBalanced {
		t.Errorf("intent = %s, want balanced default", snap.Intent)
	}
	if snap.Timestamp.IsZero() {
		t.Error("snapshot has no timestamp")
	}
}

func TestCollectFailsWithoutCPUTemp(t *testing.T) {
	root := t.TempDir()
	// A GPU sensor alone is not enough.
	writeFixture(t, root, "sys/class/hwmon/hwmon0/name", "amdgpu\n")
	writeFixture(t, root, "sys/class/hwmon/hwmon0/temp1_input", "54000\n")

	c := New(root)
	if _, err := c.Collect(); err == nil {
		t.Error("Collect succeeded with no CPU temperature sensor")
	}
}

func TestCollectWithoutBattery(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "sys/class/hwmon/hwmon0/name", "coretemp\n")
	writeFixture(t, root, "sys/class/hwmon/hwmon0/temp1_input", "48000\n")

	c := New(root)
	snap, err := c.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if snap.Battery.OnBattery {
		t.Error("batteryless machine reported on battery")
	}
	if snap.Battery.ChargePercent != 100 {
		t.Errorf("charge = %d, want inert 100", snap.Battery.ChargePercent)
	}
	if !snap.Power.ACConnected {
		t.Error("batteryless machine should report AC")
	}
}

func TestSetIntentFlowsIntoSnapshot(t *testing.T) {
	root := fakeMachine(t)
	c := New(root)
	c.SetIntent(snapshot.IntentBatterySaving)

	snap, err := c.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if snap.Intent != snapshot.IntentBatterySaving {
		t.Errorf("intent = %s, want battery-saving", snap.Intent)
	}
}

func TestTrendFromRepeatedCollects(t *testing.T) {
	root := fakeMachine(t)
	c := New(root)

	temps := []string{"60000", "63000", "67000", "71000"}
	var snap *snapshot.Snapshot
	for _, milli := range temps {
		writeFixture(t, root, "sys/class/hwmon/hwmon0/temp1_input", milli+"\n")
		var err error
		snap, err = c.Collect()
		if err != nil {
			t.Fatalf("Collect: %v", err)
		}
	}
	if snap.Thermal.Trend != snapshot.TrendRisingRapidly {
		t.Errorf("trend = %s, want rising after +11C", snap.Thermal.Trend)
	}
}

func TestProbeCachesAndResets(t *testing.T) {
	root := fakeMachine(t)
	c := New(root)

	caps := c.Probe()
	if !caps.Hwmon || !caps.Battery || !caps.LegionSysfs || !caps.DiscreteGPU {
		t.Fatalf("caps = %+v, want all surfaces present", caps)
	}

	// Capabilities are cached; removing hardware does not change them
	// until a reset.
	if err := os.RemoveAll(filepath.Join(root, "sys/class/power_supply/BAT0")); err != nil {
		t.Fatal(err)
	}
	if caps := c.Probe(); !caps.Battery {
		t.Error("cached probe changed without a reset")
	}

	c.ResetProbe()
	if caps := c.Probe(); caps.Battery {
		t.Error("re-probe still reports the removed battery")
	}
}

func TestGPUProcessesFromRenderClients(t *testing.T) {
	root := fakeMachine(t)

	// A process with a render node open, and one with only an
	// unrelated fd.
	writeFixture(t, root, "proc/4242/comm", "gamescope\n")
	if err := os.MkdirAll(filepath.Join(root, "proc/4242/fd"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("/dev/dri/renderD128", filepath.Join(root, "proc/4242/fd/7")); err != nil {
		t.Fatal(err)
	}
	writeFixture(t, root, "proc/777/comm", "sshd\n")
	if err := os.MkdirAll(filepath.Join(root, "proc/777/fd"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("/dev/null", filepath.Join(root, "proc/777/fd/3")); err != nil {
		t.Fatal(err)
	}

	c := New(root)
	snap, err := c.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(snap.GPU.Processes) != 1 || snap.GPU.Processes[0] != "gamescope" {
		t.Errorf("gpu processes = %v, want [gamescope]", snap.GPU.Processes)
	}
}

func TestWorkloadDurationTracksTransitions(t *testing.T) {
	root := fakeMachine(t)
	c := New(root)

	snap, err := c.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if snap.Workload.Duration != 0 {
		t.Errorf("first duration = %s, want 0", snap.Workload.Duration)
	}

	time.Sleep(10 * time.Millisecond)
	snap, err = c.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if snap.Workload.Type != snapshot.WorkloadGaming {
		t.Fatalf("workload = %s, want gaming", snap.Workload.Type)
	}
	if snap.Workload.Duration <= 0 {
		t.Errorf("repeat duration = %s, want > 0", snap.Workload.Duration)
	}

	// A workload change starts the clock over.
	writeFixture(t, root, "sys/class/drm/card1/device/gpu_busy_percent", "2\n")
	snap, err = c.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if snap.Workload.Type == snapshot.WorkloadGaming {
		t.Fatal("workload did not change after GPU went idle")
	}
	if snap.Workload.Duration != 0 {
		t.Errorf("post-transition duration = %s, want 0", snap.Workload.Duration)
	}
}

func TestCPUUtilizationNeedsBaseline(t *testing.T) {
	root := fakeMachine(t)
	c := New(root)

	if got := c.cpuUtilization(); got != 0 {
		t.Errorf("first sample = %.1f, want 0 (no baseline)", got)
	}

	// 100 more busy jiffies out of 200 total.
	writeFixture(t, root, "proc/stat", "cpu  150 0 150 900 0 0 0 0 0 0\n")
	got := c.cpuUtilization()
	if got != 50 {
		t.Errorf("utilization = %.1f, want 50", got)
	}
}

func TestClassify(t *testing.T) {
	c := New(t.TempDir())
	cases := []struct {
		cpu  float64
		gpu  float64
		want snapshot.WorkloadType
	}{
		{5, 2, snapshot.WorkloadIdle},
		{30, 70, snapshot.WorkloadGaming},
		{85, 10, snapshot.WorkloadDevelopment},
		{40, 20, snapshot.WorkloadProductivity},
	}
	for _, tc := range cases {
		got := c.classify(tc.cpu, snapshot.GPU{Utilization: tc.gpu})
		if got.Type != tc.want {
			t.Errorf("classify(cpu=%.0f gpu=%.0f) = %s, want %s", tc.cpu, tc.gpu, got.Type, tc.want)
		}
	}
}
