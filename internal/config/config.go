// Package config handles reading and writing the legionaid YAML
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	Version  int            `yaml:"version"`
	Intent   string         `yaml:"intent"` // balanced|max-performance|battery-saving|quiet|gaming|productivity|custom
	Cycle    CycleConfig    `yaml:"cycle"`
	Agents   AgentsConfig   `yaml:"agents"`
	Hardware HardwareConfig `yaml:"hardware"`
	Stats    StatsConfig    `yaml:"stats"`
	Diag     DiagConfig     `yaml:"diagnostics"`
	Log      LogConfig      `yaml:"log"`
}

// CycleConfig controls the arbitration cycle.
type CycleConfig struct {
	IntervalMs      int `yaml:"interval_ms"`
	AgentTimeoutMs  int `yaml:"agent_timeout_ms"`
	BreakerFailures int `yaml:"breaker_failures"` // consecutive safety rejections before pausing
	BreakerCooldown int `yaml:"breaker_cooldown"` // cycles to stay paused
}

// AgentsConfig gates which agents are registered. Any subset may be
// disabled; an absent agent simply contributes no proposals.
type AgentsConfig struct {
	Power   bool `yaml:"power"`
	Thermal bool `yaml:"thermal"`
	Battery bool `yaml:"battery"`
	Display bool `yaml:"display"`
	GPU     bool `yaml:"gpu"`
}

// HardwareConfig controls the sysfs surface.
type HardwareConfig struct {
	SysfsRoot string `yaml:"sysfs_root"`
	DryRun    bool   `yaml:"dry_run"`
}

// StatsConfig controls the cycle-history database.
type StatsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DiagConfig controls the diagnostics socket.
type DiagConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls the JSONL event log.
type LogConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultPath is where the daemon looks for its configuration unless
// told otherwise.
const DefaultPath = "/etc/legionaid/config.yaml"

// ReadConfig reads the YAML config at path.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// WriteConfig writes cfg to path, creating parent directories as
// needed.
func WriteConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Intent:  "balanced",
		Cycle: CycleConfig{
			IntervalMs:      1000,
			AgentTimeoutMs:  250,
			BreakerFailures: 3,
			BreakerCooldown: 10,
		},
		Agents: AgentsConfig{
			Power:   true,
			Thermal: true,
			Battery: true,
			Display: true,
			GPU:     true,
		},
		Hardware: HardwareConfig{
			SysfsRoot: "/",
			DryRun:    false,
		},
		Stats: StatsConfig{
			Enabled: true,
			Path:    "/var/lib/legionaid/stats.db",
		},
		Diag: DiagConfig{
			Addr: "localhost:11981",
		},
		Log: LogConfig{
			Dir: "/var/log/legionaid",
		},
	}
}
