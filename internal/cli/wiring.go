// wiring.go assembles the runtime: bus, collector, agents, executor,
// engine, and optional stats store, all according to the config.
package cli

import (
	"fmt"
	"time"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/agent"
	"github.com/vivekchamoli/legionaid/internal/bus"
	"github.com/vivekchamoli/legionaid/internal/collector"
	"github.com/vivekchamoli/legionaid/internal/config"
	"github.com/vivekchamoli/legionaid/internal/engine"
	"github.com/vivekchamoli/legionaid/internal/executor"
	"github.com/vivekchamoli/legionaid/internal/log"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
	"github.com/vivekchamoli/legionaid/internal/stats"
)

// loadConfig reads the configured or default config file. A missing
// default file falls back to defaults; an explicitly named file must
// exist.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		cfg, err := config.ReadConfig(config.DefaultPath)
		if err != nil {
			return config.DefaultConfig(), nil
		}
		return cfg, nil
	}
	return config.ReadConfig(path)
}

// runtime bundles everything the run/once commands need to tear down.
type runtime struct {
	cfg    *config.Config
	bus    *bus.Bus
	engine *engine.Engine
	store  *stats.Store
	logger *log.Logger
}

func (r *runtime) close() {
	if r.store != nil {
		_ = r.store.Close()
	}
}

// buildRuntime wires the daemon from config. Disabled agents are
// simply absent; a machine without a discrete GPU drops the GPU agent
// regardless of the config flag.
func buildRuntime(cfg *config.Config) (*runtime, error) {
	b := bus.New()

	coll := collector.New(cfg.Hardware.SysfsRoot)
	coll.SetIntent(snapshot.Intent(cfg.Intent))
	caps := coll.Probe()

	var agents []agent.Agent
	if cfg.Agents.Thermal {
		agents = append(agents, agent.NewThermalAgent(b))
	}
	if cfg.Agents.Battery && caps.Battery {
		agents = append(agents, agent.NewBatteryAgent(b))
	}
	if cfg.Agents.Power {
		agents = append(agents, agent.NewPowerAgent(b))
	}
	if cfg.Agents.GPU && caps.DiscreteGPU {
		agents = append(agents, agent.NewGPUAgent(b))
	}
	if cfg.Agents.Display {
		agents = append(agents, agent.NewDisplayAgent(b))
	}

	exec := executor.New(cfg.Hardware.DryRun)
	root := cfg.Hardware.SysfsRoot
	exec.Register(&executor.CPUPowerHandler{Root: root})
	exec.Register(&executor.GPUHandler{Root: root})
	exec.Register(&executor.FanHandler{Root: root})
	exec.Register(&executor.PowerModeHandler{Root: root})
	exec.Register(&executor.BatteryHandler{Root: root})
	exec.Register(&executor.DisplayHandler{Root: root})
	exec.Register(&executor.KeyboardHandler{Root: root})
	exec.Register(&executor.CoordinationHandler{Bus: b})

	logger, err := log.NewLogger(cfg.Log.Dir)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	var store *stats.Store
	var onCycle func(*engine.CycleReport)
	if cfg.Stats.Enabled {
		store, err = stats.NewStore(cfg.Stats.Path)
		if err != nil {
			return nil, fmt.Errorf("opening stats store: %w", err)
		}
		onCycle = recordCycle(store)
	}

	eng, err := engine.New(engine.Options{
		Source:       coll,
		Agents:       agents,
		Executor:     exec,
		Bus:          b,
		Logger:       logger,
		Interval:     time.Duration(cfg.Cycle.IntervalMs) * time.Millisecond,
		AgentTimeout: time.Duration(cfg.Cycle.AgentTimeoutMs) * time.Millisecond,
		Breaker:      engine.NewBreaker(cfg.Cycle.BreakerFailures, cfg.Cycle.BreakerCooldown),
		OnCycle:      onCycle,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, fmt.Errorf("assembling engine: %w", err)
	}

	return &runtime{cfg: cfg, bus: b, engine: eng, store: store, logger: logger}, nil
}

// recordCycle adapts a cycle report into stats rows. Store errors are
// swallowed; history is best-effort and must never disturb the cycle.
func recordCycle(store *stats.Store) func(*engine.CycleReport) {
	return func(rep *engine.CycleReport) {
		c := stats.Cycle{
			ID:         rep.ID,
			StartedAt:  rep.Started,
			Mode:       string(rep.Mode),
			Rejected:   rep.Rejected,
			Skipped:    rep.Skipped,
			DurationMs: rep.Duration.Milliseconds(),
		}
		var conflicts []stats.Conflict
		if rep.Plan != nil {
			c.Proposals = rep.Plan.Metrics[action.MetricProposals]
			c.Actions = len(rep.Plan.Actions)
			c.Conflicts = len(rep.Plan.Conflicts)
			c.Emergency = rep.Plan.Metrics[action.MetricEmergencyActions]
			for _, cf := range rep.Plan.Conflicts {
				conflicts = append(conflicts, stats.Conflict{
					CycleID:  rep.ID,
					Target:   cf.Target,
					Winner:   cf.Winner.Agent,
					Strategy: cf.Strategy,
					Losers:   len(cf.Losers),
				})
			}
		}
		_ = store.RecordCycle(c, conflicts)
	}
}
