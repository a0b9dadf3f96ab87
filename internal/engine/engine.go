// Package engine drives the arbitration cycle: collect a snapshot,
// gather proposals concurrently, resolve conflicts, validate, execute,
// and notify the agents of the outcome.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/agent"
	"github.com/vivekchamoli/legionaid/internal/arbiter"
	"github.com/vivekchamoli/legionaid/internal/bus"
	"github.com/vivekchamoli/legionaid/internal/executor"
	"github.com/vivekchamoli/legionaid/internal/log"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// ContextSource supplies the per-cycle snapshot.
type ContextSource interface {
	Collect() (*snapshot.Snapshot, error)
}

// PlanExecutor applies a validated plan to the hardware.
type PlanExecutor interface {
	Execute(plan *action.Plan, before *snapshot.Snapshot) *executor.Result
}

// CycleReport summarizes one cycle for logging, statistics, and
// diagnostics.
type CycleReport struct {
	ID           string
	Started      time.Time
	Duration     time.Duration
	Mode         bus.Mode
	Snapshot     *snapshot.Snapshot
	Plan         *action.Plan
	Result       *executor.Result
	Skipped      bool
	SkipReason   string
	Rejected     bool
	RejectReason string
}

// Counters are the cumulative totals exposed to persistence and
// diagnostics.
type Counters struct {
	Cycles    int `json:"cycles"`
	Actions   int `json:"actions"`
	Conflicts int `json:"conflicts"`
	Rejected  int `json:"rejected"`
	Skipped   int `json:"skipped"`
}

// Status is the diagnostics view of a running engine.
type Status struct {
	Mode        bus.Mode     `json:"mode"`
	Priority    bus.Priority `json:"priority"`
	Emergency   bool         `json:"emergency"`
	Paused      bool         `json:"paused"`
	Counters    Counters     `json:"counters"`
	Agents      []string     `json:"agents"`
	LastCycleAt time.Time    `json:"last_cycle_at"`
	UptimeSec   int64        `json:"uptime_sec"`
}

// Engine owns one arbitration loop.
type Engine struct {
	source    ContextSource
	agents    []agent.Agent
	arbiter   *arbiter.Engine
	validator *arbiter.Validator
	exec      PlanExecutor
	bus       *bus.Bus
	logger    *log.Logger
	breaker   *Breaker

	interval     time.Duration
	agentTimeout time.Duration

	mu        sync.Mutex
	counters  Counters
	lastCycle time.Time
	started   time.Time

	// onCycle, when set, receives every completed cycle report. The
	// stats store hangs off this hook so the engine stays free of a
	// database dependency.
	onCycle func(*CycleReport)
}

// Options configures a new engine.
type Options struct {
	Source       ContextSource
	Agents       []agent.Agent
	Executor     PlanExecutor
	Bus          *bus.Bus
	Logger       *log.Logger
	Interval     time.Duration
	AgentTimeout time.Duration
	Breaker      *Breaker
	OnCycle      func(*CycleReport)
}

// New assembles an engine. Bus and Source are required; everything
// else has a workable default.
func New(opts Options) (*Engine, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("engine needs a context source")
	}
	if opts.Bus == nil {
		return nil, fmt.Errorf("engine needs a coordination bus")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = 250 * time.Millisecond
	}
	if opts.Breaker == nil {
		opts.Breaker = NewBreaker(3, 10)
	}

	return &Engine{
		source:       opts.Source,
		agents:       opts.Agents,
		arbiter:      arbiter.New(),
		validator:    arbiter.NewValidator(),
		exec:         opts.Executor,
		bus:          opts.Bus,
		logger:       opts.Logger,
		breaker:      opts.Breaker,
		interval:     opts.Interval,
		agentTimeout: opts.AgentTimeout,
		started:      time.Now(),
		onCycle:      opts.OnCycle,
	}, nil
}

// Run executes cycles at the configured interval until ctx is
// canceled. Errors inside a cycle never stop the loop; every failure
// mode degrades to a skipped or rejected cycle.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.RunCycle(ctx)
		}
	}
}

// RunCycle executes exactly one arbitration cycle.
func (e *Engine) RunCycle(ctx context.Context) *CycleReport {
	start := time.Now()
	rep := &CycleReport{
		ID:      uuid.New().String(),
		Started: start,
		Mode:    e.bus.CurrentMode(),
	}

	if e.breaker.Open() {
		e.breaker.Tick()
		rep.Skipped, rep.SkipReason = true, "breaker open"
		e.finish(rep, start)
		return rep
	}

	snap, err := e.source.Collect()
	if err != nil {
		rep.Skipped, rep.SkipReason = true, err.Error()
		e.logEvent(log.Event{Event: log.EventCycleSkipped, CycleID: rep.ID, Error: err.Error()})
		e.finish(rep, start)
		return rep
	}
	rep.Snapshot = snap

	proposals := e.collectProposals(ctx, snap)
	plan := e.arbiter.Resolve(proposals, snap)
	rep.Plan = plan

	for _, c := range plan.Conflicts {
		e.logEvent(log.Event{
			Event:    log.EventConflict,
			CycleID:  rep.ID,
			Target:   c.Target,
			Winner:   c.Winner.Agent,
			Strategy: c.Strategy,
		})
	}

	if err := e.validator.Validate(plan, snap); err != nil {
		rep.Rejected, rep.RejectReason = true, err.Error()
		if e.breaker.RecordRejection() {
			e.logEvent(log.Event{Event: log.EventBreakerPaused, CycleID: rep.ID})
		}
		e.logEvent(log.Event{Event: log.EventPlanRejected, CycleID: rep.ID, Reason: err.Error()})
		e.notifyAll(&executor.Result{Before: snap, Err: err.Error()})
		e.finish(rep, start)
		return rep
	}
	e.breaker.RecordSuccess()

	res := &executor.Result{Success: true, Before: snap}
	if e.exec != nil {
		res = e.exec.Execute(plan, snap)
	}
	rep.Result = res

	if res.Success {
		// Re-read the machine so agents see the state their actions
		// produced, not just the one they proposed against.
		if after, aerr := e.source.Collect(); aerr == nil {
			res.Stamp(after)
		}
		e.logEvent(log.Event{
			Event:     log.EventPlanExecuted,
			CycleID:   rep.ID,
			Actions:   len(res.Executed),
			Conflicts: len(plan.Conflicts),
			Mode:      string(rep.Mode),
		})
	} else {
		e.logEvent(log.Event{Event: log.EventExecutorFailed, CycleID: rep.ID, Error: res.Err})
	}

	e.notifyAll(res)

	if e.bus.IsEmergency() {
		e.logEvent(log.Event{Event: log.EventEmergencyMode, CycleID: rep.ID})
	}

	e.finish(rep, start)
	return rep
}

// collectProposals runs every agent concurrently and waits for all of
// them, with a per-agent timeout. A slow, failing, or panicking agent
// contributes an empty proposal and never blocks the others. Results
// keep registration order so arbitration input order is stable.
func (e *Engine) collectProposals(ctx context.Context, snap *snapshot.Snapshot) []action.Proposal {
	out := make([]action.Proposal, len(e.agents))
	var wg sync.WaitGroup

	for i, ag := range e.agents {
		wg.Add(1)
		go func(i int, ag agent.Agent) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, e.agentTimeout)
			defer cancel()

			done := make(chan action.Proposal, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						e.logEvent(log.Event{
							Event: log.EventAgentFailed,
							Agent: ag.Name(),
							Error: fmt.Sprintf("panic: %v", r),
						})
						done <- action.Proposal{Agent: ag.Name(), Tier: ag.Tier()}
					}
				}()
				p, err := ag.Propose(pctx, snap)
				if err != nil {
					e.logEvent(log.Event{Event: log.EventAgentFailed, Agent: ag.Name(), Error: err.Error()})
					p = action.Proposal{Agent: ag.Name(), Tier: ag.Tier()}
				}
				done <- p
			}()

			select {
			case p := <-done:
				out[i] = p
			case <-pctx.Done():
				e.logEvent(log.Event{Event: log.EventAgentFailed, Agent: ag.Name(), Error: "proposal timed out"})
				out[i] = action.Proposal{Agent: ag.Name(), Tier: ag.Tier()}
			}
		}(i, ag)
	}

	wg.Wait()
	return out
}

// notifyAll delivers the execution result to every agent. A panicking
// Notify is contained; it never reaches the cycle driver.
func (e *Engine) notifyAll(res *executor.Result) {
	for _, ag := range e.agents {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logEvent(log.Event{
						Event: log.EventAgentFailed,
						Agent: ag.Name(),
						Error: fmt.Sprintf("notify panic: %v", r),
					})
				}
			}()
			ag.Notify(res)
		}()
	}
}

// finish updates counters, stamps the report, and fires the cycle
// hook.
func (e *Engine) finish(rep *CycleReport, start time.Time) {
	rep.Duration = time.Since(start)

	e.mu.Lock()
	e.counters.Cycles++
	if rep.Skipped {
		e.counters.Skipped++
	}
	if rep.Rejected {
		e.counters.Rejected++
	}
	if rep.Plan != nil {
		e.counters.Actions += len(rep.Plan.Actions)
		e.counters.Conflicts += len(rep.Plan.Conflicts)
	}
	e.lastCycle = rep.Started
	hook := e.onCycle
	e.mu.Unlock()

	if hook != nil {
		hook(rep)
	}
}

// Status returns the current diagnostics view.
func (e *Engine) Status() Status {
	e.mu.Lock()
	counters := e.counters
	last := e.lastCycle
	started := e.started
	e.mu.Unlock()

	names := make([]string, len(e.agents))
	for i, ag := range e.agents {
		names[i] = ag.Name()
	}

	return Status{
		Mode:        e.bus.CurrentMode(),
		Priority:    e.bus.GlobalPriority(nil),
		Emergency:   e.bus.IsEmergency(),
		Paused:      e.breaker.Open(),
		Counters:    counters,
		Agents:      names,
		LastCycleAt: last,
		UptimeSec:   int64(time.Since(started).Seconds()),
	}
}

func (e *Engine) logEvent(ev log.Event) {
	if e.logger == nil {
		return
	}
	_ = e.logger.Append(ev)
}
