// Package executor applies a validated execution plan to the hardware
// through one handler per target-resource family. Execution is
// all-or-nothing from the agents' point of view: a failed plan is
// reported with Success=false and agents must treat it as "no state
// change occurred".
package executor

import (
	"fmt"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// Handler applies actions for one target-resource family.
type Handler interface {
	// Family names the handler for logs and diagnostics.
	Family() string
	// Targets lists the target identifiers this handler owns.
	Targets() []string
	// Apply writes one action to the hardware.
	Apply(c action.Candidate) error
}

// Result is fed back to every agent's Notify callback after a plan has
// been executed or has failed partway.
type Result struct {
	Success  bool
	Executed []action.Candidate
	Before   *snapshot.Snapshot
	After    *snapshot.Snapshot
	Err      string
}

// Executor routes plan actions to registered handlers.
type Executor struct {
	handlers map[string]Handler
	families []Handler
	dryRun   bool
}

// New returns an executor with no handlers registered. In dry-run mode
// actions are routed and recorded but nothing is written to sysfs.
func New(dryRun bool) *Executor {
	return &Executor{
		handlers: make(map[string]Handler),
		dryRun:   dryRun,
	}
}

// Register adds a handler for every target it claims. Later
// registrations win, which lets tests swap in fakes.
func (e *Executor) Register(h Handler) {
	e.families = append(e.families, h)
	for _, t := range h.Targets() {
		e.handlers[t] = h
	}
}

// DryRun reports whether the executor writes to hardware.
func (e *Executor) DryRun() bool { return e.dryRun }

// Execute applies the plan's winning actions in order. Actions with no
// registered handler are skipped, not failed: an absent capability
// (say, no discrete GPU) degrades to a no-op rather than poisoning the
// cycle. The first hardware error stops execution and marks the whole
// result failed.
func (e *Executor) Execute(plan *action.Plan, before *snapshot.Snapshot) *Result {
	res := &Result{Before: before}

	for _, c := range plan.Actions {
		h, ok := e.handlers[c.Action.Target]
		if !ok {
			continue
		}
		if e.dryRun {
			res.Executed = append(res.Executed, c)
			continue
		}
		if err := h.Apply(c); err != nil {
			res.Err = fmt.Sprintf("%s: %s: %v", h.Family(), c.Action.Target, err)
			return res
		}
		res.Executed = append(res.Executed, c)
	}

	res.Success = true
	return res
}

// Stamp fills in the post-execution snapshot on a result.
func (r *Result) Stamp(after *snapshot.Snapshot) {
	r.After = after
}
