// Package agent defines the optimization-agent contract and the
// built-in agents. Agents are independent: no agent calls another, and
// all inter-agent influence flows through the coordination bus or
// through arbitration of their conflicting proposals.
package agent

import (
	"context"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/executor"
	"github.com/vivekchamoli/legionaid/internal/snapshot"
)

// Agent is one optimization unit. Propose must not block on hardware
// I/O past the cycle budget (the driver enforces a timeout via ctx)
// and must return an empty proposal, not an error, for recoverable
// conditions. Notify is informational; its failures never reach the
// cycle driver.
type Agent interface {
	Name() string
	Tier() action.Tier
	Propose(ctx context.Context, snap *snapshot.Snapshot) (action.Proposal, error)
	Notify(res *executor.Result)
}

// stats is the learning bookkeeping every built-in agent keeps.
type stats struct {
	proposed int
	executed int
	failed   int
}

// record updates counters from an execution result for actions this
// agent contributed.
func (s *stats) record(name string, res *executor.Result) {
	if res == nil {
		return
	}
	if !res.Success {
		s.failed++
		return
	}
	for _, c := range res.Executed {
		if c.Agent == name {
			s.executed++
		}
	}
}

// successRate returns executed/proposed, 1.0 before any proposal.
func (s *stats) successRate() float64 {
	if s.proposed == 0 {
		return 1.0
	}
	return float64(s.executed) / float64(s.proposed)
}
