package executor

import (
	"fmt"

	"github.com/vivekchamoli/legionaid/internal/action"
	"github.com/vivekchamoli/legionaid/internal/bus"
)

// CoordinationHandler is the synthetic handler for cross-agent
// signals. It writes nothing to hardware; a COORDINATE_EMERGENCY_MODE
// action re-broadcasts an emergency signal on the bus so every agent
// sees it next cycle.
type CoordinationHandler struct {
	Bus *bus.Bus
}

func (h *CoordinationHandler) Family() string { return "coordination" }

func (h *CoordinationHandler) Targets() []string {
	return []string{action.TargetCoordinateEmerg}
}

func (h *CoordinationHandler) Apply(c action.Candidate) error {
	if h.Bus == nil {
		return fmt.Errorf("coordination handler has no bus")
	}
	h.Bus.Broadcast(bus.Signal{
		Type:    bus.SignalEmergency,
		Source:  c.Agent,
		Context: c.Action.Reason,
	})
	return nil
}
