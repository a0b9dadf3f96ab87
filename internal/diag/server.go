// Package diag exposes a running daemon over a petrel socket so the
// CLI and the monitor TUI can inspect it without touching sysfs
// themselves.
package diag

import (
	"encoding/json"
	"fmt"

	"github.com/firepear/petrel"
	ps "github.com/firepear/petrel/server"

	"github.com/vivekchamoli/legionaid/internal/bus"
	"github.com/vivekchamoli/legionaid/internal/engine"
)

// Server wraps a petrel server with status handlers bound to the
// engine and bus.
type Server struct {
	petrel *ps.Server
	eng    *engine.Engine
	bus    *bus.Bus
}

// empty response body for handlers with nothing to say
var nilresp []byte

// NewServer configures and starts the diagnostics responder on addr.
func NewServer(addr string, eng *engine.Engine, b *bus.Bus) (*Server, error) {
	pc := &ps.Config{
		Sockname: addr,
		Timeout:  5,
	}
	petrel, err := ps.New(pc)
	if err != nil {
		return nil, fmt.Errorf("diag: instantiating server: %w", err)
	}

	s := &Server{petrel: petrel, eng: eng, bus: b}

	if err := petrel.Register("status", s.handleStatus); err != nil {
		return nil, fmt.Errorf("diag: registering status: %w", err)
	}
	if err := petrel.Register("signals", s.handleSignals); err != nil {
		return nil, fmt.Errorf("diag: registering signals: %w", err)
	}

	return s, nil
}

// Msgr exposes petrel's event channel so the daemon loop can react to
// socket shutdown.
func (s *Server) Msgr() chan *petrel.Msg {
	return s.petrel.Msgr
}

// Quit shuts the responder down.
func (s *Server) Quit() {
	s.petrel.Quit()
}

func (s *Server) handleStatus(args []byte) (uint16, []byte, error) {
	st := s.eng.Status()
	body, err := json.Marshal(st)
	if err != nil {
		return 500, nilresp, err
	}
	return 200, body, nil
}

func (s *Server) handleSignals(args []byte) (uint16, []byte, error) {
	// The diagnostics consumer sees the broadcast view; it is not
	// an agent, so no self-exclusion applies.
	sigs := s.bus.ActiveSignalsFor("_diag")
	body, err := json.Marshal(sigs)
	if err != nil {
		return 500, nilresp, err
	}
	return 200, body, nil
}
