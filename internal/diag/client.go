package diag

import (
	"encoding/json"
	"fmt"

	"github.com/firepear/petrel/client"

	"github.com/vivekchamoli/legionaid/internal/bus"
	"github.com/vivekchamoli/legionaid/internal/engine"
)

// Query dispatches one request to a running daemon and returns the raw
// response body.
func Query(addr, op string) ([]byte, error) {
	conf := &client.Config{Addr: addr}
	c, err := client.New(conf)
	if err != nil {
		return nil, fmt.Errorf("diag: connecting to %s: %w", addr, err)
	}
	defer c.Quit()

	if err := c.Dispatch(op, nil); err != nil {
		return nil, fmt.Errorf("diag: %s request: %w", op, err)
	}
	return c.Resp.Payload, nil
}

// FetchStatus returns the daemon's engine status.
func FetchStatus(addr string) (engine.Status, error) {
	body, err := Query(addr, "status")
	if err != nil {
		return engine.Status{}, err
	}
	var st engine.Status
	if err := json.Unmarshal(body, &st); err != nil {
		return engine.Status{}, fmt.Errorf("diag: decoding status: %w", err)
	}
	return st, nil
}

// FetchSignals returns the currently active coordination signals.
func FetchSignals(addr string) ([]bus.Signal, error) {
	body, err := Query(addr, "signals")
	if err != nil {
		return nil, err
	}
	var sigs []bus.Signal
	if err := json.Unmarshal(body, &sigs); err != nil {
		return nil, fmt.Errorf("diag: decoding signals: %w", err)
	}
	return sigs, nil
}
