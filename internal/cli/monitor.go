// monitor.go implements "legionaid monitor": a live TUI over the
// diagnostics socket.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vivekchamoli/legionaid/internal/tui"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch a running daemon live",
	RunE:  runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !tui.IsTTY() {
		return fmt.Errorf("monitor needs a terminal; use 'legionaid status' instead")
	}
	return tui.Run(cfg.Diag.Addr)
}
