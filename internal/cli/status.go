// status.go implements "legionaid status": query a running daemon over
// its diagnostics socket.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vivekchamoli/legionaid/internal/diag"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running daemon",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := diag.FetchStatus(cfg.Diag.Addr)
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}

	fmt.Printf("mode      %s", st.Mode)
	if st.Emergency {
		fmt.Print("  EMERGENCY")
	}
	if st.Paused {
		fmt.Print("  (optimization paused)")
	}
	fmt.Println()
	fmt.Printf("uptime    %s\n", (time.Duration(st.UptimeSec) * time.Second).String())
	fmt.Printf("agents    %s\n", strings.Join(st.Agents, ", "))
	fmt.Printf("cycles    %d total, %d skipped, %d rejected\n",
		st.Counters.Cycles, st.Counters.Skipped, st.Counters.Rejected)
	fmt.Printf("actions   %d applied, %d conflicts resolved\n",
		st.Counters.Actions, st.Counters.Conflicts)
	fmt.Printf("priority  batt %.1f / perf %.1f / therm %.1f / ux %.1f\n",
		st.Priority.BatteryConservation, st.Priority.Performance,
		st.Priority.ThermalManagement, st.Priority.UserExperience)

	sigs, err := diag.FetchSignals(cfg.Diag.Addr)
	if err == nil && len(sigs) > 0 {
		fmt.Println("signals")
		for _, s := range sigs {
			fmt.Printf("  %-24s from %-10s at %s\n",
				s.Type, s.Source, s.Time.Format(time.TimeOnly))
		}
	}
	return nil
}
