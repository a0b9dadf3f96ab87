// once.go implements "legionaid once": a single arbitration cycle with
// the plan printed, for debugging heuristics without the daemon.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var dryRunFlag bool

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single arbitration cycle and print the plan",
	RunE:  runOnce,
}

func init() {
	onceCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Resolve and validate but do not write to hardware")
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dryRunFlag {
		cfg.Hardware.DryRun = true
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	rep := rt.engine.RunCycle(context.Background())

	if rep.Skipped {
		fmt.Printf("cycle skipped: %s\n", rep.SkipReason)
		return nil
	}

	fmt.Printf("cycle %s (%s, %v)\n", rep.ID, rep.Mode, rep.Duration.Round(0))
	for _, c := range rep.Plan.Actions {
		fmt.Printf("  %-24s %-12s %-8s %s\n",
			c.Action.Target, c.Action.Value, c.Action.Type, c.Agent)
	}
	for _, cf := range rep.Plan.Conflicts {
		fmt.Printf("  conflict on %s: %s beat %d candidate(s) [%s]\n",
			cf.Target, cf.Winner.Agent, len(cf.Losers), cf.Strategy)
	}
	if rep.Rejected {
		fmt.Printf("plan REJECTED: %s\n", rep.RejectReason)
	} else if rep.Result != nil && rep.Result.Success {
		fmt.Printf("executed %d action(s)\n", len(rep.Result.Executed))
	} else if rep.Result != nil {
		fmt.Printf("execution failed: %s\n", rep.Result.Err)
	}
	return nil
}
