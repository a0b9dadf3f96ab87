// run.go implements the "legionaid run" command: the long-running
// optimization daemon.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vivekchamoli/legionaid/internal/diag"
	"github.com/vivekchamoli/legionaid/internal/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the optimization daemon",
	Long: `Run the arbitration loop at the configured interval until
interrupted. Each cycle collects a hardware snapshot, gathers agent
proposals, arbitrates conflicts, validates the plan, and applies it.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	server, err := diag.NewServer(cfg.Diag.Addr, rt.engine, rt.bus)
	if err != nil {
		return fmt.Errorf("starting diagnostics server: %w", err)
	}
	defer server.Quit()

	_ = rt.logger.Append(log.Event{Event: log.EventDaemonStarted})
	fmt.Printf("legionaid up: interval %dms, diagnostics on %s\n",
		cfg.Cycle.IntervalMs, cfg.Diag.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		// Diagnostics socket events; a dead listener ends the run.
		for msg := range server.Msgr() {
			switch msg.Code {
			case 199, 599:
				fmt.Fprintf(os.Stderr, "diagnostics socket down: %s\n", msg)
				stop()
				return
			default:
				if verbose {
					fmt.Printf("diag: %s\n", msg)
				}
			}
		}
	}()

	err = rt.engine.Run(ctx)
	_ = rt.logger.Append(log.Event{Event: log.EventDaemonStopped})
	if err == context.Canceled {
		fmt.Println("legionaid shutting down")
		return nil
	}
	return err
}
