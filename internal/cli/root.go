// Package cli defines Cobra command definitions for the legionaid CLI.
// This file contains the root command, version flag, and help output.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "legionaid",
	Short: "Adaptive hardware optimization daemon for Legion laptops",
	Long: `Legionaid reconciles several optimization agents (power, thermal,
battery, display, GPU) into one safe hardware plan per cycle. Agents
propose power limits, fan behavior, and display state independently;
an arbitration engine resolves their conflicts deterministically and a
safety validator gates every plan before it touches sysfs.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print per-cycle detail to stdout")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default /etc/legionaid/config.yaml)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(monitorCmd)
}
