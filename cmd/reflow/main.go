// Package main is the entry point for the reflow CLI.
//
// The CLI replays a YAML tally script against a reflow store, printing
// every state its subscribers observe. It is useful for exploring how
// middleware, guards, and subscriber failures interact.
//
// Usage:
//
//	reflow run -c script.yaml      # Replay a script
//	reflow validate -c script.yaml # Validate a script
//	reflow version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "reflow",
	Short: "Replay tally scripts against a reflow store",
	Long: `reflow replays YAML tally scripts against a single-writer state store.

Each script declares an initial set of counters, optional guard and logging
middleware, subscribers, and a list of steps. Every state a subscriber
observes is printed.

Example script:
  title: checkout
  initial:
    carts: 0
  guard: "amount >= 0 || op != 'add'"
  subscribers:
    - name: printer
  steps:
    - dispatch: ["add:carts:5", "add:carts:-2"]
    - async: ["reset:carts"]`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "reflow %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
