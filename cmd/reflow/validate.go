package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/reflow/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a tally script",
	Long: `Validate a tally script without running it.

This command parses the YAML, expands environment variables, compiles the
guard expression, and checks every step. It's useful for CI pipelines.

Exit codes:
  0 - Script is valid
  1 - Script is invalid (error details printed to stderr)

Example:
  reflow validate -c script.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to script file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid script: %w", err)
	}

	counts := make(map[string]int)
	actions := 0
	for _, step := range cfg.Steps {
		counts[step.Kind()]++
		actions += len(step.Dispatch) + len(step.Async)
	}

	guard := cfg.Guard
	if guard == "" {
		guard = "(none)"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Script is valid!\n")
	fmt.Fprintf(out, "  Subscribers: %d\n", len(cfg.Subscribers))
	fmt.Fprintf(out, "  Steps:       %d (%d dispatch, %d async, %d unsubscribe)\n",
		len(cfg.Steps), counts[config.StepDispatch], counts[config.StepAsync], counts[config.StepUnsubscribe])
	fmt.Fprintf(out, "  Actions:     %d\n", actions)
	fmt.Fprintf(out, "  Guard:       %s\n", guard)

	return nil
}
