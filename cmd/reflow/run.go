package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/reflow"
	"github.com/jpalmerr/reflow/config"
	"github.com/jpalmerr/reflow/tally"
)

// newLogger creates a JSON logger for CLI use.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a tally script",
	Long: `Replay a tally script against a fresh store.

Steps run in order. A dispatch step blocks until its actions are applied
and every subscriber has been notified. An async step only enqueues its
actions, so its output may interleave with later steps. All queued work
is drained before the final state is printed.

Example:
  reflow run -c script.yaml
  reflow run -c script.yaml --debug`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to script file (required)")
	runCmd.Flags().Bool("debug", false, "log at debug level")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	logger := newLogger(cmd.ErrOrStderr(), debug)

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}

	logger.Debug("script loaded",
		"subscribers", len(cfg.Subscribers),
		"steps", len(cfg.Steps),
	)

	return runScript(cfg, cmd.OutOrStdout(), logger)
}

// lockedWriter serializes writes from the caller and the async worker.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// runScript replays cfg against a new store, writing observed states to w.
func runScript(cfg *config.Config, w io.Writer, logger *slog.Logger) error {
	opts, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build store options: %w", err)
	}

	store, err := reflow.New(tally.Reducer, config.BuildInitial(cfg), opts...)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	out := &lockedWriter{w: w}
	if cfg.Title != "" {
		fmt.Fprintf(out, "== %s ==\n", cfg.Title)
	}

	subs := make([]*reflow.Subscriber[tally.State], len(cfg.Subscribers))
	byName := make(map[string]*reflow.Subscriber[tally.State], len(cfg.Subscribers))
	for i, sc := range cfg.Subscribers {
		sub, err := store.Subscribe(printer(sc, out))
		if err != nil {
			return fmt.Errorf("subscriber %q: %w", sc.Name, err)
		}
		subs[i] = sub
		byName[sc.Name] = sub
	}

	for i, step := range cfg.Steps {
		n := i + 1
		switch step.Kind() {
		case config.StepDispatch:
			actions := config.BuildActions(step.Dispatch)
			fmt.Fprintf(out, "step %d: dispatch%s\n", n, formatActions(actions))
			if err := store.Dispatch(actions...); err != nil {
				fmt.Fprintf(out, "step %d: failed: %v\n", n, err)
			}
		case config.StepAsync:
			actions := config.BuildActions(step.Async)
			fmt.Fprintf(out, "step %d: async%s\n", n, formatActions(actions))
			if err := store.DispatchAsync(actions...); err != nil {
				return fmt.Errorf("step %d: %w", n, err)
			}
		case config.StepUnsubscribe:
			removed := store.Unsubscribe(byName[step.Unsubscribe])
			fmt.Fprintf(out, "step %d: unsubscribe %s (removed %d)\n", n, step.Unsubscribe, removed)
		}
	}

	store.Close()
	fmt.Fprintf(out, "final: %s\n", store.State())

	for i, sub := range subs {
		if sub.HasCrashed() {
			fmt.Fprintf(out, "crashed: %s\n", cfg.Subscribers[i].Name)
		}
	}

	return nil
}

// printer returns a subscriber callback that prints every state it sees.
// With FailAfter set, it panics once it has printed that many states.
func printer(sc config.SubscriberConfig, w io.Writer) func(tally.State) {
	seen := 0
	return func(state tally.State) {
		if sc.FailAfter > 0 && seen >= sc.FailAfter {
			panic(fmt.Sprintf("subscriber %q failed after %d states", sc.Name, seen))
		}
		seen++
		fmt.Fprintf(w, "  %s: %s\n", sc.Name, state)
	}
}

func formatActions(actions []tally.Action) string {
	var b strings.Builder
	for _, a := range actions {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	return b.String()
}
