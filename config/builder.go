package config

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jpalmerr/reflow"
	"github.com/jpalmerr/reflow/tally"
)

// compileGuard compiles a guard expression against the tally environment.
func compileGuard(expression string) (*vm.Program, error) {
	sample := tally.Env(tally.NewState(nil), tally.Action{})
	program, err := expr.Compile(expression, expr.Env(sample), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expression, err)
	}
	return program, nil
}

// BuildInitial returns the script's initial state.
func BuildInitial(cfg *Config) tally.State {
	return tally.NewState(cfg.Initial)
}

// BuildActions converts action configs to tally actions.
func BuildActions(actions []ActionConfig) []tally.Action {
	result := make([]tally.Action, len(actions))
	for i, a := range actions {
		result[i] = tally.Action{
			Op:     tally.Op(a.Op),
			Key:    a.Key,
			Amount: a.Amount,
		}
	}
	return result
}

// BuildGuard converts the script's guard expression into filtering
// middleware. Returns nil if the script has no guard.
//
// The expression is evaluated with [tally.Env] for every action. Actions
// for which it is false are dropped. An evaluation error also drops the
// action and is logged at Warn level.
func BuildGuard(cfg *Config, logger *slog.Logger) (reflow.Middleware[tally.State, tally.Action], error) {
	if cfg.Guard == "" {
		return nil, nil
	}

	program, err := compileGuard(cfg.Guard)
	if err != nil {
		return nil, err
	}

	guard := cfg.Guard
	return reflow.FilterMiddleware(func(state tally.State, action tally.Action) bool {
		out, err := expr.Run(program, tally.Env(state, action))
		if err != nil {
			logger.Warn("guard evaluation failed",
				"guard", guard,
				"action", action.String(),
				"error", err,
			)
			return false
		}
		allowed, _ := out.(bool)
		if !allowed {
			logger.Debug("action rejected by guard", "guard", guard, "action", action.String())
		}
		return allowed
	}), nil
}

// BuildOptions returns the store options described by the script: the
// logger, then the guard and logging middleware.
//
// The guard is outermost so rejected actions are never logged as
// dispatched.
func BuildOptions(cfg *Config, logger *slog.Logger) ([]reflow.Option[tally.State, tally.Action], error) {
	opts := []reflow.Option[tally.State, tally.Action]{
		reflow.WithLogger[tally.State, tally.Action](logger),
	}

	guard, err := BuildGuard(cfg, logger)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		opts = append(opts, reflow.WithMiddleware(guard))
	}

	if cfg.LogActions {
		opts = append(opts, reflow.WithMiddleware(reflow.LoggingMiddleware[tally.State, tally.Action](logger)))
	}

	return opts, nil
}
