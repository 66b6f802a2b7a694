// Package config provides YAML script parsing for the reflow CLI.
//
// A script describes a tally session: the initial counters, an optional
// guard expression, the subscribers to attach, and the steps to run
// against the store.
//
// Example script:
//
//	title: checkout
//	initial:
//	  carts: 0
//	guard: "amount >= 0 || op != 'add'"
//	log_actions: true
//
//	subscribers:
//	  - name: printer
//	  - name: flaky
//	    fail_after: 1
//
//	steps:
//	  - dispatch: ["add:carts:5", "add:carts:-2"]
//	  - unsubscribe: flaky
//	  - async:
//	      - {op: add, key: carts, amount: 10}
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/reflow/tally"
)

// Config is the root structure of a reflow script.
//
// It maps directly to the YAML file. Use [Load] or [Parse] to create one.
type Config struct {
	// Title is printed before the run. Supports ${VAR} substitution.
	Title string `yaml:"title"`

	// Initial holds the starting counter values.
	Initial map[string]int64 `yaml:"initial"`

	// Guard is an optional boolean expr-lang expression. Actions for which
	// it evaluates to false are dropped before reaching the reducer.
	// Supports ${VAR} and ${VAR:-default} substitution.
	Guard string `yaml:"guard"`

	// LogActions installs the logging middleware.
	LogActions bool `yaml:"log_actions"`

	// Subscribers are attached in order before the first step.
	Subscribers []SubscriberConfig `yaml:"subscribers"`

	// Steps run in order.
	Steps []StepConfig `yaml:"steps"`
}

// SubscriberConfig declares a subscriber that prints every state it sees.
type SubscriberConfig struct {
	// Name identifies the subscriber in output and in unsubscribe steps.
	Name string `yaml:"name"`

	// FailAfter makes the subscriber panic once it has observed this many
	// states, which crashes it. Zero means it never fails.
	FailAfter int `yaml:"fail_after"`
}

// StepConfig is one step of a script. Exactly one field must be set.
type StepConfig struct {
	// Dispatch applies actions synchronously.
	Dispatch []ActionConfig `yaml:"dispatch"`

	// Async queues actions on the store's background worker.
	Async []ActionConfig `yaml:"async"`

	// Unsubscribe removes the named subscriber.
	Unsubscribe string `yaml:"unsubscribe"`
}

// Step kinds returned by [StepConfig.Kind].
const (
	StepDispatch    = "dispatch"
	StepAsync       = "async"
	StepUnsubscribe = "unsubscribe"
)

// Kind returns which field of the step is set, or "" if none or several are.
func (s StepConfig) Kind() string {
	kind := ""
	set := 0
	if s.Dispatch != nil {
		kind = StepDispatch
		set++
	}
	if s.Async != nil {
		kind = StepAsync
		set++
	}
	if s.Unsubscribe != "" {
		kind = StepUnsubscribe
		set++
	}
	if set != 1 {
		return ""
	}
	return kind
}

// ActionConfig is a tally action in a script.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	"add:carts:5"
//	"set:carts:0"
//	"reset:carts"
//	"clear"
//
// Structured object:
//
//	{op: add, key: carts, amount: 5}
type ActionConfig struct {
	Op     string
	Key    string
	Amount int64
}

// UnmarshalYAML implements yaml.Unmarshaler for ActionConfig.
func (a *ActionConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return a.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Op     string `yaml:"op"`
			Key    string `yaml:"key"`
			Amount int64  `yaml:"amount"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		a.Op = raw.Op
		a.Key = raw.Key
		a.Amount = raw.Amount
		return nil
	}

	return fmt.Errorf("action must be a string or object, got %v", node.Kind)
}

// parseShorthand parses "op:key:amount", "op:key" or "op".
func (a *ActionConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("action cannot be empty")
	}

	parts := strings.Split(s, ":")
	a.Op = parts[0]

	switch tally.Op(a.Op) {
	case tally.OpClear:
		if len(parts) != 1 {
			return fmt.Errorf("action %q: clear takes no arguments", s)
		}
	case tally.OpReset:
		if len(parts) != 2 {
			return fmt.Errorf("action %q: expected reset:key", s)
		}
		a.Key = parts[1]
	case tally.OpAdd, tally.OpSet:
		if len(parts) != 3 {
			return fmt.Errorf("action %q: expected %s:key:amount", s, a.Op)
		}
		a.Key = parts[1]
		amount, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return fmt.Errorf("action %q: invalid amount: %w", s, err)
		}
		a.Amount = amount
	default:
		return fmt.Errorf("unknown action %q (expected 'add:key:n', 'set:key:n', 'reset:key', or 'clear')", s)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML script file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML script data.
//
// Environment variables are expanded in Title and Guard.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the script.
func (c *Config) expandAndValidate() error {
	title, err := expandEnvVars(c.Title)
	if err != nil {
		return fmt.Errorf("title: %w", err)
	}
	c.Title = title

	guard, err := expandEnvVars(c.Guard)
	if err != nil {
		return fmt.Errorf("guard: %w", err)
	}
	c.Guard = strings.TrimSpace(guard)

	if c.Guard != "" {
		// fail fast before the runner tries to use an invalid guard
		if _, err := compileGuard(c.Guard); err != nil {
			return fmt.Errorf("guard: %w", err)
		}
	}

	names := make(map[string]struct{}, len(c.Subscribers))
	for i, sub := range c.Subscribers {
		if sub.Name == "" {
			return fmt.Errorf("subscribers[%d]: name is required", i)
		}
		if _, exists := names[sub.Name]; exists {
			return fmt.Errorf("subscribers[%d]: duplicate name %q", i, sub.Name)
		}
		names[sub.Name] = struct{}{}

		if sub.FailAfter < 0 {
			return fmt.Errorf("subscribers[%d] (%s): fail_after cannot be negative, got %d", i, sub.Name, sub.FailAfter)
		}
	}

	if len(c.Steps) == 0 {
		return errors.New("at least one step must be defined")
	}

	for i, step := range c.Steps {
		switch step.Kind() {
		case StepDispatch:
			if err := validateActions(step.Dispatch, fmt.Sprintf("steps[%d].dispatch", i)); err != nil {
				return err
			}
		case StepAsync:
			if err := validateActions(step.Async, fmt.Sprintf("steps[%d].async", i)); err != nil {
				return err
			}
		case StepUnsubscribe:
			if _, ok := names[step.Unsubscribe]; !ok {
				return fmt.Errorf("steps[%d]: unsubscribe names unknown subscriber %q", i, step.Unsubscribe)
			}
		default:
			return fmt.Errorf("steps[%d]: exactly one of dispatch, async, or unsubscribe is required", i)
		}
	}

	return nil
}

// validateActions validates the actions of one step.
func validateActions(actions []ActionConfig, context string) error {
	for i, a := range actions {
		op := tally.Op(a.Op)
		if !op.Valid() {
			return fmt.Errorf("%s[%d]: unknown op %q", context, i, a.Op)
		}
		if op != tally.OpClear && a.Key == "" {
			return fmt.Errorf("%s[%d]: op %q requires a key", context, i, a.Op)
		}
	}
	return nil
}
