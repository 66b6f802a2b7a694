package reflow

import (
	"errors"
	"log/slog"
)

// storeConfig holds mutable state during Store construction.
type storeConfig[S, A any] struct {
	middleware []Middleware[S, A]
	logger     *slog.Logger
}

// Option is a function that configures a [Store] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithMiddleware], [WithLogger].
type Option[S, A any] func(*storeConfig[S, A]) error

// WithMiddleware appends middleware to the store's dispatch pipeline.
//
// Can be called multiple times; middleware keeps the order in which it was
// supplied. The first middleware is the outermost layer. See [Middleware]
// for the composition rules.
//
// Example:
//
//	store, err := reflow.New(counter, 0,
//	    reflow.WithMiddleware(
//	        reflow.LoggingMiddleware[int, int](logger),
//	        reflow.FilterMiddleware(func(_ int, delta int) bool { return delta != 0 }),
//	    ),
//	)
//
// Returns an error if any middleware is nil.
func WithMiddleware[S, A any](middleware ...Middleware[S, A]) Option[S, A] {
	return func(cfg *storeConfig[S, A]) error {
		for _, m := range middleware {
			if m == nil {
				return errors.New("middleware cannot be nil")
			}
		}
		cfg.middleware = append(cfg.middleware, middleware...)
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the store.
//
// The logger records subscriber crashes and asynchronous dispatch
// failures. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger[S, A any](logger *slog.Logger) Option[S, A] {
	return func(cfg *storeConfig[S, A]) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}
