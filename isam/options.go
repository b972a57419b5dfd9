// Package isam: functional options resolving against DefaultConfig.
package isam

import "log/slog"

// Option configures an Engine at construction. Constructors panic on
// nonsensical values (programmer error); runtime conditions are never
// panics.
type Option func(*Engine)

// WithConfig replaces the whole configuration. Panics when cfg fails
// validation, so a bad file caught by LoadConfig cannot be forced in.
func WithConfig(cfg Config) Option {
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}

	return func(e *Engine) { e.cfg = cfg }
}

// WithModSolve solves every n-th update. Panics when n < 1.
func WithModSolve(n int) Option {
	if n < 1 {
		panic("isam: WithModSolve: n must be >= 1")
	}

	return func(e *Engine) { e.cfg.ModSolve = n }
}

// WithModBatch relinearizes and reorders every n-th update. Panics when
// n < 1.
func WithModBatch(n int) Option {
	if n < 1 {
		panic("isam: WithModBatch: n must be >= 1")
	}

	return func(e *Engine) { e.cfg.ModBatch = n }
}

// WithEpsilon sets the Gauss-Newton convergence tolerance. Panics when
// eps <= 0.
func WithEpsilon(eps float64) Option {
	if eps <= 0 {
		panic("isam: WithEpsilon: eps must be > 0")
	}

	return func(e *Engine) { e.cfg.Epsilon = eps }
}

// WithMaxIterations caps Gauss-Newton in BatchOptimize. Panics when
// n < 1.
func WithMaxIterations(n int) Option {
	if n < 1 {
		panic("isam: WithMaxIterations: n must be >= 1")
	}

	return func(e *Engine) { e.cfg.MaxIterations = n }
}

// WithLogger routes engine diagnostics through the given slog logger
// instead of slog.Default().
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("isam: WithLogger: logger must be non-nil")
	}

	return func(e *Engine) { e.log = l }
}
