// Package isam: engine configuration, loadable from YAML.
package isam

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Documented defaults: the single source of truth for Config's
// zero-value behavior. All of these are policy parameters, tunable per
// problem; none of them changes what the engine converges to, only how
// much work it spends getting there.
const (
	// DefaultModSolve solves and applies the delta after every update.
	DefaultModSolve = 1

	// DefaultModBatch relinearizes, reorders and rebuilds the system
	// every 100 measurements.
	DefaultModBatch = 100

	// DefaultEpsilon is the Gauss-Newton convergence tolerance on the
	// delta norm.
	DefaultEpsilon = 1e-6

	// DefaultMaxIterations caps Gauss-Newton in BatchOptimize.
	DefaultMaxIterations = 20

	// DefaultNumericalStep is the finite-difference step for factors
	// without a closed-form Jacobian (0 defers to core's default).
	DefaultNumericalStep = 0

	// DefaultPivotTolerance is the rank-deficiency threshold forwarded
	// to the sparse system.
	DefaultPivotTolerance = 1e-12
)

// ErrBadConfig indicates a Config that fails validation.
var ErrBadConfig = errors.New("isam: invalid config")

// Config carries the engine's tunable policy parameters. The yaml tags
// allow deployments to ship thresholds next to their data instead of
// recompiling.
type Config struct {
	// ModSolve solves every n-th update (1 = every update).
	ModSolve int `yaml:"mod_solve"`

	// ModBatch fully relinearizes and reorders every n-th update.
	ModBatch int `yaml:"mod_batch"`

	// Epsilon is the convergence tolerance on the delta norm.
	Epsilon float64 `yaml:"epsilon"`

	// MaxIterations caps Gauss-Newton iterations in BatchOptimize.
	MaxIterations int `yaml:"max_iterations"`

	// NumericalStep is the finite-difference step for the generic
	// Jacobian path; 0 uses the library default.
	NumericalStep float64 `yaml:"numerical_step"`

	// PivotTolerance is the magnitude under which a pivot counts as a
	// rank deficiency.
	PivotTolerance float64 `yaml:"pivot_tolerance"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ModSolve:       DefaultModSolve,
		ModBatch:       DefaultModBatch,
		Epsilon:        DefaultEpsilon,
		MaxIterations:  DefaultMaxIterations,
		NumericalStep:  DefaultNumericalStep,
		PivotTolerance: DefaultPivotTolerance,
	}
}

// Validate reports the first nonsensical parameter, wrapped around
// ErrBadConfig.
func (c Config) Validate() error {
	switch {
	case c.ModSolve < 1:
		return fmt.Errorf("%w: mod_solve=%d, want >= 1", ErrBadConfig, c.ModSolve)
	case c.ModBatch < 1:
		return fmt.Errorf("%w: mod_batch=%d, want >= 1", ErrBadConfig, c.ModBatch)
	case c.Epsilon <= 0:
		return fmt.Errorf("%w: epsilon=%g, want > 0", ErrBadConfig, c.Epsilon)
	case c.MaxIterations < 1:
		return fmt.Errorf("%w: max_iterations=%d, want >= 1", ErrBadConfig, c.MaxIterations)
	case c.NumericalStep < 0:
		return fmt.Errorf("%w: numerical_step=%g, want >= 0", ErrBadConfig, c.NumericalStep)
	case c.PivotTolerance < 0:
		return fmt.Errorf("%w: pivot_tolerance=%g, want >= 0", ErrBadConfig, c.PivotTolerance)
	}

	return nil
}

// LoadConfig reads a YAML config file on top of the defaults, so a file
// only needs to name the parameters it changes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("isam: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("isam: parse config: %w", err)
	}

	return cfg, cfg.Validate()
}
