// Package isam: recoverable numerical warnings and per-call statistics.
package isam

import (
	"fmt"

	"github.com/katalvlaran/slamkit/core"
)

// RankDeficiencyWarning reports a (near-)zero pivot met during a solve:
// the named node is not fully constrained by the current factor set and
// its estimate is unreliable until further measurements arrive. The
// solve still completes with the deficient directions pinned to zero.
type RankDeficiencyWarning struct {
	// Column is the deficient column in the current ordering.
	Column int

	// Node owns the deficient column.
	Node core.NodeID
}

// Error implements the error interface.
func (w *RankDeficiencyWarning) Error() string {
	return fmt.Sprintf("isam: rank deficient at column %d (node %d)", w.Column, w.Node)
}

// ConvergenceWarning reports that BatchOptimize hit its iteration cap
// before the delta norm met tolerance; the last iterate was kept.
type ConvergenceWarning struct {
	Iterations int
	DeltaNorm  float64
}

// Error implements the error interface.
func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("isam: no convergence after %d iterations (|δ|=%g)", w.Iterations, w.DeltaNorm)
}

// Stats summarizes one engine operation: a best-effort result
// description plus any recoverable warnings. Fatal errors are returned
// separately and leave Stats empty.
type Stats struct {
	// Step counts updates accepted since engine construction.
	Step int

	// Iterations is the number of Gauss-Newton iterations run (1 for an
	// incremental update that solved, 0 when the solve was skipped).
	Iterations int

	// DeltaNorm is the 2-norm of the last applied delta.
	DeltaNorm float64

	// Rotations counts Givens rotations applied by this operation.
	Rotations int

	// Relinearized reports whether a full relinearization sweep ran.
	Relinearized bool

	// Converged reports whether the last solve met tolerance (only
	// meaningful for BatchOptimize).
	Converged bool

	// Warnings carries recoverable diagnostics: *RankDeficiencyWarning,
	// *ConvergenceWarning.
	Warnings []error
}
