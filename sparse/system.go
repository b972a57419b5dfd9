// Package sparse: System storage, row insertion and validation.
package sparse

import (
	"errors"
	"fmt"
	"sort"

	"github.com/katalvlaran/slamkit/core"
)

// Sentinel errors for sparse-system operations.
var (
	// ErrBadRow indicates a malformed measurement row: mismatched
	// lengths, unsorted or duplicate columns, or out-of-range indices.
	ErrBadRow = errors.New("sparse: malformed row")

	// ErrColumnUnassigned indicates a Jacobian term referencing a node
	// that has no column index in the current ordering yet.
	ErrColumnUnassigned = errors.New("sparse: node column not assigned")

	// ErrZeroPivot indicates a (near-)zero diagonal encountered where an
	// invertible pivot is required (covariance recovery).
	ErrZeroPivot = errors.New("sparse: zero pivot")
)

// DefaultPivotTolerance is the magnitude below which a diagonal entry
// of R is treated as a structural rank deficiency.
const DefaultPivotTolerance = 1e-12

// row is one sparse row: ascending column indices, parallel values, and
// the row's right-hand-side entry.
type row struct {
	cols []int
	vals []float64
	rhs  float64
}

// leading returns the row's first (lowest) column index.
func (r *row) leading() int { return r.cols[0] }

// Option configures a System at construction.
type Option func(*System)

// WithPivotTolerance overrides DefaultPivotTolerance. Panics when tol
// is negative (programmer error).
func WithPivotTolerance(tol float64) Option {
	if tol < 0 {
		panic("sparse: WithPivotTolerance: tolerance must be non-negative")
	}

	return func(s *System) { s.pivotTol = tol }
}

// System is the square-root information matrix R together with its
// right-hand side. rows[j] holds the triangular row whose diagonal sits
// at column j (nil while no measurement pins that column); pending
// holds inserted rows not yet folded into the triangle.
//
// Version counts Reset calls: column indices obtained under one version
// are invalid under the next, which makes the incremental/batch
// boundary an explicit state transition for callers.
type System struct {
	ncols    int
	rows     []*row
	pending  []*row
	version  uint64
	pivotTol float64
}

// NewSystem creates an empty system over ncols scalar unknowns.
func NewSystem(ncols int, opts ...Option) *System {
	s := &System{pivotTol: DefaultPivotTolerance}
	s.grow(ncols)
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NumCols returns the number of scalar unknowns.
func (s *System) NumCols() int { return s.ncols }

// Version returns the batch-boundary counter; it increases on every Reset.
func (s *System) Version() uint64 { return s.version }

// NNZ returns the number of stored nonzeros, pending rows included.
// Complexity: O(rows).
func (s *System) NNZ() int {
	n := 0
	for _, r := range s.rows {
		if r != nil {
			n += len(r.cols)
		}
	}
	for _, r := range s.pending {
		n += len(r.cols)
	}

	return n
}

// Reset discards all rows and re-dimensions the system; the version is
// bumped so stale column indices cannot be mixed into the new triangle.
// Used for batch factorization after a reordering or relinearization
// sweep.
func (s *System) Reset(ncols int) {
	s.rows = nil
	s.pending = nil
	s.ncols = 0
	s.grow(ncols)
	s.version++
}

// Grow extends the system by additional trailing columns, keeping the
// existing triangle valid. Used when new nodes are appended to the end
// of the current ordering.
func (s *System) Grow(ncols int) {
	if ncols > s.ncols {
		s.grow(ncols)
	}
}

func (s *System) grow(ncols int) {
	for len(s.rows) < ncols {
		s.rows = append(s.rows, nil)
	}
	s.ncols = ncols
}

// InsertRow appends one measurement row (copied) to the pending set.
// Columns must be strictly ascending and inside [0, NumCols).
// Rows made entirely of zeros are dropped: their right-hand side is
// pure residual and never touches the triangle.
func (s *System) InsertRow(cols []int, vals []float64, rhs float64) error {
	if len(cols) != len(vals) {
		return fmt.Errorf("sparse: %d cols vs %d vals: %w", len(cols), len(vals), ErrBadRow)
	}
	prev := -1
	for _, c := range cols {
		if c <= prev || c >= s.ncols {
			return fmt.Errorf("sparse: column %d (ncols=%d): %w", c, s.ncols, ErrBadRow)
		}
		prev = c
	}

	r := &row{rhs: rhs}
	for i, c := range cols {
		if vals[i] != 0 {
			r.cols = append(r.cols, c)
			r.vals = append(r.vals, vals[i])
		}
	}
	if len(r.cols) == 0 {
		return nil
	}
	s.pending = append(s.pending, r)

	return nil
}

// InsertJacobian appends a factor's weighted Jacobian rows, associating
// each term's block with its node's current column index in g. The
// right-hand side of each row is the negated weighted residual, so that
// solving R·δ = d yields the Gauss-Newton step directly.
//
// On error nothing is inserted (validation happens before the first
// append), keeping the system in its pre-call state.
func (s *System) InsertJacobian(g *core.Graph, jac *core.Jacobian) error {
	dim := len(jac.Residual)

	// Resolve each term's base column up front; fail before mutating.
	bases := make([]int, len(jac.Terms))
	for k, term := range jac.Terms {
		n, err := g.Node(term.ID)
		if err != nil {
			return err
		}
		if n.Col() < 0 {
			return fmt.Errorf("sparse: node %d: %w", term.ID, ErrColumnUnassigned)
		}
		bases[k] = n.Col()
	}

	rows := make([]*row, 0, dim)
	for i := 0; i < dim; i++ {
		var entries []colVal
		for k, term := range jac.Terms {
			_, nd := term.Block.Dims()
			for j := 0; j < nd; j++ {
				if v := term.Block.At(i, j); v != 0 {
					entries = append(entries, colVal{col: bases[k] + j, val: v})
				}
			}
		}
		if len(entries) == 0 {
			continue
		}
		sort.Slice(entries, func(a, b int) bool { return entries[a].col < entries[b].col })
		r := &row{rhs: -jac.Residual[i]}
		for _, e := range entries {
			if e.col >= s.ncols {
				return fmt.Errorf("sparse: column %d (ncols=%d): %w", e.col, s.ncols, ErrBadRow)
			}
			r.cols = append(r.cols, e.col)
			r.vals = append(r.vals, e.val)
		}
		rows = append(rows, r)
	}
	s.pending = append(s.pending, rows...)

	return nil
}

type colVal struct {
	col int
	val float64
}
