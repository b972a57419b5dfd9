// Package sparse: marginal covariance recovery from the triangular factor.
package sparse

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CovarianceColumn recovers column i of the covariance (RᵀR)⁻¹ by two
// sparse triangular solves: forward-substitute Rᵀ·y = eᵢ, then
// back-substitute R·x = y. This is the expensive, opt-in query path;
// nothing on the incremental-update path calls it.
//
// Returns ErrZeroPivot (with the offending column) when the factor is
// rank deficient, since no covariance exists then.
// Complexity: O(nonzeros) per column.
func (s *System) CovarianceColumn(i int) ([]float64, error) {
	if i < 0 || i >= s.ncols {
		return nil, fmt.Errorf("sparse: covariance column %d (ncols=%d): %w", i, s.ncols, ErrBadRow)
	}

	// Forward solve Rᵀ·y = eᵢ with row-stored R: once y[j] is known,
	// scatter row j's off-diagonal contributions into the accumulator.
	y := make([]float64, s.ncols)
	acc := make([]float64, s.ncols)
	for j := 0; j < s.ncols; j++ {
		r := s.rows[j]
		if r == nil || math.Abs(r.vals[0]) <= s.pivotTol {
			return nil, fmt.Errorf("sparse: column %d: %w", j, ErrZeroPivot)
		}
		e := 0.0
		if j == i {
			e = 1.0
		}
		y[j] = (e - acc[j]) / r.vals[0]
		if y[j] == 0 {
			continue
		}
		for k := 1; k < len(r.cols); k++ {
			acc[r.cols[k]] += r.vals[k] * y[j]
		}
	}

	// Back solve R·x = y.
	x := make([]float64, s.ncols)
	for j := s.ncols - 1; j >= 0; j-- {
		r := s.rows[j]
		sum := y[j]
		for k := 1; k < len(r.cols); k++ {
			sum -= r.vals[k] * x[r.cols[k]]
		}
		x[j] = sum / r.vals[0]
	}

	return x, nil
}

// CovarianceBlock recovers the square marginal covariance block for the
// column range [col, col+dim), typically one node's columns. The block
// is symmetrized from the recovered columns to shed the last bits of
// floating-point asymmetry.
func (s *System) CovarianceBlock(col, dim int) (*mat.SymDense, error) {
	if col < 0 || dim <= 0 || col+dim > s.ncols {
		return nil, fmt.Errorf("sparse: covariance block [%d,%d): %w", col, col+dim, ErrBadRow)
	}
	cols := make([][]float64, dim)
	for j := 0; j < dim; j++ {
		x, err := s.CovarianceColumn(col + j)
		if err != nil {
			return nil, err
		}
		cols[j] = x
	}

	block := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			block.SetSym(i, j, 0.5*(cols[j][col+i]+cols[i][col+j]))
		}
	}

	return block, nil
}
