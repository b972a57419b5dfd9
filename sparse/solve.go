// Package sparse: triangular solves over the factorized system.
package sparse

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Solve back-substitutes R·δ = d for the full unknown vector.
//
// Columns whose pivot is missing or below the pivot tolerance are
// structurally rank deficient: their delta is forced to zero and the
// column index is reported in the second return value, so the caller
// can flag the affected nodes instead of propagating NaNs.
// Complexity: O(nonzeros).
func (s *System) Solve() ([]float64, []int) {
	delta := make([]float64, s.ncols)
	var deficient []int

	for j := s.ncols - 1; j >= 0; j-- {
		r := s.rows[j]
		if r == nil || math.Abs(r.vals[0]) <= s.pivotTol {
			deficient = append(deficient, j)

			continue
		}
		sum := r.rhs
		for i := 1; i < len(r.cols); i++ {
			sum -= r.vals[i] * delta[r.cols[i]]
		}
		delta[j] = sum / r.vals[0]
	}

	// Report deficient columns in ascending order.
	for l, h := 0, len(deficient)-1; l < h; l, h = l+1, h-1 {
		deficient[l], deficient[h] = deficient[h], deficient[l]
	}

	return delta, deficient
}

// Deficient returns the columns whose pivot is currently missing or
// below tolerance, without solving.
func (s *System) Deficient() []int {
	var cols []int
	for j := 0; j < s.ncols; j++ {
		if s.rows[j] == nil || math.Abs(s.rows[j].vals[0]) <= s.pivotTol {
			cols = append(cols, j)
		}
	}

	return cols
}

// R snapshots the triangular factor as a dense matrix. Pending
// (unfactorized) rows are not included. Intended for tests and
// debugging, not for the solve path.
// Complexity: O(n² ) memory.
func (s *System) R() *mat.Dense {
	d := mat.NewDense(s.ncols, s.ncols, nil)
	for j, r := range s.rows {
		if r == nil {
			continue
		}
		for i, c := range r.cols {
			d.Set(j, c, r.vals[i])
		}
	}

	return d
}

// Rhs snapshots the right-hand side aligned with R's rows.
func (s *System) Rhs() []float64 {
	d := make([]float64, s.ncols)
	for j, r := range s.rows {
		if r != nil {
			d[j] = r.rhs
		}
	}

	return d
}
