// Package sparse: incremental triangularization by sparse Givens rotations.
package sparse

import "math"

// Factorize folds all pending rows into the triangular R. Each pending
// row is eliminated left to right: when its leading column j already
// has a triangular row, one Givens rotation zeroes the entry at j
// (updating both rows over the union of their sparsity patterns); when
// column j is still unpinned, the remainder of the row becomes R's row
// j. A row eliminated down to nothing carries pure residual and is
// dropped.
//
// Returns the number of rotations applied (useful for instrumentation).
// Complexity: O(rotations · union-row-length); only columns in the new
// rows' fill-in pattern are touched.
func (s *System) Factorize() int {
	rotations := 0
	for _, r := range s.pending {
		for len(r.cols) > 0 {
			j := r.leading()
			pivot := s.rows[j]
			if pivot == nil {
				s.rows[j] = r

				break
			}
			rotateRows(pivot, r)
			rotations++
		}
	}
	s.pending = nil

	return rotations
}

// rotateRows applies one Givens rotation annihilating q's leading entry
// against pivot row p; both rows share the same leading column. The
// rotation is orthogonal, so the least-squares problem represented by
// the rows is preserved exactly. Merged in one linear scan over the
// union of the two sparsity patterns; exact zeros are dropped to keep
// rows sparse.
func rotateRows(p, q *row) {
	a, b := p.vals[0], q.vals[0]
	r := math.Hypot(a, b)
	c, s := a/r, b/r

	diag := p.leading()
	pc, pv := p.cols, p.vals
	qc, qv := q.cols, q.vals

	newPC := make([]int, 0, len(pc)+len(qc))
	newPV := make([]float64, 0, len(pc)+len(qc))
	newQC := make([]int, 0, len(pc)+len(qc))
	newQV := make([]float64, 0, len(pc)+len(qc))

	i, k := 0, 0
	for i < len(pc) || k < len(qc) {
		var col int
		var a0, b0 float64
		switch {
		case k >= len(qc) || (i < len(pc) && pc[i] < qc[k]):
			col, a0, b0 = pc[i], pv[i], 0
			i++
		case i >= len(pc) || qc[k] < pc[i]:
			col, a0, b0 = qc[k], 0, qv[k]
			k++
		default:
			col, a0, b0 = pc[i], pv[i], qv[k]
			i, k = i+1, k+1
		}

		np := c*a0 + s*b0
		nq := -s*a0 + c*b0
		if col == diag {
			// Analytically np = hypot(a,b) and nq = 0; store them exactly.
			np, nq = r, 0
		}
		if np != 0 {
			newPC = append(newPC, col)
			newPV = append(newPV, np)
		}
		if nq != 0 {
			newQC = append(newQC, col)
			newQV = append(newQV, nq)
		}
	}

	p.cols, p.vals = newPC, newPV
	q.cols, q.vals = newQC, newQV
	p.rhs, q.rhs = c*p.rhs+s*q.rhs, -s*p.rhs+c*q.rhs
}
