// Package core: generic linearization of factors.
//
// Linearize is the single entry point used by the engine. It dispatches
// to a factor's closed-form Jacobian when the factor implements
// Linearizer, and otherwise falls back to central finite differences of
// BasicError over each node's tangent-space coordinates. The two paths
// must agree to floating-point difference precision; the slam2d tests
// check exactly that.
package core

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultNumericalStep is the finite-difference step used by
// NumericalJacobian when the caller passes step <= 0. Central
// differences at 1e-7 keep the truncation error near 1e-14 for the
// well-scaled residuals of SLAM factors.
const DefaultNumericalStep = 1e-7

// Linearize computes a factor's weighted Jacobian at the participating
// nodes' linearization points.
//
// Every participating node must have been linearized (Value0 set)
// before the call; ErrUninitializedNode is returned otherwise.
// Complexity: O(dim·Σ node dims) error evaluations on the numeric path,
// a single closed-form evaluation otherwise.
func Linearize(g *Graph, f Factor, step float64) (*Jacobian, error) {
	if lz, ok := f.(Linearizer); ok {
		return lz.Linearize(g)
	}

	return NumericalJacobian(g, f, step)
}

// NumericalJacobian linearizes a factor by central finite differences:
// each tangent coordinate of each participating node is perturbed by
// ±step around the linearization point and BasicError is differenced.
// This is the default implementation backing every factor that does not
// provide a closed-form derivative.
func NumericalJacobian(g *Graph, f Factor, step float64) (*Jacobian, error) {
	if step <= 0 {
		step = DefaultNumericalStep
	}
	ids := f.NodeIDs()
	vals, err := g.ValuesAt(ids, true)
	if err != nil {
		return nil, fmt.Errorf("core: linearize %s: %w", f.Name(), err)
	}

	// Weighted residual at the linearization point.
	res, err := WeightedResidual(f, vals)
	if err != nil {
		return nil, fmt.Errorf("core: linearize %s: %w", f.Name(), err)
	}

	jac := &Jacobian{Residual: res, Terms: make([]Term, len(ids))}
	dim := f.Dim()
	for k, id := range ids {
		nd := vals[k].Dim()
		block := mat.NewDense(dim, nd, nil)
		base := vals[k].Vector()
		for j := 0; j < nd; j++ {
			// Evaluate at x + step·e_j and x − step·e_j.
			ePlus, err := errorAtPerturbed(f, vals, k, base, j, +step)
			if err != nil {
				return nil, err
			}
			eMinus, err := errorAtPerturbed(f, vals, k, base, j, -step)
			if err != nil {
				return nil, err
			}
			for i := 0; i < dim; i++ {
				block.Set(i, j, (ePlus[i]-eMinus[i])/(2*step))
			}
		}
		// Weight the block: sqrtinf · ∂basic_error/∂node.
		weighted := mat.NewDense(dim, nd, nil)
		weighted.Mul(f.SqrtInf(), block)
		jac.Terms[k] = Term{ID: id, Block: weighted}
	}

	return jac, nil
}

// errorAtPerturbed evaluates a factor's unweighted error with the k-th
// value's j-th coordinate displaced by d, leaving vals unchanged.
func errorAtPerturbed(f Factor, vals []Value, k int, base []float64, j int, d float64) ([]float64, error) {
	vec := make([]float64, len(base))
	copy(vec, base)
	vec[j] += d

	pv, err := vals[k].WithVector(vec)
	if err != nil {
		return nil, fmt.Errorf("core: linearize %s: %w", f.Name(), err)
	}
	saved := vals[k]
	vals[k] = pv
	e, err := f.BasicError(vals)
	vals[k] = saved
	if err != nil {
		return nil, fmt.Errorf("core: linearize %s: %w", f.Name(), err)
	}
	if len(e) != f.Dim() {
		return nil, fmt.Errorf("core: factor %s: error dim %d, want %d: %w",
			f.Name(), len(e), f.Dim(), ErrDimensionMismatch)
	}

	return e, nil
}
