// Package slam2d: prior factors fixing a single node against an
// absolute measurement.
package slam2d

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/slamkit/core"
	"github.com/katalvlaran/slamkit/manifold"
)

// Pose2dFactor is a prior on a single 2D pose node. Typically one of
// these anchors the first pose of a trajectory, fixing the gauge
// freedom of a purely relative problem.
type Pose2dFactor struct {
	factorBase
	prior manifold.Pose2d
}

// NewPose2dFactor creates a pose prior with the given 3x3
// upper-triangular square-root information matrix.
func NewPose2dFactor(pose core.NodeID, prior manifold.Pose2d, sqrtinf *mat.TriDense) (*Pose2dFactor, error) {
	base, err := newFactorBase(Pose2dFactorName, manifold.Pose2dDim, []core.NodeID{pose}, sqrtinf)
	if err != nil {
		return nil, err
	}

	return &Pose2dFactor{factorBase: base, prior: prior}, nil
}

// Prior returns the prior measurement.
func (f *Pose2dFactor) Prior() manifold.Pose2d { return f.prior }

// Initialize sets the pose directly from the prior when the node has no
// value yet. A prior has no prerequisite nodes.
func (f *Pose2dFactor) Initialize(g *core.Graph) error {
	return initIfNeeded(g, f.ids[0], f.prior)
}

// BasicError is the vector difference to the prior, heading wrapped.
func (f *Pose2dFactor) BasicError(vals []core.Value) ([]float64, error) {
	if err := f.checkArity(vals, manifold.Pose2dDim); err != nil {
		return nil, err
	}
	v := vals[0].Vector()
	p := f.prior.Vector()

	return []float64{
		v[0] - p[0],
		v[1] - p[1],
		manifold.StandardRad(v[2] - p[2]),
	}, nil
}

// Linearize provides the closed form: the derivative of the error with
// respect to the pose is the identity, so the weighted block is the
// square-root information matrix itself.
func (f *Pose2dFactor) Linearize(g *core.Graph) (*core.Jacobian, error) {
	pose, err := pose2dValue0(g, f.ids[0])
	if err != nil {
		return nil, err
	}
	res, err := core.WeightedResidual(f, []core.Value{pose})
	if err != nil {
		return nil, err
	}

	block := mat.NewDense(f.dim, f.dim, nil)
	block.Copy(f.sqrtinf)

	return &core.Jacobian{
		Residual: res,
		Terms:    []core.Term{{ID: f.ids[0], Block: block}},
	}, nil
}

// String renders the graph text format line for this factor.
func (f *Pose2dFactor) String() string {
	return fmt.Sprintf("%s %d %s %s",
		f.name, f.ids[0], fields(f.prior.Vector()), SqrtinfString(f.sqrtinf))
}

// Point2dFactor is a prior on a single 2D point (landmark) node. It has
// no closed-form Linearize on purpose: points are flat, so the generic
// finite-difference path recovers the exact identity derivative and
// keeps this factor exercising the default implementation.
type Point2dFactor struct {
	factorBase
	prior manifold.Point2d
}

// NewPoint2dFactor creates a point prior with the given 2x2
// upper-triangular square-root information matrix.
func NewPoint2dFactor(point core.NodeID, prior manifold.Point2d, sqrtinf *mat.TriDense) (*Point2dFactor, error) {
	base, err := newFactorBase(Point2dFactorName, manifold.Point2dDim, []core.NodeID{point}, sqrtinf)
	if err != nil {
		return nil, err
	}

	return &Point2dFactor{factorBase: base, prior: prior}, nil
}

// Prior returns the prior measurement.
func (f *Point2dFactor) Prior() manifold.Point2d { return f.prior }

// Initialize sets the point directly from the prior when the node has
// no value yet.
func (f *Point2dFactor) Initialize(g *core.Graph) error {
	return initIfNeeded(g, f.ids[0], f.prior)
}

// BasicError is the plain vector difference to the prior.
func (f *Point2dFactor) BasicError(vals []core.Value) ([]float64, error) {
	if err := f.checkArity(vals, manifold.Point2dDim); err != nil {
		return nil, err
	}
	v := vals[0].Vector()
	p := f.prior.Vector()

	return []float64{v[0] - p[0], v[1] - p[1]}, nil
}

// String renders the graph text format line for this factor.
func (f *Point2dFactor) String() string {
	return fmt.Sprintf("%s %d %s %s",
		f.name, f.ids[0], fields(f.prior.Vector()), SqrtinfString(f.sqrtinf))
}
