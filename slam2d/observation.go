// Package slam2d: landmark observation: a pose observing a point in
// its own frame.
package slam2d

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/slamkit/core"
	"github.com/katalvlaran/slamkit/manifold"
)

// Pose2dPoint2dFactor constrains a pose and a landmark point: the
// measurement is the point observed in the pose's local frame.
type Pose2dPoint2dFactor struct {
	factorBase
	measure manifold.Point2d
}

// NewPose2dPoint2dFactor creates a landmark observation with a 2x2
// upper-triangular square-root information matrix.
func NewPose2dPoint2dFactor(pose, point core.NodeID, measure manifold.Point2d, sqrtinf *mat.TriDense) (*Pose2dPoint2dFactor, error) {
	base, err := newFactorBase(Pose2dPoint2dFactorName, manifold.Point2dDim,
		[]core.NodeID{pose, point}, sqrtinf)
	if err != nil {
		return nil, err
	}

	return &Pose2dPoint2dFactor{factorBase: base, measure: measure}, nil
}

// Measure returns the local-frame observation.
func (f *Pose2dPoint2dFactor) Measure() manifold.Point2d { return f.measure }

// Initialize requires the pose initialized (precondition) and predicts
// a still-uninitialized point by transforming the observation into the
// world frame.
func (f *Pose2dPoint2dFactor) Initialize(g *core.Graph) error {
	if err := requireInitialized(g, f.ids[0], f.name+" (pose)"); err != nil {
		return err
	}
	n, _ := g.Node(f.ids[0])
	pose := mustPose2d(n.Value())

	return initIfNeeded(g, f.ids[1], pose.TransformFrom(f.measure))
}

// BasicError compares the point transformed into the pose's frame
// against the observation. No angular component, no wrapping.
func (f *Pose2dPoint2dFactor) BasicError(vals []core.Value) ([]float64, error) {
	if err := f.checkArity(vals, manifold.Pose2dDim, manifold.Point2dDim); err != nil {
		return nil, err
	}
	predicted := pose2dAt(vals, 0).TransformTo(point2dAt(vals, 1))

	return []float64{
		predicted.X() - f.measure.X(),
		predicted.Y() - f.measure.Y(),
	}, nil
}

// Linearize provides the closed form of the observation derivatives at
// the linearization point: with (x, y) the landmark in the pose's
// frame, the pose block is [[-c,-s,y],[s,-c,-x]] and the point block is
// the frame rotation, both weighted by sqrtinf.
func (f *Pose2dPoint2dFactor) Linearize(g *core.Graph) (*core.Jacobian, error) {
	pose, err := pose2dValue0(g, f.ids[0])
	if err != nil {
		return nil, err
	}
	pt, err := point2dValue0(g, f.ids[1])
	if err != nil {
		return nil, err
	}
	res, err := core.WeightedResidual(f, []core.Value{pose, pt})
	if err != nil {
		return nil, err
	}

	c, s := math.Cos(pose.T()), math.Sin(pose.T())
	local := pose.TransformTo(pt)
	m1 := mat.NewDense(2, 3, []float64{
		-c, -s, local.Y(),
		s, -c, -local.X(),
	})
	m2 := mat.NewDense(2, 2, []float64{
		c, s,
		-s, c,
	})
	w1 := mat.NewDense(2, 3, nil)
	w2 := mat.NewDense(2, 2, nil)
	w1.Mul(f.sqrtinf, m1)
	w2.Mul(f.sqrtinf, m2)

	return &core.Jacobian{
		Residual: res,
		Terms: []core.Term{
			{ID: f.ids[0], Block: w1},
			{ID: f.ids[1], Block: w2},
		},
	}, nil
}

// String renders the graph text format line for this factor.
func (f *Pose2dPoint2dFactor) String() string {
	return fmt.Sprintf("%s %d %d %s %s",
		f.name, f.ids[0], f.ids[1], fields(f.measure.Vector()), SqrtinfString(f.sqrtinf))
}
