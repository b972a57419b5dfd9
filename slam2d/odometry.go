// Package slam2d: odometry and loop-closure constraints,
// and the anchored variant stitching independent trajectories.
package slam2d

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/slamkit/core"
	"github.com/katalvlaran/slamkit/manifold"
)

// Pose2dPose2dFactor constrains the relative pose between two 2D pose
// nodes: the measurement is pose2 expressed in pose1's frame. With an
// anchor pair the constraint instead relates anchor1∘pose1 and
// anchor2∘pose2, where each anchor is the rigid offset of its
// trajectory's private frame against the common frame.
type Pose2dPose2dFactor struct {
	factorBase
	measure  manifold.Pose2d
	anchored bool
}

// NewPose2dPose2dFactor creates an odometry or loop-closure constraint
// from pose1 to pose2 with a 3x3 upper-triangular square-root
// information matrix.
func NewPose2dPose2dFactor(pose1, pose2 core.NodeID, measure manifold.Pose2d, sqrtinf *mat.TriDense) (*Pose2dPose2dFactor, error) {
	base, err := newFactorBase(Pose2dPose2dFactorName, manifold.Pose2dDim,
		[]core.NodeID{pose1, pose2}, sqrtinf)
	if err != nil {
		return nil, err
	}

	return &Pose2dPose2dFactor{factorBase: base, measure: measure}, nil
}

// NewAnchoredPose2dPose2dFactor creates the four-node variant relating
// two independently-parameterized trajectories through their anchor
// nodes.
func NewAnchoredPose2dPose2dFactor(pose1, pose2, anchor1, anchor2 core.NodeID,
	measure manifold.Pose2d, sqrtinf *mat.TriDense) (*Pose2dPose2dFactor, error) {
	base, err := newFactorBase(Pose2dPose2dFactorName, manifold.Pose2dDim,
		[]core.NodeID{pose1, pose2, anchor1, anchor2}, sqrtinf)
	if err != nil {
		return nil, err
	}

	return &Pose2dPose2dFactor{factorBase: base, measure: measure, anchored: true}, nil
}

// Measure returns the relative measurement.
func (f *Pose2dPose2dFactor) Measure() manifold.Pose2d { return f.measure }

// Anchored reports whether the factor carries a trajectory anchor pair.
func (f *Pose2dPose2dFactor) Anchored() bool { return f.anchored }

// Initialize predicts still-uninitialized nodes:
//   - pose1 must already be initialized (precondition);
//   - pose2 defaults to pose1 composed with the measurement;
//   - with anchors, anchor1 must be initialized and anchor2 is solved
//     exactly so the composed prediction equals the measurement:
//     anchor2 = ((anchor1∘pose1)∘measure)∘pose2⁻¹.
func (f *Pose2dPose2dFactor) Initialize(g *core.Graph) error {
	if err := requireInitialized(g, f.ids[0], f.name+" (pose1)"); err != nil {
		return err
	}
	n1, _ := g.Node(f.ids[0])
	p1 := mustPose2d(n1.Value())

	if err := initIfNeeded(g, f.ids[1], p1.Oplus(f.measure)); err != nil {
		return err
	}
	if !f.anchored {
		return nil
	}

	if err := requireInitialized(g, f.ids[2], f.name+" (anchor1)"); err != nil {
		return err
	}
	n2, _ := g.Node(f.ids[1])
	na1, _ := g.Node(f.ids[2])
	p2 := mustPose2d(n2.Value())
	a1 := mustPose2d(na1.Value())
	a2 := a1.Oplus(p1).Oplus(f.measure).Oplus(p2.Inverse())

	return initIfNeeded(g, f.ids[3], a2)
}

// BasicError compares the predicted relative pose against the
// measurement, heading wrapped. Plain form: pose1⁻¹∘pose2. Anchored
// form: (anchor1∘pose1)⁻¹∘(anchor2∘pose2).
func (f *Pose2dPose2dFactor) BasicError(vals []core.Value) ([]float64, error) {
	var predicted manifold.Pose2d
	if f.anchored {
		if err := f.checkArity(vals, manifold.Pose2dDim, manifold.Pose2dDim,
			manifold.Pose2dDim, manifold.Pose2dDim); err != nil {
			return nil, err
		}
		p1, p2 := pose2dAt(vals, 0), pose2dAt(vals, 1)
		a1, a2 := pose2dAt(vals, 2), pose2dAt(vals, 3)
		predicted = a1.Oplus(p1).Ominus(a2.Oplus(p2))
	} else {
		if err := f.checkArity(vals, manifold.Pose2dDim, manifold.Pose2dDim); err != nil {
			return nil, err
		}
		predicted = pose2dAt(vals, 0).Ominus(pose2dAt(vals, 1))
	}
	p := predicted.Vector()
	m := f.measure.Vector()

	return []float64{
		p[0] - m[0],
		p[1] - m[1],
		manifold.StandardRad(p[2] - m[2]),
	}, nil
}

// Linearize provides the closed form for the plain two-node constraint.
// The anchored variant falls back to the generic finite-difference
// path; the closed form is only available without anchors.
func (f *Pose2dPose2dFactor) Linearize(g *core.Graph) (*core.Jacobian, error) {
	if f.anchored {
		return core.NumericalJacobian(g, f, 0)
	}

	p1, err := pose2dValue0(g, f.ids[0])
	if err != nil {
		return nil, err
	}
	p2, err := pose2dValue0(g, f.ids[1])
	if err != nil {
		return nil, err
	}
	res, err := core.WeightedResidual(f, []core.Value{p1, p2})
	if err != nil {
		return nil, err
	}

	p := p1.Ominus(p2)
	c, s := math.Cos(p1.T()), math.Sin(p1.T())
	m1 := mat.NewDense(3, 3, []float64{
		-c, -s, p.Y(),
		s, -c, -p.X(),
		0, 0, -1,
	})
	m2 := mat.NewDense(3, 3, []float64{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	})
	w1 := mat.NewDense(3, 3, nil)
	w2 := mat.NewDense(3, 3, nil)
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

// String renders the graph text format line, with trailing anchor ids
// on the anchored variant.
func (f *Pose2dPose2dFactor) String() string {
	line := fmt.Sprintf("%s %d %d %s %s",
		f.name, f.ids[0], f.ids[1], fields(f.measure.Vector()), SqrtinfString(f.sqrtinf))
	if f.anchored {
		line += fmt.Sprintf(" %d %d", f.ids[2], f.ids[3])
	}

	return line
}

// mustPose2d converts an initialized node value; values stored on
// 3-dimensional pose nodes are always reconstructible as poses.
func mustPose2d(v core.Value) manifold.Pose2d {
	vec := v.Vector()

	return manifold.NewPose2d(vec[0], vec[1], vec[2])
}
