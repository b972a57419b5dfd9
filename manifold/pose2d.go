package manifold

import (
	"fmt"
	"math"

	"github.com/katalvlaran/slamkit/core"
)

// Pose2dDim is the tangent-space dimension of a Pose2d.
const Pose2dDim = 3

// Pose2d is a planar rigid-body pose: position (x, y) and heading t.
// The heading is kept normalized in (−π, π] at all times; every
// constructor and operation re-normalizes.
type Pose2d struct {
	x, y, t float64
}

// NewPose2d creates a pose at (x, y) with heading t (normalized).
func NewPose2d(x, y, t float64) Pose2d {
	return Pose2d{x: x, y: y, t: StandardRad(t)}
}

// X returns the x coordinate.
func (p Pose2d) X() float64 { return p.x }

// Y returns the y coordinate.
func (p Pose2d) Y() float64 { return p.y }

// T returns the heading in (−π, π].
func (p Pose2d) T() float64 { return p.t }

// Dim returns 3.
func (p Pose2d) Dim() int { return Pose2dDim }

// Vector flattens the pose to a fresh []float64{x, y, t}.
func (p Pose2d) Vector() []float64 {
	return []float64{p.x, p.y, p.t}
}

// WithVector reconstructs a Pose2d from its vector encoding,
// normalizing the angle component.
func (p Pose2d) WithVector(vec []float64) (core.Value, error) {
	if len(vec) != Pose2dDim {
		return nil, fmt.Errorf("manifold: Pose2d from %d-vector: %w",
			len(vec), core.ErrDimensionMismatch)
	}

	return NewPose2d(vec[0], vec[1], vec[2]), nil
}

// Oplus composes the pose with a relative pose d expressed in the
// receiver's own frame: the standard odometry prediction
// p ∘ d on SE(2).
// Complexity: O(1).
func (p Pose2d) Oplus(d Pose2d) Pose2d {
	c, s := math.Cos(p.t), math.Sin(p.t)

	return NewPose2d(
		p.x+c*d.x-s*d.y,
		p.y+s*d.x+c*d.y,
		p.t+d.t,
	)
}

// Ominus is the inverse composition: the pose of b expressed in the
// receiver's frame, p⁻¹ ∘ b. For all poses a, b:
// a.Oplus(a.Ominus(b)) == b up to floating-point tolerance.
// Complexity: O(1).
func (p Pose2d) Ominus(b Pose2d) Pose2d {
	c, s := math.Cos(p.t), math.Sin(p.t)
	dx, dy := b.x-p.x, b.y-p.y

	return NewPose2d(
		c*dx+s*dy,
		-s*dx+c*dy,
		b.t-p.t,
	)
}

// Inverse returns the pose q with p.Oplus(q) equal to the identity
// pose; used when a composition must be solved for exactly (anchored
// relative factors).
func (p Pose2d) Inverse() Pose2d {
	c, s := math.Cos(p.t), math.Sin(p.t)

	return NewPose2d(
		-(c*p.x + s*p.y),
		-(-s*p.x + c*p.y),
		-p.t,
	)
}

// TransformFrom maps a point expressed in the pose's local frame into
// the world frame.
func (p Pose2d) TransformFrom(pt Point2d) Point2d {
	c, s := math.Cos(p.t), math.Sin(p.t)

	return NewPoint2d(
		p.x+c*pt.x-s*pt.y,
		p.y+s*pt.x+c*pt.y,
	)
}

// TransformTo maps a world point into the pose's local frame; the exact
// inverse of TransformFrom.
func (p Pose2d) TransformTo(pt Point2d) Point2d {
	c, s := math.Cos(p.t), math.Sin(p.t)
	dx, dy := pt.x-p.x, pt.y-p.y

	return NewPoint2d(
		c*dx+s*dy,
		-s*dx+c*dy,
	)
}

// String implements fmt.Stringer.
func (p Pose2d) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.x, p.y, p.t)
}
