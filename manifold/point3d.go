package manifold

import (
	"fmt"

	"github.com/katalvlaran/slamkit/core"
)

// Point3dDim is the tangent-space dimension of a Point3d.
const Point3dDim = 3

// Point3d is a position in space; a flat vector space like Point2d.
type Point3d struct {
	x, y, z float64
}

// NewPoint3d creates a point at (x, y, z).
func NewPoint3d(x, y, z float64) Point3d {
	return Point3d{x: x, y: y, z: z}
}

// X returns the x coordinate.
func (p Point3d) X() float64 { return p.x }

// Y returns the y coordinate.
func (p Point3d) Y() float64 { return p.y }

// Z returns the z coordinate.
func (p Point3d) Z() float64 { return p.z }

// Dim returns 3.
func (p Point3d) Dim() int { return Point3dDim }

// Vector flattens the point to a fresh []float64{x, y, z}.
func (p Point3d) Vector() []float64 {
	return []float64{p.x, p.y, p.z}
}

// WithVector reconstructs a Point3d from its vector encoding.
func (p Point3d) WithVector(vec []float64) (core.Value, error) {
	if len(vec) != Point3dDim {
		return nil, fmt.Errorf("manifold: Point3d from %d-vector: %w",
			len(vec), core.ErrDimensionMismatch)
	}

	return NewPoint3d(vec[0], vec[1], vec[2]), nil
}

// String implements fmt.Stringer.
func (p Point3d) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.x, p.y, p.z)
}
