package manifold

import (
	"fmt"

	"github.com/katalvlaran/slamkit/core"
)

// Point2dDim is the tangent-space dimension of a Point2d.
const Point2dDim = 2

// Point2d is a position in the plane. Points live in a flat vector
// space, so Vector/WithVector are a plain round trip with no
// normalization.
type Point2d struct {
	x, y float64
}

// NewPoint2d creates a point at (x, y).
func NewPoint2d(x, y float64) Point2d {
	return Point2d{x: x, y: y}
}

// X returns the x coordinate.
func (p Point2d) X() float64 { return p.x }

// Y returns the y coordinate.
func (p Point2d) Y() float64 { return p.y }

// Dim returns 2.
func (p Point2d) Dim() int { return Point2dDim }

// Vector flattens the point to a fresh []float64{x, y}.
func (p Point2d) Vector() []float64 {
	return []float64{p.x, p.y}
}

// WithVector reconstructs a Point2d from its vector encoding.
func (p Point2d) WithVector(vec []float64) (core.Value, error) {
	if len(vec) != Point2dDim {
		return nil, fmt.Errorf("manifold: Point2d from %d-vector: %w",
			len(vec), core.ErrDimensionMismatch)
	}

	return NewPoint2d(vec[0], vec[1]), nil
}

// String implements fmt.Stringer.
func (p Point2d) String() string {
	return fmt.Sprintf("(%g, %g)", p.x, p.y)
}
