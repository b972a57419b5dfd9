// Package slam2d: shared factor scaffolding (node constructors, the
// embedded factor base, value reconstruction, text helpers).
package slam2d

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/slamkit/core"
	"github.com/katalvlaran/slamkit/manifold"
)

// Factor type names as they appear in the graph text format.
const (
	Pose2dFactorName        = "Pose2d_Factor"
	Point2dFactorName       = "Point2d_Factor"
	Pose2dPose2dFactorName  = "Pose2d_Pose2d_Factor"
	Pose2dPoint2dFactorName = "Pose2d_Point2d_Factor"
)

// AddPose2dNode creates an uninitialized 2D pose node in g.
func AddPose2dNode(g *core.Graph) (core.NodeID, error) {
	return g.NewNode(manifold.Pose2dDim)
}

// AddPoint2dNode creates an uninitialized 2D point node in g.
func AddPoint2dNode(g *core.Graph) (core.NodeID, error) {
	return g.NewNode(manifold.Point2dDim)
}

// factorBase carries the construction-time constants every factor
// shares: type name, residual dimension, participating node ids and the
// upper-triangular square-root information matrix. All of it is
// immutable after construction.
type factorBase struct {
	name    string
	dim     int
	ids     []core.NodeID
	sqrtinf *mat.TriDense
}

func newFactorBase(name string, dim int, ids []core.NodeID, sqrtinf *mat.TriDense) (factorBase, error) {
	n, kind := sqrtinf.Triangle()
	if n != dim || kind != mat.Upper {
		return factorBase{}, fmt.Errorf("slam2d: %s: sqrtinf must be %dx%d upper triangular: %w",
			name, dim, dim, core.ErrDimensionMismatch)
	}

	return factorBase{name: name, dim: dim, ids: ids, sqrtinf: sqrtinf}, nil
}

// Name returns the factor's type name.
func (b *factorBase) Name() string { return b.name }

// Dim returns the residual dimension.
func (b *factorBase) Dim() int { return b.dim }

// NodeIDs returns the participating nodes in fixed order.
func (b *factorBase) NodeIDs() []core.NodeID { return b.ids }

// SqrtInf returns the square-root information matrix.
func (b *factorBase) SqrtInf() mat.Matrix { return b.sqrtinf }

// checkArity verifies the evaluation value list against the factor's
// node list; wrong lengths or value dimensions are programmer errors on
// the caller's side and report as ErrDimensionMismatch.
func (b *factorBase) checkArity(vals []core.Value, dims ...int) error {
	if len(vals) != len(dims) {
		return fmt.Errorf("slam2d: %s: %d values, want %d: %w",
			b.name, len(vals), len(dims), core.ErrDimensionMismatch)
	}
	for i, want := range dims {
		if vals[i].Dim() != want {
			return fmt.Errorf("slam2d: %s: value %d has dim %d, want %d: %w",
				b.name, i, vals[i].Dim(), want, core.ErrDimensionMismatch)
		}
	}

	return nil
}

// pose2dAt reconstructs a pose from the i-th value's vector encoding.
func pose2dAt(vals []core.Value, i int) manifold.Pose2d {
	v := vals[i].Vector()

	return manifold.NewPose2d(v[0], v[1], v[2])
}

// point2dAt reconstructs a point from the i-th value's vector encoding.
func point2dAt(vals []core.Value, i int) manifold.Point2d {
	v := vals[i].Vector()

	return manifold.NewPoint2d(v[0], v[1])
}

// pose2dValue0 reads a node's linearization point as a pose.
func pose2dValue0(g *core.Graph, id core.NodeID) (manifold.Pose2d, error) {
	n, err := g.Node(id)
	if err != nil {
		return manifold.Pose2d{}, err
	}
	if n.Value0() == nil {
		return manifold.Pose2d{}, fmt.Errorf("slam2d: node %d: %w", id, core.ErrUninitializedNode)
	}
	v := n.Value0().Vector()

	return manifold.NewPose2d(v[0], v[1], v[2]), nil
}

// point2dValue0 reads a node's linearization point as a point.
func point2dValue0(g *core.Graph, id core.NodeID) (manifold.Point2d, error) {
	n, err := g.Node(id)
	if err != nil {
		return manifold.Point2d{}, err
	}
	if n.Value0() == nil {
		return manifold.Point2d{}, fmt.Errorf("slam2d: node %d: %w", id, core.ErrUninitializedNode)
	}
	v := n.Value0().Vector()

	return manifold.NewPoint2d(v[0], v[1]), nil
}

// initIfNeeded initializes a node when it has no value yet.
func initIfNeeded(g *core.Graph, id core.NodeID, v core.Value) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	if n.Initialized() {
		return nil
	}

	return g.InitNode(id, v)
}

// requireInitialized returns the factor-precondition error when the
// node carries no value yet.
func requireInitialized(g *core.Graph, id core.NodeID, name string) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	if !n.Initialized() {
		return fmt.Errorf("slam2d: %s requires node %d initialized: %w",
			name, id, core.ErrUninitializedNode)
	}

	return nil
}

// SqrtinfString flattens an upper-triangular matrix into the braced
// row-major list {r00,r01,...,r0n,r11,...} of the graph text format.
func SqrtinfString(m mat.Matrix) string {
	n, _ := m.Dims()
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for r := 0; r < n; r++ {
		for c := r; c < n; c++ {
			if !first {
				sb.WriteByte(',')
			}
			first = false
			sb.WriteString(strconv.FormatFloat(m.At(r, c), 'g', -1, 64))
		}
	}
	sb.WriteByte('}')

	return sb.String()
}

// fields renders space-separated float fields of a value vector.
func fields(vec []float64) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	return strings.Join(parts, " ")
}
