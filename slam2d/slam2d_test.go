// Package slam2d_test validates the 2D factor library: initialization
// policy per factor kind, agreement between closed-form and
// finite-difference Jacobians at random linearization points, and the
// text serialization format.
package slam2d_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/slamkit/core"
	"github.com/katalvlaran/slamkit/manifold"
	"github.com/katalvlaran/slamkit/slam2d"
)

// eye builds an upper-triangular identity weight matrix.
func eye(n int) *mat.TriDense {
	m := mat.NewTriDense(n, mat.Upper, nil)
	for i := 0; i < n; i++ {
		m.SetTri(i, i, 1)
	}

	return m
}

// randomUpper builds a well-conditioned random upper-triangular weight.
func randomUpper(rng *rand.Rand, n int) *mat.TriDense {
	m := mat.NewTriDense(n, mat.Upper, nil)
	for i := 0; i < n; i++ {
		m.SetTri(i, i, 1+rng.Float64())
		for j := i + 1; j < n; j++ {
			m.SetTri(i, j, 0.5*rng.NormFloat64())
		}
	}

	return m
}

func randomPose(rng *rand.Rand) manifold.Pose2d {
	return manifold.NewPose2d(rng.NormFloat64()*5, rng.NormFloat64()*5, (rng.Float64()*2-1)*math.Pi)
}

// initNode initializes a node and moves its linearization point forward.
func initNode(t *testing.T, g *core.Graph, id core.NodeID, v core.Value) {
	t.Helper()
	require.NoError(t, g.InitNode(id, v))
	require.NoError(t, g.Relinearize(id))
}

// requireJacobiansAgree checks a factor's closed form against the
// generic finite-difference path.
func requireJacobiansAgree(t *testing.T, g *core.Graph, f core.Factor) {
	t.Helper()
	sym, err := f.(core.Linearizer).Linearize(g)
	require.NoError(t, err)
	num, err := core.NumericalJacobian(g, f, 0)
	require.NoError(t, err)

	require.Len(t, sym.Terms, len(num.Terms))
	for i := range sym.Residual {
		assert.InDelta(t, num.Residual[i], sym.Residual[i], 1e-9, "residual[%d]", i)
	}
	for k := range sym.Terms {
		assert.Equal(t, num.Terms[k].ID, sym.Terms[k].ID)
		r, c := sym.Terms[k].Block.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				assert.InDelta(t, num.Terms[k].Block.At(i, j), sym.Terms[k].Block.At(i, j), 1e-6,
					"term %d block(%d,%d)", k, i, j)
			}
		}
	}
}

func TestPose2dFactor_JacobianConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	for trial := 0; trial < 10; trial++ {
		g := core.NewGraph()
		id, err := slam2d.AddPose2dNode(g)
		require.NoError(t, err)
		initNode(t, g, id, randomPose(rng))

		f, err := slam2d.NewPose2dFactor(id, randomPose(rng), randomUpper(rng, 3))
		require.NoError(t, err)
		requireJacobiansAgree(t, g, f)
	}
}

func TestPose2dPose2dFactor_JacobianConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	for trial := 0; trial < 10; trial++ {
		g := core.NewGraph()
		p1, _ := slam2d.AddPose2dNode(g)
		p2, _ := slam2d.AddPose2dNode(g)
		initNode(t, g, p1, randomPose(rng))
		initNode(t, g, p2, randomPose(rng))

		f, err := slam2d.NewPose2dPose2dFactor(p1, p2, randomPose(rng), randomUpper(rng, 3))
		require.NoError(t, err)
		requireJacobiansAgree(t, g, f)
	}
}

func TestPose2dPoint2dFactor_JacobianConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	for trial := 0; trial < 10; trial++ {
		g := core.NewGraph()
		pose, _ := slam2d.AddPose2dNode(g)
		point, _ := slam2d.AddPoint2dNode(g)
		initNode(t, g, pose, randomPose(rng))
		initNode(t, g, point, manifold.NewPoint2d(rng.NormFloat64()*5, rng.NormFloat64()*5))

		f, err := slam2d.NewPose2dPoint2dFactor(pose, point,
			manifold.NewPoint2d(rng.NormFloat64(), rng.NormFloat64()), randomUpper(rng, 2))
		require.NoError(t, err)
		requireJacobiansAgree(t, g, f)
	}
}

func TestPose2dPose2dFactor_InitializesSecondPose(t *testing.T) {
	g := core.NewGraph()
	p1, _ := slam2d.AddPose2dNode(g)
	p2, _ := slam2d.AddPose2dNode(g)
	initNode(t, g, p1, manifold.NewPose2d(1, 2, math.Pi/2))

	f, err := slam2d.NewPose2dPose2dFactor(p1, p2, manifold.NewPose2d(1, 0, 0), eye(3))
	require.NoError(t, err)
	require.NoError(t, f.Initialize(g))

	n, _ := g.Node(p2)
	require.True(t, n.Initialized())
	got := n.Value().Vector()
	assert.InDelta(t, 1, got[0], 1e-9)
	assert.InDelta(t, 3, got[1], 1e-9)
	assert.InDelta(t, math.Pi/2, got[2], 1e-9)
}

func TestPose2dPose2dFactor_RequiresFirstPose(t *testing.T) {
	g := core.NewGraph()
	p1, _ := slam2d.AddPose2dNode(g)
	p2, _ := slam2d.AddPose2dNode(g)

	f, err := slam2d.NewPose2dPose2dFactor(p1, p2, manifold.NewPose2d(1, 0, 0), eye(3))
	require.NoError(t, err)
	require.ErrorIs(t, f.Initialize(g), core.ErrUninitializedNode)

	// The failed initialization must not have touched pose2.
	n, _ := g.Node(p2)
	assert.False(t, n.Initialized())
}

func TestPose2dPoint2dFactor_InitializesLandmark(t *testing.T) {
	// Pose at the origin observing a landmark two units ahead: the
	// landmark initializes at world (2, 0) with no optimization at all.
	g := core.NewGraph()
	pose, _ := slam2d.AddPose2dNode(g)
	point, _ := slam2d.AddPoint2dNode(g)
	initNode(t, g, pose, manifold.NewPose2d(0, 0, 0))

	f, err := slam2d.NewPose2dPoint2dFactor(pose, point, manifold.NewPoint2d(2, 0), eye(2))
	require.NoError(t, err)
	require.NoError(t, f.Initialize(g))

	n, _ := g.Node(point)
	require.True(t, n.Initialized())
	got := n.Value().Vector()
	assert.InDelta(t, 2, got[0], 1e-9)
	assert.InDelta(t, 0, got[1], 1e-9)
}

func TestAnchoredFactor_InitializesSecondAnchorExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	g := core.NewGraph()
	p1, _ := slam2d.AddPose2dNode(g)
	p2, _ := slam2d.AddPose2dNode(g)
	a1, _ := slam2d.AddPose2dNode(g)
	a2, _ := slam2d.AddPose2dNode(g)

	initNode(t, g, p1, randomPose(rng))
	initNode(t, g, p2, randomPose(rng))
	initNode(t, g, a1, randomPose(rng))

	measure := randomPose(rng)
	f, err := slam2d.NewAnchoredPose2dPose2dFactor(p1, p2, a1, a2, measure, eye(3))
	require.NoError(t, err)
	require.NoError(t, f.Initialize(g))

	// With anchor2 solved exactly, the composed prediction matches the
	// measurement and the residual vanishes.
	vals, err := g.ValuesAt(f.NodeIDs(), false)
	require.NoError(t, err)
	e, err := f.BasicError(vals)
	require.NoError(t, err)
	for i, v := range e {
		assert.InDelta(t, 0, v, 1e-9, "error[%d]", i)
	}
}

func TestAnchoredFactor_NumericalLinearize(t *testing.T) {
	rng := rand.New(rand.NewSource(25))
	g := core.NewGraph()
	p1, _ := slam2d.AddPose2dNode(g)
	p2, _ := slam2d.AddPose2dNode(g)
	a1, _ := slam2d.AddPose2dNode(g)
	a2, _ := slam2d.AddPose2dNode(g)
	for _, id := range []core.NodeID{p1, p2, a1, a2} {
		initNode(t, g, id, randomPose(rng))
	}

	f, err := slam2d.NewAnchoredPose2dPose2dFactor(p1, p2, a1, a2, randomPose(rng), eye(3))
	require.NoError(t, err)

	jac, err := core.Linearize(g, f, 0)
	require.NoError(t, err)
	assert.Len(t, jac.Terms, 4)
	assert.Len(t, jac.Residual, 3)
}

func TestFactorConstruction_DimensionMismatch(t *testing.T) {
	g := core.NewGraph()
	pose, _ := slam2d.AddPose2dNode(g)

	_, err := slam2d.NewPose2dFactor(pose, manifold.NewPose2d(0, 0, 0), eye(2))
	require.ErrorIs(t, err, core.ErrDimensionMismatch)

	lower := mat.NewTriDense(3, mat.Lower, nil)
	_, err = slam2d.NewPose2dFactor(pose, manifold.NewPose2d(0, 0, 0), lower)
	require.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestFactorString_Format(t *testing.T) {
	g := core.NewGraph()
	p1, _ := slam2d.AddPose2dNode(g)
	p2, _ := slam2d.AddPose2dNode(g)

	sqrtinf := mat.NewTriDense(3, mat.Upper, []float64{
		10, 0, 0,
		0, 10, 0,
		0, 0, 100,
	})
	f, err := slam2d.NewPose2dPose2dFactor(p1, p2, manifold.NewPose2d(1, 0, 0.25), sqrtinf)
	require.NoError(t, err)
	assert.Equal(t, "Pose2d_Pose2d_Factor 0 1 1 0 0.25 {10,0,0,10,0,100}", f.String())

	prior, err := slam2d.NewPose2dFactor(p1, manifold.NewPose2d(0, 0, 0), eye(3))
	require.NoError(t, err)
	assert.Equal(t, "Pose2d_Factor 0 0 0 0 {1,0,0,1,0,1}", prior.String())
}

func TestPose2dFactor_ResidualWrapsHeading(t *testing.T) {
	g := core.NewGraph()
	id, err := slam2d.AddPose2dNode(g)
	require.NoError(t, err)

	f, err := slam2d.NewPose2dFactor(id, manifold.NewPose2d(0, 0, math.Pi-0.01), eye(3))
	require.NoError(t, err)

	// Heading residual crosses the +-pi boundary: the error must take the
	// short way around (about 0.02 rad), never about 2*pi.
	res, err := f.BasicError([]core.Value{manifold.NewPose2d(0, 0, -math.Pi+0.01)})
	require.NoError(t, err)
	assert.InDelta(t, 0.02, math.Abs(res[2]), 1e-12)
}
