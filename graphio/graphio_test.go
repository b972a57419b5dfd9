package graphio

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/slamkit/core"
	"github.com/katalvlaran/slamkit/isam"
	"github.com/katalvlaran/slamkit/manifold"
	"github.com/katalvlaran/slamkit/slam2d"
)

const chainText = `
# prior anchors the first pose
Pose2d_Factor 0 0 0 0 {1,0,0,1,0,1}

Pose2d_Pose2d_Factor 0 1 1 0 0 {1,0,0,1,0,1}
Pose2d_Point2d_Factor 0 2 0.5 0.5 {1,0,1}   # landmark seen from pose 0
Point2d_Factor 2 0.5 0.5 {1,0,1}
`

func eye3() *mat.TriDense {
	tri := mat.NewTriDense(3, mat.Upper, nil)
	for i := 0; i < 3; i++ {
		tri.SetTri(i, i, 1)
	}

	return tri
}

func TestLoadIntoEngine(t *testing.T) {
	g := core.NewGraph()
	e := isam.New(g)

	require.NoError(t, LoadInto(strings.NewReader(chainText), e))
	assert.Equal(t, 3, g.NumNodes())
	assert.Equal(t, 4, g.NumFactors())

	l1, ok := lookupDim(g, 1)
	require.True(t, ok)
	assert.Equal(t, manifold.Pose2dDim, l1)
	l2, ok := lookupDim(g, 2)
	require.True(t, ok)
	assert.Equal(t, manifold.Point2dDim, l2)

	// Consistent measurements: the estimates sit at the compositions.
	n1, err := g.Node(core.NodeID(1))
	require.NoError(t, err)
	v := n1.Value().Vector()
	assert.InDelta(t, 1, v[0], 1e-9)
	assert.InDelta(t, 0, v[1], 1e-9)
	n2, err := g.Node(core.NodeID(2))
	require.NoError(t, err)
	w := n2.Value().Vector()
	assert.InDelta(t, 0.5, w[0], 1e-9)
	assert.InDelta(t, 0.5, w[1], 1e-9)
}

func lookupDim(g *core.Graph, id core.NodeID) (int, bool) {
	n, err := g.Node(id)
	if err != nil {
		return 0, false
	}

	return n.Dim(), true
}

func TestLoadAnchoredFactor(t *testing.T) {
	text := `Pose2d_Factor 0 0 0 0 {1,0,0,1,0,1}
Pose2d_Pose2d_Factor 0 1 1 0 0.5 {1,0,0,1,0,1} 2 3
`
	g := core.NewGraph()
	e := isam.New(g)
	require.NoError(t, LoadInto(strings.NewReader(text), e))

	require.Equal(t, 4, g.NumNodes())
	a1, err := g.Node(core.NodeID(2))
	require.NoError(t, err)
	require.True(t, a1.Initialized(), "fresh first anchor pinned to origin")
	av := a1.Value().Vector()
	assert.InDelta(t, 0, av[0], 1e-12)
	assert.InDelta(t, 0, av[1], 1e-12)
	assert.InDelta(t, 0, av[2], 1e-12)

	a2, err := g.Node(core.NodeID(3))
	require.NoError(t, err)
	assert.True(t, a2.Initialized(), "second anchor solved by the factor")
}

func TestLoadSyntaxErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		want error
	}{
		{"unknown type", "Pose3d_Factor 0 0 0 0 {1}\n", ErrUnknownFactor},
		{"missing braces", "Pose2d_Factor 0 0 0 0\n", ErrSyntax},
		{"entry count", "Pose2d_Factor 0 0 0 0 {1,0,1}\n", ErrSyntax},
		{"bad number", "Pose2d_Factor 0 0 zero 0 {1,0,0,1,0,1}\n", ErrSyntax},
		{"bad node id", "Pose2d_Factor x 0 0 0 {1,0,0,1,0,1}\n", ErrSyntax},
		{"arity", "Pose2d_Factor 0 0 0 {1,0,0,1,0,1}\n", ErrSyntax},
		{
			"dim conflict",
			"Pose2d_Factor 0 0 0 0 {1,0,0,1,0,1}\nPoint2d_Factor 0 1 1 {1,0,1}\n",
			ErrSyntax,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := core.NewGraph()
			err := NewLoader(g, nil).Load(strings.NewReader(tc.text))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadReportsLineNumber(t *testing.T) {
	text := "Pose2d_Factor 0 0 0 0 {1,0,0,1,0,1}\nbogus line {1}\n"
	err := NewLoader(core.NewGraph(), nil).Load(strings.NewReader(text))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestWriteExactFormat(t *testing.T) {
	g := core.NewGraph()
	id, err := slam2d.AddPose2dNode(g)
	require.NoError(t, err)
	prior, err := slam2d.NewPose2dFactor(id, manifold.NewPose2d(0, 0, 0), eye3())
	require.NoError(t, err)
	require.NoError(t, g.AddFactor(prior))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))
	assert.Equal(t, "Pose2d_Factor 0 0 0 0 {1,0,0,1,0,1}\n", buf.String())
}

func TestRoundTrip(t *testing.T) {
	// Original trajectory built programmatically.
	ga := core.NewGraph()
	ea := isam.New(ga)
	ids := make([]core.NodeID, 4)
	for i := range ids {
		id, err := slam2d.AddPose2dNode(ga)
		require.NoError(t, err)
		ids[i] = id
	}
	prior, err := slam2d.NewPose2dFactor(ids[0], manifold.NewPose2d(0, 0, 0), eye3())
	require.NoError(t, err)
	_, err = ea.Add(prior)
	require.NoError(t, err)
	steps := []manifold.Pose2d{
		manifold.NewPose2d(1, 0.1, math.Pi/2),
		manifold.NewPose2d(1.1, -0.1, math.Pi/2),
		manifold.NewPose2d(0.9, 0, math.Pi/2),
	}
	for i, s := range steps {
		f, err := slam2d.NewPose2dPose2dFactor(ids[i], ids[i+1], s, eye3())
		require.NoError(t, err)
		_, err = ea.Add(f)
		require.NoError(t, err)
	}
	closure, err := slam2d.NewPose2dPose2dFactor(ids[0], ids[3], manifold.NewPose2d(0, 0, -math.Pi/2), eye3())
	require.NoError(t, err)
	_, err = ea.Add(closure)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ga))

	// Reload into a fresh engine; ids are dense and ordered, so the
	// loader's mapping is the identity.
	gb := core.NewGraph()
	eb := isam.New(gb)
	require.NoError(t, LoadInto(bytes.NewReader(buf.Bytes()), eb))
	require.Equal(t, ga.NumNodes(), gb.NumNodes())
	require.Equal(t, ga.NumFactors(), gb.NumFactors())

	sa, err := ea.BatchOptimize()
	require.NoError(t, err)
	require.True(t, sa.Converged)
	sb, err := eb.BatchOptimize()
	require.NoError(t, err)
	require.True(t, sb.Converged)

	for _, id := range ids {
		na, err := ga.Node(id)
		require.NoError(t, err)
		nb, err := gb.Node(id)
		require.NoError(t, err)
		va, vb := na.Value().Vector(), nb.Value().Vector()
		assert.InDelta(t, va[0], vb[0], 1e-9)
		assert.InDelta(t, va[1], vb[1], 1e-9)
		assert.InDelta(t, 0, manifold.StandardRad(va[2]-vb[2]), 1e-9)
	}
}
