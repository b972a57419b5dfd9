// Package graphio reads and writes the line-oriented graph text format.
//
// Each factor occupies one line:
//
//	Pose2d_Factor <id> x y t {r00,r01,r02,r11,r12,r22}
//	Point2d_Factor <id> x y {r00,r01,r11}
//	Pose2d_Pose2d_Factor <id1> <id2> x y t {...} [anchor1 anchor2]
//	Pose2d_Point2d_Factor <pose> <point> x y {r00,r01,r11}
//
// The braced block is the factor's upper-triangular square-root
// information matrix flattened row-major; the optional trailing id pair
// marks the anchored relative-pose variant. Node identifiers are
// file-local: the loader allocates graph nodes on first sight and keeps
// the mapping, so files need not use dense or ordered ids. Blank lines
// and '#' comments are skipped.
package graphio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/slamkit/core"
	"github.com/katalvlaran/slamkit/isam"
	"github.com/katalvlaran/slamkit/manifold"
	"github.com/katalvlaran/slamkit/slam2d"
)

var (
	// ErrSyntax indicates a malformed graph line.
	ErrSyntax = errors.New("graphio: malformed line")

	// ErrUnknownFactor indicates a factor type name the reader does not
	// recognize.
	ErrUnknownFactor = errors.New("graphio: unknown factor type")
)

// Loader streams graph text into a factor graph, handing each parsed
// factor to an add callback (typically the optimization engine's Add).
type Loader struct {
	g     *core.Graph
	add   func(core.Factor) error
	nodes map[int]core.NodeID
}

// NewLoader creates a loader over g. add is called once per parsed
// factor; a nil add stores factors in the graph without optimizing.
func NewLoader(g *core.Graph, add func(core.Factor) error) *Loader {
	if add == nil {
		add = g.AddFactor
	}

	return &Loader{g: g, add: add, nodes: make(map[int]core.NodeID)}
}

// LoadInto streams the graph text in r into engine e, one incremental
// update per factor line.
func LoadInto(r io.Reader, e *isam.Engine) error {
	l := NewLoader(e.Graph(), func(f core.Factor) error {
		_, err := e.Add(f)

		return err
	})

	return l.Load(r)
}

// Write renders every factor of g in insertion order, one line each.
// The output parses back with a Loader into an equivalent graph.
func Write(w io.Writer, g *core.Graph) error {
	bw := bufio.NewWriter(w)
	for _, f := range g.Factors() {
		if _, err := fmt.Fprintln(bw, f.String()); err != nil {
			return fmt.Errorf("graphio: write: %w", err)
		}
	}

	return bw.Flush()
}

// NodeID returns the graph node allocated for a file-local id.
func (l *Loader) NodeID(fileID int) (core.NodeID, bool) {
	id, ok := l.nodes[fileID]

	return id, ok
}

// Load parses r line by line, allocating nodes and adding factors as it
// goes. The first failing line aborts with its line number; lines
// before it have already been applied.
func (l *Loader) Load(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		f, err := l.parseLine(sc.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", lineno, err)
		}
		if f == nil {
			continue
		}
		if err := l.add(f); err != nil {
			return fmt.Errorf("line %d: %w", lineno, err)
		}
	}

	return sc.Err()
}

func (l *Loader) parseLine(raw string) (core.Factor, error) {
	line := raw
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	open := strings.IndexByte(line, '{')
	closing := strings.IndexByte(line, '}')
	if open < 0 || closing < open {
		return nil, fmt.Errorf("%w: missing sqrtinf block", ErrSyntax)
	}
	head := strings.Fields(line[:open])
	if len(head) == 0 {
		return nil, fmt.Errorf("%w: missing factor name", ErrSyntax)
	}
	entries, err := parseFloats(strings.Split(line[open+1:closing], ","))
	if err != nil {
		return nil, err
	}
	tail := strings.Fields(line[closing+1:])

	switch head[0] {
	case slam2d.Pose2dFactorName:
		return l.posePrior(head[1:], entries, tail)
	case slam2d.Point2dFactorName:
		return l.pointPrior(head[1:], entries, tail)
	case slam2d.Pose2dPose2dFactorName:
		return l.posePose(head[1:], entries, tail)
	case slam2d.Pose2dPoint2dFactorName:
		return l.posePoint(head[1:], entries, tail)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownFactor, head[0])
}

func (l *Loader) posePrior(args []string, entries []float64, tail []string) (core.Factor, error) {
	if len(args) != 4 || len(tail) != 0 {
		return nil, fmt.Errorf("%w: want '<id> x y t {..}'", ErrSyntax)
	}
	id, err := l.node(args[0], manifold.Pose2dDim)
	if err != nil {
		return nil, err
	}
	v, err := parseFloats(args[1:])
	if err != nil {
		return nil, err
	}
	tri, err := triFromUpper(manifold.Pose2dDim, entries)
	if err != nil {
		return nil, err
	}

	return slam2d.NewPose2dFactor(id, manifold.NewPose2d(v[0], v[1], v[2]), tri)
}

func (l *Loader) pointPrior(args []string, entries []float64, tail []string) (core.Factor, error) {
	if len(args) != 3 || len(tail) != 0 {
		return nil, fmt.Errorf("%w: want '<id> x y {..}'", ErrSyntax)
	}
	id, err := l.node(args[0], manifold.Point2dDim)
	if err != nil {
		return nil, err
	}
	v, err := parseFloats(args[1:])
	if err != nil {
		return nil, err
	}
	tri, err := triFromUpper(manifold.Point2dDim, entries)
	if err != nil {
		return nil, err
	}

	return slam2d.NewPoint2dFactor(id, manifold.NewPoint2d(v[0], v[1]), tri)
}

func (l *Loader) posePose(args []string, entries []float64, tail []string) (core.Factor, error) {
	if len(args) != 5 || (len(tail) != 0 && len(tail) != 2) {
		return nil, fmt.Errorf("%w: want '<id1> <id2> x y t {..} [a1 a2]'", ErrSyntax)
	}
	p1, err := l.node(args[0], manifold.Pose2dDim)
	if err != nil {
		return nil, err
	}
	p2, err := l.node(args[1], manifold.Pose2dDim)
	if err != nil {
		return nil, err
	}
	v, err := parseFloats(args[2:])
	if err != nil {
		return nil, err
	}
	measure := manifold.NewPose2d(v[0], v[1], v[2])
	tri, err := triFromUpper(manifold.Pose2dDim, entries)
	if err != nil {
		return nil, err
	}
	if len(tail) == 0 {
		return slam2d.NewPose2dPose2dFactor(p1, p2, measure, tri)
	}

	// Anchored variant: a brand-new first anchor pins its trajectory's
	// private frame to the common origin; the factor's own initialization
	// solves the second anchor exactly.
	a1New := !l.has(tail[0])
	a1, err := l.node(tail[0], manifold.Pose2dDim)
	if err != nil {
		return nil, err
	}
	a2, err := l.node(tail[1], manifold.Pose2dDim)
	if err != nil {
		return nil, err
	}
	if a1New {
		if err := l.g.InitNode(a1, manifold.NewPose2d(0, 0, 0)); err != nil {
			return nil, err
		}
	}

	return slam2d.NewAnchoredPose2dPose2dFactor(p1, p2, a1, a2, measure, tri)
}

func (l *Loader) posePoint(args []string, entries []float64, tail []string) (core.Factor, error) {
	if len(args) != 4 || len(tail) != 0 {
		return nil, fmt.Errorf("%w: want '<pose> <point> x y {..}'", ErrSyntax)
	}
	pose, err := l.node(args[0], manifold.Pose2dDim)
	if err != nil {
		return nil, err
	}
	point, err := l.node(args[1], manifold.Point2dDim)
	if err != nil {
		return nil, err
	}
	v, err := parseFloats(args[2:])
	if err != nil {
		return nil, err
	}
	tri, err := triFromUpper(manifold.Point2dDim, entries)
	if err != nil {
		return nil, err
	}

	return slam2d.NewPose2dPoint2dFactor(pose, point, manifold.NewPoint2d(v[0], v[1]), tri)
}

func (l *Loader) has(fileID string) bool {
	n, err := strconv.Atoi(fileID)
	if err != nil {
		return false
	}
	_, ok := l.nodes[n]

	return ok
}

// node resolves a file-local id, allocating a graph node of the given
// dimension on first sight and checking the dimension on reuse.
func (l *Loader) node(fileID string, dim int) (core.NodeID, error) {
	n, err := strconv.Atoi(fileID)
	if err != nil {
		return 0, fmt.Errorf("%w: node id %q", ErrSyntax, fileID)
	}
	if id, ok := l.nodes[n]; ok {
		nd, err := l.g.Node(id)
		if err != nil {
			return 0, err
		}
		if nd.Dim() != dim {
			return 0, fmt.Errorf("%w: node %d used with dim %d and %d",
				ErrSyntax, n, nd.Dim(), dim)
		}

		return id, nil
	}
	id, err := l.g.NewNode(dim)
	if err != nil {
		return 0, err
	}
	l.nodes[n] = id

	return id, nil
}

// triFromUpper rebuilds the upper-triangular matrix from its flattened
// row-major entries.
func triFromUpper(dim int, entries []float64) (*mat.TriDense, error) {
	want := dim * (dim + 1) / 2
	if len(entries) != want {
		return nil, fmt.Errorf("%w: %d sqrtinf entries, want %d", ErrSyntax, len(entries), want)
	}
	tri := mat.NewTriDense(dim, mat.Upper, nil)
	k := 0
	for r := 0; r < dim; r++ {
		for c := r; c < dim; c++ {
			tri.SetTri(r, c, entries[k])
			k++
		}
	}

	return tri, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrSyntax, s)
		}
		out[i] = v
	}

	return out, nil
}
