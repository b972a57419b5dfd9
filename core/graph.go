// Package core: the Graph arena owning all Nodes and Factors.
//
// The graph is deliberately dumb storage: it validates structure
// (identifiers, dimensions) and hands out values, while all numeric
// policy lives in the sparse system and the engine. Factors reference
// nodes by NodeID only; the arena slice is the single owner of Node
// memory, which eliminates the aliasing hazards of a pointer-linked
// graph.
package core

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Graph is the arena of Nodes and Factors making up one estimation
// problem. The zero value is not usable; construct with NewGraph.
//
// Mutation discipline: factors call InitNode during their Initialize;
// everything else (estimates, linearization points, column indices) is
// written by the optimization engine only. Single-threaded by design.
type Graph struct {
	nodes   []*Node
	factors []Factor
}

// NewGraph creates an empty factor graph.
// Complexity: O(1).
func NewGraph() *Graph {
	return &Graph{}
}

// NewNode creates an uninitialized node of the given tangent-space
// dimension and returns its stable identifier.
// Complexity: O(1) amortized.
func (g *Graph) NewNode(dim int) (NodeID, error) {
	if dim <= 0 {
		return 0, fmt.Errorf("core: NewNode(dim=%d): %w", dim, ErrDimensionMismatch)
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &Node{id: id, dim: dim, col: -1})

	return id, nil
}

// Node returns the node with the given identifier.
func (g *Graph) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, fmt.Errorf("core: node %d: %w", id, ErrNodeNotFound)
	}

	return g.nodes[int(id)], nil
}

// Nodes returns the arena slice of all nodes in creation order.
// The slice is shared; callers must not reorder it.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Factors returns all factors in insertion order. The slice is shared.
func (g *Graph) Factors() []Factor { return g.factors }

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumFactors returns the number of factors in the graph.
func (g *Graph) NumFactors() int { return len(g.factors) }

// Dim returns the total number of scalar unknowns (sum of node dims).
// Complexity: O(n).
func (g *Graph) Dim() int {
	total := 0
	for _, n := range g.nodes {
		total += n.dim
	}

	return total
}

// ValidateFactor checks a factor's structure without storing it:
//  1. the factor must be non-nil,
//  2. every referenced NodeID must belong to this graph,
//  3. the weight matrix must be square of the factor's dimension.
func (g *Graph) ValidateFactor(f Factor) error {
	if f == nil {
		return ErrNilFactor
	}
	for _, id := range f.NodeIDs() {
		if _, err := g.Node(id); err != nil {
			return fmt.Errorf("core: factor %s: %w", f.Name(), err)
		}
	}
	r, c := f.SqrtInf().Dims()
	if r != f.Dim() || c != f.Dim() {
		return fmt.Errorf("core: factor %s: sqrtinf is %dx%d, want %dx%d: %w",
			f.Name(), r, c, f.Dim(), f.Dim(), ErrDimensionMismatch)
	}

	return nil
}

// AddFactor validates a factor's structure and stores it; validation is
// fail-fast and leaves the graph untouched on error. AddFactor does not
// initialize or linearize; that is the engine's job.
func (g *Graph) AddFactor(f Factor) error {
	if err := g.ValidateFactor(f); err != nil {
		return err
	}
	g.factors = append(g.factors, f)

	return nil
}

// InitNode assigns a node's first estimate. A node is initialized
// exactly once, either explicitly by the caller or implicitly by the
// first factor touching it.
func (g *Graph) InitNode(id NodeID, v Value) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	if n.value != nil {
		return fmt.Errorf("core: node %d: %w", id, ErrAlreadyInitialized)
	}
	if v.Dim() != n.dim {
		return fmt.Errorf("core: node %d: value dim %d, want %d: %w",
			id, v.Dim(), n.dim, ErrDimensionMismatch)
	}
	n.value = v

	return nil
}

// SetEstimate overwrites a node's current estimate. Reserved for the
// optimization engine (delta application).
func (g *Graph) SetEstimate(id NodeID, v Value) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	if n.value == nil {
		return fmt.Errorf("core: node %d: %w", id, ErrUninitializedNode)
	}
	if v.Dim() != n.dim {
		return fmt.Errorf("core: node %d: value dim %d, want %d: %w",
			id, v.Dim(), n.dim, ErrDimensionMismatch)
	}
	n.value = v

	return nil
}

// Relinearize moves a node's linearization point forward to its current
// estimate. Reserved for the optimization engine.
func (g *Graph) Relinearize(id NodeID) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	if n.value == nil {
		return fmt.Errorf("core: node %d: %w", id, ErrUninitializedNode)
	}
	n.lin = n.value

	return nil
}

// SetCol assigns a node's first column in the current variable
// ordering. Reserved for the optimization engine; a reordering
// reassigns every node's column.
func (g *Graph) SetCol(id NodeID, col int) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	n.col = col

	return nil
}

// ValuesAt gathers the listed nodes' values, either at their
// linearization points (lin=true, the evaluation point for Jacobians)
// or at their current estimates. Every listed node must be initialized;
// with lin=true it must additionally have been linearized before.
func (g *Graph) ValuesAt(ids []NodeID, lin bool) ([]Value, error) {
	vals := make([]Value, len(ids))
	for i, id := range ids {
		n, err := g.Node(id)
		if err != nil {
			return nil, err
		}
		v := n.value
		if lin {
			v = n.lin
		}
		if v == nil {
			return nil, fmt.Errorf("core: node %d: %w", id, ErrUninitializedNode)
		}
		vals[i] = v
	}

	return vals, nil
}

// WeightedResidual computes sqrtinf·basic_error for a factor evaluated
// at the given values. Shared by both linearization paths.
func WeightedResidual(f Factor, vals []Value) ([]float64, error) {
	e, err := f.BasicError(vals)
	if err != nil {
		return nil, err
	}
	if len(e) != f.Dim() {
		return nil, fmt.Errorf("core: factor %s: error dim %d, want %d: %w",
			f.Name(), len(e), f.Dim(), ErrDimensionMismatch)
	}
	var r mat.VecDense
	r.MulVec(f.SqrtInf(), mat.NewVecDense(len(e), e))

	return r.RawVector().Data, nil
}
