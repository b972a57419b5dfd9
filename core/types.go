// Package core: central types of the factor graph.
// This file declares Value, NodeID, Node, Factor, Jacobian,
// sentinel errors, and the Linearizer capability interface.
package core

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Sentinel errors for factor-graph operations.
var (
	// ErrUninitializedNode indicates a factor precondition was violated:
	// a node that must already carry a value has none.
	ErrUninitializedNode = errors.New("core: node not initialized")

	// ErrAlreadyInitialized indicates a second initialization attempt on a node.
	ErrAlreadyInitialized = errors.New("core: node already initialized")

	// ErrDimensionMismatch indicates a vector or matrix whose size
	// disagrees with a declared dimension.
	ErrDimensionMismatch = errors.New("core: dimension mismatch")

	// ErrNodeNotFound indicates a NodeID that does not belong to this graph.
	ErrNodeNotFound = errors.New("core: node not found")

	// ErrNilFactor indicates a nil Factor was handed to the graph.
	ErrNilFactor = errors.New("core: nil factor")
)

// Value is the capability interface every estimated quantity implements.
// A Value is immutable; operations return new values.
//
// Vector returns the tangent-space-compatible flat encoding of the
// value; WithVector reconstructs a value of the same concrete type from
// such an encoding (round-trip identity), normalizing any angular
// components into (−π, π]. WithVector returns ErrDimensionMismatch when
// len(vec) != Dim().
type Value interface {
	Dim() int
	Vector() []float64
	WithVector(vec []float64) (Value, error)
}

// NodeID is the stable identifier of a Node inside one Graph. IDs are
// dense small integers assigned in creation order; they double as arena
// indices and never change, unlike the node's column index.
type NodeID int

// Node represents one unknown quantity (a pose, a landmark, an anchor).
//
// A Node carries two values: the current estimate (Value) and the
// linearization point (Value0) at which its factors' Jacobians were
// last computed. Solving yields a delta relative to Value0; a
// relinearization sweep moves Value0 forward to the current estimate.
//
// The column index is valid only for the graph's current variable
// ordering and is reassigned whenever that ordering changes. Only the
// optimization engine mutates a Node.
type Node struct {
	id    NodeID
	dim   int
	value Value // current estimate; nil until initialized
	lin   Value // linearization point; nil until first linearization
	col   int   // first column in the current ordering; -1 until assigned
}

// ID returns the node's stable identifier.
func (n *Node) ID() NodeID { return n.id }

// Dim returns the node's tangent-space dimension.
func (n *Node) Dim() int { return n.dim }

// Initialized reports whether the node carries an estimate yet.
func (n *Node) Initialized() bool { return n.value != nil }

// Value returns the current estimate, or nil before initialization.
func (n *Node) Value() Value { return n.value }

// Value0 returns the linearization point, or nil before the node first
// entered the linear system.
func (n *Node) Value0() Value { return n.lin }

// Col returns the node's first column in the current variable ordering,
// or -1 while the node has not been placed into the linear system.
func (n *Node) Col() int { return n.col }

// Factor represents one measurement constraint over an ordered list of
// nodes. A factor's dimension, weight matrix and node list are fixed at
// construction; only the referenced nodes' values change over time.
type Factor interface {
	// Name is the factor's type name as used in the graph text format.
	Name() string

	// Dim is the residual dimension of the constraint.
	Dim() int

	// NodeIDs lists the participating nodes, in the factor's fixed order.
	NodeIDs() []NodeID

	// SqrtInf is the constant Dim×Dim upper-triangular square-root
	// information matrix weighting the residual.
	SqrtInf() mat.Matrix

	// Initialize computes predicted values for any still-uninitialized
	// participating nodes. It is called exactly once, before first
	// linearization, and must return ErrUninitializedNode (wrapped) when
	// a prerequisite node carries no value yet.
	Initialize(g *Graph) error

	// BasicError maps participating node values (not the nodes
	// themselves, so the factor can be evaluated at perturbed points) to
	// the unweighted residual vector of length Dim. Angular residual
	// components must be normalized into (−π, π].
	BasicError(vals []Value) ([]float64, error)

	// String renders the factor in the graph text format:
	// name, node ids, measurement fields, flattened upper-triangular
	// sqrtinf as {r00,r01,...}, and trailing anchor ids if any.
	String() string
}

// Linearizer is the optional capability of factors that provide a
// closed-form Jacobian. The engine uses it when present and falls back
// to finite differences otherwise; both paths must agree on the result.
type Linearizer interface {
	Linearize(g *Graph) (*Jacobian, error)
}

// Term is one node's weighted partial-derivative block inside a Jacobian.
type Term struct {
	// ID identifies the node this block differentiates against.
	ID NodeID

	// Block is sqrtinf · ∂basic_error/∂node, factor-dim × node-dim.
	Block *mat.Dense
}

// Jacobian is the ephemeral linearized output of one factor: the
// weighted residual sqrtinf·basic_error plus one Term per participating
// node. It exists only between linearization and row insertion into the
// sparse system and is never a source of truth.
type Jacobian struct {
	Residual []float64
	Terms    []Term
}
