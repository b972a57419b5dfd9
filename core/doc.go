// Package core defines the central factor-graph primitives shared by
// every other slamkit package: the Value capability interface that all
// estimated quantities implement, the Node (one unknown variable), the
// Factor contract (one measurement constraint), the Jacobian produced
// by linearizing a Factor, and the Graph arena that owns Nodes and
// Factors and hands out stable integer identifiers.
//
// Design in one paragraph: Factors never downcast a Node to a concrete
// type and never hold Node pointers. A Factor stores NodeIDs; whenever
// it needs values it receives plain Value slices (so it can be
// evaluated at perturbed points), and whenever it needs a concrete pose
// or point it reconstructs one from the value's Vector() encoding. Only
// the optimization engine writes Node estimates. This keeps aliasing
// out of the numeric core.
//
// Linearization: Factors implement BasicError; the package linearizes
// any Factor by finite differences (Linearize). A Factor that also
// implements the Linearizer interface supplies a closed-form Jacobian
// instead, which must agree with the numeric one to floating-point
// difference precision.
//
// Errors:
//
//	ErrUninitializedNode - a factor precondition node has no value yet.
//	ErrDimensionMismatch - vector or matrix size disagrees with a declared dimension.
//	ErrNodeNotFound      - a NodeID does not belong to this graph.
//	ErrNilFactor         - a nil Factor was handed to the graph.
package core
