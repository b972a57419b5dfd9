// Package slamkit is an in-memory toolkit for sparse nonlinear
// least-squares estimation as it appears in simultaneous localization
// and mapping (SLAM): a growing factor graph of noisy measurements over
// unknown poses and landmarks, solved incrementally after every new
// measurement without re-solving from scratch.
//
// 🚀 What is slamkit?
//
//	A pure-Go estimation library that brings together:
//		• Manifold value types: 2D poses and points with Oplus/Ominus composition
//		• Factor-graph primitives: Nodes, Factors and their Jacobian contract
//		• A sparse square-root information matrix with incremental Givens updates
//		• Fill-reducing minimum-degree variable ordering
//		• An incremental engine (per-measurement updates) and a batch
//		  Gauss-Newton solver that recover the exact least-squares solution
//		• Marginal covariance recovery by sparse back-substitution
//
// Under the hood, everything is organized under focused subpackages:
//
//	manifold/ - Pose2d, Point2d, Point3d value types and angle normalization
//	core/     - Node, Factor, Jacobian contract and the factor-graph arena
//	slam2d/   - 2D prior, odometry and landmark-observation factors
//	sparse/   - square-root information matrix, factorization, covariances
//	ordering/ - minimum-degree fill-reducing variable ordering
//	isam/     - the incremental/batch optimization engine and its Config
//	metrics/  - Prometheus instrumentation for the engine
//	graphio/  - line-oriented graph text format reader and writer
//
// Quick ASCII example:
//
//	    prior          odometry         loop closure
//	      │                │                  │
//	     p0 ──────────────p1 ─ ─ ─ ─ ─ ─ ─ ─ p0
//
//	three factors over two pose Nodes; after each Add the engine folds
//	the new linearized rows into the triangular system and re-solves.
//
// Dive into the package documentation of isam/ for the end-to-end flow.
package slamkit
