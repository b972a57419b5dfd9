// Package isam implements the incremental optimization engine tying the
// library together: it owns the interplay between the factor graph
// (core), the square-root information matrix (sparse) and the variable
// ordering (ordering).
//
// Per-measurement path (Add): initialize the factor's new nodes from
// its predicted value, linearize at the current linearization points,
// append the weighted Jacobian rows, fold them into the triangle with
// sparse Givens rotations, back-substitute, and apply the delta to
// every node estimate. Periodically, every ModBatch measurements, the
// whole graph is relinearized at the latest estimates, the variables
// are reordered to reduce fill-in, and the system is rebuilt from
// scratch, bounding the error a stale linearization point accumulates.
//
// Batch path (BatchOptimize) is iterated Gauss-Newton: relinearize,
// reorder, refactorize and solve until the delta norm drops below
// Epsilon or MaxIterations is hit. This is the only path guaranteed to
// reach the exact least-squares optimum for the current factor set.
//
// Failure handling follows the library's taxonomy: violated factor
// preconditions and dimension mismatches abort the call with the graph
// left in its pre-call state (no partial rows in the sparse system);
// numerical conditions (rank deficiency, hitting the iteration cap)
// come back as typed warnings inside Stats next to a best-effort
// result, and are additionally logged through the configured slog
// handler. The engine is not safe for concurrent use: no operation may
// run concurrently with another on the same Engine.
package isam
