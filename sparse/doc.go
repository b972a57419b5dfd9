// Package sparse maintains the square-root information matrix of the
// estimation problem: a sparse upper-triangular R and right-hand side d
// such that the current set of linearized factor rows is represented
// exactly and R·δ = d yields the Gauss-Newton step.
//
// The System grows by appended measurement rows (InsertJacobian) and is
// triangularized row-at-a-time by sparse Givens rotations
// (Factorize): an orthogonal update touching only the columns in the
// new rows' sparsity pattern, so no full refactorization is needed per
// measurement. A batch rebuild (after a variable reordering or a
// relinearization sweep) is an explicit state transition: Reset bumps
// the system version and the caller re-inserts every row.
//
// Solving is plain back-substitution over the triangular rows,
// O(nonzeros). Marginal covariance entries are recovered on demand by
// two sparse triangular solves per requested column (Rᵀy = eᵢ, then
// Rx = y gives the i-th column of (RᵀR)⁻¹), never by forming a dense
// inverse, and never on the incremental-update path.
//
// Rows store sorted column indices next to their values, the same
// compressed-row discipline as a CSR matrix, which keeps the Givens
// merge of two rows a linear scan.
//
// Errors:
//
//	ErrBadRow            - malformed row (length mismatch, unsorted or out-of-range columns).
//	ErrColumnUnassigned  - a Jacobian references a node without a column index.
//	ErrZeroPivot         - covariance recovery hit a (near-)zero pivot.
package sparse
