// Package manifold provides the small fixed-dimension value types
// estimated by slamkit: 2D poses and points plus a flat 3D point. Each
// type implements the core.Value capability interface (Dim, Vector,
// WithVector) so that factors and the engine can operate on values
// generically, without ever recovering a concrete type at runtime.
//
// Composition conventions, fixed across the library:
//
//   - a.Oplus(d) composes pose a with a relative pose d expressed in
//     a's own frame (predicting a new pose from odometry).
//   - a.Ominus(b) is the inverse composition: the pose of b expressed
//     in a's frame, so that a.Oplus(a.Ominus(b)) == b for all a, b up
//     to floating-point tolerance.
//   - TransformFrom maps a point from the pose's local frame into the
//     world frame; TransformTo is its exact inverse.
//
// Every operation that produces an angle normalizes it into (−π, π]
// via StandardRad, including reconstruction through WithVector, which
// is what keeps error residuals wrapped near the ±π boundary.
package manifold
