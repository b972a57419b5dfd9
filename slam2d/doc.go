// Package slam2d provides the 2D factor library: priors on poses and
// points, relative pose (odometry / loop closure) constraints with an
// optional anchor-node pair for stitching independently-parameterized
// trajectories, and landmark observations.
//
// Every factor implements the core.Factor contract. Initialization
// policy (enforced per factor, violating it is a fatal precondition
// error):
//
//   - a prior initializes its single node from the prior value;
//   - a relative pose factor requires pose1 initialized and predicts
//     pose2 by composing pose1 with the measurement;
//   - an observation requires the pose initialized and predicts the
//     point through the pose's frame transform;
//   - the anchored relative factor additionally requires anchor1
//     initialized and solves anchor2 so the composed prediction matches
//     the measurement exactly.
//
// Where the original closed-form derivative is cheap (pose prior,
// plain relative pose, landmark observation) the factor implements
// core.Linearizer; the anchored variant and the point prior rely on the
// generic finite-difference path. Both paths agree to derivative
// precision; see the Jacobian consistency tests.
//
// Serialization: String renders the line format
//
//	<Name> <node-ids> <value-fields> {r00,r01,...} [<anchor-ids>]
//
// with the square-root information matrix flattened upper-triangular.
package slam2d
