// Package lft provides the uncertain linear-fractional-transformation
// container at the center of the toolbox.
//
// A [Ulft] couples a periodic state-space realization with ordered,
// name-deduplicated collections of uncertainty, disturbance and performance
// blocks. The plant's input channels are partitioned as [delta outputs,
// exogenous inputs] and its output channels as [delta inputs, exogenous
// outputs]; disturbance and performance selectors index the exogenous parts.
//
//   - [New]: validate and assemble a Ulft, reconciling horizon-periods
//   - [Ulft.AddDelta], [Ulft.AddDisturbance], [Ulft.AddPerformance]:
//     idempotent, name-merged attachment
//   - [Add], [Series], [Blkdiag]: algebraic composition
//
// Adding a block whose name collides with a structurally different existing
// block fails with [IncompatibleSpecificationError]; adding an identical one
// is a no-op. Ulfts are value objects: every operation returns a new
// instance.
package lft
