// Package block defines the uncertainty, disturbance and performance
// descriptions attached to an uncertain LFT.
//
// The three hierarchies share one capability set: every variant carries a
// unique name and a horizon-period, resamples onto compatible grids, compares
// structurally, and converts itself to an IQC multiplier. Variants are
// extensible through the [Delta], [Disturbance] and [Performance] interfaces;
// no consumer switches on concrete types.
//
// Provided variants:
//
//   - [DeltaSltiBounded], [DeltaDltiBounded], [DeltaSltvRateBounded]
//   - [DisturbanceL2], [DisturbanceConstantWindow], [DisturbanceBandedWhite]
//   - [PerformanceL2Gain]
//
// Blocks are immutable value objects: operations return new instances.
package block
