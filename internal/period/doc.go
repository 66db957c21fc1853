// Package period provides the eventually-periodic time representation shared
// by every object in the toolbox.
//
// A [HorizonPeriod] encodes a discrete-time signal that is arbitrary for the
// first h steps and repeats with period p afterwards. Any per-time-step
// attribute (state matrices, uncertainty bounds, channel selectors) is stored
// as a [Sequence] whose length equals h+p:
//
//   - [Sequence.At]: value at any time index t >= 0
//   - [Merge]: minimal common horizon-period of several objects
//   - [Resample]: re-index a sequence onto a compatible finer grid without
//     changing the signal it represents
//
// Resampling is a semantic no-op: reading a resampled sequence at the original
// time indices reproduces the original values exactly.
package period
