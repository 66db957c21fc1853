// Package multiplier builds integral-quadratic-constraint multipliers.
//
// A [Multiplier] pairs a filter realization with a quadratic form whose
// entries are partly fixed and partly free decision variables. Multipliers
// are ephemeral artifacts: the analysis constructs one per uncertainty,
// disturbance and performance block, stacks their filters and quadratic
// forms, and discards them after the solver call.
//
//   - [BasisSpec]: pole-placement recipe for synthesizing filter bases
//   - [NewSltiBounded]: multiplier for static LTI norm-bounded uncertainty
//   - [NewConstantWindow]: multiplier for window-constant disturbances
//   - [NewBandedWhite]: multiplier for white disturbances on a band
//   - [NewL2Gain]: induced-l2-gain performance multiplier
//
// Illegal pole placement fails with [PoleConstraintError] before any
// decision variable is declared.
package multiplier
