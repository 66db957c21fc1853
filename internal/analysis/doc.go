// Package analysis computes worst-case performance bounds for uncertain
// periodic systems.
//
// [Analyze] drives the pipeline: it pairs every uncertainty, disturbance and
// performance block of an uncertain system with a multiplier (a
// caller-supplied override wins over the block's default), reconciles every
// participant onto one time grid, assembles the dissipation-inequality
// program over one period with a periodic Lyapunov certificate, and hands it
// to an [lmi.Solver]. Infeasibility and solver failure are verdicts, not
// errors: the [Result] carries Valid=false and an infinite bound. Only
// malformed inputs raise errors, up front, including
// [UnsupportedUncertaintyError] when a block cannot be paired with a
// multiplier.
package analysis
