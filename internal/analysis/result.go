package analysis

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/lmi"
)

// RealizedMultiplier carries the decision-variable blocks of one multiplier
// evaluated at the optimum, keyed by the variable names the multiplier
// declared.
type RealizedMultiplier struct {
	Source string
	Values map[string]*mat.Dense
}

// Result is the outcome of one analysis run.
type Result struct {
	// Valid reports whether a certificate was found. When false,
	// Performance is +Inf and the remaining fields are empty: a failed run
	// never reports stale values.
	Valid bool

	// Performance is the certified worst-case bound (the gain itself, not
	// its square).
	Performance float64

	// Status is the raw solver verdict.
	Status lmi.Status

	// Certificate holds the periodic Lyapunov matrices per stored time
	// step; an entry is nil where the augmented system has no state.
	Certificate []*mat.Dense

	// Multipliers are the realized multipliers keyed by source block name.
	Multipliers map[string]RealizedMultiplier
}
