package multiplier

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/period"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

// VarSpec declares one free decision-variable block of a multiplier.
// Indices are local to the multiplier; the analysis maps them into the
// assembled program.
type VarSpec struct {
	Name      string
	Rows      int
	Cols      int
	Symmetric bool

	// Objective marks the block as the shared performance objective
	// (the squared bound); at most one per multiplier.
	Objective bool
}

// ConstraintKind selects how a declared variable is constrained.
type ConstraintKind int

const (
	// VarPosSemidef imposes X ⪰ 0 directly.
	VarPosSemidef ConstraintKind = iota
	// VarKYP imposes positivity of the variable filtered through a
	// realization, via a Kalman-Yakubovich-Popov condition with an
	// auxiliary certificate allocated by the analysis.
	VarKYP
)

// Constraint attaches one side condition to a local variable.
type Constraint struct {
	Kind   ConstraintKind
	Var    int
	Filter *ss.StateSpace // KYP only
}

// QuadTerm is one affine contribution of a local variable X to the quadratic
// form: Scale * L[t] * X * R[t] for matrix variables, and Scale * x * L[t] *
// R[t] for scalar (1x1) variables, which scale the fixed placement L*R.
// L and R are fixed sequences. The analysis symmetrizes the total.
type QuadTerm struct {
	Var   int
	Scale float64
	Left  period.Sequence[*mat.Dense]
	Right period.Sequence[*mat.Dense]
}

// QuadraticForm is the block quadratic form evaluated at the filtered
// signal: Fixed[t] + sum of terms, required symmetric at every step.
type QuadraticForm struct {
	Fixed period.Sequence[*mat.Dense]
	Terms []QuadTerm
}

// Multiplier realizes one IQC: a filter applied to the (output, input) slice
// of a named source block, and a quadratic form on the filtered signal.
type Multiplier struct {
	// Source is the name of the Delta/Disturbance/Performance this
	// multiplier certifies; the analysis pairs them by name.
	Source string

	// OutWidth and InWidth are the per-step widths of the plant-output and
	// plant-input slices the filter consumes, in that order.
	OutWidth period.Sequence[int]
	InWidth  period.Sequence[int]

	// Filter maps the stacked slice to the internal signal the quadratic
	// form acts on. A nil filter means the multiplier contributes nothing
	// (an unconstraining characterization).
	Filter *ss.StateSpace

	Quad        QuadraticForm
	Vars        []VarSpec
	Constraints []Constraint

	hp period.HorizonPeriod
}

// HorizonPeriod returns the grid the multiplier is stamped with.
func (m *Multiplier) HorizonPeriod() period.HorizonPeriod {
	return m.hp
}

// Empty reports whether the multiplier contributes no constraint.
func (m *Multiplier) Empty() bool {
	return m.Filter == nil
}

// SignalWidthAt is the stacked filter-input width at step t.
func (m *Multiplier) SignalWidthAt(t int) int {
	return m.OutWidth.At(t) + m.InWidth.At(t)
}

// MatchHorizonPeriod re-indexes the multiplier onto target. The represented
// IQC is unchanged.
func (m *Multiplier) MatchHorizonPeriod(target period.HorizonPeriod) (*Multiplier, error) {
	out := &Multiplier{
		Source: m.Source,
		Vars:   append([]VarSpec(nil), m.Vars...),
		hp:     target,
	}
	var err error
	out.Constraints = make([]Constraint, len(m.Constraints))
	for i, con := range m.Constraints {
		nc := con
		if con.Filter != nil {
			if nc.Filter, err = con.Filter.MatchHorizonPeriod(target); err != nil {
				return nil, err
			}
		}
		out.Constraints[i] = nc
	}
	if out.OutWidth, err = period.Resample(m.OutWidth, target); err != nil {
		return nil, err
	}
	if out.InWidth, err = period.Resample(m.InWidth, target); err != nil {
		return nil, err
	}
	if m.Filter != nil {
		if out.Filter, err = m.Filter.MatchHorizonPeriod(target); err != nil {
			return nil, err
		}
		if out.Quad.Fixed, err = period.Resample(m.Quad.Fixed, target); err != nil {
			return nil, err
		}
		out.Quad.Terms = make([]QuadTerm, len(m.Quad.Terms))
		for i, term := range m.Quad.Terms {
			nt := QuadTerm{Var: term.Var, Scale: term.Scale}
			if nt.Left, err = period.Resample(term.Left, target); err != nil {
				return nil, err
			}
			if nt.Right, err = period.Resample(term.Right, target); err != nil {
				return nil, err
			}
			out.Quad.Terms[i] = nt
		}
	}
	return out, nil
}

// validate checks internal consistency before the multiplier is handed to
// the analysis: filter width must match the declared slice widths and every
// term must reference a declared variable with compatible shapes.
func (m *Multiplier) validate() error {
	if m.Filter == nil {
		return nil
	}
	for t := 0; t < m.hp.Total(); t++ {
		if m.Filter.InputDimAt(t) != m.SignalWidthAt(t) {
			return fmt.Errorf("multiplier %q: filter consumes %d channels at step %d, source slice has %d",
				m.Source, m.Filter.InputDimAt(t), t, m.SignalWidthAt(t))
		}
	}
	for i, term := range m.Quad.Terms {
		if term.Var < 0 || term.Var >= len(m.Vars) {
			return fmt.Errorf("multiplier %q: term %d references undeclared variable %d", m.Source, i, term.Var)
		}
	}
	for i, con := range m.Constraints {
		if con.Var < 0 || con.Var >= len(m.Vars) {
			return fmt.Errorf("multiplier %q: constraint %d references undeclared variable %d", m.Source, i, con.Var)
		}
		if con.Kind == VarKYP && con.Filter == nil {
			return fmt.Errorf("multiplier %q: KYP constraint %d has no filter realization", m.Source, i)
		}
	}
	return nil
}
