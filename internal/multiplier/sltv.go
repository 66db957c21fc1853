package multiplier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/period"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

// NewSltvBounded builds the multiplier certifying a static, possibly
// time-varying uncertainty with a per-step gain bound. Time variation rules
// out dynamic filtering, so the filter is the identity and the D-scaling is
// a fresh symmetric weight at every stored step.
func NewSltvBounded(name string, dim int, bounds period.Sequence[float64], hp period.HorizonPeriod) (*Multiplier, error) {
	if name == "" {
		return nil, fmt.Errorf("multiplier: source name must be non-empty")
	}
	if dim < 1 {
		return nil, fmt.Errorf("multiplier %q: dimension must be positive, got %d", name, dim)
	}
	if err := bounds.CheckGrid(hp); err != nil {
		return nil, fmt.Errorf("multiplier %q: %w", name, err)
	}
	for t := 0; t < hp.Total(); t++ {
		b := bounds.At(t)
		if !(b > 0) || math.IsInf(b, 0) {
			return nil, fmt.Errorf("multiplier %q: bound at step %d must be positive and finite, got %v", name, t, b)
		}
	}

	w := 2 * dim
	filter, err := ss.Identity(w, hp)
	if err != nil {
		return nil, err
	}

	m := &Multiplier{
		Source:   name,
		OutWidth: period.Constant(dim, hp),
		InWidth:  period.Constant(dim, hp),
		Filter:   filter,
		Quad: QuadraticForm{
			Fixed: period.Constant(mat.NewDense(w, w, nil), hp),
		},
		hp: hp,
	}

	top := embed(w, 0, dim)
	bot := embed(w, dim, dim)
	for t := 0; t < hp.Total(); t++ {
		v := len(m.Vars)
		m.Vars = append(m.Vars, VarSpec{
			Name: fmt.Sprintf("x_%d", t),
			Rows: dim, Cols: dim, Symmetric: true,
		})
		m.Constraints = append(m.Constraints, Constraint{Kind: VarPosSemidef, Var: v})

		b := bounds.At(t)
		m.Quad.Terms = append(m.Quad.Terms,
			QuadTerm{Var: v, Scale: b * b, Left: stepPlacement(hp, t, top), Right: stepPlacement(hp, t, transpose(top))},
			QuadTerm{Var: v, Scale: -1, Left: stepPlacement(hp, t, bot), Right: stepPlacement(hp, t, transpose(bot))},
		)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// stepPlacement builds a sequence holding m at one stored step and a
// same-shaped zero matrix everywhere else.
func stepPlacement(hp period.HorizonPeriod, step int, m *mat.Dense) period.Sequence[*mat.Dense] {
	r, c := m.Dims()
	s := period.Constant(mat.NewDense(r, c, nil), hp)
	if step < hp.Horizon {
		s.Prefix[step] = m
	} else {
		s.Cycle[step-hp.Horizon] = m
	}
	return s
}
