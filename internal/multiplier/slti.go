package multiplier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/period"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

// SltiOptions configures construction of the static-LTI-bounded multiplier.
// The zero value selects the defaults: a discrete-time length-2 basis with a
// single pole at -0.5 and a plain positive-semidefiniteness constraint.
type SltiOptions struct {
	// Basis overrides the default pole specification.
	Basis *BasisSpec

	// BasisRealization supplies an explicit scalar filter basis instead of
	// synthesizing one from poles.
	BasisRealization *ss.StateSpace

	// ConstraintQ11KYP replaces the direct X ⪰ 0 constraint with a
	// KYP-type condition on the filtered form, which is less conservative.
	ConstraintQ11KYP bool

	// Continuous selects the continuous-time pole domain for synthesis.
	Continuous bool
}

// NewSltiBounded builds the multiplier certifying a static LTI uncertainty
// of the given square dimension with gain at most bound: the classic
// D-scaling form [b²X, 0; 0, -X] with X ⪰ 0, filtered through a basis.
func NewSltiBounded(name string, dim int, bound float64, hp period.HorizonPeriod, opts SltiOptions) (*Multiplier, error) {
	if name == "" {
		return nil, fmt.Errorf("multiplier: source name must be non-empty")
	}
	if dim < 1 {
		return nil, fmt.Errorf("multiplier %q: dimension must be positive, got %d", name, dim)
	}
	if !(bound > 0) || math.IsInf(bound, 0) {
		return nil, fmt.Errorf("multiplier %q: upper bound must be positive and finite, got %v", name, bound)
	}
	if err := hp.Validate(); err != nil {
		return nil, fmt.Errorf("multiplier %q: %w", name, err)
	}

	basis := opts.BasisRealization
	if basis == nil {
		spec := DefaultBasis(!opts.Continuous)
		if opts.Basis != nil {
			spec = *opts.Basis
		}
		var err error
		if basis, err = spec.Realize(); err != nil {
			return nil, err
		}
	}
	length := basis.OutputDimAt(0)

	// One basis copy per signal side, widened over the block's channels.
	psi, err := WidenFilter(basis, dim)
	if err != nil {
		return nil, err
	}
	both, err := ss.Blkdiag(psi, psi)
	if err != nil {
		return nil, err
	}
	filter, err := both.MatchHorizonPeriod(hp)
	if err != nil {
		return nil, err
	}
	psiHP, err := psi.MatchHorizonPeriod(hp)
	if err != nil {
		return nil, err
	}

	w := length * dim
	m := &Multiplier{
		Source:   name,
		OutWidth: period.Constant(dim, hp),
		InWidth:  period.Constant(dim, hp),
		Filter:   filter,
		Vars: []VarSpec{
			{Name: "x", Rows: w, Cols: w, Symmetric: true},
		},
		hp: hp,
	}
	if opts.ConstraintQ11KYP {
		m.Constraints = []Constraint{{Kind: VarKYP, Var: 0, Filter: psiHP}}
	} else {
		m.Constraints = []Constraint{{Kind: VarPosSemidef, Var: 0}}
	}

	top := embed(2*w, 0, w)
	bot := embed(2*w, w, w)
	m.Quad = QuadraticForm{
		Fixed: period.Constant(zeros(2*w), hp),
		Terms: []QuadTerm{
			{Var: 0, Scale: bound * bound, Left: period.Constant(top, hp), Right: period.Constant(transpose(top), hp)},
			{Var: 0, Scale: -1, Left: period.Constant(bot, hp), Right: period.Constant(transpose(bot), hp)},
		},
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// embed returns a total x w matrix holding the identity at row offset.
func embed(total, offset, w int) *mat.Dense {
	out := mat.NewDense(total, w, nil)
	for i := 0; i < w; i++ {
		out.Set(offset+i, i, 1)
	}
	return out
}

func transpose(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(c, r, nil)
	out.Copy(m.T())
	return out
}

func zeros(n int) *mat.Dense {
	return mat.NewDense(n, n, nil)
}
