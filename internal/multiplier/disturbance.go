package multiplier

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/period"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

// NewL2 builds the multiplier of an unconstrained finite-energy disturbance.
// The characterization admits every signal, so the multiplier contributes no
// filter and no quadratic form.
func NewL2(name string, dims period.Sequence[int], hp period.HorizonPeriod) (*Multiplier, error) {
	if name == "" {
		return nil, fmt.Errorf("multiplier: source name must be non-empty")
	}
	if err := dims.CheckGrid(hp); err != nil {
		return nil, fmt.Errorf("multiplier %q: %w", name, err)
	}
	return &Multiplier{
		Source:   name,
		OutWidth: period.Constant(0, hp),
		InWidth:  dims.Clone(),
		hp:       hp,
	}, nil
}

// NewConstantWindow builds the multiplier of a disturbance whose value is
// held constant across the given stored time steps. The filter forms the
// one-step difference; the quadratic form subtracts a free nonnegative
// weight on each window step, where the difference of an admissible signal
// vanishes.
func NewConstantWindow(name string, dim int, hp period.HorizonPeriod, window []int) (*Multiplier, error) {
	if name == "" {
		return nil, fmt.Errorf("multiplier: source name must be non-empty")
	}
	if dim < 1 {
		return nil, fmt.Errorf("multiplier %q: dimension must be positive, got %d", name, dim)
	}
	if err := hp.Validate(); err != nil {
		return nil, fmt.Errorf("multiplier %q: %w", name, err)
	}
	if len(window) == 0 {
		return nil, fmt.Errorf("multiplier %q: constant window must name at least one step", name)
	}
	inWindow := make(map[int]bool, len(window))
	for _, t := range window {
		if t < 0 || t >= hp.Total() {
			return nil, fmt.Errorf("multiplier %q: window step %d outside horizon_period %v", name, t, hp)
		}
		inWindow[t] = true
	}

	// y[t] = d[t] - d[t-1], realized with one-step memory of the signal.
	diff, err := ss.New(
		period.Constant(mat.NewDense(dim, dim, nil), hp),
		period.Constant(eyeDense(dim), hp),
		period.Constant(scaleDense(eyeDense(dim), -1), hp),
		period.Constant(eyeDense(dim), hp),
		hp,
	)
	if err != nil {
		return nil, err
	}

	m := &Multiplier{
		Source:   name,
		OutWidth: period.Constant(0, hp),
		InWidth:  period.Constant(dim, hp),
		Filter:   diff,
		Quad: QuadraticForm{
			Fixed: period.Constant(mat.NewDense(dim, dim, nil), hp),
		},
		hp: hp,
	}

	// One free nonnegative scalar per window step, each active only there.
	for _, t := range sortedKeys(inWindow) {
		v := len(m.Vars)
		m.Vars = append(m.Vars, VarSpec{
			Name: fmt.Sprintf("lambda_%d", t),
			Rows: 1, Cols: 1, Symmetric: true,
		})
		m.Constraints = append(m.Constraints, Constraint{Kind: VarPosSemidef, Var: v})
		m.Quad.Terms = append(m.Quad.Terms, QuadTerm{
			Var:   v,
			Scale: -1,
			Left:  stepSelector(hp, t, dim),
			Right: stepSelector(hp, t, dim),
		})
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// BandedWhiteOptions tunes the white-band multiplier. Pole places the
// spectral probe; Flatness scales how much signal energy the band is assumed
// to carry (1 means all of it). A zero field selects its default, so a probe
// pole at exactly zero cannot be requested; use a small nonzero value.
type BandedWhiteOptions struct {
	Pole     float64
	Flatness float64
}

// NewBandedWhite builds the multiplier of a white disturbance occupying a
// frequency band. A first-order probe at the given pole accumulates the
// in-band energy; joint whiteness fixes the ratio between probed and raw
// energy, and the quadratic form trades the two against a free nonnegative
// weight.
func NewBandedWhite(name string, dim int, hp period.HorizonPeriod, opts BandedWhiteOptions) (*Multiplier, error) {
	if name == "" {
		return nil, fmt.Errorf("multiplier: source name must be non-empty")
	}
	if dim < 1 {
		return nil, fmt.Errorf("multiplier %q: dimension must be positive, got %d", name, dim)
	}
	if err := hp.Validate(); err != nil {
		return nil, fmt.Errorf("multiplier %q: %w", name, err)
	}
	pole := opts.Pole
	if pole == 0 {
		pole = 0.5
	}
	if !isStableReal(pole, true) {
		return nil, poleErr(0, "probe pole %v is outside the open unit disk (discrete time)", pole)
	}
	flatness := opts.Flatness
	if flatness == 0 {
		flatness = 1
	}
	if flatness < 0 || flatness > 1 {
		return nil, fmt.Errorf("multiplier %q: flatness must lie in (0, 1], got %v", name, flatness)
	}

	spec := BasisSpec{Poles: []PoleGroup{{complex(pole, 0)}}, Length: 2, Discrete: true}
	basis, err := spec.Realize()
	if err != nil {
		return nil, err
	}
	probe, err := WidenFilter(basis, dim)
	if err != nil {
		return nil, err
	}
	filter, err := probe.MatchHorizonPeriod(hp)
	if err != nil {
		return nil, err
	}

	// White signal through 1/(z-a) carries 1/(1-a²) of the raw energy, so
	// (1-a²)·|probe|² - flatness·|raw|² is nonnegative for admissible d.
	w := 2 * dim
	raw := embed(w, 0, dim)
	probed := embed(w, dim, dim)
	m := &Multiplier{
		Source:   name,
		OutWidth: period.Constant(0, hp),
		InWidth:  period.Constant(dim, hp),
		Filter:   filter,
		Vars: []VarSpec{
			{Name: "mu", Rows: 1, Cols: 1, Symmetric: true},
		},
		Constraints: []Constraint{{Kind: VarPosSemidef, Var: 0}},
		Quad: QuadraticForm{
			Fixed: period.Constant(mat.NewDense(w, w, nil), hp),
			Terms: []QuadTerm{
				{Var: 0, Scale: 1 - pole*pole, Left: period.Constant(probed, hp), Right: period.Constant(transpose(probed), hp)},
				{Var: 0, Scale: -flatness, Left: period.Constant(raw, hp), Right: period.Constant(transpose(raw), hp)},
			},
		},
		hp: hp,
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// stepSelector builds the sequence that is the identity placement at one
// stored step and zero everywhere else.
func stepSelector(hp period.HorizonPeriod, step, dim int) period.Sequence[*mat.Dense] {
	s := period.Constant(mat.NewDense(dim, dim, nil), hp)
	sel := eyeDense(dim)
	if step < hp.Horizon {
		s.Prefix[step] = sel
	} else {
		s.Cycle[step-hp.Horizon] = sel
	}
	return s
}

func eyeDense(n int) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}
	return out
}

func scaleDense(m *mat.Dense, s float64) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Scale(s, m)
	return out
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
