package multiplier

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/period"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

// NewL2Gain builds the induced-l2-gain performance multiplier on the given
// output and input channel widths: the supply |e|² - γ²|d|² with γ² the
// shared objective variable minimized by the analysis.
func NewL2Gain(name string, outDim, inDim period.Sequence[int], hp period.HorizonPeriod) (*Multiplier, error) {
	if name == "" {
		return nil, fmt.Errorf("multiplier: source name must be non-empty")
	}
	if err := outDim.CheckGrid(hp); err != nil {
		return nil, fmt.Errorf("multiplier %q: output widths: %w", name, err)
	}
	if err := inDim.CheckGrid(hp); err != nil {
		return nil, fmt.Errorf("multiplier %q: input widths: %w", name, err)
	}
	for t := 0; t < hp.Total(); t++ {
		if outDim.At(t) < 0 || inDim.At(t) < 0 || outDim.At(t)+inDim.At(t) == 0 {
			return nil, fmt.Errorf("multiplier %q: empty performance channel at step %d", name, t)
		}
	}

	mkD := func(t int) *mat.Dense {
		return eyeDense(outDim.At(t) + inDim.At(t))
	}
	dseq := period.Sequence[*mat.Dense]{
		Prefix: make([]*mat.Dense, hp.Horizon),
		Cycle:  make([]*mat.Dense, hp.Period),
	}
	for t := 0; t < hp.Total(); t++ {
		if t < hp.Horizon {
			dseq.Prefix[t] = mkD(t)
		} else {
			dseq.Cycle[t-hp.Horizon] = mkD(t)
		}
	}
	filter, err := ss.Memoryless(dseq, hp)
	if err != nil {
		return nil, err
	}

	fixed := period.Sequence[*mat.Dense]{
		Prefix: make([]*mat.Dense, hp.Horizon),
		Cycle:  make([]*mat.Dense, hp.Period),
	}
	left := period.Sequence[*mat.Dense]{
		Prefix: make([]*mat.Dense, hp.Horizon),
		Cycle:  make([]*mat.Dense, hp.Period),
	}
	right := period.Sequence[*mat.Dense]{
		Prefix: make([]*mat.Dense, hp.Horizon),
		Cycle:  make([]*mat.Dense, hp.Period),
	}
	for t := 0; t < hp.Total(); t++ {
		e, d := outDim.At(t), inDim.At(t)
		w := e + d
		f := mat.NewDense(w, w, nil)
		for i := 0; i < e; i++ {
			f.Set(i, i, 1)
		}
		var l *mat.Dense
		if d > 0 {
			l = embed(w, e, d)
		} else {
			l = mat.NewDense(w, 1, nil)
		}
		if t < hp.Horizon {
			fixed.Prefix[t] = f
			left.Prefix[t] = l
			right.Prefix[t] = transpose(l)
		} else {
			fixed.Cycle[t-hp.Horizon] = f
			left.Cycle[t-hp.Horizon] = l
			right.Cycle[t-hp.Horizon] = transpose(l)
		}
	}

	m := &Multiplier{
		Source:   name,
		OutWidth: outDim.Clone(),
		InWidth:  inDim.Clone(),
		Filter:   filter,
		Vars: []VarSpec{
			{Name: "gain_sq", Rows: 1, Cols: 1, Symmetric: true, Objective: true},
		},
		Constraints: []Constraint{{Kind: VarPosSemidef, Var: 0}},
		Quad: QuadraticForm{
			Fixed: fixed,
			Terms: []QuadTerm{{Var: 0, Scale: -1, Left: left, Right: right}},
		},
		hp: hp,
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}
