package ss

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/period"
)

// buildSeq assembles a matrix sequence on grid hp by calling f at each stored
// step.
func buildSeq(hp period.HorizonPeriod, f func(t int) *mat.Dense) period.Sequence[*mat.Dense] {
	out := period.Sequence[*mat.Dense]{
		Prefix: make([]*mat.Dense, hp.Horizon),
		Cycle:  make([]*mat.Dense, hp.Period),
	}
	for t := 0; t < hp.Total(); t++ {
		m := f(t)
		if t < hp.Horizon {
			out.Prefix[t] = m
		} else {
			out.Cycle[t-hp.Horizon] = m
		}
	}
	return out
}

// align resamples both systems onto their merged grid.
func align(g, f *StateSpace) (*StateSpace, *StateSpace, period.HorizonPeriod, error) {
	hp, err := period.Merge(g.hp, f.hp)
	if err != nil {
		return nil, nil, period.HorizonPeriod{}, err
	}
	ga, err := g.MatchHorizonPeriod(hp)
	if err != nil {
		return nil, nil, period.HorizonPeriod{}, err
	}
	fa, err := f.MatchHorizonPeriod(hp)
	if err != nil {
		return nil, nil, period.HorizonPeriod{}, err
	}
	return ga, fa, hp, nil
}

// Series composes g after f: the output of f drives the input of g. The
// combined state stacks f's state above g's.
func Series(g, f *StateSpace) (*StateSpace, error) {
	ga, fa, hp, err := align(g, f)
	if err != nil {
		return nil, err
	}
	for t := 0; t < hp.Total(); t++ {
		if fa.OutputDimAt(t) != ga.InputDimAt(t) {
			return nil, fmt.Errorf("ss: series dimension clash at step %d: f outputs %d, g expects %d",
				t, fa.OutputDimAt(t), ga.InputDimAt(t))
		}
	}
	a := buildSeq(hp, func(t int) *mat.Dense {
		// [ Af      0  ]
		// [ Bg*Cf   Ag ]
		top := hstack(fa.A.At(t), zeros(rows(fa.A.At(t)), cols(ga.A.At(t))))
		bot := hstack(mul(ga.B.At(t), fa.C.At(t)), ga.A.At(t))
		return vstack(top, bot)
	})
	b := buildSeq(hp, func(t int) *mat.Dense {
		return vstack(fa.B.At(t), mul(ga.B.At(t), fa.D.At(t)))
	})
	c := buildSeq(hp, func(t int) *mat.Dense {
		return hstack(mul(ga.D.At(t), fa.C.At(t)), ga.C.At(t))
	})
	d := buildSeq(hp, func(t int) *mat.Dense {
		return mul(ga.D.At(t), fa.D.At(t))
	})
	return New(a, b, c, d, hp)
}

// Sum composes two systems sharing one input, with outputs added.
func Sum(g, f *StateSpace) (*StateSpace, error) {
	ga, fa, hp, err := align(g, f)
	if err != nil {
		return nil, err
	}
	for t := 0; t < hp.Total(); t++ {
		if fa.InputDimAt(t) != ga.InputDimAt(t) || fa.OutputDimAt(t) != ga.OutputDimAt(t) {
			return nil, fmt.Errorf("ss: sum dimension clash at step %d: (%d in, %d out) vs (%d in, %d out)",
				t, ga.InputDimAt(t), ga.OutputDimAt(t), fa.InputDimAt(t), fa.OutputDimAt(t))
		}
	}
	a := buildSeq(hp, func(t int) *mat.Dense { return blkdiag(ga.A.At(t), fa.A.At(t)) })
	b := buildSeq(hp, func(t int) *mat.Dense { return vstack(ga.B.At(t), fa.B.At(t)) })
	c := buildSeq(hp, func(t int) *mat.Dense { return hstack(ga.C.At(t), fa.C.At(t)) })
	d := buildSeq(hp, func(t int) *mat.Dense { return add(ga.D.At(t), fa.D.At(t)) })
	return New(a, b, c, d, hp)
}

// Blkdiag composes two systems with independent inputs and outputs stacked,
// g's channels first.
func Blkdiag(g, f *StateSpace) (*StateSpace, error) {
	ga, fa, hp, err := align(g, f)
	if err != nil {
		return nil, err
	}
	// Stack with declared sizes: a memoryless operand has zero-state B and C
	// blocks whose nonzero side must still widen the result.
	nextStates := func(s *StateSpace, t int) int { return s.StateDimAt(s.successor(t)) }
	a := buildSeq(hp, func(t int) *mat.Dense {
		return grid(
			[]int{nextStates(ga, t), nextStates(fa, t)},
			[]int{ga.StateDimAt(t), fa.StateDimAt(t)},
			[][]*mat.Dense{{ga.A.At(t), nil}, {nil, fa.A.At(t)}})
	})
	b := buildSeq(hp, func(t int) *mat.Dense {
		return grid(
			[]int{nextStates(ga, t), nextStates(fa, t)},
			[]int{ga.InputDimAt(t), fa.InputDimAt(t)},
			[][]*mat.Dense{{ga.B.At(t), nil}, {nil, fa.B.At(t)}})
	})
	c := buildSeq(hp, func(t int) *mat.Dense {
		return grid(
			[]int{ga.OutputDimAt(t), fa.OutputDimAt(t)},
			[]int{ga.StateDimAt(t), fa.StateDimAt(t)},
			[][]*mat.Dense{{ga.C.At(t), nil}, {nil, fa.C.At(t)}})
	})
	d := buildSeq(hp, func(t int) *mat.Dense {
		return grid(
			[]int{ga.OutputDimAt(t), fa.OutputDimAt(t)},
			[]int{ga.InputDimAt(t), fa.InputDimAt(t)},
			[][]*mat.Dense{{ga.D.At(t), nil}, {nil, fa.D.At(t)}})
	})
	return New(a, b, c, d, hp)
}

func rows(m *mat.Dense) int {
	r, _ := dims(m)
	return r
}

func cols(m *mat.Dense) int {
	_, c := dims(m)
	return c
}
