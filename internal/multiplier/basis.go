package multiplier

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/period"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

// PoleGroup is one entry of a basis specification: a single real pole or a
// complex-conjugate pair.
type PoleGroup []complex128

// BasisSpec describes how to synthesize a filter basis. Element 1 of the
// basis is the identity; element k+1 convolves element k with the next
// unused pole group, cycling back to the first group once all are used.
type BasisSpec struct {
	Poles    []PoleGroup
	Length   int
	Discrete bool
}

// DefaultBasis is the basis used when a multiplier is built without an
// explicit specification: length two with a single real pole at -0.5.
func DefaultBasis(discrete bool) BasisSpec {
	pole := complex(-0.5, 0)
	return BasisSpec{
		Poles:    []PoleGroup{{pole}},
		Length:   2,
		Discrete: discrete,
	}
}

// Validate checks pole legality for the chosen time domain: real poles must
// be strictly inside the open unit disk (discrete) or the open left
// half-plane (continuous), complex poles must appear as conjugate pairs.
func (b BasisSpec) Validate() error {
	if b.Length < 1 {
		return poleErr(0, "basis length must be at least 1, got %d", b.Length)
	}
	if b.Length > 1 && len(b.Poles) == 0 {
		return poleErr(0, "basis of length %d needs at least one pole group", b.Length)
	}
	for i, g := range b.Poles {
		switch len(g) {
		case 1:
			if imag(g[0]) != 0 {
				return poleErr(i, "complex pole %v must appear with its conjugate", g[0])
			}
		case 2:
			if imag(g[0]) == 0 || g[1] != cmplx.Conj(g[0]) {
				return poleErr(i, "poles %v and %v are not a conjugate pair", g[0], g[1])
			}
		default:
			return poleErr(i, "pole group must hold one real pole or a conjugate pair, got %d entries", len(g))
		}
		for _, p := range g {
			if b.Discrete {
				if cmplx.Abs(p) >= 1 {
					return poleErr(i, "pole %v is outside the open unit disk (discrete time)", p)
				}
			} else if real(p) >= 0 {
				return poleErr(i, "pole %v is outside the open left half-plane (continuous time)", p)
			}
		}
	}
	return nil
}

// Realize synthesizes the basis as a time-invariant realization with one
// input and Length outputs. Each strictly proper element is realized as a
// chain block driven by the previous element's output.
func (b BasisSpec) Realize() (*ss.StateSpace, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	type block struct {
		a *mat.Dense // companion dynamics of one pole group
		n int
	}
	blocks := make([]block, 0, b.Length-1)
	states := 0
	for k := 0; k < b.Length-1; k++ {
		g := b.Poles[k%len(b.Poles)]
		if len(g) == 1 {
			p := real(g[0])
			blocks = append(blocks, block{a: mat.NewDense(1, 1, []float64{p}), n: 1})
			states++
			continue
		}
		re, im := real(g[0]), imag(g[0])
		mag2 := re*re + im*im
		blocks = append(blocks, block{
			a: mat.NewDense(2, 2, []float64{0, 1, -mag2, 2 * re}),
			n: 2,
		})
		states += 2
	}

	hp := period.Default()
	if states == 0 {
		d := mat.NewDense(b.Length, 1, nil)
		d.Set(0, 0, 1)
		return ss.Memoryless(period.Constant(d, hp), hp)
	}

	a := mat.NewDense(states, states, nil)
	bm := mat.NewDense(states, 1, nil)
	c := mat.NewDense(b.Length, states, nil)
	d := mat.NewDense(b.Length, 1, nil)
	d.Set(0, 0, 1) // element 1 is the identity

	offset := 0
	prevOut := -1 // state index carrying the previous element's output; -1 means the input
	for k, blk := range blocks {
		a.Slice(offset, offset+blk.n, offset, offset+blk.n).(*mat.Dense).Copy(blk.a)
		// Drive the block's last state from the previous element.
		drive := offset + blk.n - 1
		if prevOut < 0 {
			bm.Set(drive, 0, 1)
		} else {
			a.Set(drive, prevOut, a.At(drive, prevOut)+1)
		}
		// The block's first state is this element's output.
		c.Set(k+1, offset, 1)
		prevOut = offset
		offset += blk.n
	}

	return ss.New(
		period.Constant(a, hp),
		period.Constant(bm, hp),
		period.Constant(c, hp),
		period.Constant(d, hp),
		hp,
	)
}

// kronEye returns m ⊗ I_d.
func kronEye(m *mat.Dense, d int) *mat.Dense {
	if m.IsEmpty() {
		return &mat.Dense{}
	}
	r, c := m.Dims()
	if r == 0 || c == 0 || d == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(r*d, c*d, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if v == 0 {
				continue
			}
			for k := 0; k < d; k++ {
				out.Set(i*d+k, j*d+k, v)
			}
		}
	}
	return out
}

// WidenFilter replicates a single-signal basis realization across a signal of
// width dim: the result maps dim inputs to Length*dim outputs. Fails when the
// basis is not a scalar transfer function.
func WidenFilter(basis *ss.StateSpace, dim int) (*ss.StateSpace, error) {
	hp := basis.HorizonPeriod()
	for t := 0; t < hp.Total(); t++ {
		if basis.InputDimAt(t) != 1 {
			return nil, poleErr(0, "basis realization must be scalar, has input width %d at step %d",
				basis.InputDimAt(t), t)
		}
	}
	widen := func(s period.Sequence[*mat.Dense]) period.Sequence[*mat.Dense] {
		out := s.Clone()
		for i := range out.Prefix {
			out.Prefix[i] = kronEye(out.Prefix[i], dim)
		}
		for i := range out.Cycle {
			out.Cycle[i] = kronEye(out.Cycle[i], dim)
		}
		return out
	}
	return ss.New(widen(basis.A), widen(basis.B), widen(basis.C), widen(basis.D), hp)
}

// isStableReal reports whether a single real pole is legal in the given
// domain; used by variants that take one pole rather than a full basis.
func isStableReal(p float64, discrete bool) bool {
	if discrete {
		return math.Abs(p) < 1
	}
	return p < 0
}
