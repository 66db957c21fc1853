package ss

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/period"
)

// StateSpace is a periodic discrete-time linear system. All four sequences
// share one horizon-period grid. Matrices are never mutated after
// construction; copies of a StateSpace may share them.
type StateSpace struct {
	A, B, C, D period.Sequence[*mat.Dense]

	hp period.HorizonPeriod
}

// New validates the quadruple and wraps it. Dimension rules at step t, with
// the successor of the last stored step wrapping to the start of the cycle:
// A[t] is n[t+1] x n[t], B[t] is n[t+1] x m[t], C[t] is q[t] x n[t] and D[t]
// is q[t] x m[t].
func New(a, b, c, d period.Sequence[*mat.Dense], hp period.HorizonPeriod) (*StateSpace, error) {
	for name, s := range map[string]period.Sequence[*mat.Dense]{"A": a, "B": b, "C": c, "D": d} {
		if err := s.CheckGrid(hp); err != nil {
			return nil, fmt.Errorf("state matrix %s: %w", name, err)
		}
	}
	sys := &StateSpace{A: a, B: b, C: c, D: d, hp: hp}
	if err := sys.checkDims(); err != nil {
		return nil, err
	}
	return sys, nil
}

// successor returns the stored index of the step following stored index t.
func (s *StateSpace) successor(t int) int {
	if t == s.hp.Total()-1 {
		return s.hp.Horizon
	}
	return t + 1
}

func (s *StateSpace) checkDims() error {
	// Empty matrices stand in for zero-sized blocks (memoryless systems have
	// empty A, B and C); any comparison touching one is vacuous.
	total := s.hp.Total()
	for t := 0; t < total; t++ {
		next := s.successor(t)
		at, bt, ct, dt := s.A.At(t), s.B.At(t), s.C.At(t), s.D.At(t)

		if !at.IsEmpty() && !s.A.At(next).IsEmpty() {
			ra, _ := at.Dims()
			if _, cNext := s.A.At(next).Dims(); ra != cNext {
				return fmt.Errorf("ss: A[%d] has %d rows but A[%d] expects %d states", t, ra, next, cNext)
			}
		}
		if !at.IsEmpty() && !bt.IsEmpty() {
			ra, _ := at.Dims()
			rb, _ := bt.Dims()
			if rb != ra {
				return fmt.Errorf("ss: B[%d] has %d rows, A[%d] has %d", t, rb, t, ra)
			}
		}
		if !at.IsEmpty() && !ct.IsEmpty() {
			_, ca := at.Dims()
			_, cc := ct.Dims()
			if cc != ca {
				return fmt.Errorf("ss: C[%d] has %d columns, A[%d] has %d", t, cc, t, ca)
			}
		}
		if !ct.IsEmpty() && !dt.IsEmpty() {
			rc, _ := ct.Dims()
			rd, _ := dt.Dims()
			if rd != rc {
				return fmt.Errorf("ss: D[%d] has %d rows, C[%d] has %d", t, rd, t, rc)
			}
		}
		if !bt.IsEmpty() && !dt.IsEmpty() {
			_, cb := bt.Dims()
			_, cd := dt.Dims()
			if cd != cb {
				return fmt.Errorf("ss: D[%d] has %d columns, B[%d] has %d", t, cd, t, cb)
			}
		}
	}
	return nil
}

// HorizonPeriod returns the time grid of the realization.
func (s *StateSpace) HorizonPeriod() period.HorizonPeriod {
	return s.hp
}

// StateDimAt returns the state dimension entering step t.
func (s *StateSpace) StateDimAt(t int) int {
	_, n := dims(s.A.At(t))
	return n
}

// InputDimAt returns the input dimension at step t. D carries the
// authoritative width since B may be an empty block.
func (s *StateSpace) InputDimAt(t int) int {
	if _, m := dims(s.D.At(t)); m > 0 {
		return m
	}
	_, m := dims(s.B.At(t))
	return m
}

// OutputDimAt returns the output dimension at step t.
func (s *StateSpace) OutputDimAt(t int) int {
	if q, _ := dims(s.D.At(t)); q > 0 {
		return q
	}
	q, _ := dims(s.C.At(t))
	return q
}

// MatchHorizonPeriod re-indexes the realization onto target. Refinement
// always succeeds; coarsening succeeds only when every matrix sequence is
// exactly representable on target, so refining and coarsening back restores
// the original. The represented system is unchanged either way.
func (s *StateSpace) MatchHorizonPeriod(target period.HorizonPeriod) (*StateSpace, error) {
	eq := func(x, y *mat.Dense) bool { return mat.Equal(x, y) }
	a, err := period.Rebase(s.A, target, eq)
	if err != nil {
		return nil, err
	}
	b, err := period.Rebase(s.B, target, eq)
	if err != nil {
		return nil, err
	}
	c, err := period.Rebase(s.C, target, eq)
	if err != nil {
		return nil, err
	}
	d, err := period.Rebase(s.D, target, eq)
	if err != nil {
		return nil, err
	}
	return &StateSpace{A: a, B: b, C: c, D: d, hp: target}, nil
}

// Equal reports structural equality: same grid and element-wise equal
// matrices at every stored step.
func (s *StateSpace) Equal(o *StateSpace) bool {
	if s.hp != o.hp {
		return false
	}
	eq := func(x, y *mat.Dense) bool { return mat.Equal(x, y) }
	return period.EqualFunc(s.A, o.A, eq) &&
		period.EqualFunc(s.B, o.B, eq) &&
		period.EqualFunc(s.C, o.C, eq) &&
		period.EqualFunc(s.D, o.D, eq)
}

// Memoryless builds a realization with no state: y[t] = D[t] u[t].
func Memoryless(d period.Sequence[*mat.Dense], hp period.HorizonPeriod) (*StateSpace, error) {
	mk := func(rows func(t int) (int, int)) period.Sequence[*mat.Dense] {
		out := period.Sequence[*mat.Dense]{
			Prefix: make([]*mat.Dense, hp.Horizon),
			Cycle:  make([]*mat.Dense, hp.Period),
		}
		for t := 0; t < hp.Total(); t++ {
			r, c := rows(t)
			m := zeros(r, c)
			if t < hp.Horizon {
				out.Prefix[t] = m
			} else {
				out.Cycle[t-hp.Horizon] = m
			}
		}
		return out
	}
	a := mk(func(t int) (int, int) { return 0, 0 })
	b := mk(func(t int) (int, int) { _, m := d.At(t).Dims(); return 0, m })
	c := mk(func(t int) (int, int) { q, _ := d.At(t).Dims(); return q, 0 })
	return New(a, b, c, d, hp)
}

// Identity builds a memoryless pass-through of the given width on grid hp.
func Identity(dim int, hp period.HorizonPeriod) (*StateSpace, error) {
	return Memoryless(period.Constant(eye(dim, 1), hp), hp)
}
