package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/lft"
	"github.com/Peragore/iqcToolbox/internal/lmi"
	"github.com/Peragore/iqcToolbox/internal/multiplier"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

// layout remembers where assemble put things, for result extraction.
type layout struct {
	certIDs []lmi.VarID // per stored step, -1 where the augmented state is empty
	binds   []*binding
}

func (l *layout) certificate(sol *lmi.Solution) []*mat.Dense {
	out := make([]*mat.Dense, len(l.certIDs))
	for t, id := range l.certIDs {
		if id >= 0 {
			out[t] = sol.Values[id]
		}
	}
	return out
}

func (l *layout) realized(sol *lmi.Solution) map[string]RealizedMultiplier {
	out := make(map[string]RealizedMultiplier, len(l.binds))
	for _, b := range l.binds {
		vals := make(map[string]*mat.Dense, len(b.vars))
		for i, id := range b.vars {
			vals[b.m.Vars[i].Name] = sol.Values[id]
		}
		out[b.m.Source] = RealizedMultiplier{Source: b.m.Source, Values: vals}
	}
	return out
}

// assemble builds the dissipation program: per-step LMIs linking the
// periodic Lyapunov certificate, the plant and every multiplier's filtered
// quadratic form, plus the side constraints each multiplier declares.
func assemble(u *lft.Ulft, binds []*binding, shift float64) (*lmi.Program, *layout, error) {
	hp := u.HorizonPeriod()
	total := hp.Total()
	prog := lmi.NewProgram()

	// Augmented state: plant state followed by every filter state.
	nAug := func(t int) int {
		n := u.System().StateDimAt(t)
		for _, b := range binds {
			if b.m.Filter != nil {
				n += b.m.Filter.StateDimAt(t)
			}
		}
		return n
	}

	// Periodic Lyapunov certificate, one block per stored step, kept
	// positive semidefinite so the stored energy is a valid bound.
	certIDs := make([]lmi.VarID, total)
	for t := 0; t < total; t++ {
		certIDs[t] = -1
		if dim := nAug(t); dim > 0 {
			id, err := prog.AddVariable(fmt.Sprintf("P_%d", t), dim, dim, true)
			if err != nil {
				return nil, nil, err
			}
			certIDs[t] = id
			err = prog.AddConstraint(lmi.Constraint{
				Name:  fmt.Sprintf("certificate step %d psd", t),
				Dim:   dim,
				Terms: []lmi.Term{{Var: id, Scale: -1}},
			})
			if err != nil {
				return nil, nil, err
			}
		}
	}
	// The step after the last stored one wraps into the cycle.
	certAt := func(t int) lmi.VarID {
		if t >= total {
			t = hp.Horizon + (t-hp.Horizon)%hp.Period
		}
		return certIDs[t]
	}

	// Multiplier decision variables. Every block flagged Objective shares
	// one program variable: all of them mean the same squared bound.
	objID := lmi.VarID(-1)
	for _, b := range binds {
		b.vars = make([]lmi.VarID, len(b.m.Vars))
		for i, vs := range b.m.Vars {
			if vs.Objective {
				if objID < 0 {
					var err error
					if objID, err = prog.AddVariable("gain_sq", 1, 1, false); err != nil {
						return nil, nil, err
					}
					if err = prog.SetObjective(objID); err != nil {
						return nil, nil, err
					}
				}
				b.vars[i] = objID
				continue
			}
			id, err := prog.AddVariable(b.m.Source+"."+vs.Name, vs.Rows, vs.Cols, vs.Symmetric)
			if err != nil {
				return nil, nil, err
			}
			b.vars[i] = id
		}
		for ci, con := range b.m.Constraints {
			if err := addSideConstraint(prog, b, ci, con); err != nil {
				return nil, nil, err
			}
		}
	}

	// Dissipation inequality at every stored step.
	for t := 0; t < total; t++ {
		if err := addStepConstraint(prog, u, binds, nAug, certAt, t, shift); err != nil {
			return nil, nil, err
		}
	}

	return prog, &layout{certIDs: certIDs, binds: binds}, nil
}

// addSideConstraint imposes one multiplier-declared condition on a variable:
// direct positive semidefiniteness, or a KYP condition on the filtered form
// with its own periodic auxiliary certificate.
func addSideConstraint(prog *lmi.Program, b *binding, ci int, con multiplier.Constraint) error {
	spec := b.m.Vars[con.Var]
	id := b.vars[con.Var]
	switch con.Kind {
	case multiplier.VarPosSemidef:
		return prog.AddConstraint(lmi.Constraint{
			Name:  fmt.Sprintf("%s.%s psd", b.m.Source, spec.Name),
			Dim:   spec.Rows,
			Terms: []lmi.Term{{Var: id, Scale: -1}},
		})
	case multiplier.VarKYP:
		return addKYP(prog, b, ci, con.Filter, id)
	default:
		return fmt.Errorf("analysis: multiplier %q declares unknown constraint kind %d", b.m.Source, con.Kind)
	}
}

func addKYP(prog *lmi.Program, b *binding, ci int, f *ss.StateSpace, xID lmi.VarID) error {
	hp := f.HorizonPeriod()
	total := hp.Total()
	auxIDs := make([]lmi.VarID, total)
	for t := 0; t < total; t++ {
		auxIDs[t] = -1
		if nk := f.StateDimAt(t); nk > 0 {
			id, err := prog.AddVariable(fmt.Sprintf("%s.kyp%d.P_%d", b.m.Source, ci, t), nk, nk, true)
			if err != nil {
				return err
			}
			auxIDs[t] = id
		}
	}
	auxAt := func(t int) lmi.VarID {
		if t >= total {
			t = hp.Horizon + (t-hp.Horizon)%hp.Period
		}
		return auxIDs[t]
	}

	for t := 0; t < total; t++ {
		nk := f.StateDimAt(t)
		nkNext := f.StateDimAt(t + 1)
		kin := f.InputDimAt(t)
		dim := nk + kin
		if dim == 0 {
			continue
		}

		// tr = [A B] of the filter at this step.
		tr := zeroBlock(nkNext, dim)
		put(tr, 0, 0, norm(f.A.At(t)))
		put(tr, 0, nk, norm(f.B.At(t)))
		// cd = [C D].
		kout := f.OutputDimAt(t)
		cd := zeroBlock(kout, dim)
		put(cd, 0, 0, norm(f.C.At(t)))
		put(cd, 0, nk, norm(f.D.At(t)))

		var terms []lmi.Term
		if nkNext > 0 {
			terms = append(terms, lmi.Term{
				Var: auxAt(t + 1), Scale: -1,
				Left: transposeBlock(tr), Right: tr,
			})
		}
		if nk > 0 {
			e := zeroBlock(dim, nk)
			put(e, 0, 0, eyeBlock(nk, 1))
			terms = append(terms, lmi.Term{
				Var: auxAt(t), Scale: 1,
				Left: e, Right: transposeBlock(e),
			})
		}
		terms = append(terms, lmi.Term{
			Var: xID, Scale: -1,
			Left: transposeBlock(cd), Right: cd,
		})
		err := prog.AddConstraint(lmi.Constraint{
			Name:  fmt.Sprintf("%s kyp step %d", b.m.Source, t),
			Dim:   dim,
			Terms: terms,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// addStepConstraint builds the dissipation LMI at step t over the variable
// [augmented state; plant input].
func addStepConstraint(
	prog *lmi.Program,
	u *lft.Ulft,
	binds []*binding,
	nAug func(t int) int,
	certAt func(t int) lmi.VarID,
	t int,
	shift float64,
) error {
	sys := u.System()
	np := sys.StateDimAt(t)
	npNext := sys.StateDimAt(t + 1)
	mtot := sys.InputDimAt(t)
	nA := nAug(t)
	nANext := nAug(t + 1)
	dim := nA + mtot
	if dim == 0 {
		return nil
	}

	ap := norm(sys.A.At(t))
	bp := norm(sys.B.At(t))
	cp := norm(sys.C.At(t))
	dp := norm(sys.D.At(t))

	// tr = [Â B̂]: one-step map of the augmented state driven by the plant
	// input. Filter m reads its slice s_m = F_m x + G_m u of the plant
	// boundary signals.
	tr := zeroBlock(nANext, dim)
	put(tr, 0, 0, ap)
	put(tr, 0, nA, bp)

	type filtered struct {
		b *binding
		z *mat.Dense // filter output as a map over [augmented state; input]
	}
	var outs []filtered
	rowOff := npNext
	colOff := np
	for _, b := range binds {
		if b.m.Filter == nil {
			continue
		}
		f := b.m.Filter
		nf := f.StateDimAt(t)
		nfNext := f.StateDimAt(t + 1)
		smW := b.m.SignalWidthAt(t)
		yW := len(b.ySel.At(t))

		sy := selection(b.ySel.At(t), sys.OutputDimAt(t))
		su := selection(b.uSel.At(t), mtot)
		fm := zeroBlock(smW, np)
		put(fm, 0, 0, mulz(sy, cp))
		gm := zeroBlock(smW, mtot)
		put(gm, 0, 0, mulz(sy, dp))
		put(gm, yW, 0, su)

		af := norm(f.A.At(t))
		bf := norm(f.B.At(t))
		cf := norm(f.C.At(t))
		df := norm(f.D.At(t))

		put(tr, rowOff, 0, mulz(bf, fm))
		put(tr, rowOff, colOff, af)
		put(tr, rowOff, nA, mulz(bf, gm))

		zdim := f.OutputDimAt(t)
		z := zeroBlock(zdim, dim)
		put(z, 0, 0, mulz(df, fm))
		put(z, 0, colOff, cf)
		put(z, 0, nA, mulz(df, gm))
		outs = append(outs, filtered{b: b, z: z})

		rowOff += nfNext
		colOff += nf
	}

	fixed := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		fixed.Set(i, i, shift)
	}
	var terms []lmi.Term
	if nANext > 0 {
		terms = append(terms, lmi.Term{
			Var: certAt(t + 1), Scale: 1,
			Left: transposeBlock(tr), Right: tr,
		})
	}
	if nA > 0 {
		e := zeroBlock(dim, nA)
		put(e, 0, 0, eyeBlock(nA, 1))
		terms = append(terms, lmi.Term{
			Var: certAt(t), Scale: -1,
			Left: e, Right: transposeBlock(e),
		})
	}
	for _, fo := range outs {
		if fo.z == nil {
			continue
		}
		zt := transposeBlock(fo.z)
		if fx := norm(fo.b.m.Quad.Fixed.At(t)); fx != nil {
			contrib := mulz(mulz(zt, fx), fo.z)
			fixed.Add(fixed, contrib)
		}
		for _, qt := range fo.b.m.Quad.Terms {
			left := mulz(zt, norm(qt.Left.At(t)))
			right := mulz(norm(qt.Right.At(t)), fo.z)
			if left == nil || right == nil {
				continue
			}
			terms = append(terms, lmi.Term{
				Var: fo.b.vars[qt.Var], Scale: qt.Scale,
				Left: left, Right: right,
			})
		}
	}

	return prog.AddConstraint(lmi.Constraint{
		Name:  fmt.Sprintf("dissipation step %d", t),
		Dim:   dim,
		Fixed: fixed,
		Terms: terms,
	})
}
