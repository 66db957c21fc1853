package lmi

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Options tunes the built-in backend.
type Options struct {
	// MaxIter bounds the subgradient steps per feasibility probe.
	MaxIter int
	// BisectIter bounds the objective bisection.
	BisectIter int
	// Tol is the eigenvalue slack below which a point counts as feasible.
	Tol float64
	// Step scales the Polyak step; values above 1 over-relax.
	Step float64
	// ObjectiveCap aborts the upper-bracket search for the objective.
	ObjectiveCap float64
}

func (o Options) withDefaults() Options {
	if o.MaxIter == 0 {
		o.MaxIter = 600
	}
	if o.BisectIter == 0 {
		o.BisectIter = 40
	}
	if o.Tol == 0 {
		o.Tol = 1e-8
	}
	if o.Step == 0 {
		o.Step = 1.2
	}
	if o.ObjectiveCap == 0 {
		o.ObjectiveCap = 1e9
	}
	return o
}

// Reference is the built-in backend: bisection on the objective wrapped
// around a subgradient descent on the largest constraint eigenvalue.
type Reference struct {
	opts Options
}

// NewReference builds the backend; zero option fields take defaults.
func NewReference(opts Options) *Reference {
	return &Reference{opts: opts.withDefaults()}
}

// Solve implements [Solver].
func (r *Reference) Solve(ctx context.Context, p *Program) (*Solution, error) {
	obj, hasObj := p.Objective()
	if !hasObj {
		vals, phi, err := r.search(ctx, p, nil, nil)
		if err != nil {
			return nil, err
		}
		status := StatusOptimal
		if phi > r.opts.Tol {
			status = StatusInfeasible
		}
		return &Solution{Status: status, Values: vals}, nil
	}

	// Bracket the objective from above by doubling.
	hi := 1.0
	var feasVals map[VarID]*mat.Dense
	for {
		pin := map[VarID]float64{obj.ID: hi}
		vals, phi, err := r.search(ctx, p, pin, feasVals)
		if err != nil {
			return nil, err
		}
		if phi <= r.opts.Tol {
			feasVals = vals
			break
		}
		hi *= 2
		if hi > r.opts.ObjectiveCap {
			return &Solution{Status: StatusInfeasible, Objective: math.Inf(1)}, nil
		}
	}

	lo := 0.0
	for i := 0; i < r.opts.BisectIter; i++ {
		mid := 0.5 * (lo + hi)
		pin := map[VarID]float64{obj.ID: mid}
		vals, phi, err := r.search(ctx, p, pin, feasVals)
		if err != nil {
			return nil, err
		}
		if phi <= r.opts.Tol {
			hi = mid
			feasVals = vals
		} else {
			lo = mid
		}
	}
	feasVals[obj.ID] = mat.NewDense(1, 1, []float64{hi})
	return &Solution{Status: StatusOptimal, Objective: hi, Values: feasVals}, nil
}

// search runs subgradient descent on the worst constraint eigenvalue with
// the pinned variables held fixed, returning the best point found and its
// worst eigenvalue.
func (r *Reference) search(
	ctx context.Context,
	p *Program,
	pin map[VarID]float64,
	warm map[VarID]*mat.Dense,
) (map[VarID]*mat.Dense, float64, error) {

	vals := make(map[VarID]*mat.Dense, len(p.Variables()))
	for _, v := range p.Variables() {
		if w, ok := warm[v.ID]; ok {
			vals[v.ID] = mat.DenseCopyOf(w)
		} else {
			vals[v.ID] = mat.NewDense(v.Rows, v.Cols, nil)
		}
	}
	for id, x := range pin {
		vals[id] = mat.NewDense(1, 1, []float64{x})
	}

	best := cloneValues(vals)
	bestPhi := math.Inf(1)
	for k := 0; k < r.opts.MaxIter; k++ {
		if k%64 == 0 && ctx != nil {
			if err := ctx.Err(); err != nil {
				return nil, 0, solverErr("reference", "canceled after %d iterations: %v", k, err)
			}
		}
		phi, worst, vec := r.worstConstraint(p, vals)
		if phi < bestPhi {
			bestPhi = phi
			best = cloneValues(vals)
		}
		if bestPhi <= r.opts.Tol || worst == nil {
			break
		}
		r.descend(p, vals, pin, *worst, vec, phi)
	}
	return best, bestPhi, nil
}

// worstConstraint returns the largest constraint eigenvalue, the offending
// constraint and its top eigenvector.
func (r *Reference) worstConstraint(p *Program, vals map[VarID]*mat.Dense) (float64, *Constraint, []float64) {
	phi := math.Inf(-1)
	var worst *Constraint
	var vec []float64
	cons := p.Constraints()
	if len(cons) == 0 {
		return 0, nil, nil
	}
	for i := range cons {
		c := &cons[i]
		sym := p.Eval(*c, vals)
		var eig mat.EigenSym
		if !eig.Factorize(sym, true) {
			continue
		}
		ev := eig.Values(nil)
		top := ev[len(ev)-1]
		if top > phi {
			phi = top
			worst = c
			var vecs mat.Dense
			eig.VectorsTo(&vecs)
			vec = make([]float64, c.Dim)
			mat.Col(vec, c.Dim-1, &vecs)
		}
	}
	return phi, worst, vec
}

// descend takes one Polyak subgradient step against the worst constraint:
// the gradient of vᵀ expr v in each free variable, with step length chosen
// to target eigenvalue zero.
func (r *Reference) descend(
	p *Program,
	vals map[VarID]*mat.Dense,
	pin map[VarID]float64,
	c Constraint,
	vec []float64,
	phi float64,
) {
	v := mat.NewVecDense(len(vec), vec)
	grads := make(map[VarID]*mat.Dense)
	for _, term := range c.Terms {
		if _, pinned := pin[term.Var]; pinned {
			continue
		}
		spec := p.Variables()[term.Var]
		g := grads[term.Var]
		if g == nil {
			g = mat.NewDense(spec.Rows, spec.Cols, nil)
			grads[term.Var] = g
		}
		left := term.Left
		if left == nil {
			left = identity(c.Dim)
		}
		right := term.Right
		if right == nil {
			right = identity(c.Dim)
		}
		if spec.Scalar() {
			// d/dx of Scale*x*vᵀ(L R)v.
			lr := mat.NewDense(c.Dim, c.Dim, nil)
			lr.Mul(left, right)
			quad := mat.NewVecDense(c.Dim, nil)
			quad.MulVec(lr, v)
			g.Set(0, 0, g.At(0, 0)+term.Scale*mat.Dot(v, quad))
			continue
		}
		// d/dX of Scale*vᵀ(L X R)v = Scale*(Lᵀv)(Rᵀv)ᵀ.
		_, lc := left.Dims()
		rr, _ := right.Dims()
		lv := mat.NewVecDense(lc, nil)
		lv.MulVec(left.T(), v)
		rv := mat.NewVecDense(rr, nil)
		rv.MulVec(right, v)
		outer := mat.NewDense(lc, rr, nil)
		outer.Outer(term.Scale, lv, rv)
		g.Add(g, outer)
	}

	normSq := 0.0
	for id, g := range grads {
		if p.Variables()[id].Symmetric {
			sym := mat.NewDense(g.RawMatrix().Rows, g.RawMatrix().Cols, nil)
			sym.Add(g, g.T())
			sym.Scale(0.5, sym)
			grads[id] = sym
			g = sym
		}
		f := mat.Norm(g, 2)
		normSq += f * f
	}
	if normSq == 0 {
		return
	}
	step := r.opts.Step * (phi + r.opts.Tol) / normSq
	for id, g := range grads {
		x := vals[id]
		upd := mat.NewDense(g.RawMatrix().Rows, g.RawMatrix().Cols, nil)
		upd.Scale(step, g)
		x.Sub(x, upd)
	}
}

func cloneValues(vals map[VarID]*mat.Dense) map[VarID]*mat.Dense {
	out := make(map[VarID]*mat.Dense, len(vals))
	for id, x := range vals {
		out[id] = mat.DenseCopyOf(x)
	}
	return out
}
