package lmi

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// VarID identifies a decision variable within one Program.
type VarID int

// Variable is one decision-variable block.
type Variable struct {
	ID        VarID
	Name      string
	Rows      int
	Cols      int
	Symmetric bool
}

// Scalar reports whether the variable is a single entry.
func (v Variable) Scalar() bool { return v.Rows == 1 && v.Cols == 1 }

// Term is one affine contribution to a constraint: Scale * L * X * R for a
// matrix variable, and Scale * x * (L * R) for a scalar one. A nil L or R
// means identity of the constraint dimension.
type Term struct {
	Var   VarID
	Scale float64
	Left  *mat.Dense
	Right *mat.Dense
}

// Constraint requires fixed + sum of terms, symmetrized, to be negative
// semidefinite. A nil Fixed is zero.
type Constraint struct {
	Name  string
	Dim   int
	Fixed *mat.Dense
	Terms []Term
}

// Program is a semidefinite program: variables, ⪯ 0 constraints, and at
// most one scalar objective variable to minimize.
type Program struct {
	vars      []Variable
	cons      []Constraint
	objective VarID
}

// NewProgram returns an empty program with no objective.
func NewProgram() *Program {
	return &Program{objective: -1}
}

// AddVariable declares a decision block and returns its handle.
func (p *Program) AddVariable(name string, rows, cols int, symmetric bool) (VarID, error) {
	if rows <= 0 || cols <= 0 {
		return -1, fmt.Errorf("lmi: variable %q must have positive dimensions, got %dx%d", name, rows, cols)
	}
	if symmetric && rows != cols {
		return -1, fmt.Errorf("lmi: symmetric variable %q must be square, got %dx%d", name, rows, cols)
	}
	id := VarID(len(p.vars))
	p.vars = append(p.vars, Variable{ID: id, Name: name, Rows: rows, Cols: cols, Symmetric: symmetric})
	return id, nil
}

// SetObjective marks a scalar variable for minimization.
func (p *Program) SetObjective(id VarID) error {
	v, err := p.variable(id)
	if err != nil {
		return err
	}
	if !v.Scalar() {
		return fmt.Errorf("lmi: objective %q must be scalar, got %dx%d", v.Name, v.Rows, v.Cols)
	}
	p.objective = id
	return nil
}

// Objective returns the objective variable, if one is set.
func (p *Program) Objective() (Variable, bool) {
	if p.objective < 0 {
		return Variable{}, false
	}
	return p.vars[p.objective], true
}

// AddConstraint shape-checks and appends one ⪯ 0 constraint.
func (p *Program) AddConstraint(c Constraint) error {
	if c.Dim <= 0 {
		return fmt.Errorf("lmi: constraint %q must have positive dimension, got %d", c.Name, c.Dim)
	}
	if c.Fixed != nil && !c.Fixed.IsEmpty() {
		if r, cc := c.Fixed.Dims(); r != c.Dim || cc != c.Dim {
			return fmt.Errorf("lmi: constraint %q fixed part is %dx%d, want %dx%d", c.Name, r, cc, c.Dim, c.Dim)
		}
	}
	for i, term := range c.Terms {
		v, err := p.variable(term.Var)
		if err != nil {
			return fmt.Errorf("lmi: constraint %q term %d: %w", c.Name, i, err)
		}
		lr, lc := c.Dim, v.Rows
		if term.Left != nil {
			lr, lc = term.Left.Dims()
		}
		rr, rc := v.Cols, c.Dim
		if term.Right != nil {
			rr, rc = term.Right.Dims()
		}
		if lr != c.Dim || rc != c.Dim {
			return fmt.Errorf("lmi: constraint %q term %d maps to %dx%d, want %dx%d", c.Name, i, lr, rc, c.Dim, c.Dim)
		}
		if v.Scalar() {
			if lc != rr {
				return fmt.Errorf("lmi: constraint %q term %d: scalar placement %dx%d times %dx%d does not compose",
					c.Name, i, lr, lc, rr, rc)
			}
		} else if lc != v.Rows || rr != v.Cols {
			return fmt.Errorf("lmi: constraint %q term %d: variable %q is %dx%d, placement expects %dx%d",
				c.Name, i, v.Name, v.Rows, v.Cols, lc, rr)
		}
	}
	p.cons = append(p.cons, c)
	return nil
}

// Variables returns the declared variables; callers must not mutate.
func (p *Program) Variables() []Variable { return p.vars }

// Constraints returns the declared constraints; callers must not mutate.
func (p *Program) Constraints() []Constraint { return p.cons }

func (p *Program) variable(id VarID) (Variable, error) {
	if id < 0 || int(id) >= len(p.vars) {
		return Variable{}, fmt.Errorf("lmi: unknown variable %d", id)
	}
	return p.vars[id], nil
}

// Eval computes the symmetrized value of constraint c at the given variable
// assignment. Missing assignments count as zero.
func (p *Program) Eval(c Constraint, values map[VarID]*mat.Dense) *mat.SymDense {
	acc := mat.NewDense(c.Dim, c.Dim, nil)
	if c.Fixed != nil && !c.Fixed.IsEmpty() {
		acc.Copy(c.Fixed)
	}
	for _, term := range c.Terms {
		x, ok := values[term.Var]
		if !ok || x.IsEmpty() {
			continue
		}
		v := p.vars[term.Var]
		contrib := p.termValue(c.Dim, term, v, x)
		acc.Add(acc, contrib)
	}
	sym := mat.NewSymDense(c.Dim, nil)
	for i := 0; i < c.Dim; i++ {
		for j := i; j < c.Dim; j++ {
			sym.SetSym(i, j, 0.5*(acc.At(i, j)+acc.At(j, i)))
		}
	}
	return sym
}

func (p *Program) termValue(dim int, term Term, v Variable, x *mat.Dense) *mat.Dense {
	left := term.Left
	if left == nil {
		left = identity(dim)
	}
	right := term.Right
	if right == nil {
		right = identity(dim)
	}
	out := mat.NewDense(dim, dim, nil)
	if v.Scalar() {
		out.Mul(left, right)
		out.Scale(term.Scale*x.At(0, 0), out)
		return out
	}
	lr, _ := left.Dims()
	_, xc := x.Dims()
	lx := mat.NewDense(lr, xc, nil)
	lx.Mul(left, x)
	out.Mul(lx, right)
	out.Scale(term.Scale, out)
	return out
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
