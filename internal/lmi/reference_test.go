package lmi

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestProgramShapeChecks(t *testing.T) {
	p := NewProgram()
	if _, err := p.AddVariable("bad", 0, 1, false); err == nil {
		t.Error("zero-dimension variable should be rejected")
	}
	if _, err := p.AddVariable("rect", 2, 3, true); err == nil {
		t.Error("rectangular symmetric variable should be rejected")
	}
	x, err := p.AddVariable("x", 2, 2, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetObjective(x); err == nil {
		t.Error("matrix objective should be rejected")
	}
	err = p.AddConstraint(Constraint{
		Name: "bad placement",
		Dim:  3,
		Terms: []Term{{
			Var:   x,
			Scale: 1,
			Left:  mat.NewDense(3, 2, nil),
			Right: mat.NewDense(3, 3, nil), // variable is 2x2
		}},
	})
	if err == nil {
		t.Error("mismatched placement should be rejected")
	}
}

func TestReferenceScalarBound(t *testing.T) {
	p := NewProgram()
	gain, err := p.AddVariable("gain_sq", 1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetObjective(gain); err != nil {
		t.Fatal(err)
	}
	// 4 - gain_sq <= 0, so the minimum is 4.
	err = p.AddConstraint(Constraint{
		Name:  "bound",
		Dim:   1,
		Fixed: mat.NewDense(1, 1, []float64{4}),
		Terms: []Term{{Var: gain, Scale: -1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	sol, err := NewReference(Options{}).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("status = %v, want optimal", sol.Status)
	}
	if math.Abs(sol.Objective-4) > 1e-6 {
		t.Errorf("objective = %v, want 4", sol.Objective)
	}
}

func TestReferenceFeasibilitySearch(t *testing.T) {
	p := NewProgram()
	x, err := p.AddVariable("x", 2, 2, true)
	if err != nil {
		t.Fatal(err)
	}
	// I - X <= 0 forces X >= I, strictly feasible at any X = aI, a > 1.
	err = p.AddConstraint(Constraint{
		Name:  "lower",
		Dim:   2,
		Fixed: identity(2),
		Terms: []Term{{Var: x, Scale: -1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	sol, err := NewReference(Options{}).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("status = %v, want optimal", sol.Status)
	}
	got := sol.Values[x]
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(got.At(i, j)-want) > 0.3 {
				t.Errorf("X[%d,%d] = %v, want near %v", i, j, got.At(i, j), want)
			}
		}
	}
}

func TestReferenceCoupledObjective(t *testing.T) {
	p := NewProgram()
	x, err := p.AddVariable("x", 2, 2, true)
	if err != nil {
		t.Fatal(err)
	}
	gain, err := p.AddVariable("gain_sq", 1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetObjective(gain); err != nil {
		t.Fatal(err)
	}
	// I <= X <= gain*I, so the smallest admissible gain is 1.
	if err := p.AddConstraint(Constraint{
		Name:  "lower",
		Dim:   2,
		Fixed: identity(2),
		Terms: []Term{{Var: x, Scale: -1}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := p.AddConstraint(Constraint{
		Name: "upper",
		Dim:  2,
		Terms: []Term{
			{Var: x, Scale: 1},
			{Var: gain, Scale: -1},
		},
	}); err != nil {
		t.Fatal(err)
	}

	sol, err := NewReference(Options{}).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("status = %v, want optimal", sol.Status)
	}
	if sol.Objective < 1-1e-6 {
		t.Errorf("objective %v undercuts the true minimum 1", sol.Objective)
	}
	if sol.Objective > 1.2 {
		t.Errorf("objective = %v, want near 1", sol.Objective)
	}
}

func TestReferenceInfeasible(t *testing.T) {
	p := NewProgram()
	x, err := p.AddVariable("x", 1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	// x <= -1 and x >= 1 cannot both hold.
	if err := p.AddConstraint(Constraint{
		Name:  "low",
		Dim:   1,
		Fixed: mat.NewDense(1, 1, []float64{1}),
		Terms: []Term{{Var: x, Scale: 1}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := p.AddConstraint(Constraint{
		Name:  "high",
		Dim:   1,
		Fixed: mat.NewDense(1, 1, []float64{1}),
		Terms: []Term{{Var: x, Scale: -1}},
	}); err != nil {
		t.Fatal(err)
	}

	sol, err := NewReference(Options{MaxIter: 200}).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if sol.Status != StatusInfeasible {
		t.Errorf("status = %v, want infeasible", sol.Status)
	}
}

func TestReferenceCanceled(t *testing.T) {
	p := NewProgram()
	x, err := p.AddVariable("x", 4, 4, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.AddConstraint(Constraint{
		Name:  "lower",
		Dim:   4,
		Fixed: identity(4),
		Terms: []Term{{Var: x, Scale: -1}},
	}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewReference(Options{}).Solve(ctx, p)
	if !errors.Is(err, ErrSolver) {
		t.Fatalf("got %v, want solver error after cancellation", err)
	}
}
