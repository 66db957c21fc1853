package ss

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/period"
)

func scalar(v float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{v})
}

// gain builds a memoryless scalar system y = k*u on the default grid.
func gain(t *testing.T, k float64, hp period.HorizonPeriod) *StateSpace {
	t.Helper()
	sys, err := Memoryless(period.Constant(scalar(k), hp), hp)
	if err != nil {
		t.Fatalf("memoryless failed: %v", err)
	}
	return sys
}

// firstOrder builds x[t+1] = a x[t] + u, y = x.
func firstOrder(t *testing.T, a float64) *StateSpace {
	t.Helper()
	hp := period.Default()
	sys, err := New(
		period.Constant(scalar(a), hp),
		period.Constant(scalar(1), hp),
		period.Constant(scalar(1), hp),
		period.Constant(scalar(0), hp),
		hp,
	)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	return sys
}

func TestNewRejectsBadDims(t *testing.T) {
	hp := period.Default()
	a := period.Constant(mat.NewDense(2, 2, nil), hp)
	b := period.Constant(mat.NewDense(1, 1, nil), hp) // wrong rows
	c := period.Constant(mat.NewDense(1, 2, nil), hp)
	d := period.Constant(mat.NewDense(1, 1, nil), hp)

	if _, err := New(a, b, c, d, hp); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestNewRejectsGridMismatch(t *testing.T) {
	hp := period.HorizonPeriod{Horizon: 1, Period: 2}
	good := period.Constant(scalar(0), hp)
	bad := period.Constant(scalar(0), period.Default())

	if _, err := New(bad, good, good, good, hp); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestMemorylessDims(t *testing.T) {
	hp := period.Default()
	sys, err := Memoryless(period.Constant(mat.NewDense(2, 3, nil), hp), hp)
	if err != nil {
		t.Fatalf("memoryless failed: %v", err)
	}
	if sys.StateDimAt(0) != 0 {
		t.Errorf("state dim = %d, want 0", sys.StateDimAt(0))
	}
	if sys.InputDimAt(0) != 3 {
		t.Errorf("input dim = %d, want 3", sys.InputDimAt(0))
	}
	if sys.OutputDimAt(0) != 2 {
		t.Errorf("output dim = %d, want 2", sys.OutputDimAt(0))
	}
}

func TestSeriesOfGains(t *testing.T) {
	hp := period.Default()
	g := gain(t, 2, hp)
	f := gain(t, 3, hp)

	sys, err := Series(g, f)
	if err != nil {
		t.Fatalf("series failed: %v", err)
	}
	if got := sys.D.At(0).At(0, 0); got != 6 {
		t.Errorf("series gain = %f, want 6", got)
	}
}

func TestSumOfGains(t *testing.T) {
	hp := period.Default()
	sys, err := Sum(gain(t, 2, hp), gain(t, 3, hp))
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if got := sys.D.At(0).At(0, 0); got != 5 {
		t.Errorf("sum gain = %f, want 5", got)
	}
}

func TestSeriesWithDynamics(t *testing.T) {
	g := firstOrder(t, 0.5)
	f := gain(t, 2, period.Default())

	sys, err := Series(g, f)
	if err != nil {
		t.Fatalf("series failed: %v", err)
	}
	if sys.StateDimAt(0) != 1 {
		t.Errorf("state dim = %d, want 1", sys.StateDimAt(0))
	}
	// B of the cascade is Bg*Df = 1*2.
	if got := sys.B.At(0).At(0, 0); got != 2 {
		t.Errorf("cascade B = %f, want 2", got)
	}
}

func TestBlkdiagDims(t *testing.T) {
	hp := period.Default()
	sys, err := Blkdiag(gain(t, 1, hp), firstOrder(t, 0.3))
	if err != nil {
		t.Fatalf("blkdiag failed: %v", err)
	}
	if sys.InputDimAt(0) != 2 || sys.OutputDimAt(0) != 2 {
		t.Errorf("dims = (%d, %d), want (2, 2)", sys.InputDimAt(0), sys.OutputDimAt(0))
	}
	if sys.StateDimAt(0) != 1 {
		t.Errorf("state dim = %d, want 1", sys.StateDimAt(0))
	}
	// The memoryless operand occupies the first channel pair: its gain sits
	// at D(0,0) and the stateful operand's maps land in the second slot.
	if got := sys.D.At(0).At(0, 0); got != 1 {
		t.Errorf("D(0,0) = %f, want 1", got)
	}
	if got := sys.B.At(0).At(0, 0); got != 0 {
		t.Errorf("B(0,0) = %f, want 0", got)
	}
	if got := sys.B.At(0).At(0, 1); got != 1 {
		t.Errorf("B(0,1) = %f, want 1", got)
	}
	if got := sys.C.At(0).At(1, 0); got != 1 {
		t.Errorf("C(1,0) = %f, want 1", got)
	}
}

func TestMatchHorizonPeriodPreservesSystem(t *testing.T) {
	sys := firstOrder(t, 0.5)
	target := period.HorizonPeriod{Horizon: 2, Period: 3}

	out, err := sys.MatchHorizonPeriod(target)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if out.HorizonPeriod() != target {
		t.Errorf("grid = %v, want %v", out.HorizonPeriod(), target)
	}
	for tt := 0; tt < 6; tt++ {
		if !mat.Equal(out.A.At(tt), sys.A.At(tt)) {
			t.Errorf("A at step %d changed by resample", tt)
		}
	}
}

func TestEqual(t *testing.T) {
	a := firstOrder(t, 0.5)
	b := firstOrder(t, 0.5)
	c := firstOrder(t, 0.6)

	if !a.Equal(b) {
		t.Error("identical systems should be equal")
	}
	if a.Equal(c) {
		t.Error("different systems should not be equal")
	}
}
