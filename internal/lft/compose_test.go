package lft

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/block"
	"github.com/Peragore/iqcToolbox/internal/period"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

func newMemoryless(t *testing.T, d *mat.Dense, hp period.HorizonPeriod) (*Ulft, error) {
	t.Helper()
	sys, err := ss.Memoryless(period.Constant(d, hp), hp)
	if err != nil {
		t.Fatal(err)
	}
	return New(sys, nil, Options{})
}

func feedthrough(t *testing.T, u *Ulft) float64 {
	t.Helper()
	p := u.partsAt(0)
	if p.e != 1 || p.d != 1 {
		t.Fatalf("expected 1x1 exogenous feedthrough, got %dx%d", p.e, p.d)
	}
	return p.Ded.At(0, 0)
}

func TestAddSumsGains(t *testing.T) {
	sum, err := Add(gainUlft(t, 2), gainUlft(t, 3))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if got := feedthrough(t, sum); got != 5 {
		t.Errorf("parallel gain = %v, want 5", got)
	}
	if len(sum.Performances()) != 1 {
		t.Errorf("got %d performances, want the merged default", len(sum.Performances()))
	}
}

func TestSeriesMultipliesGains(t *testing.T) {
	prod, err := Series(gainUlft(t, 2), gainUlft(t, 3))
	if err != nil {
		t.Fatalf("series failed: %v", err)
	}
	if got := feedthrough(t, prod); got != 6 {
		t.Errorf("cascade gain = %v, want 6", got)
	}
}

func TestSeriesKeepsUpstreamDisturbances(t *testing.T) {
	up := gainUlft(t, 3)
	dist, err := block.NewDisturbanceL2("din", block.DisturbanceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	up, err = up.AddDisturbance(dist)
	if err != nil {
		t.Fatal(err)
	}
	prod, err := Series(gainUlft(t, 2), up)
	if err != nil {
		t.Fatal(err)
	}
	dists := prod.Disturbances()
	if len(dists) != 1 || dists[0].Name() != "din" {
		t.Fatalf("upstream disturbance should survive the cascade, got %v", dists)
	}
	perfs := prod.Performances()
	if len(perfs) != 1 || perfs[0].Name() != DefaultPerformanceName {
		t.Errorf("cascade should carry a fresh default objective, got %v", perfs)
	}
}

func TestSeriesDimensionMismatch(t *testing.T) {
	hp := period.Default()
	tall, err := newMemoryless(t, mat.NewDense(2, 1, []float64{1, 1}), hp)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Series(gainUlft(t, 2), tall)
	if err == nil {
		t.Fatal("cascading a 1-input system after a 2-output one should fail")
	}
	if !errors.Is(err, ErrIncompatibleSpecification) {
		t.Fatalf("got %v, want incompatible-specification error", err)
	}
}

func TestBlkdiagStacksAndShiftsSelectors(t *testing.T) {
	u1 := gainUlft(t, 2)
	u2 := gainUlft(t, 3)
	dist, err := block.NewDisturbanceL2("d2", block.DisturbanceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	u2, err = u2.AddDisturbance(dist)
	if err != nil {
		t.Fatal(err)
	}

	both, err := Blkdiag(u1, u2)
	if err != nil {
		t.Fatalf("blkdiag failed: %v", err)
	}
	if both.ExoInWidthAt(0) != 2 || both.ExoOutWidthAt(0) != 2 {
		t.Fatalf("exogenous widths = %dx%d, want 2x2",
			both.ExoOutWidthAt(0), both.ExoInWidthAt(0))
	}
	d := both.System().D.At(0)
	if d.At(0, 0) != 2 || d.At(1, 1) != 3 || d.At(0, 1) != 0 || d.At(1, 0) != 0 {
		t.Errorf("feedthrough = %v, want diag(2, 3)", mat.Formatted(d))
	}

	var shifted block.Disturbance
	for _, x := range both.Disturbances() {
		if x.Name() == "d2" {
			shifted = x
		}
	}
	if shifted == nil {
		t.Fatal("second operand's disturbance missing")
	}
	chans := shifted.Channels().At(0)
	if len(chans) != 1 || chans[0] != 1 {
		t.Errorf("shifted selector = %v, want [1]", chans)
	}
}

func TestBlkdiagShiftsPerformanceSelectors(t *testing.T) {
	u2 := gainUlft(t, 3)
	perf, err := block.NewPerformanceL2Gain("obj2", block.PerformanceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	u2, err = u2.AddPerformance(perf)
	if err != nil {
		t.Fatal(err)
	}
	both, err := Blkdiag(gainUlft(t, 2), u2)
	if err != nil {
		t.Fatal(err)
	}
	p, ok := func() (block.Performance, bool) {
		for _, x := range both.Performances() {
			if x.Name() == "obj2" {
				return x, true
			}
		}
		return nil, false
	}()
	if !ok {
		t.Fatal("second operand's objective missing")
	}
	if out := p.OutChannels().At(0); len(out) != 1 || out[0] != 1 {
		t.Errorf("shifted output selector = %v, want [1]", out)
	}
	if in := p.InChannels().At(0); len(in) != 1 || in[0] != 1 {
		t.Errorf("shifted input selector = %v, want [1]", in)
	}
}

func TestComposeRejectsSharedDeltaNames(t *testing.T) {
	u1 := uncertainFeedthrough(t, "unc")
	u2 := uncertainFeedthrough(t, "unc")
	_, err := Blkdiag(u1, u2)
	if !errors.Is(err, ErrIncompatibleSpecification) {
		t.Fatalf("got %v, want incompatible-specification error", err)
	}
}

func TestAddDimensionMismatch(t *testing.T) {
	hp := period.Default()
	wide, err := newMemoryless(t, mat.NewDense(1, 2, []float64{1, 1}), hp)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Add(gainUlft(t, 1), wide)
	if !errors.Is(err, ErrIncompatibleSpecification) {
		t.Fatalf("got %v, want incompatible-specification error", err)
	}
}
