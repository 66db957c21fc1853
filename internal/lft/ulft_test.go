package lft

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/block"
	"github.com/Peragore/iqcToolbox/internal/period"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

// gainUlft builds a certain 1x1 static gain with the default performance.
func gainUlft(t *testing.T, k float64) *Ulft {
	t.Helper()
	hp := period.Default()
	sys, err := ss.Memoryless(period.Constant(mat.NewDense(1, 1, []float64{k}), hp), hp)
	if err != nil {
		t.Fatalf("building gain plant: %v", err)
	}
	u, err := New(sys, nil, Options{})
	if err != nil {
		t.Fatalf("building gain lft: %v", err)
	}
	return u
}

// uncertainFeedthrough builds a 2x2 memoryless plant whose first channel
// pair faces a width-1 uncertainty: v = d, e = w.
func uncertainFeedthrough(t *testing.T, deltaName string) *Ulft {
	t.Helper()
	hp := period.Default()
	d := mat.NewDense(2, 2, []float64{
		0, 1,
		1, 0,
	})
	sys, err := ss.Memoryless(period.Constant(d, hp), hp)
	if err != nil {
		t.Fatalf("building plant: %v", err)
	}
	delta, err := block.NewDeltaSltiBounded(deltaName, 1, block.DeltaOptions{})
	if err != nil {
		t.Fatalf("building delta: %v", err)
	}
	u, err := New(sys, []block.Delta{delta}, Options{})
	if err != nil {
		t.Fatalf("building lft: %v", err)
	}
	return u
}

func TestNewAttachesDefaultPerformance(t *testing.T) {
	u := gainUlft(t, 2)
	perfs := u.Performances()
	if len(perfs) != 1 {
		t.Fatalf("got %d performances, want the default one", len(perfs))
	}
	if perfs[0].Name() != DefaultPerformanceName {
		t.Errorf("default performance name = %q, want %q", perfs[0].Name(), DefaultPerformanceName)
	}
	if u.ExoInWidthAt(0) != 1 || u.ExoOutWidthAt(0) != 1 {
		t.Errorf("exogenous widths = %dx%d, want 1x1",
			u.ExoOutWidthAt(0), u.ExoInWidthAt(0))
	}
}

func TestNewPartitionsChannels(t *testing.T) {
	u := uncertainFeedthrough(t, "unc")
	if u.DeltaInWidthAt(0) != 1 || u.DeltaOutWidthAt(0) != 1 {
		t.Errorf("delta widths = %dx%d, want 1x1", u.DeltaOutWidthAt(0), u.DeltaInWidthAt(0))
	}
	if u.ExoInWidthAt(0) != 1 || u.ExoOutWidthAt(0) != 1 {
		t.Errorf("exogenous widths = %dx%d, want 1x1", u.ExoOutWidthAt(0), u.ExoInWidthAt(0))
	}
	if _, ok := u.DeltaByName("unc"); !ok {
		t.Error("delta lookup by name failed")
	}
}

func TestNewRejectsOversizedDelta(t *testing.T) {
	hp := period.Default()
	sys, err := ss.Memoryless(period.Constant(mat.NewDense(1, 1, []float64{1}), hp), hp)
	if err != nil {
		t.Fatal(err)
	}
	delta, err := block.NewDeltaSltiBounded("big", 3, block.DeltaOptions{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = New(sys, []block.Delta{delta}, Options{})
	if !errors.Is(err, ErrIncompatibleSpecification) {
		t.Fatalf("got %v, want incompatible-specification error", err)
	}
}

func TestNewReconcilesHorizonPeriods(t *testing.T) {
	hp := period.Default()
	d := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	sys, err := ss.Memoryless(period.Constant(d, hp), hp)
	if err != nil {
		t.Fatal(err)
	}
	sltvHP := period.HorizonPeriod{Horizon: 1, Period: 3}
	bounds := period.Constant(2.0, sltvHP)
	delta, err := block.NewDeltaSltvRateBounded("tv", 1, &bounds, sltvHP)
	if err != nil {
		t.Fatal(err)
	}
	u, err := New(sys, []block.Delta{delta}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if u.HorizonPeriod() != sltvHP {
		t.Errorf("merged horizon_period = %v, want %v", u.HorizonPeriod(), sltvHP)
	}
	if got := u.System().HorizonPeriod(); got != sltvHP {
		t.Errorf("plant grid = %v, want %v", got, sltvHP)
	}
}

func TestAddDeltaIdempotent(t *testing.T) {
	u := uncertainFeedthrough(t, "unc")
	delta, err := block.NewDeltaSltiBounded("unc", 1, block.DeltaOptions{})
	if err != nil {
		t.Fatal(err)
	}
	again, err := u.AddDelta(delta)
	if err != nil {
		t.Fatalf("duplicate add failed: %v", err)
	}
	if !again.Equal(u) {
		t.Error("adding an identical delta should be a no-op")
	}
}

func TestAddDeltaNameCollision(t *testing.T) {
	u := uncertainFeedthrough(t, "unc")
	other, err := block.NewDeltaSltiBounded("unc", 1, block.DeltaOptions{Bound: 2})
	if err != nil {
		t.Fatal(err)
	}
	_, err = u.AddDelta(other)
	if !errors.Is(err, ErrIncompatibleSpecification) {
		t.Fatalf("got %v, want incompatible-specification error", err)
	}
	var spec *IncompatibleSpecificationError
	if !errors.As(err, &spec) || spec.Block != "unc" {
		t.Errorf("error should name the colliding block, got %v", err)
	}
}

func TestAddDisturbanceChecksChannels(t *testing.T) {
	u := gainUlft(t, 1)
	chans := period.Constant([]int{4}, period.Default())
	dist, err := block.NewDisturbanceL2("d", block.DisturbanceOptions{Channels: &chans})
	if err != nil {
		t.Fatal(err)
	}
	_, err = u.AddDisturbance(dist)
	if !errors.Is(err, ErrIncompatibleSpecification) {
		t.Fatalf("got %v, want incompatible-specification error", err)
	}
}

func TestAddDisturbanceIdempotent(t *testing.T) {
	u := gainUlft(t, 1)
	dist, err := block.NewDisturbanceL2("d", block.DisturbanceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	once, err := u.AddDisturbance(dist)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := once.AddDisturbance(dist)
	if err != nil {
		t.Fatalf("duplicate add failed: %v", err)
	}
	if !twice.Equal(once) {
		t.Error("adding an identical disturbance should be a no-op")
	}
}

func TestAddPerformanceCollision(t *testing.T) {
	u := gainUlft(t, 1)
	outSel := period.Constant([]int{0}, period.Default())
	perf, err := block.NewPerformanceL2Gain(DefaultPerformanceName, block.PerformanceOptions{
		OutChannels: &outSel,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Same name as the auto-attached objective, different selector.
	_, err = u.AddPerformance(perf)
	if !errors.Is(err, ErrIncompatibleSpecification) {
		t.Fatalf("got %v, want incompatible-specification error", err)
	}
}

func TestAddPerformanceIncompatibleGrid(t *testing.T) {
	hp := period.HorizonPeriod{Horizon: 1, Period: 4}
	sys, err := ss.Memoryless(period.Constant(mat.NewDense(1, 1, []float64{1}), hp), hp)
	if err != nil {
		t.Fatal(err)
	}
	u, err := New(sys, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	// A period of 5 cannot be re-indexed onto the plant's period of 4.
	perf, err := block.NewPerformanceL2Gain("a", block.PerformanceOptions{
		HorizonPeriod: period.HorizonPeriod{Horizon: 1, Period: 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = u.AddPerformance(perf)
	if !errors.Is(err, ErrIncompatibleSpecification) {
		t.Fatalf("got %v, want incompatible-specification error", err)
	}
	var spec *IncompatibleSpecificationError
	if !errors.As(err, &spec) || spec.Block != "a" {
		t.Errorf("error should name the misaligned block, got %v", err)
	}
}

func TestMatchHorizonPeriodRoundTrip(t *testing.T) {
	u := uncertainFeedthrough(t, "unc")
	fine, err := u.MatchHorizonPeriod(period.HorizonPeriod{Horizon: 2, Period: 3})
	if err != nil {
		t.Fatal(err)
	}
	back, err := fine.MatchHorizonPeriod(u.HorizonPeriod())
	if err != nil {
		t.Fatalf("coarsening back failed: %v", err)
	}
	if !back.Equal(u) {
		t.Error("refine then coarsen should restore the original lft")
	}
}
