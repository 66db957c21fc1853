package block

import (
	"errors"
	"testing"

	"github.com/Peragore/iqcToolbox/internal/period"
)

func TestDeltaSltiBoundedDefaults(t *testing.T) {
	d, err := NewDeltaSltiBounded("a", 2, DeltaOptions{})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if d.Bound() != 1 {
		t.Errorf("default bound = %v, want 1", d.Bound())
	}
	if d.HorizonPeriod() != period.Default() {
		t.Errorf("default horizon_period = %v, want [0, 1]", d.HorizonPeriod())
	}
	dims := d.InDims()
	if dims.At(0) != 2 || dims.At(5) != 2 {
		t.Error("dimension sequence should be constant 2")
	}
}

func TestDeltaConstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
	}{
		{"empty name", func() error {
			_, err := NewDeltaSltiBounded("", 1, DeltaOptions{})
			return err
		}},
		{"zero dim", func() error {
			_, err := NewDeltaSltiBounded("a", 0, DeltaOptions{})
			return err
		}},
		{"negative bound", func() error {
			_, err := NewDeltaSltiBounded("a", 1, DeltaOptions{Bound: -2})
			return err
		}},
		{"invalid horizon_period", func() error {
			_, err := NewDeltaDltiBounded("a", 1, DeltaOptions{
				HorizonPeriod: period.HorizonPeriod{Horizon: -1, Period: 2},
			})
			return err
		}},
		{"sltv bad bound", func() error {
			hp := period.HorizonPeriod{Horizon: 0, Period: 2}
			bounds, _ := period.FromFlat([]float64{1, -1}, hp)
			_, err := NewDeltaSltvRateBounded("a", 1, &bounds, hp)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrConstruction) {
				t.Errorf("expected ErrConstruction, got %v", err)
			}
		})
	}
}

func TestBandedWhiteConstructionErrors(t *testing.T) {
	tests := []struct {
		name     string
		pole     float64
		flatness float64
	}{
		{"unstable pole", 1.5, 1},
		{"pole on the circle", 1, 1},
		{"negative flatness", 0.5, -0.3},
		{"flatness above one", 0.5, 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDisturbanceBandedWhite("d", tt.pole, tt.flatness, DisturbanceOptions{})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrConstruction) {
				t.Errorf("expected ErrConstruction, got %v", err)
			}
		})
	}
}

func TestDeltaMatchHorizonPeriodRoundTrip(t *testing.T) {
	// Refinement and back must be a no-op on all declared attributes.
	hp := period.HorizonPeriod{Horizon: 1, Period: 2}
	bounds, err := period.FromFlat([]float64{2, 1, 3}, hp)
	if err != nil {
		t.Fatalf("bounds failed: %v", err)
	}
	d, err := NewDeltaSltvRateBounded("a", 2, &bounds, hp)
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	refined, err := d.MatchHorizonPeriod(period.HorizonPeriod{Horizon: 3, Period: 4})
	if err != nil {
		t.Fatalf("refine failed: %v", err)
	}
	back, err := refined.MatchHorizonPeriod(hp)
	if err != nil {
		t.Fatalf("coarsen failed: %v", err)
	}
	if !back.Equal(d) {
		t.Error("refinement and back changed the block")
	}
}

func TestDeltaEqualAcrossVariants(t *testing.T) {
	a, _ := NewDeltaSltiBounded("a", 1, DeltaOptions{})
	b, _ := NewDeltaDltiBounded("a", 1, DeltaOptions{})
	if a.Equal(b) {
		t.Error("different variants with identical fields must not be equal")
	}
}

func TestDeltaToMultiplier(t *testing.T) {
	d, _ := NewDeltaSltiBounded("a", 2, DeltaOptions{Bound: 0.5})
	hp := d.HorizonPeriod()
	m, err := d.ToMultiplier(MultiplierRequest{
		Discrete: true,
		OutDims:  period.Constant(2, hp),
		InDims:   period.Constant(2, hp),
	})
	if err != nil {
		t.Fatalf("to multiplier failed: %v", err)
	}
	if m.Source != "a" {
		t.Errorf("source = %q, want %q", m.Source, "a")
	}
	if m.Empty() {
		t.Error("bounded delta multiplier must constrain")
	}
}

func TestDisturbanceL2ToMultiplierIsEmpty(t *testing.T) {
	d, err := NewDisturbanceL2("d", DisturbanceOptions{})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	m, err := d.ToMultiplier(MultiplierRequest{
		Discrete: true,
		InDims:   period.Constant(1, d.HorizonPeriod()),
	})
	if err != nil {
		t.Fatalf("to multiplier failed: %v", err)
	}
	if !m.Empty() {
		t.Error("l2 disturbance should produce an empty multiplier")
	}
}

func TestConstantWindowResampleKeepsWindowSemantics(t *testing.T) {
	hp := period.HorizonPeriod{Horizon: 0, Period: 2}
	d, err := NewDisturbanceConstantWindow("d", []int{1}, DisturbanceOptions{HorizonPeriod: hp})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	out, err := d.MatchHorizonPeriod(period.HorizonPeriod{Horizon: 0, Period: 4})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	cw := out.(*DisturbanceConstantWindow)
	if !intsEqual(cw.Window(), []int{1, 3}) {
		t.Errorf("window = %v, want [1 3]", cw.Window())
	}
}

func TestPerformanceL2GainChannels(t *testing.T) {
	hp := period.Default()
	sel := period.Constant([]int{0, 2}, hp)
	p, err := NewPerformanceL2Gain("perf", PerformanceOptions{OutChannels: &sel})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if got := p.OutChannels().At(0); !intsEqual(got, []int{0, 2}) {
		t.Errorf("out channels = %v, want [0 2]", got)
	}
	if got := p.InChannels().At(0); got != nil {
		t.Errorf("in channels = %v, want all-channel selector", got)
	}
}

func TestPerformanceEqualStructural(t *testing.T) {
	hpA := period.HorizonPeriod{Horizon: 1, Period: 5}
	hpB := period.HorizonPeriod{Horizon: 1, Period: 4}
	a, _ := NewPerformanceL2Gain("a", PerformanceOptions{HorizonPeriod: hpA})
	b, _ := NewPerformanceL2Gain("a", PerformanceOptions{HorizonPeriod: hpB})
	if a.Equal(b) {
		t.Error("performances on different grids must not be equal")
	}
}
