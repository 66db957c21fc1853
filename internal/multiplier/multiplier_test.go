package multiplier

import (
	"errors"
	"testing"

	"github.com/Peragore/iqcToolbox/internal/period"
)

func TestNewSltiBoundedDefaults(t *testing.T) {
	hp := period.Default()
	m, err := NewSltiBounded("a", 2, 1, hp, SltiOptions{})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	if m.Source != "a" {
		t.Errorf("source = %q, want %q", m.Source, "a")
	}
	// Default basis length 2 over dimension 2 gives a 4-wide filtered
	// signal per side.
	if m.Filter.OutputDimAt(0) != 8 {
		t.Errorf("filter outputs = %d, want 8", m.Filter.OutputDimAt(0))
	}
	if m.Filter.InputDimAt(0) != 4 {
		t.Errorf("filter inputs = %d, want 4", m.Filter.InputDimAt(0))
	}
	if len(m.Vars) != 1 || m.Vars[0].Rows != 4 || !m.Vars[0].Symmetric {
		t.Errorf("unexpected variable spec %+v", m.Vars)
	}
	if len(m.Constraints) != 1 || m.Constraints[0].Kind != VarPosSemidef {
		t.Errorf("unexpected constraints %+v", m.Constraints)
	}
}

func TestNewSltiBoundedKYP(t *testing.T) {
	m, err := NewSltiBounded("a", 1, 2, period.Default(), SltiOptions{ConstraintQ11KYP: true})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if len(m.Constraints) != 1 || m.Constraints[0].Kind != VarKYP {
		t.Fatalf("expected KYP constraint, got %+v", m.Constraints)
	}
	if m.Constraints[0].Filter == nil {
		t.Error("KYP constraint carries no filter realization")
	}
}

func TestNewSltiBoundedRejects(t *testing.T) {
	hp := period.Default()
	tests := []struct {
		name  string
		run   func() error
		pole  bool
	}{
		{"empty name", func() error {
			_, err := NewSltiBounded("", 1, 1, hp, SltiOptions{})
			return err
		}, false},
		{"zero dimension", func() error {
			_, err := NewSltiBounded("a", 0, 1, hp, SltiOptions{})
			return err
		}, false},
		{"negative bound", func() error {
			_, err := NewSltiBounded("a", 1, -1, hp, SltiOptions{})
			return err
		}, false},
		{"unstable basis pole", func() error {
			spec := BasisSpec{Poles: []PoleGroup{{complex(2, 0)}}, Length: 2, Discrete: true}
			_, err := NewSltiBounded("a", 1, 1, hp, SltiOptions{Basis: &spec})
			return err
		}, true},
		{"continuous pole in discrete basis", func() error {
			spec := BasisSpec{Poles: []PoleGroup{{complex(-2, 0)}}, Length: 2, Discrete: true}
			_, err := NewSltiBounded("a", 1, 1, hp, SltiOptions{Basis: &spec})
			return err
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.pole && !errors.Is(err, ErrPoleConstraint) {
				t.Errorf("expected ErrPoleConstraint, got %v", err)
			}
		})
	}
}

func TestNewConstantWindow(t *testing.T) {
	hp := period.HorizonPeriod{Horizon: 1, Period: 3}
	m, err := NewConstantWindow("d", 2, hp, []int{1, 2})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if len(m.Vars) != 2 {
		t.Fatalf("expected one weight per window step, got %d", len(m.Vars))
	}
	for _, c := range m.Constraints {
		if c.Kind != VarPosSemidef {
			t.Errorf("window weight must be nonnegative, got kind %d", c.Kind)
		}
	}
	// The difference filter holds one step of memory per channel.
	if m.Filter.StateDimAt(0) != 2 {
		t.Errorf("filter state dim = %d, want 2", m.Filter.StateDimAt(0))
	}
}

func TestNewConstantWindowRejectsOutOfRange(t *testing.T) {
	hp := period.HorizonPeriod{Horizon: 0, Period: 2}
	if _, err := NewConstantWindow("d", 1, hp, []int{5}); err == nil {
		t.Error("expected error for window step outside grid, got nil")
	}
	if _, err := NewConstantWindow("d", 1, hp, nil); err == nil {
		t.Error("expected error for empty window, got nil")
	}
}

func TestNewBandedWhite(t *testing.T) {
	m, err := NewBandedWhite("w", 1, period.Default(), BandedWhiteOptions{})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if m.Filter.OutputDimAt(0) != 2 {
		t.Errorf("probe outputs = %d, want 2", m.Filter.OutputDimAt(0))
	}
	if len(m.Quad.Terms) != 2 {
		t.Errorf("expected two quad terms, got %d", len(m.Quad.Terms))
	}
}

func TestNewBandedWhiteRejectsUnstableProbe(t *testing.T) {
	_, err := NewBandedWhite("w", 1, period.Default(), BandedWhiteOptions{Pole: 1.1})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrPoleConstraint) {
		t.Errorf("expected ErrPoleConstraint, got %v", err)
	}
}

func TestNewL2GainObjective(t *testing.T) {
	hp := period.Default()
	m, err := NewL2Gain("perf", period.Constant(1, hp), period.Constant(2, hp), hp)
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if len(m.Vars) != 1 || !m.Vars[0].Objective {
		t.Fatalf("expected a single objective variable, got %+v", m.Vars)
	}
	// The fixed part weights the error channel only.
	f := m.Quad.Fixed.At(0)
	if f.At(0, 0) != 1 || f.At(1, 1) != 0 || f.At(2, 2) != 0 {
		t.Errorf("unexpected fixed quad %v", f.RawMatrix().Data)
	}
}

func TestNewL2DisturbanceIsEmpty(t *testing.T) {
	m, err := NewL2("d", period.Constant(3, period.Default()), period.Default())
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if !m.Empty() {
		t.Error("unconstrained disturbance should contribute no filter")
	}
}

func TestMatchHorizonPeriodRoundTrips(t *testing.T) {
	hp := period.Default()
	m, err := NewSltiBounded("a", 1, 1, hp, SltiOptions{})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	target := period.HorizonPeriod{Horizon: 2, Period: 2}
	out, err := m.MatchHorizonPeriod(target)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if out.HorizonPeriod() != target {
		t.Errorf("grid = %v, want %v", out.HorizonPeriod(), target)
	}
	if out.SignalWidthAt(3) != m.SignalWidthAt(3) {
		t.Error("signal width changed by resample")
	}
}
