package config

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/Peragore/iqcToolbox/internal/analysis"
	"github.com/Peragore/iqcToolbox/internal/block"
	"github.com/Peragore/iqcToolbox/internal/lft"
	"github.com/Peragore/iqcToolbox/internal/lmi"
	"github.com/Peragore/iqcToolbox/internal/period"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

// Matrix is one dense matrix written row by row.
type Matrix [][]float64

// Config describes an uncertain system and the options of one analysis run.
// Plant matrices are lists with one entry per stored time step; a single
// entry means the matrix is constant over the whole grid.
type Config struct {
	Name    string `yaml:"name"`
	Horizon int    `yaml:"horizon"`
	Period  int    `yaml:"period"`

	System        SystemConfig        `yaml:"system"`
	Uncertainties []UncertaintyConfig `yaml:"uncertainties"`
	Disturbances  []DisturbanceConfig `yaml:"disturbances"`

	Analysis AnalysisConfig `yaml:"analysis"`
}

// SystemConfig is the plant quadruple. A, B and C may be omitted for a
// memoryless plant.
type SystemConfig struct {
	A []Matrix `yaml:"a"`
	B []Matrix `yaml:"b"`
	C []Matrix `yaml:"c"`
	D []Matrix `yaml:"d"`
}

// UncertaintyConfig names one delta block. Kind is "slti", "dlti" or "sltv";
// Bounds supplies per-step gains for the sltv kind.
type UncertaintyConfig struct {
	Name   string    `yaml:"name"`
	Kind   string    `yaml:"kind"`
	Dim    int       `yaml:"dim"`
	Bound  float64   `yaml:"bound"`
	Bounds []float64 `yaml:"bounds"`
}

// DisturbanceConfig names one disturbance characterization. Kind is "l2",
// "constant_window" or "banded_white". Channels selects exogenous input
// indices; empty means all of them.
type DisturbanceConfig struct {
	Name     string  `yaml:"name"`
	Kind     string  `yaml:"kind"`
	Channels []int   `yaml:"channels"`
	Window   []int   `yaml:"window"`
	Pole     float64 `yaml:"pole"`
	Flatness float64 `yaml:"flatness"`
}

// AnalysisConfig mirrors analysis.Options plus the built-in solver knobs.
type AnalysisConfig struct {
	Verbose  bool         `yaml:"verbose"`
	LmiShift float64      `yaml:"lmi_shift"`
	Solver   SolverConfig `yaml:"solver"`
}

type SolverConfig struct {
	MaxIter    int     `yaml:"max_iter"`
	BisectIter int     `yaml:"bisect_iter"`
	Tol        float64 `yaml:"tol"`
	Step       float64 `yaml:"step"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:   "gain",
		Period: 1,
		System: SystemConfig{D: []Matrix{{{2}}}},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Grid resolves the configured time grid, defaulting to [0, 1].
func (c *Config) Grid() period.HorizonPeriod {
	if c.Horizon == 0 && c.Period == 0 {
		return period.Default()
	}
	return period.HorizonPeriod{Horizon: c.Horizon, Period: c.Period}
}

// Build assembles the uncertain system the config describes.
func (c *Config) Build() (*lft.Ulft, error) {
	hp := c.Grid()
	if err := hp.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", c.Name, err)
	}

	a, err := matSeq("a", c.System.A, hp)
	if err != nil {
		return nil, err
	}
	b, err := matSeq("b", c.System.B, hp)
	if err != nil {
		return nil, err
	}
	cm, err := matSeq("c", c.System.C, hp)
	if err != nil {
		return nil, err
	}
	d, err := matSeq("d", c.System.D, hp)
	if err != nil {
		return nil, err
	}
	sys, err := ss.New(a, b, cm, d, hp)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", c.Name, err)
	}

	deltas := make([]block.Delta, 0, len(c.Uncertainties))
	for _, u := range c.Uncertainties {
		delta, err := u.build(hp)
		if err != nil {
			return nil, fmt.Errorf("config %q: %w", c.Name, err)
		}
		deltas = append(deltas, delta)
	}

	dists := make([]block.Disturbance, 0, len(c.Disturbances))
	for _, dc := range c.Disturbances {
		dist, err := dc.build(hp)
		if err != nil {
			return nil, fmt.Errorf("config %q: %w", c.Name, err)
		}
		dists = append(dists, dist)
	}

	return lft.New(sys, deltas, lft.Options{Disturbances: dists})
}

// Options resolves the analysis options, wiring the solver knobs into the
// built-in backend.
func (c *Config) Options() analysis.Options {
	return analysis.Options{
		Verbose:  c.Analysis.Verbose,
		LmiShift: c.Analysis.LmiShift,
		Solver: lmi.NewReference(lmi.Options{
			MaxIter:    c.Analysis.Solver.MaxIter,
			BisectIter: c.Analysis.Solver.BisectIter,
			Tol:        c.Analysis.Solver.Tol,
			Step:       c.Analysis.Solver.Step,
		}),
	}
}

func (u UncertaintyConfig) build(hp period.HorizonPeriod) (block.Delta, error) {
	opts := block.DeltaOptions{Bound: u.Bound, HorizonPeriod: hp}
	switch u.Kind {
	case "", "slti":
		return block.NewDeltaSltiBounded(u.Name, u.Dim, opts)
	case "dlti":
		return block.NewDeltaDltiBounded(u.Name, u.Dim, opts)
	case "sltv":
		var bounds *period.Sequence[float64]
		if u.Bounds != nil {
			seq, err := period.FromFlat(u.Bounds, hp)
			if err != nil {
				return nil, fmt.Errorf("uncertainty %q: bounds: %w", u.Name, err)
			}
			bounds = &seq
		}
		return block.NewDeltaSltvRateBounded(u.Name, u.Dim, bounds, hp)
	default:
		return nil, fmt.Errorf("uncertainty %q: unknown kind %q", u.Name, u.Kind)
	}
}

func (d DisturbanceConfig) build(hp period.HorizonPeriod) (block.Disturbance, error) {
	opts := block.DisturbanceOptions{HorizonPeriod: hp}
	if d.Channels != nil {
		chans := period.Constant(append([]int(nil), d.Channels...), hp)
		opts.Channels = &chans
	}
	switch d.Kind {
	case "", "l2":
		return block.NewDisturbanceL2(d.Name, opts)
	case "constant_window":
		return block.NewDisturbanceConstantWindow(d.Name, d.Window, opts)
	case "banded_white":
		return block.NewDisturbanceBandedWhite(d.Name, d.Pole, d.Flatness, opts)
	default:
		return nil, fmt.Errorf("disturbance %q: unknown kind %q", d.Name, d.Kind)
	}
}

// matSeq lifts a per-step matrix list onto the grid. Zero entries stand for
// an empty matrix, one entry for a constant, otherwise one per stored step.
func matSeq(field string, entries []Matrix, hp period.HorizonPeriod) (period.Sequence[*mat.Dense], error) {
	switch len(entries) {
	case 0:
		return period.Constant(&mat.Dense{}, hp), nil
	case 1:
		m, err := entries[0].dense()
		if err != nil {
			return period.Sequence[*mat.Dense]{}, fmt.Errorf("system %s: %w", field, err)
		}
		return period.Constant(m, hp), nil
	default:
		flat := make([]*mat.Dense, len(entries))
		for i, e := range entries {
			m, err := e.dense()
			if err != nil {
				return period.Sequence[*mat.Dense]{}, fmt.Errorf("system %s[%d]: %w", field, i, err)
			}
			flat[i] = m
		}
		seq, err := period.FromFlat(flat, hp)
		if err != nil {
			return period.Sequence[*mat.Dense]{}, fmt.Errorf("system %s: %w", field, err)
		}
		return seq, nil
	}
}

func (m Matrix) dense() (*mat.Dense, error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return &mat.Dense{}, nil
	}
	cols := len(m[0])
	data := make([]float64, 0, len(m)*cols)
	for i, row := range m {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d entries, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(m), cols, data), nil
}
