package block

import (
	"math"

	"github.com/Peragore/iqcToolbox/internal/multiplier"
	"github.com/Peragore/iqcToolbox/internal/period"
)

// DeltaOptions configures the bounded delta constructors. Zero values take
// the documented defaults: bound 1 and horizon-period [0, 1].
type DeltaOptions struct {
	Bound         float64
	HorizonPeriod period.HorizonPeriod
}

func (o DeltaOptions) resolve() (float64, period.HorizonPeriod) {
	bound := o.Bound
	if bound == 0 {
		bound = 1
	}
	hp := o.HorizonPeriod
	if hp == (period.HorizonPeriod{}) {
		hp = period.Default()
	}
	return bound, hp
}

func validateBoundedDelta(name string, dim int, bound float64, hp period.HorizonPeriod) error {
	if name == "" {
		return constructionErr(name, "name must be non-empty")
	}
	if dim < 1 {
		return constructionErr(name, "dimension must be positive, got %d", dim)
	}
	if !(bound > 0) || math.IsInf(bound, 0) {
		return constructionErr(name, "upper bound must be positive and finite, got %v", bound)
	}
	if err := hp.Validate(); err != nil {
		return constructionErr(name, "%v", err)
	}
	return nil
}

// DeltaSltiBounded is a static LTI uncertainty with gain at most Bound.
// Time invariance is enforced structurally: the block stores one dimension
// and one bound, so every per-step attribute is constant by construction.
type DeltaSltiBounded struct {
	name  string
	dim   int
	bound float64
	hp    period.HorizonPeriod
}

// NewDeltaSltiBounded constructs a static LTI bounded uncertainty of the
// given square dimension.
func NewDeltaSltiBounded(name string, dim int, opts DeltaOptions) (*DeltaSltiBounded, error) {
	bound, hp := opts.resolve()
	if err := validateBoundedDelta(name, dim, bound, hp); err != nil {
		return nil, err
	}
	return &DeltaSltiBounded{name: name, dim: dim, bound: bound, hp: hp}, nil
}

func (d *DeltaSltiBounded) Name() string                         { return d.name }
func (d *DeltaSltiBounded) HorizonPeriod() period.HorizonPeriod  { return d.hp }
func (d *DeltaSltiBounded) Bound() float64                       { return d.bound }
func (d *DeltaSltiBounded) OutDims() period.Sequence[int]        { return period.Constant(d.dim, d.hp) }
func (d *DeltaSltiBounded) InDims() period.Sequence[int]         { return period.Constant(d.dim, d.hp) }

func (d *DeltaSltiBounded) MatchHorizonPeriod(hp period.HorizonPeriod) (Delta, error) {
	// Every attribute is constant in time, so any valid grid is reachable.
	if err := hp.Validate(); err != nil {
		return nil, constructionErr(d.name, "%v", err)
	}
	out := *d
	out.hp = hp
	return &out, nil
}

func (d *DeltaSltiBounded) Equal(other Delta) bool {
	o, ok := other.(*DeltaSltiBounded)
	return ok && *d == *o
}

func (d *DeltaSltiBounded) ToMultiplier(req MultiplierRequest) (*multiplier.Multiplier, error) {
	return multiplier.NewSltiBounded(d.name, d.dim, d.bound, d.hp, multiplier.SltiOptions{
		Basis:            req.Basis,
		ConstraintQ11KYP: req.ConstraintQ11KYP,
		Continuous:       !req.Discrete,
	})
}

// DeltaDltiBounded is a dynamic LTI uncertainty with H-infinity norm at most
// Bound. It shares the static variant's multiplier class.
type DeltaDltiBounded struct {
	name  string
	dim   int
	bound float64
	hp    period.HorizonPeriod
}

// NewDeltaDltiBounded constructs a dynamic LTI norm-bounded uncertainty.
func NewDeltaDltiBounded(name string, dim int, opts DeltaOptions) (*DeltaDltiBounded, error) {
	bound, hp := opts.resolve()
	if err := validateBoundedDelta(name, dim, bound, hp); err != nil {
		return nil, err
	}
	return &DeltaDltiBounded{name: name, dim: dim, bound: bound, hp: hp}, nil
}

func (d *DeltaDltiBounded) Name() string                        { return d.name }
func (d *DeltaDltiBounded) HorizonPeriod() period.HorizonPeriod { return d.hp }
func (d *DeltaDltiBounded) Bound() float64                      { return d.bound }
func (d *DeltaDltiBounded) OutDims() period.Sequence[int]       { return period.Constant(d.dim, d.hp) }
func (d *DeltaDltiBounded) InDims() period.Sequence[int]        { return period.Constant(d.dim, d.hp) }

func (d *DeltaDltiBounded) MatchHorizonPeriod(hp period.HorizonPeriod) (Delta, error) {
	if err := hp.Validate(); err != nil {
		return nil, constructionErr(d.name, "%v", err)
	}
	out := *d
	out.hp = hp
	return &out, nil
}

func (d *DeltaDltiBounded) Equal(other Delta) bool {
	o, ok := other.(*DeltaDltiBounded)
	return ok && *d == *o
}

func (d *DeltaDltiBounded) ToMultiplier(req MultiplierRequest) (*multiplier.Multiplier, error) {
	return multiplier.NewSltiBounded(d.name, d.dim, d.bound, d.hp, multiplier.SltiOptions{
		Basis:            req.Basis,
		ConstraintQ11KYP: req.ConstraintQ11KYP,
		Continuous:       !req.Discrete,
	})
}

// DeltaSltvRateBounded is a static uncertainty whose gain bound may vary
// with the time step. The per-step bounds live on the block's grid.
type DeltaSltvRateBounded struct {
	name   string
	dim    int
	bounds period.Sequence[float64]
	hp     period.HorizonPeriod
}

// NewDeltaSltvRateBounded constructs a slowly time-varying uncertainty with
// per-step bounds. A nil bounds sequence defaults to 1 everywhere.
func NewDeltaSltvRateBounded(name string, dim int, bounds *period.Sequence[float64], hp period.HorizonPeriod) (*DeltaSltvRateBounded, error) {
	if hp == (period.HorizonPeriod{}) {
		hp = period.Default()
	}
	if name == "" {
		return nil, constructionErr(name, "name must be non-empty")
	}
	if dim < 1 {
		return nil, constructionErr(name, "dimension must be positive, got %d", dim)
	}
	if err := hp.Validate(); err != nil {
		return nil, constructionErr(name, "%v", err)
	}
	var seq period.Sequence[float64]
	if bounds == nil {
		seq = period.Constant(1.0, hp)
	} else {
		seq = bounds.Clone()
		if err := seq.CheckGrid(hp); err != nil {
			return nil, constructionErr(name, "bounds: %v", err)
		}
	}
	for t := 0; t < hp.Total(); t++ {
		b := seq.At(t)
		if !(b > 0) || math.IsInf(b, 0) {
			return nil, constructionErr(name, "bound at step %d must be positive and finite, got %v", t, b)
		}
	}
	return &DeltaSltvRateBounded{name: name, dim: dim, bounds: seq, hp: hp}, nil
}

func (d *DeltaSltvRateBounded) Name() string                        { return d.name }
func (d *DeltaSltvRateBounded) HorizonPeriod() period.HorizonPeriod { return d.hp }
func (d *DeltaSltvRateBounded) Bounds() period.Sequence[float64]    { return d.bounds.Clone() }
func (d *DeltaSltvRateBounded) OutDims() period.Sequence[int]       { return period.Constant(d.dim, d.hp) }
func (d *DeltaSltvRateBounded) InDims() period.Sequence[int]        { return period.Constant(d.dim, d.hp) }

func (d *DeltaSltvRateBounded) MatchHorizonPeriod(hp period.HorizonPeriod) (Delta, error) {
	bounds, err := period.Rebase(d.bounds, hp, func(a, b float64) bool { return a == b })
	if err != nil {
		return nil, err
	}
	return &DeltaSltvRateBounded{name: d.name, dim: d.dim, bounds: bounds, hp: hp}, nil
}

func (d *DeltaSltvRateBounded) Equal(other Delta) bool {
	o, ok := other.(*DeltaSltvRateBounded)
	if !ok || d.name != o.name || d.dim != o.dim || d.hp != o.hp {
		return false
	}
	return period.EqualFunc(d.bounds, o.bounds, func(a, b float64) bool { return a == b })
}

func (d *DeltaSltvRateBounded) ToMultiplier(req MultiplierRequest) (*multiplier.Multiplier, error) {
	return multiplier.NewSltvBounded(d.name, d.dim, d.bounds, d.hp)
}
