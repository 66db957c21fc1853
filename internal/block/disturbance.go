package block

import (
	"github.com/Peragore/iqcToolbox/internal/multiplier"
	"github.com/Peragore/iqcToolbox/internal/period"
)

// DisturbanceOptions configures the disturbance constructors. A nil channel
// selector means "all disturbance channels"; a zero horizon-period takes the
// default [0, 1].
type DisturbanceOptions struct {
	Channels      *period.Sequence[[]int]
	HorizonPeriod period.HorizonPeriod
}

func (o DisturbanceOptions) resolve(name string) (period.Sequence[[]int], period.HorizonPeriod, error) {
	hp := o.HorizonPeriod
	if hp == (period.HorizonPeriod{}) {
		hp = period.Default()
	}
	if err := hp.Validate(); err != nil {
		return period.Sequence[[]int]{}, hp, constructionErr(name, "%v", err)
	}
	var chans period.Sequence[[]int]
	if o.Channels == nil {
		chans = period.Constant[[]int](nil, hp)
	} else {
		chans = o.Channels.Clone()
		if err := chans.CheckGrid(hp); err != nil {
			return period.Sequence[[]int]{}, hp, constructionErr(name, "channels: %v", err)
		}
		for t := 0; t < hp.Total(); t++ {
			for _, c := range chans.At(t) {
				if c < 0 {
					return period.Sequence[[]int]{}, hp, constructionErr(name, "negative channel index %d at step %d", c, t)
				}
			}
		}
	}
	return chans, hp, nil
}

func channelsEqual(a, b period.Sequence[[]int]) bool {
	return period.EqualFunc(a, b, intsEqual)
}

// checkSelector validates a replacement channel selector against a grid.
func checkSelector(name string, chans period.Sequence[[]int], hp period.HorizonPeriod) (period.Sequence[[]int], error) {
	s := chans.Clone()
	if err := s.CheckGrid(hp); err != nil {
		return period.Sequence[[]int]{}, constructionErr(name, "channels: %v", err)
	}
	for t := 0; t < hp.Total(); t++ {
		for _, c := range s.At(t) {
			if c < 0 {
				return period.Sequence[[]int]{}, constructionErr(name, "negative channel index %d at step %d", c, t)
			}
		}
	}
	return s, nil
}

// DisturbanceL2 is the unconstraining characterization: any finite-energy
// signal on the selected channels.
type DisturbanceL2 struct {
	name  string
	chans period.Sequence[[]int]
	hp    period.HorizonPeriod
}

// NewDisturbanceL2 constructs the default disturbance description.
func NewDisturbanceL2(name string, opts DisturbanceOptions) (*DisturbanceL2, error) {
	if name == "" {
		return nil, constructionErr(name, "name must be non-empty")
	}
	chans, hp, err := opts.resolve(name)
	if err != nil {
		return nil, err
	}
	return &DisturbanceL2{name: name, chans: chans, hp: hp}, nil
}

func (d *DisturbanceL2) Name() string                        { return d.name }
func (d *DisturbanceL2) HorizonPeriod() period.HorizonPeriod { return d.hp }
func (d *DisturbanceL2) Channels() period.Sequence[[]int]    { return d.chans.Clone() }

func (d *DisturbanceL2) WithChannels(chans period.Sequence[[]int]) (Disturbance, error) {
	s, err := checkSelector(d.name, chans, d.hp)
	if err != nil {
		return nil, err
	}
	return &DisturbanceL2{name: d.name, chans: s, hp: d.hp}, nil
}

func (d *DisturbanceL2) MatchHorizonPeriod(hp period.HorizonPeriod) (Disturbance, error) {
	chans, err := period.Rebase(d.chans, hp, intsEqual)
	if err != nil {
		return nil, err
	}
	return &DisturbanceL2{name: d.name, chans: chans, hp: hp}, nil
}

func (d *DisturbanceL2) Equal(other Disturbance) bool {
	o, ok := other.(*DisturbanceL2)
	return ok && d.name == o.name && d.hp == o.hp && channelsEqual(d.chans, o.chans)
}

func (d *DisturbanceL2) ToMultiplier(req MultiplierRequest) (*multiplier.Multiplier, error) {
	return multiplier.NewL2(d.name, req.InDims, d.hp)
}

// DisturbanceConstantWindow characterizes a signal held constant across a
// window of stored time steps.
type DisturbanceConstantWindow struct {
	name   string
	chans  period.Sequence[[]int]
	window []int
	hp     period.HorizonPeriod
}

// NewDisturbanceConstantWindow constructs the window-constant disturbance.
// Window entries are stored step indices on the block's grid.
func NewDisturbanceConstantWindow(name string, window []int, opts DisturbanceOptions) (*DisturbanceConstantWindow, error) {
	if name == "" {
		return nil, constructionErr(name, "name must be non-empty")
	}
	chans, hp, err := opts.resolve(name)
	if err != nil {
		return nil, err
	}
	if len(window) == 0 {
		return nil, constructionErr(name, "window must name at least one step")
	}
	for _, t := range window {
		if t < 0 || t >= hp.Total() {
			return nil, constructionErr(name, "window step %d outside horizon_period %v", t, hp)
		}
	}
	return &DisturbanceConstantWindow{
		name:   name,
		chans:  chans,
		window: append([]int(nil), window...),
		hp:     hp,
	}, nil
}

func (d *DisturbanceConstantWindow) Name() string                        { return d.name }
func (d *DisturbanceConstantWindow) HorizonPeriod() period.HorizonPeriod { return d.hp }
func (d *DisturbanceConstantWindow) Channels() period.Sequence[[]int]    { return d.chans.Clone() }
func (d *DisturbanceConstantWindow) Window() []int                       { return append([]int(nil), d.window...) }

func (d *DisturbanceConstantWindow) WithChannels(chans period.Sequence[[]int]) (Disturbance, error) {
	s, err := checkSelector(d.name, chans, d.hp)
	if err != nil {
		return nil, err
	}
	out := *d
	out.chans = s
	return &out, nil
}

func (d *DisturbanceConstantWindow) MatchHorizonPeriod(hp period.HorizonPeriod) (Disturbance, error) {
	if !d.hp.Contains(hp) {
		return nil, constructionErr(d.name, "cannot resample %v onto %v", d.hp, hp)
	}
	chans, err := period.Rebase(d.chans, hp, intsEqual)
	if err != nil {
		return nil, err
	}
	// Window steps that fell in the old cycle recur in every replication of
	// the new one.
	inWindow := make(map[int]bool, len(d.window))
	for _, t := range d.window {
		inWindow[t] = true
	}
	var window []int
	for t := 0; t < hp.Total(); t++ {
		orig := t
		if t >= d.hp.Horizon {
			orig = d.hp.Horizon + (t-d.hp.Horizon)%d.hp.Period
		}
		if inWindow[orig] {
			window = append(window, t)
		}
	}
	return &DisturbanceConstantWindow{name: d.name, chans: chans, window: window, hp: hp}, nil
}

func (d *DisturbanceConstantWindow) Equal(other Disturbance) bool {
	o, ok := other.(*DisturbanceConstantWindow)
	return ok && d.name == o.name && d.hp == o.hp &&
		channelsEqual(d.chans, o.chans) && intsEqual(d.window, o.window)
}

func (d *DisturbanceConstantWindow) ToMultiplier(req MultiplierRequest) (*multiplier.Multiplier, error) {
	dim, err := constantWidth(d.name, req.InDims)
	if err != nil {
		return nil, err
	}
	return multiplier.NewConstantWindow(d.name, dim, d.hp, d.window)
}

// DisturbanceBandedWhite characterizes a spectrally flat signal occupying a
// low-frequency band.
type DisturbanceBandedWhite struct {
	name     string
	chans    period.Sequence[[]int]
	pole     float64
	flatness float64
	hp       period.HorizonPeriod
}

// NewDisturbanceBandedWhite constructs the white-band disturbance. Pole
// places the spectral probe inside the open unit disk (default 0.5); flatness
// is the assumed in-band energy fraction in (0, 1] (default 1). A zero
// argument selects the default for either parameter, so a pole at exactly
// zero cannot be requested; use a small nonzero value instead.
func NewDisturbanceBandedWhite(name string, pole, flatness float64, opts DisturbanceOptions) (*DisturbanceBandedWhite, error) {
	if name == "" {
		return nil, constructionErr(name, "name must be non-empty")
	}
	chans, hp, err := opts.resolve(name)
	if err != nil {
		return nil, err
	}
	if pole == 0 {
		pole = 0.5
	}
	if pole <= -1 || pole >= 1 {
		return nil, constructionErr(name, "probe pole %v is outside the open unit disk", pole)
	}
	if flatness == 0 {
		flatness = 1
	}
	if flatness < 0 || flatness > 1 {
		return nil, constructionErr(name, "flatness must lie in (0, 1], got %v", flatness)
	}
	return &DisturbanceBandedWhite{name: name, chans: chans, pole: pole, flatness: flatness, hp: hp}, nil
}

func (d *DisturbanceBandedWhite) Name() string                        { return d.name }
func (d *DisturbanceBandedWhite) HorizonPeriod() period.HorizonPeriod { return d.hp }
func (d *DisturbanceBandedWhite) Channels() period.Sequence[[]int]    { return d.chans.Clone() }

func (d *DisturbanceBandedWhite) WithChannels(chans period.Sequence[[]int]) (Disturbance, error) {
	s, err := checkSelector(d.name, chans, d.hp)
	if err != nil {
		return nil, err
	}
	out := *d
	out.chans = s
	return &out, nil
}

func (d *DisturbanceBandedWhite) MatchHorizonPeriod(hp period.HorizonPeriod) (Disturbance, error) {
	chans, err := period.Rebase(d.chans, hp, intsEqual)
	if err != nil {
		return nil, err
	}
	out := *d
	out.chans = chans
	out.hp = hp
	return &out, nil
}

func (d *DisturbanceBandedWhite) Equal(other Disturbance) bool {
	o, ok := other.(*DisturbanceBandedWhite)
	return ok && d.name == o.name && d.hp == o.hp && d.pole == o.pole &&
		d.flatness == o.flatness && channelsEqual(d.chans, o.chans)
}

func (d *DisturbanceBandedWhite) ToMultiplier(req MultiplierRequest) (*multiplier.Multiplier, error) {
	dim, err := constantWidth(d.name, req.InDims)
	if err != nil {
		return nil, err
	}
	return multiplier.NewBandedWhite(d.name, dim, d.hp, multiplier.BandedWhiteOptions{
		Pole:     d.pole,
		Flatness: d.flatness,
	})
}

// constantWidth resolves a per-step width sequence that a time-invariant
// filter requires to be constant.
func constantWidth(name string, dims period.Sequence[int]) (int, error) {
	if !period.AllEqualFunc(dims, func(a, b int) bool { return a == b }) {
		return 0, constructionErr(name, "characterization needs a constant channel width, got %v", dims.Flat())
	}
	return dims.At(0), nil
}
