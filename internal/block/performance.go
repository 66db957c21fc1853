package block

import (
	"github.com/Peragore/iqcToolbox/internal/multiplier"
	"github.com/Peragore/iqcToolbox/internal/period"
)

// PerformanceOptions configures the performance constructors. Nil selectors
// mean "all channels" on the respective side.
type PerformanceOptions struct {
	OutChannels   *period.Sequence[[]int]
	InChannels    *period.Sequence[[]int]
	HorizonPeriod period.HorizonPeriod
}

// PerformanceL2Gain requests the induced l2 gain from the selected input
// channels to the selected output channels.
type PerformanceL2Gain struct {
	name     string
	outChans period.Sequence[[]int]
	inChans  period.Sequence[[]int]
	hp       period.HorizonPeriod
}

// NewPerformanceL2Gain constructs the induced-gain objective.
func NewPerformanceL2Gain(name string, opts PerformanceOptions) (*PerformanceL2Gain, error) {
	if name == "" {
		return nil, constructionErr(name, "name must be non-empty")
	}
	hp := opts.HorizonPeriod
	if hp == (period.HorizonPeriod{}) {
		hp = period.Default()
	}
	if err := hp.Validate(); err != nil {
		return nil, constructionErr(name, "%v", err)
	}
	resolveSel := func(sel *period.Sequence[[]int], side string) (period.Sequence[[]int], error) {
		if sel == nil {
			return period.Constant[[]int](nil, hp), nil
		}
		s := sel.Clone()
		if err := s.CheckGrid(hp); err != nil {
			return period.Sequence[[]int]{}, constructionErr(name, "%s channels: %v", side, err)
		}
		for t := 0; t < hp.Total(); t++ {
			for _, c := range s.At(t) {
				if c < 0 {
					return period.Sequence[[]int]{}, constructionErr(name, "negative %s channel index %d at step %d", side, c, t)
				}
			}
		}
		return s, nil
	}
	outChans, err := resolveSel(opts.OutChannels, "output")
	if err != nil {
		return nil, err
	}
	inChans, err := resolveSel(opts.InChannels, "input")
	if err != nil {
		return nil, err
	}
	return &PerformanceL2Gain{name: name, outChans: outChans, inChans: inChans, hp: hp}, nil
}

func (p *PerformanceL2Gain) Name() string                        { return p.name }
func (p *PerformanceL2Gain) HorizonPeriod() period.HorizonPeriod { return p.hp }
func (p *PerformanceL2Gain) OutChannels() period.Sequence[[]int] { return p.outChans.Clone() }
func (p *PerformanceL2Gain) InChannels() period.Sequence[[]int]  { return p.inChans.Clone() }

func (p *PerformanceL2Gain) WithChannels(out, in period.Sequence[[]int]) (Performance, error) {
	outChans, err := checkSelector(p.name, out, p.hp)
	if err != nil {
		return nil, err
	}
	inChans, err := checkSelector(p.name, in, p.hp)
	if err != nil {
		return nil, err
	}
	return &PerformanceL2Gain{name: p.name, outChans: outChans, inChans: inChans, hp: p.hp}, nil
}

func (p *PerformanceL2Gain) MatchHorizonPeriod(hp period.HorizonPeriod) (Performance, error) {
	outChans, err := period.Rebase(p.outChans, hp, intsEqual)
	if err != nil {
		return nil, err
	}
	inChans, err := period.Rebase(p.inChans, hp, intsEqual)
	if err != nil {
		return nil, err
	}
	return &PerformanceL2Gain{name: p.name, outChans: outChans, inChans: inChans, hp: hp}, nil
}

func (p *PerformanceL2Gain) Equal(other Performance) bool {
	o, ok := other.(*PerformanceL2Gain)
	return ok && p.name == o.name && p.hp == o.hp &&
		channelsEqual(p.outChans, o.outChans) && channelsEqual(p.inChans, o.inChans)
}

func (p *PerformanceL2Gain) ToMultiplier(req MultiplierRequest) (*multiplier.Multiplier, error) {
	return multiplier.NewL2Gain(p.name, req.OutDims, req.InDims, p.hp)
}
