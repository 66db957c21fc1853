package block

import (
	"github.com/Peragore/iqcToolbox/internal/multiplier"
	"github.com/Peragore/iqcToolbox/internal/period"
)

// MultiplierRequest carries the context the analysis resolves before asking
// a block for its default multiplier: the time domain, the per-step channel
// widths of the slice the multiplier will consume, and optional filter
// tuning shared by basis-synthesizing variants.
type MultiplierRequest struct {
	Discrete bool

	// OutDims and InDims are the plant-output and plant-input slice widths
	// on the block's horizon-period grid.
	OutDims period.Sequence[int]
	InDims  period.Sequence[int]

	// Basis overrides the default filter basis for variants that use one.
	Basis *multiplier.BasisSpec

	// ConstraintQ11KYP selects the KYP form of the positivity constraint
	// for variants that support it.
	ConstraintQ11KYP bool
}

// Delta describes one structured uncertainty block.
type Delta interface {
	Name() string
	HorizonPeriod() period.HorizonPeriod

	// OutDims and InDims are the per-step widths of the signals entering
	// and leaving the uncertainty.
	OutDims() period.Sequence[int]
	InDims() period.Sequence[int]

	MatchHorizonPeriod(hp period.HorizonPeriod) (Delta, error)
	Equal(other Delta) bool
	ToMultiplier(req MultiplierRequest) (*multiplier.Multiplier, error)
}

// Disturbance characterizes an exogenous input signal on a channel subset.
type Disturbance interface {
	Name() string
	HorizonPeriod() period.HorizonPeriod

	// Channels selects the disturbance input indices per step; an empty
	// selector means every disturbance channel.
	Channels() period.Sequence[[]int]

	// WithChannels returns a copy bound to the given selector. Composition
	// uses it to re-index a block into a combined channel frame.
	WithChannels(chans period.Sequence[[]int]) (Disturbance, error)

	MatchHorizonPeriod(hp period.HorizonPeriod) (Disturbance, error)
	Equal(other Disturbance) bool
	ToMultiplier(req MultiplierRequest) (*multiplier.Multiplier, error)
}

// Performance selects an objective channel pair and its supply rate.
type Performance interface {
	Name() string
	HorizonPeriod() period.HorizonPeriod

	// OutChannels and InChannels select the performance output and input
	// indices per step; empty selectors mean every channel.
	OutChannels() period.Sequence[[]int]
	InChannels() period.Sequence[[]int]

	// WithChannels returns a copy bound to the given selectors.
	WithChannels(out, in period.Sequence[[]int]) (Performance, error)

	MatchHorizonPeriod(hp period.HorizonPeriod) (Performance, error)
	Equal(other Performance) bool
	ToMultiplier(req MultiplierRequest) (*multiplier.Multiplier, error)
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
