package period

import "fmt"

// HorizonPeriod encodes an eventually-periodic time grid: Horizon non-periodic
// leading steps followed by a block of Period steps repeating forever.
type HorizonPeriod struct {
	Horizon int
	Period  int
}

// Default is the grid of a time-invariant object: no prefix, period one.
func Default() HorizonPeriod {
	return HorizonPeriod{Horizon: 0, Period: 1}
}

// Total is the number of stored samples, Horizon+Period.
func (hp HorizonPeriod) Total() int {
	return hp.Horizon + hp.Period
}

// Validate checks the structural invariants Horizon >= 0 and Period >= 1.
func (hp HorizonPeriod) Validate() error {
	if hp.Horizon < 0 {
		return fmt.Errorf("horizon must be non-negative, got %d", hp.Horizon)
	}
	if hp.Period < 1 {
		return fmt.Errorf("period must be positive, got %d", hp.Period)
	}
	return nil
}

// Contains reports whether a sequence on grid hp can be re-indexed onto
// target without changing the represented signal: the target horizon must
// cover hp's and the target period must be a multiple of hp's.
func (hp HorizonPeriod) Contains(target HorizonPeriod) bool {
	return target.Horizon >= hp.Horizon && target.Period%hp.Period == 0
}

func (hp HorizonPeriod) String() string {
	return fmt.Sprintf("[%d, %d]", hp.Horizon, hp.Period)
}

// Merge computes the minimal common horizon-period of its arguments:
// the horizon is the maximum of all horizons and the period is the least
// common multiple of all periods. Every argument grid Contains the result's
// grid, so resampling onto it never loses information.
func Merge(hps ...HorizonPeriod) (HorizonPeriod, error) {
	if len(hps) == 0 {
		return Default(), nil
	}
	out := hps[0]
	if err := out.Validate(); err != nil {
		return HorizonPeriod{}, err
	}
	for _, hp := range hps[1:] {
		if err := hp.Validate(); err != nil {
			return HorizonPeriod{}, err
		}
		if hp.Horizon > out.Horizon {
			out.Horizon = hp.Horizon
		}
		out.Period = lcm(out.Period, hp.Period)
	}
	return out, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
