package period

// Sequence is a per-time-step attribute on an eventually-periodic grid.
// Prefix holds the first Horizon samples, Cycle the repeating block.
// The horizon/period boundary is explicit so the length invariant can be
// checked rather than assumed.
type Sequence[T any] struct {
	Prefix []T
	Cycle  []T
}

// Constant builds a sequence holding v at every step of the given grid.
func Constant[T any](v T, hp HorizonPeriod) Sequence[T] {
	s := Sequence[T]{
		Prefix: make([]T, hp.Horizon),
		Cycle:  make([]T, hp.Period),
	}
	for i := range s.Prefix {
		s.Prefix[i] = v
	}
	for i := range s.Cycle {
		s.Cycle[i] = v
	}
	return s
}

// FromFlat splits a flat slice of length hp.Total into prefix and cycle.
func FromFlat[T any](flat []T, hp HorizonPeriod) (Sequence[T], error) {
	if len(flat) != hp.Total() {
		return Sequence[T]{}, consistencyErr("from_flat",
			"got %d samples, horizon_period %v needs %d", len(flat), hp, hp.Total())
	}
	s := Sequence[T]{
		Prefix: append([]T(nil), flat[:hp.Horizon]...),
		Cycle:  append([]T(nil), flat[hp.Horizon:]...),
	}
	return s, nil
}

// Grid returns the horizon-period implied by the stored sample counts.
func (s Sequence[T]) Grid() HorizonPeriod {
	return HorizonPeriod{Horizon: len(s.Prefix), Period: len(s.Cycle)}
}

// At returns the sample at time index t. t beyond the prefix wraps into the
// repeating block.
func (s Sequence[T]) At(t int) T {
	if t < len(s.Prefix) {
		return s.Prefix[t]
	}
	return s.Cycle[(t-len(s.Prefix))%len(s.Cycle)]
}

// Flat returns all stored samples in time order, prefix then cycle.
func (s Sequence[T]) Flat() []T {
	out := make([]T, 0, len(s.Prefix)+len(s.Cycle))
	out = append(out, s.Prefix...)
	return append(out, s.Cycle...)
}

// Clone returns a sequence with freshly allocated sample slices. The samples
// themselves are copied by value.
func (s Sequence[T]) Clone() Sequence[T] {
	return Sequence[T]{
		Prefix: append([]T(nil), s.Prefix...),
		Cycle:  append([]T(nil), s.Cycle...),
	}
}

// CheckGrid verifies the sequence holds exactly hp.Total samples split at
// hp.Horizon. Objects call this before any resample so that a hand-edited
// horizon-period fails here instead of corrupting the signal.
func (s Sequence[T]) CheckGrid(hp HorizonPeriod) error {
	if err := hp.Validate(); err != nil {
		return consistencyErr("check_grid", "%v", err)
	}
	if len(s.Prefix) != hp.Horizon || len(s.Cycle) != hp.Period {
		return consistencyErr("check_grid",
			"sequence has prefix %d, cycle %d; horizon_period %v needs %d+%d",
			len(s.Prefix), len(s.Cycle), hp, hp.Horizon, hp.Period)
	}
	return nil
}

// Resample re-indexes s from its own grid onto target, which must contain it
// (target horizon >= current horizon, target period a multiple of the current
// one). The returned sequence represents the identical infinite signal:
// reading it at any time index gives the same value as reading s there.
func Resample[T any](s Sequence[T], target HorizonPeriod) (Sequence[T], error) {
	cur := s.Grid()
	if err := s.CheckGrid(cur); err != nil {
		return Sequence[T]{}, err
	}
	if err := target.Validate(); err != nil {
		return Sequence[T]{}, consistencyErr("resample", "%v", err)
	}
	if !cur.Contains(target) {
		return Sequence[T]{}, consistencyErr("resample",
			"cannot re-index %v onto %v: target must extend the horizon and keep a multiple of the period",
			cur, target)
	}
	out := Sequence[T]{
		Prefix: make([]T, target.Horizon),
		Cycle:  make([]T, target.Period),
	}
	for t := 0; t < target.Horizon; t++ {
		out.Prefix[t] = s.At(t)
	}
	for t := 0; t < target.Period; t++ {
		out.Cycle[t] = s.At(target.Horizon + t)
	}
	return out, nil
}

// Rebase re-indexes s onto target, allowing coarsening: when target does not
// contain the current grid, the current period must be a multiple of the
// target period and the current horizon must cover the target's, and the move
// is legal only if the signal is exactly representable on target, verified by
// comparing both readings over one full common cycle. eq compares samples.
func Rebase[T any](s Sequence[T], target HorizonPeriod, eq func(a, b T) bool) (Sequence[T], error) {
	cur := s.Grid()
	if cur.Contains(target) {
		return Resample(s, target)
	}
	if err := s.CheckGrid(cur); err != nil {
		return Sequence[T]{}, err
	}
	if err := target.Validate(); err != nil {
		return Sequence[T]{}, consistencyErr("rebase", "%v", err)
	}
	if !target.Contains(cur) {
		return Sequence[T]{}, consistencyErr("rebase",
			"cannot rebase %v onto %v: target is neither a refinement nor a coarsening", cur, target)
	}
	out := Sequence[T]{
		Prefix: make([]T, target.Horizon),
		Cycle:  make([]T, target.Period),
	}
	for t := 0; t < target.Horizon; t++ {
		out.Prefix[t] = s.At(t)
	}
	for t := 0; t < target.Period; t++ {
		out.Cycle[t] = s.At(target.Horizon + t)
	}
	horizon := cur.Horizon
	if target.Horizon > horizon {
		horizon = target.Horizon
	}
	window := horizon + lcm(cur.Period, target.Period)
	for t := 0; t < window; t++ {
		if !eq(out.At(t), s.At(t)) {
			return Sequence[T]{}, consistencyErr("rebase",
				"signal on %v is not representable on %v: mismatch at step %d", cur, target, t)
		}
	}
	return out, nil
}

// EqualFunc reports element-wise equality of two sequences on identical grids
// using eq to compare samples.
func EqualFunc[T any](a, b Sequence[T], eq func(x, y T) bool) bool {
	if a.Grid() != b.Grid() {
		return false
	}
	for i := range a.Prefix {
		if !eq(a.Prefix[i], b.Prefix[i]) {
			return false
		}
	}
	for i := range a.Cycle {
		if !eq(a.Cycle[i], b.Cycle[i]) {
			return false
		}
	}
	return true
}

// AllEqualFunc reports whether every sample of s is equal under eq; used to
// enforce time-invariance where a variant requires it.
func AllEqualFunc[T any](s Sequence[T], eq func(x, y T) bool) bool {
	var first T
	have := false
	for _, v := range s.Flat() {
		if !have {
			first = v
			have = true
			continue
		}
		if !eq(first, v) {
			return false
		}
	}
	return true
}
