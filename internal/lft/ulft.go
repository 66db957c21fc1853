package lft

import (
	"fmt"

	"github.com/Peragore/iqcToolbox/internal/block"
	"github.com/Peragore/iqcToolbox/internal/period"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

// DefaultPerformanceName identifies the all-channel induced-gain objective
// attached when a Ulft is built without any explicit performance.
const DefaultPerformanceName = "default_l2"

// Ulft is an uncertain linear-fractional transformation: a periodic plant
// whose leading input/output channels face the uncertainty blocks, in
// collection order, and whose trailing channels are exogenous.
type Ulft struct {
	sys    *ss.StateSpace
	deltas namedList[block.Delta]
	dists  namedList[block.Disturbance]
	perfs  namedList[block.Performance]
	hp     period.HorizonPeriod
}

// Options carries the optional collections for [New].
type Options struct {
	Disturbances []block.Disturbance
	Performances []block.Performance
}

// New assembles a Ulft. Horizon-periods of the plant and all blocks are
// reconciled to their merged grid; blocks are added under the
// name-merge rule; channel references are validated against the plant's
// dimensions at every step. When no performance is supplied, an all-channel
// induced-l2-gain objective is attached under [DefaultPerformanceName].
func New(sys *ss.StateSpace, deltas []block.Delta, opts Options) (*Ulft, error) {
	if sys == nil {
		return nil, fmt.Errorf("lft: plant realization must be non-nil")
	}
	hps := []period.HorizonPeriod{sys.HorizonPeriod()}
	for _, d := range deltas {
		hps = append(hps, d.HorizonPeriod())
	}
	for _, d := range opts.Disturbances {
		hps = append(hps, d.HorizonPeriod())
	}
	for _, p := range opts.Performances {
		hps = append(hps, p.HorizonPeriod())
	}
	hp, err := period.Merge(hps...)
	if err != nil {
		return nil, err
	}
	aligned, err := sys.MatchHorizonPeriod(hp)
	if err != nil {
		return nil, err
	}

	u := &Ulft{sys: aligned, hp: hp}
	if u, err = u.AddDelta(deltas...); err != nil {
		return nil, err
	}
	if u, err = u.AddDisturbance(opts.Disturbances...); err != nil {
		return nil, err
	}
	if u, err = u.AddPerformance(opts.Performances...); err != nil {
		return nil, err
	}
	if len(u.perfs.items) == 0 {
		perf, err := block.NewPerformanceL2Gain(DefaultPerformanceName, block.PerformanceOptions{
			HorizonPeriod: hp,
		})
		if err != nil {
			return nil, err
		}
		if u, err = u.AddPerformance(perf); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// System returns the plant realization.
func (u *Ulft) System() *ss.StateSpace { return u.sys }

// HorizonPeriod returns the shared time grid.
func (u *Ulft) HorizonPeriod() period.HorizonPeriod { return u.hp }

// Deltas returns the uncertainty blocks in channel order; callers must not
// mutate the returned slice.
func (u *Ulft) Deltas() []block.Delta { return u.deltas.all() }

// Disturbances returns the disturbance blocks in insertion order.
func (u *Ulft) Disturbances() []block.Disturbance { return u.dists.all() }

// Performances returns the performance blocks in insertion order.
func (u *Ulft) Performances() []block.Performance { return u.perfs.all() }

// DeltaByName returns the uncertainty block with the given name.
func (u *Ulft) DeltaByName(name string) (block.Delta, bool) { return u.deltas.byName(name) }

// DeltaInWidthAt is the total width of delta-facing plant input at step t.
func (u *Ulft) DeltaInWidthAt(t int) int {
	w := 0
	for _, d := range u.deltas.items {
		w += d.OutDims().At(t) // delta output feeds the plant input
	}
	return w
}

// DeltaOutWidthAt is the total width of delta-facing plant output at step t.
func (u *Ulft) DeltaOutWidthAt(t int) int {
	w := 0
	for _, d := range u.deltas.items {
		w += d.InDims().At(t)
	}
	return w
}

// ExoInWidthAt is the width of the exogenous (disturbance) input at step t.
func (u *Ulft) ExoInWidthAt(t int) int {
	return u.sys.InputDimAt(t) - u.DeltaInWidthAt(t)
}

// ExoOutWidthAt is the width of the exogenous (performance) output at step t.
func (u *Ulft) ExoOutWidthAt(t int) int {
	return u.sys.OutputDimAt(t) - u.DeltaOutWidthAt(t)
}

func (u *Ulft) clone() *Ulft {
	c := *u
	return &c
}

// AddDelta attaches uncertainty blocks. Each candidate is resampled onto the
// Ulft's grid, checked against the plant's channel widths, and merged under
// the name rule: an identical duplicate is a no-op, a different block with a
// colliding name fails.
func (u *Ulft) AddDelta(deltas ...block.Delta) (*Ulft, error) {
	out := u.clone()
	for _, d := range deltas {
		aligned, err := d.MatchHorizonPeriod(u.hp)
		if err != nil {
			return nil, incompatibleErr(d.Name(), "cannot align block with the plant's grid %v: %v", u.hp, err)
		}
		next, err := out.deltas.add(aligned, func(a, b block.Delta) bool { return a.Equal(b) })
		if err != nil {
			return nil, err
		}
		probe := out.clone()
		probe.deltas = next
		for t := 0; t < u.hp.Total(); t++ {
			if probe.ExoInWidthAt(t) < 0 || probe.ExoOutWidthAt(t) < 0 {
				return nil, incompatibleErr(d.Name(),
					"uncertainty channels exceed the plant's dimensions at step %d", t)
			}
		}
		if err := probe.checkSelectors(); err != nil {
			return nil, err
		}
		out = probe
	}
	return out, nil
}

// AddDisturbance attaches disturbance blocks under the same resample,
// bounds-check and name-merge sequence.
func (u *Ulft) AddDisturbance(dists ...block.Disturbance) (*Ulft, error) {
	out := u.clone()
	for _, d := range dists {
		aligned, err := d.MatchHorizonPeriod(u.hp)
		if err != nil {
			return nil, incompatibleErr(d.Name(), "cannot align block with the plant's grid %v: %v", u.hp, err)
		}
		if err := u.checkChannels(aligned.Name(), aligned.Channels(), u.ExoInWidthAt, "input"); err != nil {
			return nil, err
		}
		next, err := out.dists.add(aligned, func(a, b block.Disturbance) bool { return a.Equal(b) })
		if err != nil {
			return nil, err
		}
		out.dists = next
	}
	return out, nil
}

// AddPerformance attaches performance blocks.
func (u *Ulft) AddPerformance(perfs ...block.Performance) (*Ulft, error) {
	out := u.clone()
	for _, p := range perfs {
		aligned, err := p.MatchHorizonPeriod(u.hp)
		if err != nil {
			return nil, incompatibleErr(p.Name(), "cannot align block with the plant's grid %v: %v", u.hp, err)
		}
		if err := u.checkChannels(aligned.Name(), aligned.OutChannels(), u.ExoOutWidthAt, "output"); err != nil {
			return nil, err
		}
		if err := u.checkChannels(aligned.Name(), aligned.InChannels(), u.ExoInWidthAt, "input"); err != nil {
			return nil, err
		}
		next, err := out.perfs.add(aligned, func(a, b block.Performance) bool { return a.Equal(b) })
		if err != nil {
			return nil, err
		}
		out.perfs = next
	}
	return out, nil
}

// checkChannels verifies a selector sequence against a per-step width.
func (u *Ulft) checkChannels(name string, chans period.Sequence[[]int], width func(t int) int, side string) error {
	for t := 0; t < u.hp.Total(); t++ {
		for _, c := range chans.At(t) {
			if c >= width(t) {
				return incompatibleErr(name,
					"%s channel %d exceeds the plant's %d exogenous %s channels at step %d",
					side, c, width(t), side, t)
			}
		}
	}
	return nil
}

// checkSelectors revalidates every attached selector, used after an
// operation that narrows the exogenous channel ranges.
func (u *Ulft) checkSelectors() error {
	for _, d := range u.dists.items {
		if err := u.checkChannels(d.Name(), d.Channels(), u.ExoInWidthAt, "input"); err != nil {
			return err
		}
	}
	for _, p := range u.perfs.items {
		if err := u.checkChannels(p.Name(), p.OutChannels(), u.ExoOutWidthAt, "output"); err != nil {
			return err
		}
		if err := u.checkChannels(p.Name(), p.InChannels(), u.ExoInWidthAt, "input"); err != nil {
			return err
		}
	}
	return nil
}

// MatchHorizonPeriod re-indexes the Ulft and every attached block onto
// target. The represented uncertain system is unchanged.
func (u *Ulft) MatchHorizonPeriod(target period.HorizonPeriod) (*Ulft, error) {
	sys, err := u.sys.MatchHorizonPeriod(target)
	if err != nil {
		return nil, err
	}
	deltas, err := mapAll(u.deltas, func(d block.Delta) (block.Delta, error) {
		return d.MatchHorizonPeriod(target)
	})
	if err != nil {
		return nil, err
	}
	dists, err := mapAll(u.dists, func(d block.Disturbance) (block.Disturbance, error) {
		return d.MatchHorizonPeriod(target)
	})
	if err != nil {
		return nil, err
	}
	perfs, err := mapAll(u.perfs, func(p block.Performance) (block.Performance, error) {
		return p.MatchHorizonPeriod(target)
	})
	if err != nil {
		return nil, err
	}
	return &Ulft{sys: sys, deltas: deltas, dists: dists, perfs: perfs, hp: target}, nil
}

// Equal reports structural equality of two Ulfts.
func (u *Ulft) Equal(o *Ulft) bool {
	if u.hp != o.hp || !u.sys.Equal(o.sys) {
		return false
	}
	if len(u.deltas.items) != len(o.deltas.items) ||
		len(u.dists.items) != len(o.dists.items) ||
		len(u.perfs.items) != len(o.perfs.items) {
		return false
	}
	for i, d := range u.deltas.items {
		if !d.Equal(o.deltas.items[i]) {
			return false
		}
	}
	for i, d := range u.dists.items {
		if !d.Equal(o.dists.items[i]) {
			return false
		}
	}
	for i, p := range u.perfs.items {
		if !p.Equal(o.perfs.items[i]) {
			return false
		}
	}
	return true
}
