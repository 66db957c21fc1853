package lft

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Peragore/iqcToolbox/internal/block"
	"github.com/Peragore/iqcToolbox/internal/period"
	"github.com/Peragore/iqcToolbox/internal/ss"
)

// parts is the channel-partitioned view of a Ulft's plant at one step:
// delta-facing blocks first, exogenous blocks second, on both sides.
type parts struct {
	n, nNext, w, d, v, e int

	A, Bw, Bd, Cv, Ce  *mat.Dense
	Dvw, Dvd, Dew, Ded *mat.Dense
}

func (u *Ulft) partsAt(t int) parts {
	p := parts{
		n:     u.sys.StateDimAt(t),
		nNext: u.sys.StateDimAt(t + 1),
		w:     u.DeltaInWidthAt(t),
		d:     u.ExoInWidthAt(t),
		v:     u.DeltaOutWidthAt(t),
		e:     u.ExoOutWidthAt(t),
	}
	b, c, dm := u.sys.B.At(t), u.sys.C.At(t), u.sys.D.At(t)
	p.A = u.sys.A.At(t)
	p.Bw = sub(b, p.nNext, p.w+p.d, 0, p.nNext, 0, p.w)
	p.Bd = sub(b, p.nNext, p.w+p.d, 0, p.nNext, p.w, p.d)
	p.Cv = sub(c, p.v+p.e, p.n, 0, p.v, 0, p.n)
	p.Ce = sub(c, p.v+p.e, p.n, p.v, p.e, 0, p.n)
	p.Dvw = sub(dm, p.v+p.e, p.w+p.d, 0, p.v, 0, p.w)
	p.Dvd = sub(dm, p.v+p.e, p.w+p.d, 0, p.v, p.w, p.d)
	p.Dew = sub(dm, p.v+p.e, p.w+p.d, p.v, p.e, 0, p.w)
	p.Ded = sub(dm, p.v+p.e, p.w+p.d, p.v, p.e, p.w, p.d)
	return p
}

func buildSeq(hp period.HorizonPeriod, f func(t int) *mat.Dense) period.Sequence[*mat.Dense] {
	flat := make([]*mat.Dense, hp.Total())
	for t := range flat {
		flat[t] = f(t)
	}
	s, _ := period.FromFlat(flat, hp)
	return s
}

// alignPair reconciles two Ulfts onto their merged grid.
func alignPair(u1, u2 *Ulft) (*Ulft, *Ulft, period.HorizonPeriod, error) {
	hp, err := period.Merge(u1.hp, u2.hp)
	if err != nil {
		return nil, nil, hp, err
	}
	a, err := u1.MatchHorizonPeriod(hp)
	if err != nil {
		return nil, nil, hp, err
	}
	b, err := u2.MatchHorizonPeriod(hp)
	if err != nil {
		return nil, nil, hp, err
	}
	return a, b, hp, nil
}

// concatDeltas appends b's uncertainty blocks after a's. Sharing a name
// across operands is rejected: merged channels would equate two block
// instances, which a caller must request explicitly by renaming.
func concatDeltas(a, b namedList[block.Delta]) (namedList[block.Delta], error) {
	out := a
	for _, d := range b.items {
		if _, ok := out.byName(d.Name()); ok {
			return namedList[block.Delta]{}, incompatibleErr(d.Name(),
				"uncertainty appears in both operands; rename one instance")
		}
		var err error
		out, err = out.add(d, func(x, y block.Delta) bool { return x.Equal(y) })
		if err != nil {
			return namedList[block.Delta]{}, err
		}
	}
	return out, nil
}

// Add forms the parallel interconnection u1 + u2: shared exogenous input,
// summed exogenous output. Disturbance and performance blocks of both
// operands carry over; identical duplicates merge.
func Add(u1, u2 *Ulft) (*Ulft, error) {
	a, b, hp, err := alignPair(u1, u2)
	if err != nil {
		return nil, err
	}
	for t := 0; t < hp.Total(); t++ {
		if a.ExoInWidthAt(t) != b.ExoInWidthAt(t) || a.ExoOutWidthAt(t) != b.ExoOutWidthAt(t) {
			return nil, incompatibleErr("",
				"addition needs matching exogenous dimensions, got %dx%d and %dx%d at step %d",
				a.ExoOutWidthAt(t), a.ExoInWidthAt(t), b.ExoOutWidthAt(t), b.ExoInWidthAt(t), t)
		}
	}
	deltas, err := concatDeltas(a.deltas, b.deltas)
	if err != nil {
		return nil, err
	}

	aSeq := buildSeq(hp, func(t int) *mat.Dense {
		pa, pb := a.partsAt(t), b.partsAt(t)
		return grid([]int{pa.nNext, pb.nNext}, []int{pa.n, pb.n},
			[][]*mat.Dense{{pa.A, nil}, {nil, pb.A}})
	})
	bSeq := buildSeq(hp, func(t int) *mat.Dense {
		pa, pb := a.partsAt(t), b.partsAt(t)
		return grid([]int{pa.nNext, pb.nNext}, []int{pa.w, pb.w, pa.d},
			[][]*mat.Dense{{pa.Bw, nil, pa.Bd}, {nil, pb.Bw, pb.Bd}})
	})
	cSeq := buildSeq(hp, func(t int) *mat.Dense {
		pa, pb := a.partsAt(t), b.partsAt(t)
		return grid([]int{pa.v, pb.v, pa.e}, []int{pa.n, pb.n},
			[][]*mat.Dense{{pa.Cv, nil}, {nil, pb.Cv}, {pa.Ce, pb.Ce}})
	})
	dSeq := buildSeq(hp, func(t int) *mat.Dense {
		pa, pb := a.partsAt(t), b.partsAt(t)
		return grid([]int{pa.v, pb.v, pa.e}, []int{pa.w, pb.w, pa.d},
			[][]*mat.Dense{
				{pa.Dvw, nil, pa.Dvd},
				{nil, pb.Dvw, pb.Dvd},
				{pa.Dew, pb.Dew, addMat(pa.Ded, pb.Ded, pa.e, pa.d)},
			})
	})
	sys, err := ss.New(aSeq, bSeq, cSeq, dSeq, hp)
	if err != nil {
		return nil, err
	}

	dists := a.dists
	for _, d := range b.dists.items {
		if dists, err = dists.add(d, func(x, y block.Disturbance) bool { return x.Equal(y) }); err != nil {
			return nil, err
		}
	}
	perfs, err := combinePerformances(hp, a.perfs.items, b.perfs.items)
	if err != nil {
		return nil, err
	}
	return &Ulft{sys: sys, deltas: deltas, dists: dists, perfs: perfs, hp: hp}, nil
}

// combinePerformances merges operand objectives for a composition. The
// auto-attached default is implicit and would collide across operands, so
// default-named entries are dropped and a fresh all-channel default is
// attached when nothing explicit remains.
func combinePerformances(hp period.HorizonPeriod, lists ...[]block.Performance) (namedList[block.Performance], error) {
	var out namedList[block.Performance]
	var err error
	for _, list := range lists {
		for _, p := range list {
			if p.Name() == DefaultPerformanceName {
				continue
			}
			if out, err = out.add(p, func(x, y block.Performance) bool { return x.Equal(y) }); err != nil {
				return namedList[block.Performance]{}, err
			}
		}
	}
	if len(out.items) == 0 {
		def, err := block.NewPerformanceL2Gain(DefaultPerformanceName, block.PerformanceOptions{
			HorizonPeriod: hp,
		})
		if err != nil {
			return namedList[block.Performance]{}, err
		}
		if out, err = out.add(def, func(x, y block.Performance) bool { return x.Equal(y) }); err != nil {
			return namedList[block.Performance]{}, err
		}
	}
	return out, nil
}

// Series forms the cascade g after f: f's exogenous output drives g's
// exogenous input. f's disturbance blocks survive unchanged; g's reference
// an internal signal afterwards and are dropped, as are both operands'
// performance blocks. The result carries the default all-channel gain
// objective.
func Series(g, f *Ulft) (*Ulft, error) {
	gg, ff, hp, err := alignPair(g, f)
	if err != nil {
		return nil, err
	}
	for t := 0; t < hp.Total(); t++ {
		if gg.ExoInWidthAt(t) != ff.ExoOutWidthAt(t) {
			return nil, incompatibleErr("",
				"cascade needs %d downstream input channels to match %d upstream output channels at step %d",
				gg.ExoInWidthAt(t), ff.ExoOutWidthAt(t), t)
		}
	}
	deltas, err := concatDeltas(ff.deltas, gg.deltas)
	if err != nil {
		return nil, err
	}

	aSeq := buildSeq(hp, func(t int) *mat.Dense {
		pf, pg := ff.partsAt(t), gg.partsAt(t)
		return grid([]int{pf.nNext, pg.nNext}, []int{pf.n, pg.n},
			[][]*mat.Dense{
				{pf.A, nil},
				{mulMat(pg.Bd, pf.Ce, pg.nNext, pf.n), pg.A},
			})
	})
	bSeq := buildSeq(hp, func(t int) *mat.Dense {
		pf, pg := ff.partsAt(t), gg.partsAt(t)
		return grid([]int{pf.nNext, pg.nNext}, []int{pf.w, pg.w, pf.d},
			[][]*mat.Dense{
				{pf.Bw, nil, pf.Bd},
				{mulMat(pg.Bd, pf.Dew, pg.nNext, pf.w), pg.Bw, mulMat(pg.Bd, pf.Ded, pg.nNext, pf.d)},
			})
	})
	cSeq := buildSeq(hp, func(t int) *mat.Dense {
		pf, pg := ff.partsAt(t), gg.partsAt(t)
		return grid([]int{pf.v, pg.v, pg.e}, []int{pf.n, pg.n},
			[][]*mat.Dense{
				{pf.Cv, nil},
				{mulMat(pg.Dvd, pf.Ce, pg.v, pf.n), pg.Cv},
				{mulMat(pg.Ded, pf.Ce, pg.e, pf.n), pg.Ce},
			})
	})
	dSeq := buildSeq(hp, func(t int) *mat.Dense {
		pf, pg := ff.partsAt(t), gg.partsAt(t)
		return grid([]int{pf.v, pg.v, pg.e}, []int{pf.w, pg.w, pf.d},
			[][]*mat.Dense{
				{pf.Dvw, nil, pf.Dvd},
				{mulMat(pg.Dvd, pf.Dew, pg.v, pf.w), pg.Dvw, mulMat(pg.Dvd, pf.Ded, pg.v, pf.d)},
				{mulMat(pg.Ded, pf.Dew, pg.e, pf.w), pg.Dew, mulMat(pg.Ded, pf.Ded, pg.e, pf.d)},
			})
	})
	sys, err := ss.New(aSeq, bSeq, cSeq, dSeq, hp)
	if err != nil {
		return nil, err
	}

	out := &Ulft{sys: sys, deltas: deltas, dists: ff.dists, hp: hp}
	perf, err := block.NewPerformanceL2Gain(DefaultPerformanceName, block.PerformanceOptions{
		HorizonPeriod: hp,
	})
	if err != nil {
		return nil, err
	}
	return out.AddPerformance(perf)
}

// Blkdiag forms the decoupled union of two Ulfts: independent exogenous
// channels, stacked. The second operand's selectors are re-indexed into the
// combined frame; empty "all channel" selectors are materialized first so
// they keep their original scope.
func Blkdiag(u1, u2 *Ulft) (*Ulft, error) {
	a, b, hp, err := alignPair(u1, u2)
	if err != nil {
		return nil, err
	}
	deltas, err := concatDeltas(a.deltas, b.deltas)
	if err != nil {
		return nil, err
	}

	aSeq := buildSeq(hp, func(t int) *mat.Dense {
		pa, pb := a.partsAt(t), b.partsAt(t)
		return grid([]int{pa.nNext, pb.nNext}, []int{pa.n, pb.n},
			[][]*mat.Dense{{pa.A, nil}, {nil, pb.A}})
	})
	bSeq := buildSeq(hp, func(t int) *mat.Dense {
		pa, pb := a.partsAt(t), b.partsAt(t)
		return grid([]int{pa.nNext, pb.nNext}, []int{pa.w, pb.w, pa.d, pb.d},
			[][]*mat.Dense{{pa.Bw, nil, pa.Bd, nil}, {nil, pb.Bw, nil, pb.Bd}})
	})
	cSeq := buildSeq(hp, func(t int) *mat.Dense {
		pa, pb := a.partsAt(t), b.partsAt(t)
		return grid([]int{pa.v, pb.v, pa.e, pb.e}, []int{pa.n, pb.n},
			[][]*mat.Dense{{pa.Cv, nil}, {nil, pb.Cv}, {pa.Ce, nil}, {nil, pb.Ce}})
	})
	dSeq := buildSeq(hp, func(t int) *mat.Dense {
		pa, pb := a.partsAt(t), b.partsAt(t)
		return grid([]int{pa.v, pb.v, pa.e, pb.e}, []int{pa.w, pb.w, pa.d, pb.d},
			[][]*mat.Dense{
				{pa.Dvw, nil, pa.Dvd, nil},
				{nil, pb.Dvw, nil, pb.Dvd},
				{pa.Dew, nil, pa.Ded, nil},
				{nil, pb.Dew, nil, pb.Ded},
			})
	})
	sys, err := ss.New(aSeq, bSeq, cSeq, dSeq, hp)
	if err != nil {
		return nil, err
	}

	dists := namedList[block.Disturbance]{}
	for _, d := range a.dists.items {
		fixed, err := d.WithChannels(reindex(d.Channels(), a.ExoInWidthAt, nil, hp))
		if err != nil {
			return nil, err
		}
		if dists, err = dists.add(fixed, func(x, y block.Disturbance) bool { return x.Equal(y) }); err != nil {
			return nil, err
		}
	}
	for _, d := range b.dists.items {
		shifted, err := d.WithChannels(reindex(d.Channels(), b.ExoInWidthAt, a.ExoInWidthAt, hp))
		if err != nil {
			return nil, err
		}
		if dists, err = dists.add(shifted, func(x, y block.Disturbance) bool { return x.Equal(y) }); err != nil {
			return nil, err
		}
	}

	var aPerfs, bPerfs []block.Performance
	for _, p := range a.perfs.items {
		if p.Name() == DefaultPerformanceName {
			continue
		}
		fixed, err := p.WithChannels(
			reindex(p.OutChannels(), a.ExoOutWidthAt, nil, hp),
			reindex(p.InChannels(), a.ExoInWidthAt, nil, hp),
		)
		if err != nil {
			return nil, err
		}
		aPerfs = append(aPerfs, fixed)
	}
	for _, p := range b.perfs.items {
		if p.Name() == DefaultPerformanceName {
			continue
		}
		shifted, err := p.WithChannels(
			reindex(p.OutChannels(), b.ExoOutWidthAt, a.ExoOutWidthAt, hp),
			reindex(p.InChannels(), b.ExoInWidthAt, a.ExoInWidthAt, hp),
		)
		if err != nil {
			return nil, err
		}
		bPerfs = append(bPerfs, shifted)
	}
	perfs, err := combinePerformances(hp, aPerfs, bPerfs)
	if err != nil {
		return nil, err
	}
	return &Ulft{sys: sys, deltas: deltas, dists: dists, perfs: perfs, hp: hp}, nil
}

// reindex materializes an empty "all channels" selector against width and
// shifts every index by offset (nil offset means zero).
func reindex(chans period.Sequence[[]int], width, offset func(t int) int, hp period.HorizonPeriod) period.Sequence[[]int] {
	flat := make([][]int, hp.Total())
	for t := range flat {
		base := chans.At(t)
		if len(base) == 0 {
			base = make([]int, width(t))
			for i := range base {
				base[i] = i
			}
		}
		off := 0
		if offset != nil {
			off = offset(t)
		}
		shifted := make([]int, len(base))
		for i, c := range base {
			shifted[i] = c + off
		}
		flat[t] = shifted
	}
	s, _ := period.FromFlat(flat, hp)
	return s
}
