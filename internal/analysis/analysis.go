package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/lmittmann/tint"

	"github.com/Peragore/iqcToolbox/internal/block"
	"github.com/Peragore/iqcToolbox/internal/lft"
	"github.com/Peragore/iqcToolbox/internal/lmi"
	"github.com/Peragore/iqcToolbox/internal/multiplier"
	"github.com/Peragore/iqcToolbox/internal/period"
)

// Options configures one analysis run.
type Options struct {
	// Verbose enables progress diagnostics on stderr.
	Verbose bool

	// LmiShift is the strict-inequality margin added to every dissipation
	// step; must be nonnegative.
	LmiShift float64

	// Solver replaces the built-in backend.
	Solver lmi.Solver

	// Overrides supplies ready multipliers keyed by source block name,
	// trusted over the block's default construction. An override must fit
	// its namesake's time grid and channel widths.
	Overrides map[string]*multiplier.Multiplier

	// Logger replaces the verbose sink.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	if o.Verbose {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Analyze computes a worst-case performance bound for u. See the package
// documentation for the pipeline; the single blocking step is the solver
// call, which honors ctx.
func Analyze(ctx context.Context, u *lft.Ulft, opts Options) (*Result, error) {
	if u == nil {
		return nil, fmt.Errorf("analysis: system must be non-nil")
	}
	if opts.LmiShift < 0 {
		return nil, fmt.Errorf("analysis: lmi shift must be nonnegative, got %v", opts.LmiShift)
	}
	log := opts.logger()

	// Pair every block with a multiplier.
	mults, err := collect(u, opts.Overrides)
	if err != nil {
		return nil, err
	}

	// Reconcile every participant onto the merged grid.
	hps := []period.HorizonPeriod{u.HorizonPeriod()}
	for _, m := range mults {
		hps = append(hps, m.HorizonPeriod())
	}
	hp, err := period.Merge(hps...)
	if err != nil {
		return nil, err
	}
	aligned, err := u.MatchHorizonPeriod(hp)
	if err != nil {
		return nil, err
	}
	for i, m := range mults {
		if mults[i], err = m.MatchHorizonPeriod(hp); err != nil {
			return nil, err
		}
	}
	log.Debug("reconciled time grids", "horizon", hp.Horizon, "period", hp.Period)

	binds, err := place(aligned, mults)
	if err != nil {
		return nil, err
	}

	prog, lay, err := assemble(aligned, binds, opts.LmiShift)
	if err != nil {
		return nil, err
	}
	log.Debug("assembled program",
		"variables", len(prog.Variables()), "constraints", len(prog.Constraints()))

	solver := opts.Solver
	if solver == nil {
		solver = lmi.NewReference(lmi.Options{})
	}
	sol, err := solver.Solve(ctx, prog)
	if err != nil {
		// A misbehaving backend is a verdict, not a malformed input.
		log.Warn("solver failed", "err", err)
		return &Result{Valid: false, Performance: math.Inf(1), Status: lmi.StatusFailed}, nil
	}
	if sol.Status != lmi.StatusOptimal {
		log.Debug("no certificate", "status", sol.Status)
		return &Result{Valid: false, Performance: math.Inf(1), Status: sol.Status}, nil
	}

	res := &Result{
		Valid:       true,
		Performance: math.Sqrt(sol.Objective),
		Status:      sol.Status,
	}
	res.Certificate = lay.certificate(sol)
	res.Multipliers = lay.realized(sol)
	log.Debug("certified bound", "performance", res.Performance)
	return res, nil
}

// collect pairs every block of u with a multiplier, override first. The
// returned order is deltas, then disturbances, then performances, matching
// the channel partition.
func collect(u *lft.Ulft, overrides map[string]*multiplier.Multiplier) ([]*multiplier.Multiplier, error) {
	hp := u.HorizonPeriod()
	known := make(map[string]bool)
	var mults []*multiplier.Multiplier

	pick := func(name string, build func() (*multiplier.Multiplier, error)) error {
		known[name] = true
		if ov, ok := overrides[name]; ok {
			if ov == nil {
				return unsupportedErr(name, "override is nil")
			}
			mults = append(mults, ov)
			return nil
		}
		m, err := build()
		if err != nil {
			return unsupportedErr(name, "no default multiplier: %v", err)
		}
		mults = append(mults, m)
		return nil
	}

	for _, d := range u.Deltas() {
		req := block.MultiplierRequest{
			Discrete: true,
			OutDims:  d.InDims(),
			InDims:   d.OutDims(),
		}
		if err := pick(d.Name(), func() (*multiplier.Multiplier, error) { return d.ToMultiplier(req) }); err != nil {
			return nil, err
		}
	}
	for _, d := range u.Disturbances() {
		req := block.MultiplierRequest{
			Discrete: true,
			OutDims:  period.Constant(0, hp),
			InDims:   selWidths(d.Channels(), u.ExoInWidthAt, hp),
		}
		if err := pick(d.Name(), func() (*multiplier.Multiplier, error) { return d.ToMultiplier(req) }); err != nil {
			return nil, err
		}
	}
	for _, p := range u.Performances() {
		req := block.MultiplierRequest{
			Discrete: true,
			OutDims:  selWidths(p.OutChannels(), u.ExoOutWidthAt, hp),
			InDims:   selWidths(p.InChannels(), u.ExoInWidthAt, hp),
		}
		if err := pick(p.Name(), func() (*multiplier.Multiplier, error) { return p.ToMultiplier(req) }); err != nil {
			return nil, err
		}
	}

	for name := range overrides {
		if !known[name] {
			return nil, unsupportedErr(name, "override has no namesake block")
		}
	}
	return mults, nil
}

// binding ties a multiplier to the plant channels it consumes.
type binding struct {
	m *multiplier.Multiplier

	// ySel and uSel are plant output and input indices per step, in the
	// order the filter expects them.
	ySel period.Sequence[[]int]
	uSel period.Sequence[[]int]

	// vars maps the multiplier's local variables into the program.
	vars []lmi.VarID
}

// place computes the channel slices of each multiplier on the reconciled
// grid and validates the declared widths against them.
func place(u *lft.Ulft, mults []*multiplier.Multiplier) ([]*binding, error) {
	hp := u.HorizonPeriod()
	total := hp.Total()
	binds := make([]*binding, 0, len(mults))
	next := 0

	bindOne := func(ySel, uSel period.Sequence[[]int]) (*binding, error) {
		m := mults[next]
		next++
		for t := 0; t < total; t++ {
			if m.OutWidth.At(t) != len(ySel.At(t)) || m.InWidth.At(t) != len(uSel.At(t)) {
				return nil, unsupportedErr(m.Source,
					"multiplier consumes %dx%d channels at step %d, block slice is %dx%d",
					m.OutWidth.At(t), m.InWidth.At(t), t, len(ySel.At(t)), len(uSel.At(t)))
			}
		}
		return &binding{m: m, ySel: ySel, uSel: uSel}, nil
	}

	voff := make([]int, total)
	woff := make([]int, total)
	for _, d := range u.Deltas() {
		ySel := make([][]int, total)
		uSel := make([][]int, total)
		for t := 0; t < total; t++ {
			ySel[t] = contiguous(voff[t], d.InDims().At(t))
			uSel[t] = contiguous(woff[t], d.OutDims().At(t))
			voff[t] += d.InDims().At(t)
			woff[t] += d.OutDims().At(t)
		}
		b, err := bindOne(fromFlat(ySel, hp), fromFlat(uSel, hp))
		if err != nil {
			return nil, err
		}
		binds = append(binds, b)
	}

	for _, d := range u.Disturbances() {
		b, err := bindOne(
			period.Constant[[]int](nil, hp),
			shiftSel(d.Channels(), u.ExoInWidthAt, u.DeltaInWidthAt, hp),
		)
		if err != nil {
			return nil, err
		}
		binds = append(binds, b)
	}
	for _, p := range u.Performances() {
		b, err := bindOne(
			shiftSel(p.OutChannels(), u.ExoOutWidthAt, u.DeltaOutWidthAt, hp),
			shiftSel(p.InChannels(), u.ExoInWidthAt, u.DeltaInWidthAt, hp),
		)
		if err != nil {
			return nil, err
		}
		binds = append(binds, b)
	}
	return binds, nil
}

// selWidths resolves a channel selector into per-step widths; an empty
// selector covers the whole exogenous slice.
func selWidths(chans period.Sequence[[]int], width func(t int) int, hp period.HorizonPeriod) period.Sequence[int] {
	flat := make([]int, hp.Total())
	for t := range flat {
		if sel := chans.At(t); len(sel) > 0 {
			flat[t] = len(sel)
		} else {
			flat[t] = width(t)
		}
	}
	s, _ := period.FromFlat(flat, hp)
	return s
}

// shiftSel resolves a selector over the exogenous slice into absolute plant
// channel indices.
func shiftSel(chans period.Sequence[[]int], width, offset func(t int) int, hp period.HorizonPeriod) period.Sequence[[]int] {
	flat := make([][]int, hp.Total())
	for t := range flat {
		sel := chans.At(t)
		if len(sel) == 0 {
			sel = contiguous(0, width(t))
		}
		abs := make([]int, len(sel))
		for i, c := range sel {
			abs[i] = offset(t) + c
		}
		flat[t] = abs
	}
	s, _ := period.FromFlat(flat, hp)
	return s
}

func contiguous(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func fromFlat(flat [][]int, hp period.HorizonPeriod) period.Sequence[[]int] {
	s, _ := period.FromFlat(flat, hp)
	return s
}
