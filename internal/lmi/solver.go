package lmi

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Status classifies a solve outcome.
type Status int

const (
	// StatusOptimal means a feasible point was found, with the objective
	// minimized to within the backend's tolerance when one is set.
	StatusOptimal Status = iota
	// StatusInfeasible means the backend certifies, to its tolerance, that
	// no assignment satisfies the constraints.
	StatusInfeasible
	// StatusFailed means the backend gave up without a verdict.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Solution is a solved assignment.
type Solution struct {
	Status    Status
	Objective float64
	Values    map[VarID]*mat.Dense
}

// Solver is a semidefinite-program backend.
type Solver interface {
	Solve(ctx context.Context, p *Program) (*Solution, error)
}

// ErrSolver is the sentinel every backend failure wraps.
var ErrSolver = errors.New("lmi: solver failure")

// SolverError reports an abnormal backend termination. An infeasible
// program is a verdict, not a SolverError.
type SolverError struct {
	Backend string
	Detail  string
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("lmi: %s: %s", e.Backend, e.Detail)
}

func (e *SolverError) Unwrap() error { return ErrSolver }

func solverErr(backend, format string, args ...any) error {
	return &SolverError{Backend: backend, Detail: fmt.Sprintf(format, args...)}
}
