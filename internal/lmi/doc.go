// Package lmi represents and solves the semidefinite feasibility programs
// the dissipation analysis produces.
//
// A [Program] declares matrix decision variables and affine semidefiniteness
// constraints of the form fixed + sum of Scale*L*X*R terms ⪯ 0, optionally
// with one scalar variable minimized as the objective. [Solver] abstracts
// the backend; [Reference] is the built-in one, combining bisection on the
// objective with subgradient feasibility search on the worst constraint
// eigenvalue. Failures surface as [SolverError].
package lmi
