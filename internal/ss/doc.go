// Package ss provides periodic discrete-time state-space realizations.
//
// A [StateSpace] holds the quadruple (A,B,C,D) as eventually-periodic
// sequences of gonum matrices:
//
//	x[t+1] = A[t] x[t] + B[t] u[t]
//	y[t]   = C[t] x[t] + D[t] u[t]
//
// State, input and output dimensions may vary with the time step; the
// constructor checks that dimensions chain correctly across steps and across
// the periodic wrap-around. Realizations are value objects: composition
// ([Series], [Sum], [Blkdiag]) and resampling always return new instances.
package ss
