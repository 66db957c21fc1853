package period

import (
	"errors"
	"fmt"
)

// ErrConsistency indicates a horizon-period that does not match the data it
// claims to describe, or a resample target the current grid cannot reach.
var ErrConsistency = errors.New("period: horizon_period inconsistent")

// ConsistencyError reports which operation found the mismatch and why.
type ConsistencyError struct {
	Op     string
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("period: %s: %s", e.Op, e.Detail)
}

func (e *ConsistencyError) Unwrap() error {
	return ErrConsistency
}

func consistencyErr(op, format string, args ...any) error {
	return &ConsistencyError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
