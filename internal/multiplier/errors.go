package multiplier

import (
	"errors"
	"fmt"
)

// ErrPoleConstraint indicates a basis specification with illegal pole
// placement for the requested time domain.
var ErrPoleConstraint = errors.New("multiplier: illegal basis pole placement")

// PoleConstraintError reports which pole group is illegal and why.
type PoleConstraintError struct {
	Group  int
	Detail string
}

func (e *PoleConstraintError) Error() string {
	return fmt.Sprintf("multiplier: pole group %d: %s", e.Group, e.Detail)
}

func (e *PoleConstraintError) Unwrap() error {
	return ErrPoleConstraint
}

func poleErr(group int, format string, args ...any) error {
	return &PoleConstraintError{Group: group, Detail: fmt.Sprintf(format, args...)}
}
