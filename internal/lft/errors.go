package lft

import (
	"errors"
	"fmt"
)

// ErrIncompatibleSpecification indicates colliding names with different
// structural definitions, or channel references outside the plant's
// declared dimensions.
var ErrIncompatibleSpecification = errors.New("lft: incompatible specification")

// IncompatibleSpecificationError reports which block clashed and how.
type IncompatibleSpecificationError struct {
	Block  string
	Detail string
}

func (e *IncompatibleSpecificationError) Error() string {
	if e.Block == "" {
		return fmt.Sprintf("lft: %s", e.Detail)
	}
	return fmt.Sprintf("lft: block %q: %s", e.Block, e.Detail)
}

func (e *IncompatibleSpecificationError) Unwrap() error {
	return ErrIncompatibleSpecification
}

func incompatibleErr(name, format string, args ...any) error {
	return &IncompatibleSpecificationError{Block: name, Detail: fmt.Sprintf(format, args...)}
}
