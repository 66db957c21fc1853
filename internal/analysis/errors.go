package analysis

import (
	"errors"
	"fmt"
)

// ErrUnsupportedUncertainty indicates a block that could not be paired with
// a multiplier: its default construction failed and no usable override was
// supplied, or the override does not fit the block.
var ErrUnsupportedUncertainty = errors.New("analysis: unsupported uncertainty")

// UnsupportedUncertaintyError names the offending block.
type UnsupportedUncertaintyError struct {
	Block  string
	Detail string
}

func (e *UnsupportedUncertaintyError) Error() string {
	return fmt.Sprintf("analysis: block %q: %s", e.Block, e.Detail)
}

func (e *UnsupportedUncertaintyError) Unwrap() error {
	return ErrUnsupportedUncertainty
}

func unsupportedErr(name, format string, args ...any) error {
	return &UnsupportedUncertaintyError{Block: name, Detail: fmt.Sprintf(format, args...)}
}
