package block

import (
	"errors"
	"fmt"
)

// ErrConstruction indicates an invalid name, dimension or bound at block
// creation.
var ErrConstruction = errors.New("block: invalid construction")

// ConstructionError reports which block rejected its arguments and why.
type ConstructionError struct {
	Block  string
	Detail string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("block %q: %s", e.Block, e.Detail)
}

func (e *ConstructionError) Unwrap() error {
	return ErrConstruction
}

func constructionErr(name, format string, args ...any) error {
	return &ConstructionError{Block: name, Detail: fmt.Sprintf(format, args...)}
}
