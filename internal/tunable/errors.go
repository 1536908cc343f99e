package tunable

import (
	"errors"
	"fmt"
)

var (
	// ErrDeclaration marks a malformed search space: bad bounds or choices,
	// a default outside its range, invalid or colliding child names.
	ErrDeclaration = errors.New("invalid tunable declaration")

	// ErrRecursiveEvaluation is returned when a node's value depends on
	// itself, either through a cycle in the node tree or a Resolve that
	// reads its own Context.
	ErrRecursiveEvaluation = errors.New("recursive evaluation")

	// ErrStaleContext is returned when a Context is read after its Root
	// has been superseded by a newer round.
	ErrStaleContext = errors.New("stale context")

	// ErrInvalidAssignment is returned when an assignment value cannot be
	// used structurally, e.g. a repeat count outside the declared range.
	ErrInvalidAssignment = errors.New("invalid assignment")
)

func declarationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDeclaration, fmt.Sprintf(format, args...))
}
