package desktop

import "errors"

// Operations that cannot apply leave the tree unchanged and return one of
// these. None of them is fatal: callers treat ErrNotFound and
// ErrInvalidArgument as a no-op and ErrPersistence as a warning.
var (
	// ErrNotFound is returned when an id does not resolve, or resolves to the wrong kind.
	ErrNotFound = errors.New("desktop: entity not found")

	// ErrInvalidArgument is returned for empty names, root mutations, cycles, and empty clipboards.
	ErrInvalidArgument = errors.New("desktop: invalid argument")

	// ErrPersistence wraps load and save failures from the store.
	ErrPersistence = errors.New("desktop: persistence failure")
)

// IsNoop reports whether err only means the operation did not apply.
func IsNoop(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidArgument)
}
