package split

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers inputs a split cannot be computed from: no
	// participants, a non-positive total, an unknown policy or a missing
	// per-participant value.
	ErrInvalidInput = errors.New("invalid split input")

	// ErrValidationFailed is matched by every *ValidationError.
	ErrValidationFailed = errors.New("split validation failed")
)

// ValidationError carries the human readable rule that a set of shares broke.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Is lets callers test with errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
