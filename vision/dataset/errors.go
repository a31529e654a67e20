package dataset

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrPrecondition matches every PreconditionError via errors.Is.
var ErrPrecondition = errors.New("dataset layout precondition violated")

// PreconditionError reports that the extracted archive does not have the
// expected root/<archive dir>/{cat,dog} layout.
type PreconditionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *PreconditionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPrecondition.
func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// IntegrityError is returned after a full scan when the number of skipped
// files differs from the expected count.
type IntegrityError struct {
	Expected int
	Actual   int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("expected %d corrupt images, but found %d", e.Expected, e.Actual)
}
