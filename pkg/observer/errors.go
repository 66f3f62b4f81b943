package observer

import (
	"fmt"
	"strings"

	"github.com/aretw0/hangar/pkg/domain"
)

// Failure pairs a subscription with the error its callback produced.
type Failure struct {
	Handle Handle
	Err    error
}

// DispatchError aggregates the callback failures of one dispatch round.
type DispatchError struct {
	Kind     domain.EventKind
	Failures []Failure
}

func (e *DispatchError) Error() string {
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		return fmt.Sprintf("%s dispatch: observer %d: %v", e.Kind, f.Handle, f.Err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s dispatch: %d observers failed:", e.Kind, len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  observer %d: %v", f.Handle, f.Err)
	}
	return b.String()
}

// Unwrap exposes the individual callback errors to errors.Is and errors.As.
func (e *DispatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// PanicError is recorded when a callback panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("observer panicked: %v", e.Value)
}
