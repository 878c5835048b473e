package lifecycle

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition matches every *InvalidTransitionError via errors.Is.
var ErrInvalidTransition = errors.New("invalid status transition")

// ValidationError reports missing or malformed input. No state changes when
// it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lifecycle: %s %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a status change that is not the immediate
// successor of the current status.
type InvalidTransitionError struct {
	Kind Kind
	From string
	To   string
	Next string // the only accepted target; empty at the terminal status
}

func (e *InvalidTransitionError) Error() string {
	if e.Next == "" {
		return fmt.Sprintf("lifecycle: invalid %s status transition from %q to %q; %q is terminal", e.Kind, e.From, e.To, e.From)
	}
	return fmt.Sprintf("lifecycle: invalid %s status transition from %q to %q; valid transition: %q", e.Kind, e.From, e.To, e.Next)
}

// Is reports whether target is ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func required(field string) error {
	return &ValidationError{Field: field, Reason: "is required"}
}
