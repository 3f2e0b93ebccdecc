package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event package.
var (
	// ErrEventTypeMismatch is returned by an erased handler that receives an
	// event of a type other than the one it was registered for. Dispatchers
	// derive keys with KeyOf, so this is unreachable through them.
	ErrEventTypeMismatch = errors.New("event type does not match listener")

	// ErrNilEvent is returned when a nil event pointer is dispatched.
	ErrNilEvent = errors.New("event cannot be nil")

	// ErrListenerPanic is matched by errors.Is for every PanicError.
	ErrListenerPanic = errors.New("listener panicked")
)

// PanicError is the failure reported for a listener that panicked.
type PanicError struct {
	// RegistrationID identifies the listener that panicked.
	RegistrationID string

	// Event is the event type being dispatched.
	Event string

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("listener %s panicked handling %s: %v", e.RegistrationID, e.Event, e.Value)
}

// Is allows errors.Is to match PanicError with ErrListenerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrListenerPanic
}
