package lua

import (
	"errors"
	"fmt"
)

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrFunctionNotFound is returned when the listener function is not defined.
	ErrFunctionNotFound = errors.New("lua function not found")

	// ErrRejected is the cause of a ScriptError for a script that returned
	// false (or nil and a message).
	ErrRejected = errors.New("rejected by script")

	// ErrInexactNumber is returned when an event holds an integer that a
	// Lua number (float64) cannot represent exactly.
	ErrInexactNumber = errors.New("integer not representable as lua number")
)

// ScriptError is the failure reported by a script listener.
type ScriptError struct {
	// Script is the script name, usually its file path.
	Script string

	// Function is the Lua function that was called.
	Function string

	// Message is the message returned by the script, if any.
	Message string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("script %s:%s: %s", e.Script, e.Function, e.Message)
	}
	return fmt.Sprintf("script %s:%s: %v", e.Script, e.Function, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
