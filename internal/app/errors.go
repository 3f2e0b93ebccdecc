package app

import (
	"errors"
)

// Application errors.
var (
	// ErrKindRequired is returned when a document has no kind.
	ErrKindRequired = errors.New("document kind is required")

	// ErrJournalDisabled is returned when the journal is queried but no
	// journal path is configured.
	ErrJournalDisabled = errors.New("journal is not configured")
)

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
