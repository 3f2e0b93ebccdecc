package dispatch

import "errors"

// Sentinel errors for the dispatch package.
var (
	// ErrAlreadyRunning is returned when Start is called on a running dispatcher.
	ErrAlreadyRunning = errors.New("dispatcher is already running")

	// ErrNotRunning is returned when an async dispatch is attempted on a stopped dispatcher.
	ErrNotRunning = errors.New("dispatcher is not running")
)
