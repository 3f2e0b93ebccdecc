package event

import "context"

// Handler is the type-erased form every listener is stored as.
// The event parameter is always a *T for the key the handler was
// registered under.
type Handler interface {
	Handle(ctx context.Context, event any) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, event any) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, event any) error {
	return f(ctx, event)
}

// Listener handles an event of type T synchronously. It may mutate the
// event; a non-nil error stops the dispatch and is returned to the caller.
type Listener[T Event] func(ev *T) error

// AsyncListener handles an event of type T as a computation that may block
// (I/O, waiting on other goroutines). The dispatcher waits for it to return
// before invoking the next listener.
type AsyncListener[T Event] func(ctx context.Context, ev *T) error

// Erase converts a typed listener into a Handler.
func Erase[T Event](fn Listener[T]) Handler {
	return HandlerFunc(func(_ context.Context, ev any) error {
		e, ok := ev.(*T)
		if !ok {
			return ErrEventTypeMismatch
		}
		return fn(e)
	})
}

// EraseAsync converts a typed asynchronous listener into a Handler.
func EraseAsync[T Event](fn AsyncListener[T]) Handler {
	return HandlerFunc(func(ctx context.Context, ev any) error {
		e, ok := ev.(*T)
		if !ok {
			return ErrEventTypeMismatch
		}
		return fn(ctx, e)
	})
}
