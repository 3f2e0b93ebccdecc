package dispatch

import (
	"context"

	"github.com/dshills/epicenter/internal/event"
)

// Pending is a dispatch running in the background.
// It owns its copy of the event, so the caller may stop waiting at any time
// without racing the listeners.
type Pending[T event.Event] struct {
	done chan struct{}
	ev   T
	err  error
}

// Go dispatches ev on a new goroutine and returns immediately.
func Go[T event.Event](ctx context.Context, d Dispatcher, ev T) *Pending[T] {
	p := &Pending[T]{
		done: make(chan struct{}),
		ev:   ev,
	}

	go func() {
		defer close(p.done)
		p.err = Dispatch(ctx, d, &p.ev)
	}()

	return p
}

// Done is closed when the dispatch has finished.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the dispatch finishes or ctx is done.
// It returns the mutated event on success and the zero value with the
// failure otherwise.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	var zero T

	select {
	case <-p.done:
		if p.err != nil {
			return zero, p.err
		}
		return p.ev, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
