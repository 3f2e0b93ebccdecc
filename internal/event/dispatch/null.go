package dispatch

import (
	"context"

	"github.com/dshills/epicenter/internal/event"
)

// NullDispatcher accepts listeners but never runs them.
// Dispatching through it always succeeds and leaves the event untouched.
type NullDispatcher struct {
	*core
}

// NewNullDispatcher creates a dispatcher that discards every event.
func NewNullDispatcher(opts ...Option) *NullDispatcher {
	o := buildOptions(opts)
	return &NullDispatcher{
		core: newCore(o),
	}
}

func (d *NullDispatcher) dispatch(_ context.Context, key event.Key, _ any) error {
	d.stats.dispatched.Add(1)
	d.stats.succeeded.Add(1)
	d.logger.Trace("event discarded", "event", key.String())
	return nil
}
