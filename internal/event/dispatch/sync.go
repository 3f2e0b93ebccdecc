package dispatch

import (
	"context"

	"github.com/dshills/epicenter/internal/event"
)

// SyncDispatcher executes listeners in the caller's goroutine.
type SyncDispatcher struct {
	*core
}

// NewSyncDispatcher creates a new synchronous dispatcher with no listeners.
func NewSyncDispatcher(opts ...Option) *SyncDispatcher {
	o := buildOptions(opts)
	return &SyncDispatcher{
		core: newCore(o),
	}
}

func (d *SyncDispatcher) dispatch(ctx context.Context, key event.Key, ev any) error {
	return d.run(ctx, key, ev, "sync", d.executor.Execute)
}
