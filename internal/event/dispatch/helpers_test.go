package dispatch

import (
	"context"
	"sync"

	"github.com/dshills/epicenter/internal/event"
)

type orderShipped struct {
	event.Base
	OrderID uint64
	Total   int
	Trail   []int
}

// orderCancelled has the same layout as orderShipped on purpose.
type orderCancelled struct {
	event.Base
	OrderID uint64
	Total   int
	Trail   []int
}

// recorder collects values from listeners that may run on worker goroutines.
type recorder struct {
	mu     sync.Mutex
	values []int
}

func (r *recorder) add(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) get() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.values))
	copy(out, r.values)
	return out
}

func testEntry(fn func(ctx context.Context, ev any) error) event.Entry {
	return event.Entry{
		ID:      "test-listener",
		Key:     event.KeyOf[orderShipped](),
		Handler: event.HandlerFunc(fn),
	}
}
