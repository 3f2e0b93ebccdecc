package dispatch

import (
	"sync/atomic"
	"time"
)

// Stats contains statistics for a dispatcher.
type Stats struct {
	// Dispatched is the total number of dispatch calls.
	Dispatched uint64

	// Succeeded is the number of dispatch calls where every listener succeeded.
	Succeeded uint64

	// Failed is the number of dispatch calls stopped by a listener failure.
	Failed uint64

	// Panicked is the number of listeners that panicked.
	Panicked uint64

	// Skipped is the number of dispatch calls stopped before a listener
	// started (context done, dispatcher stopped).
	Skipped uint64

	// Invoked is the number of listener invocations.
	Invoked uint64

	// TotalDuration is the cumulative time spent in dispatch calls.
	TotalDuration time.Duration

	// AvgDuration is the average dispatch call duration.
	AvgDuration time.Duration
}

type counters struct {
	dispatched  atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	skipped     atomic.Uint64
	invoked     atomic.Uint64
	totalTimeNs atomic.Int64
}

// snapshot reads the counters without a lock, so values may be slightly
// inconsistent while dispatches are in flight.
func (c *counters) snapshot() Stats {
	dispatched := c.dispatched.Load()
	totalNs := c.totalTimeNs.Load()

	var avgNs int64
	if dispatched > 0 {
		avgNs = totalNs / int64(dispatched)
	}

	return Stats{
		Dispatched:    dispatched,
		Succeeded:     c.succeeded.Load(),
		Failed:        c.failed.Load(),
		Panicked:      c.panicked.Load(),
		Skipped:       c.skipped.Load(),
		Invoked:       c.invoked.Load(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}

func (c *counters) reset() {
	c.dispatched.Store(0)
	c.succeeded.Store(0)
	c.failed.Store(0)
	c.panicked.Store(0)
	c.skipped.Store(0)
	c.invoked.Store(0)
	c.totalTimeNs.Store(0)
}
