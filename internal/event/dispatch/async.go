package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/epicenter/internal/event"
)

// AsyncDispatcher executes listeners on a pool of worker goroutines.
//
// A dispatch call submits one listener at a time and waits for it to
// return before submitting the next, so the event is never touched by two
// goroutines at once. Separate dispatch calls run concurrently, bounded by
// the worker count.
//
// A listener must not dispatch on the same AsyncDispatcher and wait for the
// result when every worker may be busy.
type AsyncDispatcher struct {
	*core

	// Configuration
	queueSize   int
	workerCount int
	timeout     time.Duration

	// State
	lifecycle sync.RWMutex // guards queue against close during submit
	queue     chan asyncTask
	running   atomic.Bool
	wg        sync.WaitGroup
}

// asyncTask is one listener invocation handed to a worker.
type asyncTask struct {
	ctx   context.Context
	entry event.Entry
	event any
	done  chan<- Result
}

// NewAsyncDispatcher creates a new asynchronous dispatcher.
// Start must be called before events are dispatched.
func NewAsyncDispatcher(opts ...Option) *AsyncDispatcher {
	o := buildOptions(opts)
	return &AsyncDispatcher{
		core:        newCore(o),
		queueSize:   o.queueSize,
		workerCount: o.workerCount,
		timeout:     o.listenerTimeout,
	}
}

// Start starts the worker pool.
func (d *AsyncDispatcher) Start() error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if d.running.Load() {
		return ErrAlreadyRunning
	}

	d.queue = make(chan asyncTask, d.queueSize)
	d.running.Store(true)

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	d.logger.Debug("async dispatcher started", "workers", d.workerCount, "queue", d.queueSize)
	return nil
}

// Stop stops the worker pool gracefully.
// Listeners already submitted run to completion; Stop waits for them or
// until ctx is done.
func (d *AsyncDispatcher) Stop(ctx context.Context) error {
	d.lifecycle.Lock()
	if !d.running.Load() {
		d.lifecycle.Unlock()
		return ErrNotRunning
	}

	d.running.Store(false)
	close(d.queue)
	d.lifecycle.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Debug("async dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns true if the dispatcher is running.
func (d *AsyncDispatcher) IsRunning() bool {
	return d.running.Load()
}

// QueueDepth returns the current number of tasks in the queue.
func (d *AsyncDispatcher) QueueDepth() int {
	d.lifecycle.RLock()
	defer d.lifecycle.RUnlock()

	if !d.running.Load() {
		return 0
	}
	return len(d.queue)
}

func (d *AsyncDispatcher) worker() {
	defer d.wg.Done()

	for task := range d.queue {
		task.done <- d.executor.ExecuteWithTimeout(task.ctx, task.entry, task.event, d.timeout)
	}
}

func (d *AsyncDispatcher) dispatch(ctx context.Context, key event.Key, ev any) error {
	if !d.running.Load() {
		return ErrNotRunning
	}
	return d.run(ctx, key, ev, "async", d.submit)
}

// DispatchAsync is Dispatch restricted to the worker pool: each listener of
// T runs on a pool goroutine, strictly one after another, while the caller
// waits.
func DispatchAsync[T event.Event](ctx context.Context, d *AsyncDispatcher, ev *T) error {
	return Dispatch(ctx, d, ev)
}

// submit hands one listener to the pool and waits for its result.
// Once the task is queued the wait is unconditional: the listener owns the
// event until it returns.
func (d *AsyncDispatcher) submit(ctx context.Context, entry event.Entry, ev any) Result {
	done := make(chan Result, 1)
	task := asyncTask{
		ctx:   ctx,
		entry: entry,
		event: ev,
		done:  done,
	}

	d.lifecycle.RLock()
	if !d.running.Load() {
		d.lifecycle.RUnlock()
		return Result{Error: ErrNotRunning, Skipped: true}
	}

	select {
	case d.queue <- task:
	case <-ctx.Done():
		d.lifecycle.RUnlock()
		return Result{Error: ctx.Err(), Skipped: true}
	}
	d.lifecycle.RUnlock()

	return <-done
}
