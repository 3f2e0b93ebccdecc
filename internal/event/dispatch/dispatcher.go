package dispatch

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/epicenter/internal/event"
)

// Dispatcher is implemented by SyncDispatcher, AsyncDispatcher and
// NullDispatcher. Listeners are registered with Listen and ListenAsync and
// events are dispatched with Dispatch, DispatchValue or Go.
type Dispatcher interface {
	// Registry returns the registry owned by the dispatcher.
	Registry() *event.Registry

	// Stats returns a snapshot of the dispatcher's counters.
	Stats() Stats

	register(key event.Key, h event.Handler, async bool) event.Registration
	dispatch(ctx context.Context, key event.Key, ev any) error
}

// Result represents the outcome of one listener invocation.
type Result struct {
	// Success is true if the listener completed without error or panic.
	Success bool

	// Error is the failure returned by the listener, the *event.PanicError
	// for a panic, or the context error for a skipped listener.
	Error error

	// Panicked is true if the listener panicked.
	Panicked bool

	// PanicValue is the value passed to panic(), if Panicked is true.
	PanicValue any

	// PanicStack is the stack trace at the point of panic.
	PanicStack []byte

	// Duration is how long the listener took to execute.
	Duration time.Duration

	// Skipped is true if the listener was not executed.
	Skipped bool
}

// IsSuccess returns true if the result indicates successful execution.
func (r Result) IsSuccess() bool {
	return r.Success && !r.Panicked && r.Error == nil
}

// IsError returns true if the listener returned a failure (not a panic).
func (r Result) IsError() bool {
	return r.Error != nil && !r.Panicked && !r.Skipped
}

// IsPanic returns true if the result indicates a panic.
func (r Result) IsPanic() bool {
	return r.Panicked
}

// PanicHandler is called when a listener panics during execution.
// It receives the event being processed, the panic value, and the stack trace.
type PanicHandler func(event any, panicValue any, stack []byte)

// defaultPanicHandler is a no-op panic handler. The panic is still
// reported to the dispatch caller as a failure.
func defaultPanicHandler(event any, panicValue any, stack []byte) {}

// invokeFunc runs a single listener entry.
type invokeFunc func(ctx context.Context, entry event.Entry, ev any) Result

// core is the state shared by every dispatcher variant.
type core struct {
	registry *event.Registry
	executor *Executor
	logger   hclog.Logger
	tracer   trace.Tracer
	stats    counters
}

func newCore(o options) *core {
	return &core{
		registry: event.NewRegistry(),
		executor: NewExecutor(
			WithExecutorPanicHandler(o.panicHandler),
			WithExecutorTracer(o.tracer),
		),
		logger: o.logger,
		tracer: o.tracer,
	}
}

// Registry returns the listener registry.
func (c *core) Registry() *event.Registry {
	return c.registry
}

// Stats returns dispatch statistics.
func (c *core) Stats() Stats {
	return c.stats.snapshot()
}

// ResetStats resets all statistics to zero.
func (c *core) ResetStats() {
	c.stats.reset()
}

func (c *core) register(key event.Key, h event.Handler, async bool) event.Registration {
	reg := c.registry.Add(key, h, async)
	c.logger.Trace("listener registered",
		"event", key.String(),
		"id", reg.ID,
		"position", reg.Position,
		"async", async,
	)
	return reg
}

// run drives one dispatch call. Listener i+1 is invoked only after listener
// i returned successfully; the first failure ends the call.
func (c *core) run(ctx context.Context, key event.Key, ev any, mode string, invoke invokeFunc) error {
	start := time.Now()
	c.stats.dispatched.Add(1)
	defer func() {
		c.stats.totalTimeNs.Add(time.Since(start).Nanoseconds())
	}()

	entries := c.registry.Entries(key)

	ctx, span := c.tracer.Start(ctx, "dispatch "+key.String(),
		trace.WithAttributes(
			attribute.String("event.type", key.String()),
			attribute.Int("event.listeners", len(entries)),
			attribute.String("dispatch.mode", mode),
		),
	)
	defer span.End()

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return c.skip(span, key, i, err)
		}

		result := invoke(ctx, entry, ev)
		if result.Skipped {
			return c.skip(span, key, i, result.Error)
		}
		c.stats.invoked.Add(1)

		switch {
		case result.Panicked:
			c.stats.panicked.Add(1)
			c.stats.failed.Add(1)
			c.logger.Error("listener panicked",
				"event", key.String(),
				"id", entry.ID,
				"position", i,
				"panic", result.PanicValue,
			)
			span.RecordError(result.Error)
			span.SetStatus(codes.Error, "listener panicked")
			return result.Error
		case !result.IsSuccess():
			c.stats.failed.Add(1)
			c.logger.Debug("listener failed",
				"event", key.String(),
				"id", entry.ID,
				"position", i,
				"error", result.Error,
			)
			span.RecordError(result.Error)
			span.SetStatus(codes.Error, "listener failed")
			return result.Error
		}
	}

	c.stats.succeeded.Add(1)
	return nil
}

func (c *core) skip(span trace.Span, key event.Key, position int, err error) error {
	c.stats.skipped.Add(1)
	c.logger.Debug("dispatch stopped before listener",
		"event", key.String(),
		"position", position,
		"error", err,
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, "dispatch stopped")
	return err
}

// Listen registers a listener for events of type T on d.
func Listen[T event.Event](d Dispatcher, fn event.Listener[T]) event.Registration {
	return d.register(event.KeyOf[T](), event.Erase(fn), false)
}

// ListenAsync registers an asynchronous listener for events of type T on d.
// A SyncDispatcher calls it inline with the dispatch context.
func ListenAsync[T event.Event](d Dispatcher, fn event.AsyncListener[T]) event.Registration {
	return d.register(event.KeyOf[T](), event.EraseAsync(fn), true)
}

// HasListeners reports whether any listener is registered for T on d.
func HasListeners[T event.Event](d Dispatcher) bool {
	return d.Registry().Has(event.KeyOf[T]())
}

// Dispatch runs every listener registered for T against ev, in registration
// order. The first failure stops the dispatch and is returned unchanged;
// ev then holds the mutations of the listeners that completed.
func Dispatch[T event.Event](ctx context.Context, d Dispatcher, ev *T) error {
	if ev == nil {
		return event.ErrNilEvent
	}
	return d.dispatch(ctx, event.KeyOf[T](), ev)
}

// DispatchValue dispatches a copy of ev and returns the mutated copy.
// On failure the zero value is returned with the failure.
func DispatchValue[T event.Event](ctx context.Context, d Dispatcher, ev T) (T, error) {
	if err := Dispatch(ctx, d, &ev); err != nil {
		var zero T
		return zero, err
	}
	return ev, nil
}
